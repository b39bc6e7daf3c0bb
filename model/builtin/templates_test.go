package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/composer/model"
)

func TestTemplates_Valid(t *testing.T) {
	seen := map[string]bool{}
	for _, template := range Templates() {
		assert.NoError(t, template.Validate(), template.ID)
		assert.False(t, seen[template.ID], template.ID)
		seen[template.ID] = true
	}
	assert.Len(t, seen, 4)
}

func TestFullDueDiligence_ReferencesBuiltins(t *testing.T) {
	for _, component := range FullDueDiligence().Components {
		id, ok := component.NestedTemplateID()
		assert.True(t, ok, component.ID)
		assert.Contains(t, []string{KYCComplianceID, RiskAssessmentID, DataIntegrityID}, id)
	}
	_, ok := FullDueDiligence().Aggregation.(model.Weighted)
	assert.True(t, ok)
}
