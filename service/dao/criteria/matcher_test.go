package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/composer/service/dao"
)

func TestMatch(t *testing.T) {
	fields := map[string]string{Status: "COMPLETED", TemplateID: "kyc-compliance"}
	testCases := []struct {
		description string
		parameters  []*dao.Parameter
		expect      bool
	}{
		{description: "no parameters", expect: true},
		{description: "single value", parameters: []*dao.Parameter{dao.NewParameter(Status, "COMPLETED")}, expect: true},
		{description: "single value mismatch", parameters: []*dao.Parameter{dao.NewParameter(Status, "RUNNING")}, expect: false},
		{description: "any of values", parameters: []*dao.Parameter{dao.NewParameter(Status, "RUNNING", "COMPLETED")}, expect: true},
		{description: "every parameter", parameters: []*dao.Parameter{dao.NewParameter(Status, "COMPLETED"), dao.NewParameter(TemplateID, "risk-assessment")}, expect: false},
		{description: "unknown field ignored", parameters: []*dao.Parameter{dao.NewParameter("Owner", "x")}, expect: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expect, Match(fields, tc.parameters))
		})
	}
}
