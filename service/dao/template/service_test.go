package template

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/model"
	"github.com/viant/composer/model/builtin"
)

func sample(id string) *model.CompositionTemplate {
	return &model.CompositionTemplate{
		ID:   id,
		Name: "Sample " + id,
		Components: []*model.ProofComponent{
			{ID: "a", ToolName: "tool-a", Parameters: map[string]interface{}{"k": "v"}},
			{ID: "b", ToolName: "tool-b", Dependencies: []string{"a"}},
		},
		Aggregation: model.AllRequired{},
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		description string
		template    *model.CompositionTemplate
		expectErr   error
	}{
		{description: "valid", template: sample("s1")},
		{description: "missing name", template: &model.CompositionTemplate{ID: "x", Components: sample("x").Components, Aggregation: model.AllRequired{}}, expectErr: model.ErrInvalidTemplate},
		{description: "missing components", template: &model.CompositionTemplate{ID: "x", Name: "x", Aggregation: model.AllRequired{}}, expectErr: model.ErrInvalidTemplate},
		{description: "missing aggregation", template: &model.CompositionTemplate{ID: "x", Name: "x", Components: sample("x").Components}, expectErr: model.ErrInvalidTemplate},
		{
			description: "cycle",
			template: &model.CompositionTemplate{ID: "x", Name: "x", Aggregation: model.AllRequired{}, Components: []*model.ProofComponent{
				{ID: "a", ToolName: "t", Dependencies: []string{"b"}},
				{ID: "b", ToolName: "t", Dependencies: []string{"a"}},
			}},
			expectErr: model.ErrDependency,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			srv := New()
			err := srv.Register(ctx, tc.template)
			if tc.expectErr != nil {
				assert.True(t, errors.Is(err, tc.expectErr), err)
				assert.Equal(t, 0, srv.Len())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, srv.Len())
		})
	}
}

func TestService_GetIsolation(t *testing.T) {
	ctx := context.Background()
	srv := New()
	original := sample("s1")
	require.NoError(t, srv.Register(ctx, original))
	original.Components[0].Parameters["k"] = "changed"

	first, err := srv.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v", first.Components[0].Parameters["k"])
	first.Components[0].ID = "mutated"

	second, err := srv.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", second.Components[0].ID)

	_, err = srv.Get(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrTemplateNotFound)
}

func TestService_All(t *testing.T) {
	ctx := context.Background()
	srv := New()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, srv.Register(ctx, sample(id)))
	}
	ids := func() []string {
		var ret []string
		for t := range srv.All() {
			ret = append(ret, t.ID)
		}
		return ret
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids())
	assert.Equal(t, []string{"a", "b", "c"}, ids())

	for t := range srv.All() {
		if t.ID == "a" {
			break
		}
	}
	assert.True(t, srv.Delete(ctx, "b"))
	assert.False(t, srv.Delete(ctx, "b"))
	assert.Equal(t, []string{"a", "c"}, ids())
}

func TestNewWithBuiltins(t *testing.T) {
	srv, err := NewWithBuiltins(context.Background())
	require.NoError(t, err)
	var ids []string
	for t := range srv.All() {
		ids = append(ids, t.ID)
	}
	expect := []string{builtin.DataIntegrityID, builtin.FullDueDiligenceID, builtin.KYCComplianceID, builtin.RiskAssessmentID}
	assert.Equal(t, expect, ids)
	assert.Len(t, slices.Collect(srv.All()), 4)
}
