package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer"
	"github.com/viant/composer/runtime/execution"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Commit: "abc", Date: "today"})
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	testCases := []struct {
		description string
		pairs       []string
		expect      map[string]interface{}
		expectErr   bool
	}{
		{description: "none"},
		{
			description: "typed scalars",
			pairs:       []string{"companyName=Acme Corp", "amount=1200", "ratio=0.5", "strict=true"},
			expect:      map[string]interface{}{"companyName": "Acme Corp", "amount": 1200, "ratio": 0.5, "strict": true},
		},
		{description: "value with equals", pairs: []string{"query=a=b"}, expect: map[string]interface{}{"query": "a=b"}},
		{description: "structured value kept as text", pairs: []string{"list=[1,2]"}, expect: map[string]interface{}{"list": "[1,2]"}},
		{description: "missing separator", pairs: []string{"companyName"}, expectErr: true},
		{description: "empty name", pairs: []string{"=x"}, expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			actual, err := parseParams(tc.pairs)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestRun_Simulated(t *testing.T) {
	testCases := []struct {
		description   string
		args          []string
		expectVerdict execution.Verdict
		expectPassed  int
		expectErr     bool
	}{
		{
			description:   "all tools pass",
			args:          []string{"run", "-o", "json", "--simulate", "-t", "data-integrity", "-p", "documentId=doc-1"},
			expectVerdict: execution.VerdictPass,
			expectPassed:  3,
		},
		{
			description:   "one failing verification",
			args:          []string{"run", "-o", "json", "--simulate", "--fail", "digital-signature-verification", "-t", "data-integrity", "-p", "documentId=doc-1"},
			expectVerdict: execution.VerdictPartial,
			expectPassed:  2,
		},
		{
			description:   "no tools configured",
			args:          []string{"run", "-o", "json", "--max-retries", "0", "-t", "data-integrity"},
			expectVerdict: execution.VerdictError,
			expectErr:     true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			out, err := execute(t, tc.args...)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			result := &composer.Result{}
			require.NoError(t, json.Unmarshal([]byte(out), result))
			assert.Equal(t, tc.expectVerdict, result.OverallVerdict)
			assert.Equal(t, tc.expectPassed, result.AggregatedResult.PassedComponents)
		})
	}
}

func TestRun_Composition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "composition.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`components:
  - id: a
    toolName: tool-a
  - id: b
    toolName: tool-b
    dependencies: [a]
aggregation:
  type: MAJORITY
`), 0o644))

	out, err := execute(t, "run", "-o", "json", "--simulate", "--fail", "tool-b", "--composition", path)
	require.NoError(t, err)
	result := &composer.Result{}
	require.NoError(t, json.Unmarshal([]byte(out), result))
	assert.Equal(t, "custom", result.TemplateID)
	assert.Equal(t, execution.VerdictPass, result.OverallVerdict)
	assert.Equal(t, 1, result.AggregatedResult.FailedComponents)
	require.Len(t, result.ComponentResults, 2)
	assert.Equal(t, "a", result.ComponentResults[0].ComponentID)

	_, err = execute(t, "run", "--simulate", "--composition", path, "-t", "data-integrity")
	assert.Error(t, err)
}

func TestTemplates(t *testing.T) {
	out, err := execute(t, "templates", "list")
	require.NoError(t, err)
	for _, id := range []string{"kyc-compliance", "risk-assessment", "data-integrity", "full-due-diligence"} {
		assert.Contains(t, out, id)
	}

	out, err = execute(t, "templates", "show", "risk-assessment")
	require.NoError(t, err)
	assert.Contains(t, out, "credit-risk-assessment")
	assert.Contains(t, out, "WEIGHTED")

	_, err = execute(t, "templates", "show", "missing")
	assert.Error(t, err)

	dir := t.TempDir()
	valid := filepath.Join(dir, "valid.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`id: audit-trail
name: Audit trail
components:
  - id: hash
    toolName: document-hash-verification
aggregation:
  type: ALL_REQUIRED
`), 0o644))
	out, err = execute(t, "templates", "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "audit-trail: ok (1 components)")

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte(`id: cyclic
name: Cyclic
components:
  - id: a
    toolName: x
    dependencies: [b]
  - id: b
    toolName: y
    dependencies: [a]
aggregation:
  type: ALL_REQUIRED
`), 0o644))
	_, err = execute(t, "templates", "validate", invalid)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, composer.Version)
	assert.Contains(t, out, "abc")
}

func TestOutputFormat(t *testing.T) {
	_, err := execute(t, "templates", "list", "-o", "xml")
	assert.Error(t, err)
}
