package shell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/composer/service/executor"
)

func TestCommand(t *testing.T) {
	testCases := []struct {
		name      string
		tool      *Tool
		params    map[string]interface{}
		expect    string
		expectErr bool
	}{
		{
			name:   "quoted parameters",
			tool:   &Tool{Name: "gleif", Command: "verify-lei --name {companyName}"},
			params: map[string]interface{}{"companyName": "Acme's Bank"},
			expect: `verify-lei --name 'Acme'\''s Bank'`,
		},
		{
			name:   "directory",
			tool:   &Tool{Name: "hash", Command: "sha256sum {file}", Directory: "/tmp"},
			params: map[string]interface{}{"file": "doc.pdf"},
			expect: `cd '/tmp' && sha256sum 'doc.pdf'`,
		},
		{
			name:   "shell variables",
			tool:   &Tool{Name: "hash", Command: "cd ${HOME} && sha256sum {file} > $OUT_DIR/${file}.sum"},
			params: map[string]interface{}{"file": "doc.pdf"},
			expect: `cd ${HOME} && sha256sum 'doc.pdf' > $OUT_DIR/${file}.sum`,
		},
		{
			name:      "missing parameter",
			tool:      &Tool{Name: "gleif", Command: "verify-lei {lei}"},
			expectErr: true,
		},
		{
			name:      "missing parameter next to shell variable",
			tool:      &Tool{Name: "gleif", Command: "echo ${HOME} {lei}"},
			expectErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := Command(tc.tool, tc.params)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expect, actual)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{Tools: []*Tool{{Name: "a", Command: "true"}}}).Validate())
	assert.Error(t, (&Config{Tools: []*Tool{{Name: "a"}}}).Validate())
	assert.Error(t, (&Config{Tools: []*Tool{{Command: "true"}}}).Validate())
	assert.Error(t, (&Config{Tools: []*Tool{{Name: "a", Command: "true"}, {Name: "a", Command: "false"}}}).Validate())
}

func TestLoadConfig(t *testing.T) {
	location := filepath.Join(t.TempDir(), "tools.yaml")
	require.NoError(t, os.WriteFile(location, []byte(`tools:
  - name: gleif-lei-verification
    command: echo verified {companyName}
    proofMarker: verified
    timeout: 5s
  - name: ofac-sanctions-screening
    command: echo clear {companyName}
    timeout: 2500
`), 0644))
	config, err := LoadConfig(context.Background(), location)
	require.NoError(t, err)
	require.Len(t, config.Tools, 2)
	assert.Equal(t, "verified", config.Tools[0].ProofMarker)
	assert.Equal(t, 5*time.Second, time.Duration(config.Tools[0].Timeout))
	assert.Equal(t, 2500*time.Millisecond, time.Duration(config.Tools[1].Timeout))
}

func TestService_Execute(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash is required")
	}
	service, err := New(&Config{Tools: []*Tool{
		{Name: "pass", Command: "echo proof-ok {companyName}", ProofMarker: "proof-ok"},
		{Name: "fail", Command: "echo rejected; false"},
	}})
	require.NoError(t, err)
	defer service.Close()
	ctx := context.Background()

	result, err := service.Execute(ctx, "pass", map[string]interface{}{"companyName": "Acme"})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.ZKProofGenerated)

	result, err = service.Execute(ctx, "fail", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "exit status 1")

	_, err = service.Execute(ctx, "unknown", nil)
	assert.True(t, errors.Is(err, executor.ErrToolNotFound))
}
