package shell

import (
	"bytes"
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/composer/model"
	"gopkg.in/yaml.v3"
)

// LocalHost marks tools executed on the local machine.
const LocalHost = "localhost"

// Tool maps a proof tool name to a shell command. Command may reference
// merged component parameters as {name}; values are single-quoted.
type Tool struct {
	Name      string            `json:"name" yaml:"name"`
	Command   string            `json:"command" yaml:"command"`
	Directory string            `json:"directory,omitempty" yaml:"directory,omitempty"`
	Env       map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	// Host is localhost (default) or ssh://host[:port].
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Credentials names the scy secret resource holding SSH credentials.
	Credentials string `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	// Timeout is milliseconds or a duration string such as "5s".
	Timeout model.Millis `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// ProofMarker, when set, must appear in stdout for a proof to count as generated.
	ProofMarker string `json:"proofMarker,omitempty" yaml:"proofMarker,omitempty"`
}

// Config lists shell tools.
type Config struct {
	Tools []*Tool `json:"tools" yaml:"tools"`
}

// Validate checks tool definitions.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i, tool := range c.Tools {
		if tool == nil || tool.Name == "" {
			return fmt.Errorf("shell tool[%d]: name is required", i)
		}
		if tool.Command == "" {
			return fmt.Errorf("shell tool %s: command is required", tool.Name)
		}
		if seen[tool.Name] {
			return fmt.Errorf("shell tool %s: duplicate name", tool.Name)
		}
		seen[tool.Name] = true
	}
	return nil
}

// LoadConfig reads a YAML tool configuration from any afs URL.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read shell tools %s: %w", URL, err)
	}
	ret := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(ret); err != nil {
		return nil, fmt.Errorf("failed to decode shell tools %s: %w", URL, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
