// Package shell executes proof tools as shell commands through gosh, either
// locally or on a remote host over SSH.
package shell

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/composer/service/cache"
	"github.com/viant/composer/service/executor"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds a command when neither the tool nor the context does.
const DefaultTimeout = time.Minute

var _ executor.ToolExecutor = (*Service)(nil)

// Service runs shell tools. Each gosh session is a single shell, so sessions
// are pooled per tool and a session serves one command at a time.
type Service struct {
	tools map[string]*Tool
	mux   sync.Mutex
	idle  map[string][]*gosh.Service
}

// New creates a service for the configured tools.
func New(config *Config) (*Service, error) {
	if config == nil {
		config = &Config{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{tools: map[string]*Tool{}, idle: map[string][]*gosh.Service{}}
	for _, tool := range config.Tools {
		ret.tools[tool.Name] = tool
	}
	return ret, nil
}

// Tools returns the configured tool names.
func (s *Service) Tools() []string {
	ret := make([]string, 0, len(s.tools))
	for name := range s.tools {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// Execute implements executor.ToolExecutor. A zero exit status is a
// successful verification, any other status a failed one.
func (s *Service) Execute(ctx context.Context, toolName string, params map[string]interface{}) (*executor.ToolResult, error) {
	tool, ok := s.tools[toolName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", executor.ErrToolNotFound, toolName)
	}
	command, err := Command(tool, params)
	if err != nil {
		return nil, err
	}
	session, err := s.acquire(ctx, tool)
	if err != nil {
		return nil, fmt.Errorf("failed to get session for %s: %w", toolName, err)
	}
	timeout := time.Duration(tool.Timeout)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	started := time.Now()
	stdout, status, err := session.Run(ctx, command, runner.WithTimeout(int(timeout.Milliseconds())))
	if err == nil && time.Since(started) > timeout {
		err = fmt.Errorf("command %s timed out after %s", toolName, time.Since(started))
	}
	if err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("failed to run %s: %w", toolName, err)
	}
	s.release(tool, session)

	stdout = strings.TrimSpace(stdout)
	result := &executor.ToolResult{
		Success: status == 0,
		Output:  map[string]interface{}{"stdout": stdout, "status": status},
	}
	if result.Success {
		result.ZKProofGenerated = tool.ProofMarker == "" || strings.Contains(stdout, tool.ProofMarker)
	} else {
		result.Error = fmt.Sprintf("exit status %d: %s", status, stdout)
	}
	return result, nil
}

// Command renders the tool command with single-quoted parameter values.
// Shell expansions such as ${HOME} are kept as written.
func Command(tool *Tool, params map[string]interface{}) (string, error) {
	quoted := make(map[string]interface{}, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		quoted[k] = quote(fmt.Sprint(v))
	}
	command, unresolved := cache.ResolveCommand(tool.Command, quoted)
	if len(unresolved) > 0 {
		return "", fmt.Errorf("shell tool %s: missing parameters: %s", tool.Name, strings.Join(unresolved, ", "))
	}
	if tool.Directory != "" {
		command = "cd " + quote(tool.Directory) + " && " + command
	}
	return command, nil
}

func quote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

func (s *Service) acquire(ctx context.Context, tool *Tool) (*gosh.Service, error) {
	s.mux.Lock()
	if pool := s.idle[tool.Name]; len(pool) > 0 {
		session := pool[len(pool)-1]
		s.idle[tool.Name] = pool[:len(pool)-1]
		s.mux.Unlock()
		return session, nil
	}
	s.mux.Unlock()

	var options []runner.Option
	if len(tool.Env) > 0 {
		options = append(options, runner.WithEnvironment(tool.Env))
	}
	host := tool.Host
	if host == "" || url.Host(host) == LocalHost || host == LocalHost {
		return gosh.New(ctx, local.New(options...))
	}
	config, err := sshConfig(ctx, tool)
	if err != nil {
		return nil, fmt.Errorf("failed to get SSH config: %w", err)
	}
	sshHost := url.Host(host)
	if !strings.Contains(sshHost, ":") {
		sshHost += ":22"
	}
	return gosh.New(ctx, rssh.New(sshHost, config, options...))
}

func (s *Service) release(tool *Tool, session *gosh.Service) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.idle[tool.Name] = append(s.idle[tool.Name], session)
}

func sshConfig(ctx context.Context, tool *Tool) (*ssh.ClientConfig, error) {
	credentials := tool.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	generic, err := secret.New().GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all idle sessions.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for name, pool := range s.idle {
		for _, session := range pool {
			if err := session.Close(); err != nil {
				errs = append(errs, fmt.Sprintf("failed to close session %s: %v", name, err))
			}
		}
	}
	s.idle = map[string][]*gosh.Service{}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
