// Package credentials resolves the OpenAI API key from workspace secrets or
// the environment.
package credentials

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

// EnvKey is the environment variable holding the API key
const EnvKey = "OPENAI_API_KEY"

// ErrCredentialMissing is returned when no source yields an API key
var ErrCredentialMissing = errors.New("OpenAI API key not found. Please set it either in Databricks secrets or as an environment variable OPENAI_API_KEY")

// Provider resolves an API key
type Provider interface {
	APIKey(ctx context.Context) (string, error)
	Name() string
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(string) (string, bool)

// EnvProvider reads the key from the process environment. Configured holds
// the key already loaded into the application config and wins when set.
type EnvProvider struct {
	Key        string
	Lookup     LookupFunc
	Configured string
}

// NewEnvProvider prefers the configured key and falls back to
// OPENAI_API_KEY from os.LookupEnv
func NewEnvProvider(configured string) *EnvProvider {
	return &EnvProvider{Key: EnvKey, Lookup: os.LookupEnv, Configured: configured}
}

func (p *EnvProvider) Name() string { return "environment" }

func (p *EnvProvider) APIKey(ctx context.Context) (string, error) {
	if v := strings.TrimSpace(p.Configured); v != "" {
		return v, nil
	}
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	key := p.Key
	if key == "" {
		key = EnvKey
	}
	if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	return "", ErrCredentialMissing
}

// WorkspaceSecretProvider reads the key from a secret scope via the CLI
type WorkspaceSecretProvider struct {
	Runner workspace.Runner
	Scope  string
	Key    string
}

func (p *WorkspaceSecretProvider) Name() string {
	return fmt.Sprintf("secret %s/%s", p.Scope, p.Key)
}

type secretValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (p *WorkspaceSecretProvider) APIKey(ctx context.Context) (string, error) {
	res, err := p.Runner.Run(ctx, []string{"secrets", "get-secret", p.Scope, p.Key, "--output", "json"}, "")
	if err != nil {
		if workspace.IsNotFound(err) {
			return "", ErrCredentialMissing
		}
		return "", fmt.Errorf("failed to read %s: %w", p.Name(), err)
	}

	var secret secretValue
	if err := workspace.DecodeJSON(res.Stdout, &secret); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", p.Name(), err)
	}
	decoded, err := base64.StdEncoding.DecodeString(secret.Value)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", p.Name(), err)
	}
	value := strings.TrimSpace(string(decoded))
	if value == "" {
		return "", ErrCredentialMissing
	}
	return value, nil
}

// Chain tries each provider in order and returns the first key found
type Chain []Provider

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ", ")
}

func (c Chain) APIKey(ctx context.Context) (string, error) {
	for _, p := range c {
		key, err := p.APIKey(ctx)
		if err == nil {
			internal.LogDebug("API key resolved from %s", p.Name())
			return key, nil
		}
		internal.LogDebug("No API key from %s: %v", p.Name(), err)
	}
	return "", ErrCredentialMissing
}

// InWorkspace reports whether the process runs inside a Databricks runtime
func InWorkspace(lookup LookupFunc) bool {
	for _, key := range []string{"DATABRICKS_RUNTIME_VERSION", "DATABRICKS_APP_NAME"} {
		if v, ok := lookup(key); ok && v != "" {
			return true
		}
	}
	return false
}

// ForRuntime returns secrets-then-environment inside a workspace and the
// environment alone elsewhere. configured is the key from the loaded config.
func ForRuntime(lookup LookupFunc, runner workspace.Runner, scope, key, configured string) Provider {
	env := &EnvProvider{Key: EnvKey, Lookup: lookup, Configured: configured}
	if !InWorkspace(lookup) || runner == nil {
		return env
	}
	return Chain{&WorkspaceSecretProvider{Runner: runner, Scope: scope, Key: key}, env}
}
