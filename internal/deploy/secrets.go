package deploy

import (
	"context"
	"fmt"

	"github.com/iksnae/databricks-chatbot/internal"
	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

// SecretMeta is one entry of `secrets list-secrets`
type SecretMeta struct {
	Key                  string `json:"key"`
	LastUpdatedTimestamp int64  `json:"last_updated_timestamp"`
}

// ListSecrets returns the secret keys in scope. Values are never read.
func ListSecrets(ctx context.Context, runner workspace.Runner, scope string) ([]SecretMeta, error) {
	res, err := runner.Run(ctx, []string{"secrets", "list-secrets", scope, "--output", "json"}, "")
	if err != nil {
		return nil, err
	}
	data, err := workspace.ExtractJSON(res.Stdout)
	if err != nil {
		return nil, nil
	}
	var secrets []SecretMeta
	if data[0] == '[' {
		if err := workspace.DecodeJSON(string(data), &secrets); err != nil {
			return nil, err
		}
		return secrets, nil
	}
	var wrapped struct {
		Secrets []SecretMeta `json:"secrets"`
	}
	if err := workspace.DecodeJSON(string(data), &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Secrets, nil
}

// SecretExists reports whether key is already stored in scope
func SecretExists(ctx context.Context, runner workspace.Runner, scope, key string) (bool, error) {
	secrets, err := ListSecrets(ctx, runner, scope)
	if err != nil {
		return false, err
	}
	for _, s := range secrets {
		if s.Key == key {
			return true, nil
		}
	}
	return false, nil
}

// confirmOverwrite checks for an existing secret before the put-secret
// step. keep means the stored value stays; asked means the operator has
// already answered for this step.
func (o *Orchestrator) confirmOverwrite(ctx context.Context, t *Target, action Action) (keep, asked bool, err error) {
	if action.Step != StepPutSecret || o.DryRun {
		return false, false, nil
	}
	found, err := SecretExists(ctx, o.Runner, t.ScopeName, t.SecretKey)
	if err != nil {
		internal.LogDebug("Could not list secrets in %s: %v", t.ScopeName, err)
		return false, false, nil
	}
	if !found {
		return false, false, nil
	}

	if !o.Interactive || o.Confirm == nil {
		internal.FprintWarning(o.out(), fmt.Sprintf("Secret '%s' already exists in scope '%s', overwriting", t.SecretKey, t.ScopeName))
		return false, false, nil
	}
	ok, err := o.Confirm.Confirm(fmt.Sprintf("Secret '%s' already exists in scope '%s'. Overwrite it?", t.SecretKey, t.ScopeName))
	if err != nil {
		return false, true, fmt.Errorf("confirmation failed: %w", err)
	}
	if !ok {
		internal.FprintSuccess(o.out(), fmt.Sprintf("Keeping existing secret '%s'", t.SecretKey))
		return true, true, nil
	}
	return false, true, nil
}

// ACL is one entry of `secrets list-acls`
type ACL struct {
	Principal  string `json:"principal"`
	Permission string `json:"permission"`
}

// ListACLs returns the access rules on scope
func ListACLs(ctx context.Context, runner workspace.Runner, scope string) ([]ACL, error) {
	res, err := runner.Run(ctx, []string{"secrets", "list-acls", scope, "--output", "json"}, "")
	if err != nil {
		return nil, err
	}
	data, err := workspace.ExtractJSON(res.Stdout)
	if err != nil {
		return nil, nil
	}
	var acls []ACL
	if data[0] == '[' {
		if err := workspace.DecodeJSON(string(data), &acls); err != nil {
			return nil, err
		}
		return acls, nil
	}
	var wrapped struct {
		Items []ACL `json:"items"`
	}
	if err := workspace.DecodeJSON(string(data), &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Items, nil
}

// checkScopeACL warns when a reused scope lists no MANAGE grant. The
// secret write that follows would likely be refused.
func (o *Orchestrator) checkScopeACL(ctx context.Context, scope string) {
	acls, err := ListACLs(ctx, o.Runner, scope)
	if err != nil || len(acls) == 0 {
		internal.LogDebug("No ACLs read on %s: %v", scope, err)
		return
	}
	for _, a := range acls {
		if a.Permission == "MANAGE" {
			return
		}
	}
	internal.FprintWarning(o.out(), fmt.Sprintf("No MANAGE permission found on scope '%s'; writing the secret may fail", scope))
}
