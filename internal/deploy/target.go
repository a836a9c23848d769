// Package deploy provisions and deploys the chatbot app to a Databricks
// workspace through the CLI.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/iksnae/databricks-chatbot/internal/workspace"
)

// DefaultSecretKey is the secret name the API key is stored under
const DefaultSecretKey = "openai_api_key"

var prefixInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// Target names everything a deployment touches
type Target struct {
	UserEmail     string
	AppName       string
	ScopeName     string
	SecretKey     string
	WorkspacePath string
	SourceDir     string
}

// OperatorPrefix turns the local part of an e-mail into a name prefix
func OperatorPrefix(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	prefix := prefixInvalid.ReplaceAllString(strings.ToLower(local), "-")
	return strings.Trim(prefix, "-")
}

// DeriveTarget builds per-operator names so operators sharing a workspace
// do not collide
func DeriveTarget(email string) (*Target, error) {
	email = strings.TrimSpace(email)
	prefix := OperatorPrefix(email)
	if prefix == "" {
		return nil, fmt.Errorf("cannot derive deployment names from user %q", email)
	}
	t := &Target{
		UserEmail: email,
		ScopeName: prefix + "-chatbot",
		SecretKey: DefaultSecretKey,
		SourceDir: ".",
	}
	t.SetAppName(prefix + "-ai-chatbot")
	return t, nil
}

// SetAppName changes the app and the workspace path derived from it
func (t *Target) SetAppName(name string) {
	t.AppName = name
	t.WorkspacePath = fmt.Sprintf("/Workspace/Users/%s/%s", t.UserEmail, name)
}

// Validate checks that every name is set
func (t *Target) Validate() error {
	fields := []struct{ name, value string }{
		{"user", t.UserEmail},
		{"app name", t.AppName},
		{"scope", t.ScopeName},
		{"secret key", t.SecretKey},
		{"workspace path", t.WorkspacePath},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("deployment target incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Identity is the authenticated CLI user
type Identity struct {
	Email string
	Host  string
}

type currentUser struct {
	UserName string `json:"userName"`
	Emails   []struct {
		Value   string `json:"value"`
		Primary bool   `json:"primary"`
	} `json:"emails"`
}

type authProfiles struct {
	Profiles []struct {
		Name  string `json:"name"`
		Host  string `json:"host"`
		Valid bool   `json:"valid"`
	} `json:"profiles"`
}

// ErrNotConfigured is returned when the CLI has no usable login
var ErrNotConfigured = errors.New("CLI not configured, run: databricks configure --token")

// ResolveIdentity asks the CLI who is logged in and which host it talks to.
// The host is best effort.
func ResolveIdentity(ctx context.Context, runner workspace.Runner) (*Identity, error) {
	res, err := runner.Run(ctx, []string{"current-user", "me", "--output", "json"}, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	var user currentUser
	if err := workspace.DecodeJSON(res.Stdout, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user information: %w", err)
	}

	id := &Identity{}
	for _, e := range user.Emails {
		if e.Primary && e.Value != "" {
			id.Email = e.Value
			break
		}
	}
	if id.Email == "" {
		id.Email = user.UserName
	}
	if id.Email == "" {
		return nil, errors.New("could not determine user email")
	}

	if res, err := runner.Run(ctx, []string{"auth", "profiles", "--output", "json"}, ""); err == nil {
		var profiles authProfiles
		if workspace.DecodeJSON(res.Stdout, &profiles) == nil {
			for _, p := range profiles.Profiles {
				if p.Valid {
					id.Host = p.Host
					break
				}
			}
		}
	}
	return id, nil
}
