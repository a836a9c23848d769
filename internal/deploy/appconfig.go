package deploy

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultAppCommand starts the chat UI on the port Databricks Apps expects
var DefaultAppCommand = []string{"streamlit", "run", "app.py", "--server.port=8501", "--server.address=0.0.0.0", "--server.headless=true"}

var secretRef = regexp.MustCompile(`{{secrets/([^/]+)/([^}]+)}}`)

// AppConfig is the app.yaml deployed alongside the source
type AppConfig struct {
	Command     []string     `yaml:"command"`
	Env         []EnvVar     `yaml:"env"`
	Permissions []Permission `yaml:"permissions,omitempty"`
	Resources   []Resource   `yaml:"resources,omitempty"`
}

type EnvVar struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type Permission struct {
	GroupName       string `yaml:"group_name"`
	PermissionLevel string `yaml:"permission_level"`
}

type Resource struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Type        string `yaml:"type"`
}

// NewAppConfig binds OPENAI_API_KEY to the target's secret
func NewAppConfig(t *Target) *AppConfig {
	return &AppConfig{
		Command: DefaultAppCommand,
		Env: []EnvVar{
			{Name: "OPENAI_API_KEY", Value: fmt.Sprintf("{{secrets/%s/%s}}", t.ScopeName, t.SecretKey)},
		},
		Permissions: []Permission{{GroupName: "users", PermissionLevel: "CAN_USE"}},
		Resources: []Resource{{
			Name:        "default-sql-warehouse",
			Description: "SQL Warehouse for app queries",
			Type:        "sql_warehouse",
		}},
	}
}

// Marshal renders the YAML document
func (c *AppConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// SecretRef returns the scope and key bound in the env section
func (c *AppConfig) SecretRef() (scope, key string, ok bool) {
	for _, e := range c.Env {
		if m := secretRef.FindStringSubmatch(e.Value); m != nil {
			return m[1], m[2], true
		}
	}
	return "", "", false
}

// WriteAppConfig writes c to path
func WriteAppConfig(path string, c *AppConfig) error {
	data, err := c.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal app.yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadAppConfig reads an existing app.yaml
func LoadAppConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s not found, run a full deployment first", path)
		}
		return nil, err
	}
	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &c, nil
}
