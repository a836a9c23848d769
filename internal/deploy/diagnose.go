package deploy

import "strings"

// Diagnosis explains a CLI failure to the operator
type Diagnosis struct {
	Title       string
	Suggestions []string
}

// Diagnose classifies a cleaned CLI error message
func Diagnose(message string) Diagnosis {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "max limit") && strings.Contains(lower, "scope"):
		return Diagnosis{
			Title: "Workspace Limit Reached",
			Suggestions: []string{
				"Your workspace has reached the maximum number of secret scopes (1000)",
				"Use an existing scope: databricks secrets list-scopes, then pass --scope",
				"Delete unused scopes: databricks secrets delete-scope <scope-name>",
				"Ask your workspace admin to clean up old scopes",
			},
		}
	case strings.Contains(lower, "permission") || strings.Contains(lower, "access"):
		return Diagnosis{
			Title: "Permission Error",
			Suggestions: []string{
				"You don't have sufficient permissions for this operation",
				"Contact your workspace administrator",
				"Check that you are logged in to the correct workspace",
			},
		}
	case strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"):
		return Diagnosis{
			Title: "Resource Not Found",
			Suggestions: []string{
				"Verify the resource name is correct",
				"Check that you have access to the resource",
				"Check that you are logged in to the correct workspace",
			},
		}
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "bad request"):
		return Diagnosis{
			Title: "Invalid Request",
			Suggestions: []string{
				"Names may only contain letters, digits and dashes",
				"Verify all required parameters are provided",
			},
		}
	}
	return Diagnosis{Title: "Error"}
}
