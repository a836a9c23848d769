package workspace

import (
	"encoding/json"
	"errors"
	"strings"
)

// banner and warning fragments the CLI mixes into its output
var noiseMarkers = []string{
	"Databricks CLI v",
	"Your current $PATH prefers running CLI",
	"Because both are installed",
	"If you want to disable this behavior",
	"Executing CLI v",
	"-------------------------",
	"Loaded config from app.yaml",
	"NotOpenSSLWarning",
	"urllib3",
	"LibreSSL",
	"warnings.warn",
}

// additional fragments that never carry the error itself
var errorNoiseMarkers = []string{
	"CLI v0.",
	"found at",
	"$PATH prefers",
	"assume you are trying",
	"disable this behavior",
	"Executing CLI",
}

// keywords that identify the actual error lines in stderr
var errorKeywords = []string{"error", "failed", "limit", "permission", "not found", "invalid"}

// ErrNoJSON is returned when output contains no JSON value
var ErrNoJSON = errors.New("no JSON found in output")

// FilterNoise drops blank lines and CLI banner/warning lines
func FilterNoise(output string) string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" || containsAny(line, noiseMarkers) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// CleanErrorMessage extracts the meaningful lines from CLI stderr
func CleanErrorMessage(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown error occurred"
	}
	lines := strings.Split(strings.TrimSpace(raw), "\n")

	var errLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || containsAny(line, noiseMarkers) || containsAny(line, errorNoiseMarkers) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(line, "Error:") || containsAny(lower, errorKeywords) {
			errLines = append(errLines, line)
		}
	}
	if len(errLines) > 0 {
		return strings.Join(errLines, "\n")
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line != "" && !strings.Contains(line, "CLI v0.") {
			return line
		}
	}
	return strings.TrimSpace(raw)
}

// ExtractJSON returns the first complete JSON object or array in output.
// Brackets inside string literals are ignored, and bracketed text that is
// not JSON (such as "[WARN]") is skipped.
func ExtractJSON(output string) ([]byte, error) {
	output = strings.TrimSpace(output)
	if output == "" {
		return nil, ErrNoJSON
	}
	if json.Valid([]byte(output)) && (output[0] == '{' || output[0] == '[') {
		return []byte(output), nil
	}

	for start := 0; start < len(output); start++ {
		next := strings.IndexAny(output[start:], "{[")
		if next == -1 {
			break
		}
		start += next
		if end, ok := balancedEnd(output, start); ok {
			candidate := []byte(output[start : end+1])
			if json.Valid(candidate) {
				return candidate, nil
			}
		}
	}
	return nil, ErrNoJSON
}

// balancedEnd returns the index closing the bracket opened at start
func balancedEnd(output string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(output); i++ {
		c := output[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			open := stack[len(stack)-1]
			if (c == '}' && open != '{') || (c == ']' && open != '[') {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// DecodeJSON extracts the first JSON value in output into v
func DecodeJSON(output string, v interface{}) error {
	data, err := ExtractJSON(output)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// IsAlreadyExists reports whether err is the CLI's "already exists" failure
func IsAlreadyExists(err error) bool {
	return messageContains(err, "already exists", "RESOURCE_ALREADY_EXISTS")
}

// IsNotFound reports whether err is the CLI's "does not exist" failure
func IsNotFound(err error) bool {
	return messageContains(err, "not found", "does not exist", "RESOURCE_DOES_NOT_EXIST")
}

func messageContains(err error, fragments ...string) bool {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return false
	}
	lower := strings.ToLower(cmdErr.Message)
	for _, f := range fragments {
		if strings.Contains(cmdErr.Message, f) || strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
