package appsec

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ConfigurationError is returned by every API call when the portal URL or token is missing.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("API %s is not configured in settings", strings.Join(e.Missing, " and "))
}

// APIError is a completed call that the portal answered with a non-success status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// maxErrorMessageLen bounds a message taken from a portal error body.
const maxErrorMessageLen = 200

// errorMessage extracts a human readable message from a JSON portal error body.
// Bodies that are not JSON, such as proxy error pages, yield no message.
func errorMessage(body []byte) string {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return truncate(strings.TrimSpace(messageField(payload)), maxErrorMessageLen)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func messageField(payload map[string]interface{}) string {
	for _, key := range []string{"detail", "message", "error", "non_field_errors"} {
		switch v := payload[key].(type) {
		case string:
			return v
		case []interface{}:
			if len(v) > 0 {
				if s, ok := v[0].(string); ok {
					return s
				}
			}
		}
	}
	return ""
}
