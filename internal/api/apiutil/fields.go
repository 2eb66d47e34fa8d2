package apiutil

import (
	"net/http"
	"strconv"
	"strings"
)

// PathID parses a positive integer path value such as {id}.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, FieldError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// RequiredString trims value and reports a FieldError when it is empty.
func RequiredString(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	return value, nil
}
