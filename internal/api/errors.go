package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is the login rejection (bad email or password).
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrSessionInvalid marks an authenticated call the backend refused for
	// lack of a valid credential. The caller must force a new login.
	ErrSessionInvalid = errors.New("session invalid")
)

// RequestError is any non-2xx response.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	if d := e.Detail(); d != "" {
		msg += ": " + d
	}
	return msg
}

// Is lets errors.Is(err, ErrSessionInvalid) match a 401 on an
// authenticated endpoint.
func (e *RequestError) Is(target error) bool {
	return target == ErrSessionInvalid && e.Status == http.StatusUnauthorized
}

// Detail returns the backend's {"detail": "..."} message, or the raw body.
func (e *RequestError) Detail() string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil && payload.Detail != nil {
		if s, ok := payload.Detail.(string); ok {
			return s
		}
		// validation errors arrive as a list of objects
		b, _ := json.Marshal(payload.Detail)
		return string(b)
	}
	return e.Body
}

// Forbidden reports a 403: the session is valid but the role is not allowed.
func (e *RequestError) Forbidden() bool { return e.Status == http.StatusForbidden }
