package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"prhealth/internal/model"
)

// Claims are the fields the client reads out of a credential.
type Claims struct {
	Subject   string
	Role      model.Role
	ExpiresAt time.Time // zero if the token carries no exp
}

// Expired reports whether the credential's exp has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// DecodeError means a credential could not be read as a session.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode credential: %s: %v", e.Reason, e.Err)
	}
	return "decode credential: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode extracts the claims without verifying the signature and without
// any network call. The backend re-checks every request; the decoded role
// only decides what the client renders.
func Decode(credential string) (Claims, error) {
	if credential == "" {
		return Claims{}, &DecodeError{Reason: "empty credential"}
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, mc); err != nil {
		return Claims{}, &DecodeError{Reason: "malformed token", Err: err}
	}

	raw, ok := mc["role"]
	if !ok {
		return Claims{}, &DecodeError{Reason: "missing role claim"}
	}
	s, ok := raw.(string)
	if !ok {
		return Claims{}, &DecodeError{Reason: "role claim is not a string"}
	}
	role, ok := model.ParseRole(s)
	if !ok {
		return Claims{}, &DecodeError{Reason: fmt.Sprintf("unknown role %q", s)}
	}

	c := Claims{Role: role}
	if exp, err := mc.GetExpirationTime(); err != nil {
		return Claims{}, &DecodeError{Reason: "invalid exp claim", Err: err}
	} else if exp != nil {
		c.ExpiresAt = exp.Time
	}
	if sub, err := mc.GetSubject(); err == nil {
		c.Subject = sub
	}
	return c, nil
}
