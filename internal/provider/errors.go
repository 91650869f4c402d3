package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type AuthCategory string

const (
	AuthFailure      AuthCategory = "auth-failure"
	PermissionDenied AuthCategory = "permission-denied"
	TransportError   AuthCategory = "transport-error"
	ConfigError      AuthCategory = "config-error"
)

var ErrMissingCredentials = errors.New("credentials not configured")

// AuthError describes a failed token exchange.
type AuthError struct {
	Provider   string
	Category   AuthCategory
	StatusCode int
	Message    string
	Err        error
}

func (e *AuthError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s authentication failed (%s, HTTP %d): %s", e.Provider, e.Category, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s authentication failed (%s): %s", e.Provider, e.Category, msg)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ClassifyAuthResponse maps a failed login response to an AuthCategory.
func ClassifyAuthResponse(statusCode int, body string) AuthCategory {
	switch {
	case statusCode == http.StatusUnauthorized:
		if strings.Contains(strings.ToLower(body), "role not found") {
			return PermissionDenied
		}
		return AuthFailure
	case statusCode == http.StatusForbidden:
		return PermissionDenied
	case statusCode >= http.StatusInternalServerError:
		return TransportError
	default:
		return AuthFailure
	}
}

// AuthCategoryOf extracts the category of an authentication error.
// Errors that are not an *AuthError are reported as transport errors.
func AuthCategoryOf(err error) AuthCategory {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Category
	}
	return TransportError
}
