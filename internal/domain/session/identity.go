// internal/domain/session/identity.go
package session

import (
	"errors"
	"fmt"
	"strings"
)

// Identity is an authenticated session as reported by the identity provider.
type Identity struct {
	UID          string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
}

// Provider error codes, normalised from whatever the backing service returns.
const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNetwork           = "auth/network-request-failed"
	CodeInternal          = "auth/internal-error"
)

var ErrNoSession = errors.New("session: no active session")

// ProviderError carries a normalised code plus the raw provider error.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError wraps err with code.
func NewProviderError(code string, err error) *ProviderError {
	return &ProviderError{Code: strings.TrimSpace(code), Err: err}
}

// CodeOf extracts the provider code from err, or "" when err carries none.
func CodeOf(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
