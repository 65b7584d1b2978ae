// internal/adapters/out/firebase/errors.go
package firebase

import (
	"strings"

	"firebase.google.com/go/v4/auth"

	"drmoto/internal/domain/session"
)

// codeForToolkitMessage maps an Identity Toolkit error message
// ("WEAK_PASSWORD : Password should be ...") to an auth/* code.
func codeForToolkitMessage(msg string) string {
	key := strings.TrimSpace(msg)
	if i := strings.IndexAny(key, " :"); i >= 0 {
		key = key[:i]
	}
	switch key {
	case "EMAIL_NOT_FOUND":
		return session.CodeUserNotFound
	case "INVALID_PASSWORD":
		return session.CodeWrongPassword
	case "INVALID_LOGIN_CREDENTIALS":
		return session.CodeInvalidCredential
	case "EMAIL_EXISTS":
		return session.CodeEmailInUse
	case "WEAK_PASSWORD":
		return session.CodeWeakPassword
	case "INVALID_EMAIL", "MISSING_EMAIL":
		return session.CodeInvalidEmail
	case "USER_DISABLED":
		return session.CodeUserDisabled
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return session.CodeTooManyRequests
	default:
		return session.CodeInternal
	}
}

// fromAdminError maps admin SDK errors to auth/* codes.
func fromAdminError(err error) error {
	if err == nil {
		return nil
	}
	code := session.CodeInternal
	switch {
	case auth.IsEmailAlreadyExists(err):
		code = session.CodeEmailInUse
	case auth.IsUserNotFound(err), auth.IsEmailNotFound(err):
		code = session.CodeUserNotFound
	case auth.IsUserDisabled(err):
		code = session.CodeUserDisabled
	}
	return session.NewProviderError(code, err)
}
