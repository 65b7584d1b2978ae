// internal/application/usecase/errors.go
package usecase

import (
	"errors"
	"fmt"

	"drmoto/internal/domain/session"
)

var (
	ErrNotAuthenticated    = errors.New("usecase: not authenticated")
	ErrOperationInProgress = errors.New("usecase: another operation is in progress")
	ErrEmptyCart           = errors.New("usecase: cart is empty")
)

// ----------------------------
// Auth
// ----------------------------

type AuthKind string

const (
	AuthNotFound          AuthKind = "not-found"
	AuthWrongCredential   AuthKind = "wrong-credential"
	AuthAlreadyRegistered AuthKind = "already-registered"
	AuthWeakCredential    AuthKind = "weak-credential"
	AuthInvalidInput      AuthKind = "invalid-input"
	AuthGeneric           AuthKind = "generic"
)

type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + string(e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ClassifyAuth maps a provider error onto the fixed auth kinds.
func ClassifyAuth(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	kind := AuthGeneric
	switch session.CodeOf(err) {
	case session.CodeUserNotFound:
		kind = AuthNotFound
	case session.CodeWrongPassword, session.CodeInvalidCredential:
		kind = AuthWrongCredential
	case session.CodeEmailInUse:
		kind = AuthAlreadyRegistered
	case session.CodeWeakPassword:
		kind = AuthWeakCredential
	case session.CodeInvalidEmail:
		kind = AuthInvalidInput
	}
	return &AuthError{Kind: kind, Err: err}
}

// ----------------------------
// Capture
// ----------------------------

type CaptureKind string

const (
	CaptureCancelled     CaptureKind = "cancelled"
	CaptureDeviceFailure CaptureKind = "device-failure"
)

type CaptureError struct {
	Kind CaptureKind
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return "capture: " + string(e.Kind)
	}
	return fmt.Sprintf("capture: %s: %v", e.Kind, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// ----------------------------
// Store
// ----------------------------

type WriteOp string

const (
	OpCapture  WriteOp = "capture"
	OpUpdate   WriteOp = "update"
	OpDelete   WriteOp = "delete"
	OpSaveCart WriteOp = "save-cart"
	OpRegister WriteOp = "register"
	OpProfile  WriteOp = "profile"
	OpCheckout WriteOp = "checkout"
)

type Stage string

const (
	StageFetch       Stage = "fetch"
	StageUpload      Stage = "upload"
	StageResolveURL  Stage = "resolve-url"
	StageDocument    Stage = "document"
	StageBlob        Stage = "blob"
	StagePreferences Stage = "preferences"
	StageIdentity    Stage = "identity"
	StageOrder       Stage = "order"
)

// StoreWriteError reports the step at which a multi-step write aborted.
type StoreWriteError struct {
	Op    WriteOp
	Stage Stage
	Err   error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s failed at %s: %v", e.Op, e.Stage, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

func writeErr(op WriteOp, stage Stage, err error) error {
	return &StoreWriteError{Op: op, Stage: stage, Err: err}
}

// StoreReadError is only surfaced when every read tier failed.
type StoreReadError struct {
	Source Source
	Err    error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("store read from %s failed: %v", e.Source, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// ----------------------------
// Validation
// ----------------------------

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
