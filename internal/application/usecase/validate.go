package usecase

import (
	"strings"

	"drmoto/internal/domain/asset"
	userdom "drmoto/internal/domain/user"
)

const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldTitle       = "title"
	FieldDisplayName = "displayName"
	FieldRequired    = "required"

	MinPasswordLength = 6
)

// ValidateCredentials checks login/register input before it reaches a manager.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &ValidationError{Field: FieldRequired, Reason: "email and password are required"}
	}
	if err := userdom.ValidateEmail(email); err != nil {
		return &ValidationError{Field: FieldEmail, Reason: "malformed address"}
	}
	return nil
}

// ValidateRegistration also enforces the provider's minimum password length.
func ValidateRegistration(email, password, displayName string) error {
	if err := ValidateCredentials(email, password); err != nil {
		return err
	}
	if len([]rune(password)) < MinPasswordLength {
		return &ValidationError{Field: FieldPassword, Reason: "too short"}
	}
	if len([]rune(strings.TrimSpace(displayName))) > userdom.MaxDisplayNameLength {
		return &ValidationError{Field: FieldDisplayName, Reason: "too long"}
	}
	return nil
}

// ValidateEmail is used by the reset flow.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return &ValidationError{Field: FieldRequired, Reason: "email is required"}
	}
	if err := userdom.ValidateEmail(email); err != nil {
		return &ValidationError{Field: FieldEmail, Reason: "malformed address"}
	}
	return nil
}

// ValidateTitle requires a non-empty title within the record limit.
func ValidateTitle(title string) error {
	t := strings.TrimSpace(title)
	if t == "" {
		return &ValidationError{Field: FieldTitle, Reason: "empty"}
	}
	if len([]rune(t)) > asset.MaxTitleLength {
		return &ValidationError{Field: FieldTitle, Reason: "too long"}
	}
	return nil
}
