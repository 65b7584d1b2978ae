package user

import (
	"context"
	"errors"
)

// UpdateUserInput is a profile patch; nil fields are left untouched.
type UpdateUserInput struct {
	DisplayName *string      `json:"displayName,omitempty"`
	PhotoURL    *string      `json:"photoURL,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (in UpdateUserInput) IsEmpty() bool {
	return in.DisplayName == nil && in.PhotoURL == nil && in.Preferences == nil
}

// RepositoryPort is the document-store contract for user profiles.
// The core never deletes profiles, so there is no Delete.
type RepositoryPort interface {
	// Create writes users/{u.ID}. Returns ErrConflict when it already exists.
	Create(ctx context.Context, u User) error

	// GetByID returns ErrNotFound when the document does not exist.
	GetByID(ctx context.Context, id string) (*User, error)

	// Update replaces the stored profile with u (already patched by the caller).
	Update(ctx context.Context, u User) error
}

// 共通エラー（契約）
var (
	ErrNotFound = errors.New("user: not found")
	ErrConflict = errors.New("user: conflict")
)
