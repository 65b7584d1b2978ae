// internal/domain/user/entity.go
package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is the profile document stored under users/{uid}.
// ID is always the identity provider UID.
type User struct {
	ID          string       `json:"uid" firestore:"uid"`
	Email       string       `json:"email" firestore:"email"`
	DisplayName string       `json:"displayName" firestore:"displayName"`
	PhotoURL    string       `json:"photoURL" firestore:"photoURL"`
	CreatedAt   time.Time    `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
	Preferences *Preferences `json:"preferences,omitempty" firestore:"preferences,omitempty"`
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Preferences are optional per-user app settings.
type Preferences struct {
	Theme         Theme `json:"theme" firestore:"theme"`
	CameraQuality int   `json:"cameraQuality" firestore:"cameraQuality"`
	AutoUpload    bool  `json:"autoUpload" firestore:"autoUpload"`
	Notifications bool  `json:"notifications" firestore:"notifications"`
}

// Errors (single source)
var (
	ErrInvalidID          = errors.New("user: invalid id")
	ErrInvalidEmail       = errors.New("user: invalid email")
	ErrInvalidDisplayName = errors.New("user: invalid displayName")
	ErrInvalidPhotoURL    = errors.New("user: invalid photoURL")
	ErrInvalidCreatedAt   = errors.New("user: invalid createdAt")
	ErrInvalidUpdatedAt   = errors.New("user: invalid updatedAt")
	ErrInvalidPreferences = errors.New("user: invalid preferences")
)

// Policy
var (
	MaxDisplayNameLength = 100
	MinCameraQuality     = 1
	MaxCameraQuality     = 100
)

// DefaultPreferences mirrors what a freshly installed app starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeAuto,
		CameraQuality: 90,
		AutoUpload:    true,
		Notifications: true,
	}
}

// New builds a validated user for registration.
func New(id, email, displayName string, now time.Time) (User, error) {
	u := User{
		ID:          strings.TrimSpace(id),
		Email:       strings.TrimSpace(email),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now.UTC(),
	}
	if err := u.Validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

// Mutators

func (u *User) SetDisplayName(v string) error {
	v = strings.TrimSpace(v)
	if len([]rune(v)) > MaxDisplayNameLength {
		return ErrInvalidDisplayName
	}
	u.DisplayName = v
	return nil
}

func (u *User) SetPhotoURL(v string) error {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return ErrInvalidPhotoURL
	}
	u.PhotoURL = v
	return nil
}

func (u *User) SetPreferences(p *Preferences) error {
	if p != nil {
		if err := p.Validate(); err != nil {
			return err
		}
		cp := *p
		p = &cp
	}
	u.Preferences = p
	return nil
}

func (u *User) TouchUpdatedAt(now time.Time) error {
	if now.IsZero() {
		return ErrInvalidUpdatedAt
	}
	t := now.UTC()
	u.UpdatedAt = &t
	return nil
}

// Apply patches the user with the non-nil fields of in.
func (u *User) Apply(in UpdateUserInput, now time.Time) error {
	if in.DisplayName != nil {
		if err := u.SetDisplayName(*in.DisplayName); err != nil {
			return err
		}
	}
	if in.PhotoURL != nil {
		if err := u.SetPhotoURL(*in.PhotoURL); err != nil {
			return err
		}
	}
	if in.Preferences != nil {
		if err := u.SetPreferences(in.Preferences); err != nil {
			return err
		}
	}
	if err := u.TouchUpdatedAt(now); err != nil {
		return err
	}
	return u.Validate()
}

// Validation

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrInvalidID
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if len([]rune(u.DisplayName)) > MaxDisplayNameLength {
		return ErrInvalidDisplayName
	}
	if u.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	if u.UpdatedAt != nil && u.UpdatedAt.Before(u.CreatedAt) {
		return ErrInvalidUpdatedAt
	}
	if u.Preferences != nil {
		if err := u.Preferences.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (p Preferences) Validate() error {
	switch p.Theme {
	case ThemeLight, ThemeDark, ThemeAuto:
	default:
		return fmt.Errorf("%w: theme %q", ErrInvalidPreferences, p.Theme)
	}
	if p.CameraQuality < MinCameraQuality || p.CameraQuality > MaxCameraQuality {
		return fmt.Errorf("%w: cameraQuality %d", ErrInvalidPreferences, p.CameraQuality)
	}
	return nil
}

// ValidateEmail accepts a bare address (no display-name form).
func ValidateEmail(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return ErrInvalidEmail
	}
	return nil
}
