package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	u, err := New(" uid ", " a@b.io ", " Ana ", t0)
	require.NoError(t, err)
	assert.Equal(t, "uid", u.ID)
	assert.Equal(t, "a@b.io", u.Email)
	assert.Equal(t, "Ana", u.DisplayName)
	assert.Nil(t, u.UpdatedAt)

	_, err = New("", "a@b.io", "", t0)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = New("uid", "Ana <a@b.io>", "", t0)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = New("uid", "a@b.io", "", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidCreatedAt)
}

func TestApply(t *testing.T) {
	u, err := New("uid", "a@b.io", "Ana", t0)
	require.NoError(t, err)

	name := "Ana María"
	prefs := DefaultPreferences()
	prefs.Theme = ThemeDark
	later := t0.Add(time.Hour)

	require.NoError(t, u.Apply(UpdateUserInput{DisplayName: &name, Preferences: &prefs}, later))
	assert.Equal(t, name, u.DisplayName)
	require.NotNil(t, u.Preferences)
	assert.Equal(t, ThemeDark, u.Preferences.Theme)
	require.NotNil(t, u.UpdatedAt)
	assert.True(t, u.UpdatedAt.Equal(later))

	prefs.Theme = ThemeLight
	assert.Equal(t, ThemeDark, u.Preferences.Theme, "preferences are copied")
}

func TestApply_Rejects(t *testing.T) {
	u, err := New("uid", "a@b.io", "Ana", t0)
	require.NoError(t, err)

	bad := "ftp://x"
	assert.ErrorIs(t, u.Apply(UpdateUserInput{PhotoURL: &bad}, t0), ErrInvalidPhotoURL)

	q := Preferences{Theme: ThemeAuto, CameraQuality: 0}
	assert.ErrorIs(t, u.Apply(UpdateUserInput{Preferences: &q}, t0), ErrInvalidPreferences)

	long := string(make([]rune, MaxDisplayNameLength+1))
	assert.ErrorIs(t, u.Apply(UpdateUserInput{DisplayName: &long}, t0), ErrInvalidDisplayName)
}

func TestUpdateUserInput_IsEmpty(t *testing.T) {
	assert.True(t, UpdateUserInput{}.IsEmpty())
	s := ""
	assert.False(t, UpdateUserInput{PhotoURL: &s}.IsEmpty())
}
