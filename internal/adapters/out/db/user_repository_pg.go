// internal/adapters/out/db/user_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	dbcommon "drmoto/internal/adapters/out/db/common"
	udom "drmoto/internal/domain/user"
)

type UserRepositoryPG struct {
	DB *sql.DB
}

var _ udom.RepositoryPort = (*UserRepositoryPG)(nil)

func NewUserRepositoryPG(db *sql.DB) *UserRepositoryPG {
	return &UserRepositoryPG{DB: db}
}

func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*udom.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, udom.ErrInvalidID
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
SELECT
  id, email, display_name, photo_url, created_at, updated_at, preferences
FROM users
WHERE id = $1
LIMIT 1`

	u, err := scanUser(run.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, udom.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts users/{uid}; the id comes from the identity provider.
func (r *UserRepositoryPG) Create(ctx context.Context, v udom.User) error {
	id := strings.TrimSpace(v.ID)
	if id == "" {
		return udom.ErrInvalidID
	}
	prefs, err := encodePreferences(v.Preferences)
	if err != nil {
		return err
	}

	createdAt := time.Now().UTC()
	if !v.CreatedAt.IsZero() {
		createdAt = v.CreatedAt.UTC()
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
INSERT INTO users (
  id, email, display_name, photo_url, created_at, updated_at, preferences
) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = run.ExecContext(ctx, q,
		id,
		strings.TrimSpace(v.Email),
		strings.TrimSpace(v.DisplayName),
		strings.TrimSpace(v.PhotoURL),
		createdAt,
		dbcommon.ToDBTime(v.UpdatedAt),
		prefs,
	)
	if err != nil {
		if dbcommon.IsUniqueViolation(err) {
			return udom.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepositoryPG) Update(ctx context.Context, v udom.User) error {
	id := strings.TrimSpace(v.ID)
	if id == "" {
		return udom.ErrInvalidID
	}
	prefs, err := encodePreferences(v.Preferences)
	if err != nil {
		return err
	}
	updatedAt := time.Now().UTC()
	if v.UpdatedAt != nil {
		updatedAt = v.UpdatedAt.UTC()
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
UPDATE users
SET display_name = $2, photo_url = $3, updated_at = $4, preferences = $5
WHERE id = $1`

	res, err := run.ExecContext(ctx, q,
		id,
		strings.TrimSpace(v.DisplayName),
		strings.TrimSpace(v.PhotoURL),
		updatedAt,
		prefs,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return udom.ErrNotFound
	}
	return nil
}

// ========================================
// helpers
// ========================================

func scanUser(s dbcommon.RowScanner) (udom.User, error) {
	var (
		u         udom.User
		photoURL  sql.NullString
		updatedAt sql.NullTime
		prefsRaw  []byte
	)
	if err := s.Scan(
		&u.ID, &u.Email, &u.DisplayName, &photoURL, &u.CreatedAt, &updatedAt, &prefsRaw,
	); err != nil {
		return udom.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = dbcommon.FromNullTime(updatedAt)
	if p := dbcommon.FromNullString(photoURL); p != nil {
		u.PhotoURL = *p
	}
	if len(prefsRaw) > 0 && string(prefsRaw) != "null" {
		var p udom.Preferences
		if err := json.Unmarshal(prefsRaw, &p); err != nil {
			return udom.User{}, fmt.Errorf("users.preferences: %w", err)
		}
		u.Preferences = &p
	}
	return u, nil
}

func encodePreferences(p *udom.Preferences) (any, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
