// internal/adapters/out/db/asset_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	dbcommon "drmoto/internal/adapters/out/db/common"
	"drmoto/internal/domain/asset"
)

// AssetRepositoryPG keeps asset records in the photos table.
// metadata, tags and location are JSONB columns.
type AssetRepositoryPG struct {
	DB *sql.DB
}

var _ asset.RepositoryPort = (*AssetRepositoryPG)(nil)

func NewAssetRepositoryPG(db *sql.DB) *AssetRepositoryPG {
	return &AssetRepositoryPG{DB: db}
}

const photoColumns = `
  id, user_id, url, local_path, title, description,
  created_at, updated_at, metadata, tags, location`

func (r *AssetRepositoryPG) Set(ctx context.Context, a asset.Asset) error {
	if err := a.Validate(); err != nil {
		return err
	}
	meta, tags, loc, err := encodeAssetJSON(a)
	if err != nil {
		return err
	}

	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
INSERT INTO photos (` + photoColumns + `
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  url = EXCLUDED.url,
  local_path = EXCLUDED.local_path,
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  created_at = EXCLUDED.created_at,
  updated_at = EXCLUDED.updated_at,
  metadata = EXCLUDED.metadata,
  tags = EXCLUDED.tags,
  location = EXCLUDED.location`

	_, err = run.ExecContext(ctx, q,
		strings.TrimSpace(a.ID),
		strings.TrimSpace(a.UserID),
		strings.TrimSpace(a.URL),
		a.LocalPath,
		strings.TrimSpace(a.Title),
		a.Description,
		a.CreatedAt.UTC(),
		dbcommon.ToDBTime(a.UpdatedAt),
		meta,
		tags,
		loc,
	)
	return err
}

func (r *AssetRepositoryPG) GetByID(ctx context.Context, id string) (*asset.Asset, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, asset.ErrInvalidID
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT` + photoColumns + ` FROM photos WHERE id = $1 LIMIT 1`

	a, err := scanAsset(run.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, asset.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepositoryPG) Update(ctx context.Context, id string, p asset.Patch) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return asset.ErrInvalidID
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	const q = `
UPDATE photos
SET title = $2, description = $3, updated_at = $4
WHERE id = $1`

	res, err := run.ExecContext(ctx, q, id, p.Title, p.Description, p.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return asset.ErrNotFound
	}
	return nil
}

// Delete does not report a missing row.
func (r *AssetRepositoryPG) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return asset.ErrInvalidID
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	_, err := run.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	return err
}

func (r *AssetRepositoryPG) ListByOwner(ctx context.Context, userID string, order asset.SortOrder) ([]asset.Asset, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, asset.ErrInvalidUserID
	}
	dir := "DESC"
	if order == asset.OrderAsc {
		dir = "ASC"
	}
	run := dbcommon.GetRunner(ctx, r.DB)
	q := `SELECT` + photoColumns + ` FROM photos WHERE user_id = $1 ORDER BY created_at ` + dir

	rows, err := run.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]asset.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ========================================
// scan / encode helpers
// ========================================

func scanAsset(s dbcommon.RowScanner) (asset.Asset, error) {
	var (
		a                asset.Asset
		updatedAt        sql.NullTime
		metaRaw, tagsRaw []byte
		locRaw           []byte
	)
	if err := s.Scan(
		&a.ID, &a.UserID, &a.URL, &a.LocalPath, &a.Title, &a.Description,
		&a.CreatedAt, &updatedAt, &metaRaw, &tagsRaw, &locRaw,
	); err != nil {
		return asset.Asset{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = dbcommon.FromNullTime(updatedAt)

	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &a.Metadata); err != nil {
			return asset.Asset{}, fmt.Errorf("photos.metadata: %w", err)
		}
	}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &a.Tags); err != nil {
			return asset.Asset{}, fmt.Errorf("photos.tags: %w", err)
		}
		a.Tags = asset.NormalizeTags(a.Tags)
	}
	if len(locRaw) > 0 && string(locRaw) != "null" {
		var loc asset.Location
		if err := json.Unmarshal(locRaw, &loc); err != nil {
			return asset.Asset{}, fmt.Errorf("photos.location: %w", err)
		}
		a.Location = &loc
	}
	if a.Metadata.Format == "" {
		a.Metadata.Format = asset.DefaultFormat
	}
	return a, nil
}

func encodeAssetJSON(a asset.Asset) (meta, tags, loc any, err error) {
	mb, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, nil, nil, err
	}
	t := asset.NormalizeTags(a.Tags)
	if t == nil {
		t = []string{}
	}
	tb, err := json.Marshal(t)
	if err != nil {
		return nil, nil, nil, err
	}
	if a.Location != nil {
		lb, err := json.Marshal(a.Location)
		if err != nil {
			return nil, nil, nil, err
		}
		loc = string(lb)
	}
	return string(mb), string(tb), loc, nil
}
