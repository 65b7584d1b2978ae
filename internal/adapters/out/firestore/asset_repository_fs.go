// internal/adapters/out/firestore/asset_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"drmoto/internal/domain/asset"
)

// AssetRepositoryFS stores asset records in the photos collection.
//   - docId = asset.ID
//   - ListByOwner needs the composite index (userId ASC, createdAt DESC).
type AssetRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

var _ asset.RepositoryPort = (*AssetRepositoryFS)(nil)

func NewAssetRepositoryFS(client *firestore.Client, collection string) *AssetRepositoryFS {
	if strings.TrimSpace(collection) == "" {
		collection = "photos"
	}
	return &AssetRepositoryFS{Client: client, Collection: collection}
}

func (r *AssetRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

// Firestore 上のドキュメント構造
type photoDoc struct {
	ID          string          `firestore:"id"`
	UserID      string          `firestore:"userId"`
	URL         string          `firestore:"url"`
	LocalPath   string          `firestore:"localPath"`
	Title       string          `firestore:"title"`
	Description string          `firestore:"description"`
	CreatedAt   time.Time       `firestore:"createdAt"`
	UpdatedAt   *time.Time      `firestore:"updatedAt,omitempty"`
	Metadata    asset.Metadata  `firestore:"metadata"`
	Tags        []string        `firestore:"tags,omitempty"`
	Location    *asset.Location `firestore:"location,omitempty"`
}

func (r *AssetRepositoryFS) Set(ctx context.Context, a asset.Asset) error {
	if r.Client == nil {
		return errNilClient
	}
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := r.col().Doc(strings.TrimSpace(a.ID)).Set(ctx, assetToDoc(a))
	return err
}

func (r *AssetRepositoryFS) GetByID(ctx context.Context, id string) (*asset.Asset, error) {
	if r.Client == nil {
		return nil, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, asset.ErrInvalidID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, asset.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var d photoDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	a := docToAsset(snap.Ref.ID, d)
	return &a, nil
}

func (r *AssetRepositoryFS) Update(ctx context.Context, id string, p asset.Patch) error {
	if r.Client == nil {
		return errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return asset.ErrInvalidID
	}

	updates := []firestore.Update{
		{Path: "title", Value: p.Title},
		{Path: "description", Value: p.Description},
		{Path: "updatedAt", Value: p.UpdatedAt.UTC()},
	}
	if _, err := r.col().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return asset.ErrNotFound
		}
		return err
	}
	return nil
}

// Delete succeeds for a document that does not exist.
func (r *AssetRepositoryFS) Delete(ctx context.Context, id string) error {
	if r.Client == nil {
		return errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return asset.ErrInvalidID
	}
	_, err := r.col().Doc(id).Delete(ctx)
	return err
}

func (r *AssetRepositoryFS) ListByOwner(ctx context.Context, userID string, order asset.SortOrder) ([]asset.Asset, error) {
	if r.Client == nil {
		return nil, errNilClient
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, asset.ErrInvalidUserID
	}

	dir := firestore.Desc
	if order == asset.OrderAsc {
		dir = firestore.Asc
	}

	it := r.col().Where("userId", "==", userID).OrderBy("createdAt", dir).Documents(ctx)
	defer it.Stop()

	out := make([]asset.Asset, 0)
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		var d photoDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, err
		}
		out = append(out, docToAsset(snap.Ref.ID, d))
	}
	return out, nil
}

// ===============================
// Mapping helpers
// ===============================

func assetToDoc(a asset.Asset) photoDoc {
	return photoDoc{
		ID:          strings.TrimSpace(a.ID),
		UserID:      strings.TrimSpace(a.UserID),
		URL:         strings.TrimSpace(a.URL),
		LocalPath:   a.LocalPath,
		Title:       strings.TrimSpace(a.Title),
		Description: a.Description,
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   normalizeTimePtr(a.UpdatedAt),
		Metadata:    a.Metadata,
		Tags:        asset.NormalizeTags(a.Tags),
		Location:    a.Location,
	}
}

func docToAsset(docID string, d photoDoc) asset.Asset {
	a := asset.Asset{
		ID:          strings.TrimSpace(d.ID),
		UserID:      strings.TrimSpace(d.UserID),
		URL:         d.URL,
		LocalPath:   d.LocalPath,
		Title:       d.Title,
		Description: d.Description,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   normalizeTimePtr(d.UpdatedAt),
		Metadata:    d.Metadata,
		Tags:        asset.NormalizeTags(d.Tags),
		Location:    d.Location,
	}
	if a.ID == "" {
		a.ID = docID
	}
	a.Metadata.Device = trimPtr(a.Metadata.Device)
	if a.Metadata.Format == "" {
		a.Metadata.Format = asset.DefaultFormat
	}
	return a
}
