package asset

import (
	"context"
	"io"
)

// RepositoryPort is the remote document store contract for asset records.
type RepositoryPort interface {
	// Set writes photos/{a.ID}, replacing any existing document.
	Set(ctx context.Context, a Asset) error

	// GetByID returns ErrNotFound when the document does not exist.
	GetByID(ctx context.Context, id string) (*Asset, error)

	// Update writes title, description and updatedAt only.
	Update(ctx context.Context, id string, p Patch) error

	// Delete removes photos/{id}. Deleting a missing document succeeds.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns records with userId == userID ordered by createdAt.
	ListByOwner(ctx context.Context, userID string, order SortOrder) ([]Asset, error)
}

// BlobStorePort is the remote blob store contract.
type BlobStorePort interface {
	// Upload returns once the object is committed.
	Upload(ctx context.Context, path, contentType string, r io.Reader) error

	// DownloadURL resolves a fetchable URL for an uploaded object.
	DownloadURL(ctx context.Context, path string) (string, error)

	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, path string) error
}
