// internal/adapters/out/gcs/asset_blob_store_gcs.go
package gcs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iamcredentials/v1"

	"drmoto/internal/domain/asset"
)

// URLMode selects how DownloadURL resolves a fetchable URL.
type URLMode string

const (
	// URLModeFirebase returns a firebasestorage token URL (default).
	URLModeFirebase URLMode = "firebase"
	// URLModePublic assumes the bucket is publicly readable.
	URLModePublic URLMode = "public"
	// URLModeSigned issues a V4 signed GET URL via IAMCredentials SignBlob.
	URLModeSigned URLMode = "signed"
)

var (
	ErrNilClient       = errors.New("asset_blob_store_gcs: storage client is nil")
	ErrEmptyBucket     = errors.New("asset_blob_store_gcs: bucket is empty")
	ErrInvalidPath     = errors.New("asset_blob_store_gcs: invalid object path")
	ErrSignerNotConfig = errors.New("asset_blob_store_gcs: signer email not configured")
)

// AssetBlobStoreGCS stores photo bytes under photos/{userId}/{id}.{ext}.
type AssetBlobStoreGCS struct {
	Client *storage.Client
	Bucket string
	Mode   URLMode

	// Optional overrides; empty means the Google endpoints.
	PublicBaseURL   string
	FirebaseBaseURL string

	// Signed mode only.
	SignerEmail     string
	SignedURLExpiry time.Duration

	now      func() time.Time
	newToken func() string
}

var _ asset.BlobStorePort = (*AssetBlobStoreGCS)(nil)

func NewAssetBlobStoreGCS(client *storage.Client, bucket string, mode URLMode) *AssetBlobStoreGCS {
	if mode == "" {
		mode = URLModeFirebase
	}
	return &AssetBlobStoreGCS{
		Client:          client,
		Bucket:          strings.TrimSpace(bucket),
		Mode:            mode,
		SignedURLExpiry: 7 * 24 * time.Hour,
		now:             time.Now,
		newToken:        func() string { return uuid.NewString() },
	}
}

func (s *AssetBlobStoreGCS) object(objectPath string) (*storage.ObjectHandle, string, error) {
	if s == nil || s.Client == nil {
		return nil, "", ErrNilClient
	}
	if s.Bucket == "" {
		return nil, "", ErrEmptyBucket
	}
	p, ok := normalizeObjectPath(objectPath)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidPath, objectPath)
	}
	return s.Client.Bucket(s.Bucket).Object(p), p, nil
}

// Upload streams r into the object and returns once the writer is closed.
func (s *AssetBlobStoreGCS) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) error {
	oh, _, err := s.object(objectPath)
	if err != nil {
		return err
	}

	w := oh.NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	w.CacheControl = "private, max-age=31536000"
	w.Metadata = map[string]string{
		"uploadedAt":     s.now().UTC().Format(time.RFC3339),
		firebaseTokenKey: s.newToken(),
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *AssetBlobStoreGCS) DownloadURL(ctx context.Context, objectPath string) (string, error) {
	oh, p, err := s.object(objectPath)
	if err != nil {
		return "", err
	}

	switch s.Mode {
	case URLModePublic:
		return publicObjectURL(s.PublicBaseURL, s.Bucket, p), nil
	case URLModeSigned:
		return s.signedURL(ctx, p)
	default:
		attrs, err := oh.Attrs(ctx)
		if err != nil {
			return "", err
		}
		token := firstToken(attrs.Metadata)
		if token == "" {
			// objects written by other tools carry no token yet
			token = s.newToken()
			md := map[string]string{firebaseTokenKey: token}
			if _, err := oh.Update(ctx, storage.ObjectAttrsToUpdate{Metadata: md}); err != nil {
				return "", err
			}
		}
		return firebaseDownloadURL(s.FirebaseBaseURL, s.Bucket, p, token), nil
	}
}

// Delete treats a missing object as already deleted.
func (s *AssetBlobStoreGCS) Delete(ctx context.Context, objectPath string) error {
	oh, _, err := s.object(objectPath)
	if err != nil {
		return err
	}
	if err := oh.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *AssetBlobStoreGCS) signedURL(ctx context.Context, objectPath string) (string, error) {
	accessID := strings.TrimSpace(s.SignerEmail)
	if accessID == "" {
		return "", ErrSignerNotConfig
	}
	expiresIn := s.SignedURLExpiry
	if expiresIn <= 0 || expiresIn > 7*24*time.Hour {
		expiresIn = 7 * 24 * time.Hour
	}

	svc, err := iamcredentials.NewService(ctx)
	if err != nil {
		return "", fmt.Errorf("asset_blob_store_gcs: iamcredentials init failed: %w", err)
	}
	signBytes := func(b []byte) ([]byte, error) {
		name := fmt.Sprintf("projects/-/serviceAccounts/%s", accessID)
		req := &iamcredentials.SignBlobRequest{Payload: base64.StdEncoding.EncodeToString(b)}
		resp, err := svc.Projects.ServiceAccounts.SignBlob(name, req).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(resp.SignedBlob)
	}

	return storage.SignedURL(s.Bucket, objectPath, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		GoogleAccessID: accessID,
		SignBytes:      signBytes,
		Expires:        s.now().UTC().Add(expiresIn),
	})
}
