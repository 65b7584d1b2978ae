// internal/adapters/out/firestore/user_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	udom "drmoto/internal/domain/user"
)

// =====================================================
// Firestore User Repository
// =====================================================
//
// IMPORTANT:
// - users コレクションの DocID は "user.ID(=Firebase Auth UID)" に統一する。
// =====================================================

type UserRepositoryFS struct {
	Client     *firestore.Client
	Collection string
}

var _ udom.RepositoryPort = (*UserRepositoryFS)(nil)

func NewUserRepositoryFS(client *firestore.Client, collection string) *UserRepositoryFS {
	if strings.TrimSpace(collection) == "" {
		collection = "users"
	}
	return &UserRepositoryFS{Client: client, Collection: collection}
}

func (r *UserRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(r.Collection)
}

func (r *UserRepositoryFS) GetByID(ctx context.Context, id string) (*udom.User, error) {
	if r.Client == nil {
		return nil, errNilClient
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, udom.ErrInvalidID
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, udom.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u := docToUser(snap.Ref.ID, snap.Data())
	return &u, nil
}

// Create uses the UID as DocID; an existing document is a conflict.
func (r *UserRepositoryFS) Create(ctx context.Context, v udom.User) error {
	if r.Client == nil {
		return errNilClient
	}
	id := strings.TrimSpace(v.ID)
	if id == "" {
		return udom.ErrInvalidID
	}

	if _, err := r.col().Doc(id).Create(ctx, userToDoc(v)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return udom.ErrConflict
		}
		return err
	}
	return nil
}

// Update patches the mutable profile fields of an existing document.
func (r *UserRepositoryFS) Update(ctx context.Context, v udom.User) error {
	if r.Client == nil {
		return errNilClient
	}
	id := strings.TrimSpace(v.ID)
	if id == "" {
		return udom.ErrInvalidID
	}

	updatedAt := time.Now().UTC()
	if v.UpdatedAt != nil {
		updatedAt = v.UpdatedAt.UTC()
	}

	updates := []firestore.Update{
		{Path: "displayName", Value: strings.TrimSpace(v.DisplayName)},
		{Path: "photoURL", Value: strings.TrimSpace(v.PhotoURL)},
		{Path: "updatedAt", Value: updatedAt},
	}
	if v.Preferences != nil {
		updates = append(updates, firestore.Update{Path: "preferences", Value: prefsToDoc(*v.Preferences)})
	} else {
		updates = append(updates, firestore.Update{Path: "preferences", Value: firestore.Delete})
	}

	if _, err := r.col().Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return udom.ErrNotFound
		}
		return err
	}
	return nil
}

// =====================================================
// Mapping helpers
// =====================================================

func userToDoc(v udom.User) map[string]any {
	data := map[string]any{
		"uid":         strings.TrimSpace(v.ID),
		"email":       strings.TrimSpace(v.Email),
		"displayName": strings.TrimSpace(v.DisplayName),
		"photoURL":    strings.TrimSpace(v.PhotoURL),
		"createdAt":   v.CreatedAt.UTC(),
	}
	if t := normalizeTimePtr(v.UpdatedAt); t != nil {
		data["updatedAt"] = *t
	}
	if v.Preferences != nil {
		data["preferences"] = prefsToDoc(*v.Preferences)
	}
	return data
}

func prefsToDoc(p udom.Preferences) map[string]any {
	return map[string]any{
		"theme":         string(p.Theme),
		"cameraQuality": p.CameraQuality,
		"autoUpload":    p.AutoUpload,
		"notifications": p.Notifications,
	}
}

func docToUser(docID string, data map[string]any) udom.User {
	u := udom.User{
		ID:          strings.TrimSpace(asString(data["uid"])),
		Email:       strings.TrimSpace(asString(data["email"])),
		DisplayName: strings.TrimSpace(asString(data["displayName"])),
		PhotoURL:    strings.TrimSpace(asString(data["photoURL"])),
	}
	if u.ID == "" {
		u.ID = docID
	}
	if t, ok := asTime(data["createdAt"]); ok {
		u.CreatedAt = t
	}
	if t, ok := asTime(data["updatedAt"]); ok {
		u.UpdatedAt = &t
	}
	if m := asMap(data["preferences"]); m != nil {
		u.Preferences = &udom.Preferences{
			Theme:         udom.Theme(asString(m["theme"])),
			CameraQuality: asInt(m["cameraQuality"]),
			AutoUpload:    asBool(m["autoUpload"]),
			Notifications: asBool(m["notifications"]),
		}
	}
	return u
}
