// internal/domain/asset/entity.go
package asset

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Asset is one captured or selected photo.
//   - docId = ID (Unix millis of the capture instant)
//   - blob  = ObjectPath(UserID, ID, Metadata.Format)
type Asset struct {
	ID          string     `json:"id" firestore:"id"`
	UserID      string     `json:"userId" firestore:"userId"`
	URL         string     `json:"url" firestore:"url"`
	LocalPath   string     `json:"localPath" firestore:"localPath"`
	Title       string     `json:"title" firestore:"title"`
	Description string     `json:"description" firestore:"description"`
	CreatedAt   time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty" firestore:"updatedAt,omitempty"`
	Metadata    Metadata   `json:"metadata" firestore:"metadata"`
	Tags        []string   `json:"tags,omitempty" firestore:"tags,omitempty"`
	Location    *Location  `json:"location,omitempty" firestore:"location,omitempty"`
}

type Metadata struct {
	Width  *int        `json:"width,omitempty" firestore:"width,omitempty"`
	Height *int        `json:"height,omitempty" firestore:"height,omitempty"`
	Format string      `json:"format" firestore:"format"`
	Size   *int64      `json:"size,omitempty" firestore:"size,omitempty"`
	Device *string     `json:"device,omitempty" firestore:"device,omitempty"`
	Camera *CameraInfo `json:"camera,omitempty" firestore:"camera,omitempty"`
}

type CameraInfo struct {
	Make     *string         `json:"make,omitempty" firestore:"make,omitempty"`
	Model    *string         `json:"model,omitempty" firestore:"model,omitempty"`
	Lens     *string         `json:"lens,omitempty" firestore:"lens,omitempty"`
	Settings *CameraSettings `json:"settings,omitempty" firestore:"settings,omitempty"`
}

type CameraSettings struct {
	ISO          *int     `json:"iso,omitempty" firestore:"iso,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty" firestore:"aperture,omitempty"`
	ShutterSpeed *float64 `json:"shutterSpeed,omitempty" firestore:"shutterSpeed,omitempty"`
	Flash        *bool    `json:"flash,omitempty" firestore:"flash,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
	Address   *string `json:"address,omitempty" firestore:"address,omitempty"`
	City      *string `json:"city,omitempty" firestore:"city,omitempty"`
	Country   *string `json:"country,omitempty" firestore:"country,omitempty"`
}

// Patch is the remote update issued by an info edit.
type Patch struct {
	Title       string
	Description string
	UpdatedAt   time.Time
}

var (
	ErrInvalidID        = errors.New("asset: invalid id")
	ErrInvalidUserID    = errors.New("asset: invalid userId")
	ErrInvalidURL       = errors.New("asset: invalid url")
	ErrInvalidTitle     = errors.New("asset: invalid title")
	ErrInvalidCreatedAt = errors.New("asset: invalid createdAt")
	ErrInvalidFormat    = errors.New("asset: invalid format")
	ErrInvalidLocation  = errors.New("asset: invalid location")
	ErrNotFound         = errors.New("asset: not found")
)

const (
	DefaultFormat  = "jpeg"
	MaxTitleLength = 120
	objectRoot     = "photos"
)

// NewID derives the record id from the capture instant (Unix milliseconds).
func NewID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// DefaultTitle names the n-th photo of a gallery.
func DefaultTitle(n int) string {
	return fmt.Sprintf("Photo %d", n)
}

// NormalizeFormat lowercases a format name and falls back to jpeg.
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, "image/")
	switch f {
	case "":
		return DefaultFormat
	case "jpg":
		return "jpeg"
	}
	return f
}

// Extension returns the file extension used for a format.
func Extension(format string) string {
	f := NormalizeFormat(format)
	if f == "jpeg" {
		return "jpg"
	}
	return f
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	return "image/" + NormalizeFormat(format)
}

// ObjectPath is the blob path of a record: photos/{userId}/{id}.{ext}.
func ObjectPath(userID, id, format string) string {
	return fmt.Sprintf("%s/%s/%s.%s",
		objectRoot,
		strings.TrimSpace(userID),
		strings.TrimSpace(id),
		Extension(format),
	)
}

// ObjectPath returns the blob path for a.
func (a Asset) ObjectPath() string {
	return ObjectPath(a.UserID, a.ID, a.Metadata.Format)
}

// ObjectPaths lists every path the blob of a may live at. Older clients
// always uploaded .jpg whatever the recorded format.
func (a Asset) ObjectPaths() []string {
	p := a.ObjectPath()
	legacy := ObjectPath(a.UserID, a.ID, "jpg")
	if legacy == p {
		return []string{p}
	}
	return []string{p, legacy}
}

// Validate checks the fields every stored record must carry.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrInvalidID
	}
	if strings.TrimSpace(a.UserID) == "" {
		return ErrInvalidUserID
	}
	if strings.TrimSpace(a.URL) == "" {
		return ErrInvalidURL
	}
	if t := strings.TrimSpace(a.Title); t == "" || len([]rune(t)) > MaxTitleLength {
		return ErrInvalidTitle
	}
	if a.CreatedAt.IsZero() {
		return ErrInvalidCreatedAt
	}
	if strings.TrimSpace(a.Metadata.Format) == "" {
		return ErrInvalidFormat
	}
	if l := a.Location; l != nil {
		if l.Latitude < -90 || l.Latitude > 90 || l.Longitude < -180 || l.Longitude > 180 {
			return ErrInvalidLocation
		}
	}
	return nil
}

// ApplyPatch copies an info edit into a.
func (a *Asset) ApplyPatch(p Patch) {
	a.Title = p.Title
	a.Description = p.Description
	t := p.UpdatedAt.UTC()
	a.UpdatedAt = &t
}

// Clone returns a deep copy so callers never share pointers with the manager's list.
func (a Asset) Clone() Asset {
	out := a
	if a.UpdatedAt != nil {
		t := *a.UpdatedAt
		out.UpdatedAt = &t
	}
	out.Metadata = a.Metadata.clone()
	if a.Tags != nil {
		out.Tags = append([]string(nil), a.Tags...)
	}
	if a.Location != nil {
		l := *a.Location
		l.Address = cloneStr(a.Location.Address)
		l.City = cloneStr(a.Location.City)
		l.Country = cloneStr(a.Location.Country)
		out.Location = &l
	}
	return out
}

func (m Metadata) clone() Metadata {
	out := m
	out.Width = clonePtr(m.Width)
	out.Height = clonePtr(m.Height)
	out.Size = clonePtr(m.Size)
	out.Device = cloneStr(m.Device)
	if m.Camera != nil {
		c := *m.Camera
		c.Make = cloneStr(m.Camera.Make)
		c.Model = cloneStr(m.Camera.Model)
		c.Lens = cloneStr(m.Camera.Lens)
		if m.Camera.Settings != nil {
			s := *m.Camera.Settings
			s.ISO = clonePtr(m.Camera.Settings.ISO)
			s.Aperture = clonePtr(m.Camera.Settings.Aperture)
			s.ShutterSpeed = clonePtr(m.Camera.Settings.ShutterSpeed)
			s.Flash = clonePtr(m.Camera.Settings.Flash)
			c.Settings = &s
		}
		out.Camera = &c
	}
	return out
}

// CloneAll deep-copies a list.
func CloneAll(src []Asset) []Asset {
	if src == nil {
		return nil
	}
	out := make([]Asset, len(src))
	for i := range src {
		out[i] = src[i].Clone()
	}
	return out
}

// NormalizeTags trims, drops empties and duplicates; an empty result is nil.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStr(p *string) *string { return clonePtr(p) }
