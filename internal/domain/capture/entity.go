// internal/domain/capture/entity.go
package capture

import (
	"context"
	"errors"
	"strings"
)

// Source selects where the platform facility takes the image from.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceLibrary Source = "library"
)

// ParseSource accepts the names used by the shell and the original app.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "camera", "capture":
		return SourceCamera, nil
	case "library", "photos", "select", "gallery":
		return SourceLibrary, nil
	}
	return "", ErrInvalidSource
}

// Options are the bounds requested from the capture facility.
type Options struct {
	Source    Source
	Quality   int
	MaxWidth  int
	MaxHeight int
}

// DefaultOptions mirrors the original capture call: quality 90, 1024×1024.
func DefaultOptions(src Source) Options {
	return Options{Source: src, Quality: 90, MaxWidth: 1024, MaxHeight: 1024}
}

// Result describes the image the facility produced.
type Result struct {
	URI    string
	Width  int
	Height int
	Format string
}

var (
	// ErrCancelled is returned when the user dismisses the camera or picker.
	ErrCancelled     = errors.New("capture: cancelled")
	ErrInvalidSource = errors.New("capture: invalid source")
)

// FacilityPort is the platform capture facility.
type FacilityPort interface {
	Capture(ctx context.Context, opts Options) (Result, error)
}

// FetcherPort reads the raw bytes behind a capture URI.
type FetcherPort interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}
