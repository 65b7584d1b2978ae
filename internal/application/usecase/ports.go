// internal/application/usecase/ports.go
package usecase

import (
	"context"
	"time"
)

// PreferenceStore is the local key-value store for JSON blobs.
// Get reports found=false for a key that was never written.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Clock provides current time (for testability).
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
