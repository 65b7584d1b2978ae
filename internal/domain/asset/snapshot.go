// internal/domain/asset/snapshot.go
package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SnapshotTimeLayout is the fixed timestamp format of the local snapshot.
const SnapshotTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrInvalidSnapshot = errors.New("asset: invalid snapshot")

// snapshotRecord is the on-disk shape; timestamps are strings so the layout stays fixed.
type snapshotRecord struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	URL         string    `json:"url"`
	LocalPath   string    `json:"localPath"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   *string   `json:"updatedAt,omitempty"`
	Metadata    Metadata  `json:"metadata"`
	Tags        []string  `json:"tags,omitempty"`
	Location    *Location `json:"location,omitempty"`
}

// EncodeSnapshot renders the list as a JSON array with fixed-format UTC timestamps.
func EncodeSnapshot(items []Asset) ([]byte, error) {
	recs := make([]snapshotRecord, 0, len(items))
	for _, a := range items {
		r := snapshotRecord{
			ID:          a.ID,
			UserID:      a.UserID,
			URL:         a.URL,
			LocalPath:   a.LocalPath,
			Title:       a.Title,
			Description: a.Description,
			CreatedAt:   formatSnapshotTime(a.CreatedAt),
			Metadata:    a.Metadata,
			Tags:        a.Tags,
			Location:    a.Location,
		}
		if a.UpdatedAt != nil {
			s := formatSnapshotTime(*a.UpdatedAt)
			r.UpdatedAt = &s
		}
		recs = append(recs, r)
	}
	return json.Marshal(recs)
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot. It also accepts
// RFC 3339 timestamps with millisecond precision written by older clients.
func DecodeSnapshot(data []byte) ([]Asset, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return []Asset{}, nil
	}
	var recs []snapshotRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	out := make([]Asset, 0, len(recs))
	for i, r := range recs {
		createdAt, err := parseSnapshotTime(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d createdAt: %v", ErrInvalidSnapshot, i, err)
		}
		a := Asset{
			ID:          r.ID,
			UserID:      r.UserID,
			URL:         r.URL,
			LocalPath:   r.LocalPath,
			Title:       r.Title,
			Description: r.Description,
			CreatedAt:   createdAt,
			Metadata:    r.Metadata,
			Tags:        r.Tags,
			Location:    r.Location,
		}
		if r.UpdatedAt != nil {
			t, err := parseSnapshotTime(*r.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("%w: record %d updatedAt: %v", ErrInvalidSnapshot, i, err)
			}
			a.UpdatedAt = &t
		}
		out = append(out, a)
	}
	return out, nil
}

func formatSnapshotTime(t time.Time) string {
	return t.UTC().Format(SnapshotTimeLayout)
}

func parseSnapshotTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(SnapshotTimeLayout, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
