// internal/domain/asset/gallery.go
package asset

import (
	"sort"
	"strings"
	"time"
)

type SortBy string

const (
	SortByDate  SortBy = "date"
	SortByTitle SortBy = "title"
	SortBySize  SortBy = "size"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Stats summarises a gallery.
type Stats struct {
	Total       int
	TotalSize   int64
	AverageSize int64
	Oldest      *time.Time
	Newest      *time.Time
}

// ParseSortBy falls back to date for unknown values.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortByTitle:
		return SortByTitle
	case SortBySize:
		return SortBySize
	}
	return SortByDate
}

// ParseSortOrder falls back to desc for unknown values.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == OrderAsc {
		return OrderAsc
	}
	return OrderDesc
}

// InDateRange returns the records created within [start, end], keeping input order.
func InDateRange(items []Asset, start, end time.Time) []Asset {
	out := make([]Asset, 0)
	for _, a := range items {
		if a.CreatedAt.Before(start) || a.CreatedAt.After(end) {
			continue
		}
		out = append(out, a.Clone())
	}
	return out
}

// Sort returns a sorted copy. Ties keep their input order.
func Sort(items []Asset, by SortBy, order SortOrder) []Asset {
	out := CloneAll(items)
	if out == nil {
		out = []Asset{}
	}
	less := func(i, j int) bool {
		switch by {
		case SortByTitle:
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		case SortBySize:
			return sizeOf(out[i]) < sizeOf(out[j])
		default:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
	}
	if order == OrderDesc {
		sort.SliceStable(out, func(i, j int) bool { return less(j, i) })
	} else {
		sort.SliceStable(out, less)
	}
	return out
}

// ComputeStats aggregates count, sizes and the creation-time span.
func ComputeStats(items []Asset) Stats {
	var st Stats
	st.Total = len(items)
	for _, a := range items {
		st.TotalSize += sizeOf(a)
		t := a.CreatedAt
		if st.Oldest == nil || t.Before(*st.Oldest) {
			o := t
			st.Oldest = &o
		}
		if st.Newest == nil || t.After(*st.Newest) {
			n := t
			st.Newest = &n
		}
	}
	if st.Total > 0 {
		st.AverageSize = st.TotalSize / int64(st.Total)
	}
	return st
}

func sizeOf(a Asset) int64 {
	if a.Metadata.Size == nil {
		return 0
	}
	return *a.Metadata.Size
}

// OwnedBy drops records that belong to another user.
func OwnedBy(items []Asset, userID string) []Asset {
	userID = strings.TrimSpace(userID)
	out := make([]Asset, 0, len(items))
	for _, a := range items {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}
