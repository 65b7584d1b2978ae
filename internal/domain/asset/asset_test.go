package asset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func fullAsset() Asset {
	updated := time.Date(2024, 3, 2, 10, 0, 0, 123456789, time.UTC)
	return Asset{
		ID:          "1709373600000",
		UserID:      "uid-1",
		URL:         "https://example.com/photos/uid-1/1709373600000.jpg",
		LocalPath:   "file:///tmp/capture.jpg",
		Title:       "Photo 1",
		Description: "harbour at dawn",
		CreatedAt:   time.Date(2024, 3, 2, 9, 0, 0, 500000000, time.UTC),
		UpdatedAt:   &updated,
		Metadata: Metadata{
			Width:  ptr(1024),
			Height: ptr(768),
			Format: "jpeg",
			Size:   ptr(int64(204800)),
			Device: ptr("Pixel 8"),
			Camera: &CameraInfo{
				Make:  ptr("Google"),
				Model: ptr("Pixel 8"),
				Settings: &CameraSettings{
					ISO:      ptr(100),
					Aperture: ptr(1.8),
					Flash:    ptr(false),
				},
			},
		},
		Tags: []string{"sea", "morning"},
		Location: &Location{
			Latitude:  40.4168,
			Longitude: -3.7038,
			City:      ptr("Madrid"),
		},
	}
}

func TestNewID_UsesUnixMillis(t *testing.T) {
	ts := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "1709370000000", NewID(ts))
}

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "photos/u1/42.jpg", ObjectPath("u1", "42", "jpeg"))
	assert.Equal(t, "photos/u1/42.jpg", ObjectPath("u1", "42", ""))
	assert.Equal(t, "photos/u1/42.png", ObjectPath("u1", "42", "image/png"))
	assert.Equal(t, "image/jpeg", ContentType("jpg"))
}

func TestObjectPaths_IncludesLegacyJPG(t *testing.T) {
	a := Asset{ID: "42", UserID: "u1", Metadata: Metadata{Format: "png"}}
	assert.Equal(t, []string{"photos/u1/42.png", "photos/u1/42.jpg"}, a.ObjectPaths())

	a.Metadata.Format = "jpeg"
	assert.Equal(t, []string{"photos/u1/42.jpg"}, a.ObjectPaths())
}

func TestValidate(t *testing.T) {
	a := fullAsset()
	require.NoError(t, a.Validate())

	b := a
	b.Title = "   "
	assert.ErrorIs(t, b.Validate(), ErrInvalidTitle)

	c := a
	c.Location = &Location{Latitude: 91}
	assert.ErrorIs(t, c.Validate(), ErrInvalidLocation)
}

func TestSnapshot_RoundTripIsLossless(t *testing.T) {
	minimal := Asset{
		ID:        "1",
		UserID:    "uid-1",
		URL:       "https://example.com/1.jpg",
		Title:     "Photo 2",
		CreatedAt: time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		Metadata:  Metadata{Format: "jpeg"},
	}
	in := []Asset{fullAsset(), minimal}

	data, err := EncodeSnapshot(in)
	require.NoError(t, err)

	out, err := DecodeSnapshot(data)
	require.NoError(t, err)
	require.Equal(t, in, out)

	assert.Nil(t, out[1].UpdatedAt)
	assert.Nil(t, out[1].Location)
	assert.Nil(t, out[1].Tags)
	assert.Nil(t, out[1].Metadata.Camera)
	assert.NotContains(t, string(data), "null")
}

func TestSnapshot_TimestampsUseFixedLayout(t *testing.T) {
	a := fullAsset()
	a.CreatedAt = time.Date(2024, 3, 2, 11, 0, 0, 0, time.FixedZone("CET", 3600))

	data, err := EncodeSnapshot([]Asset{a})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"createdAt":"2024-03-02T10:00:00.000000000Z"`)
}

func TestSnapshot_DecodesLegacyMillisecondTimestamps(t *testing.T) {
	raw := `[{"id":"7","userId":"u","url":"https://x/7.jpg","localPath":"","title":"Photo 1",
	"description":"","createdAt":"2024-01-05T08:30:00.250Z","metadata":{"format":"jpeg"}}]`

	out, err := DecodeSnapshot([]byte(raw))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].CreatedAt.Equal(time.Date(2024, 1, 5, 8, 30, 0, 250000000, time.UTC)))
}

func TestSnapshot_DecodeErrors(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	_, err = DecodeSnapshot([]byte(`[{"id":"1","createdAt":"yesterday","metadata":{"format":"jpeg"}}]`))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)

	out, err := DecodeSnapshot(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClone_DoesNotShareState(t *testing.T) {
	a := fullAsset()
	b := a.Clone()
	*b.Metadata.Width = 1
	b.Tags[0] = "changed"
	*b.Location.City = "Lisboa"

	assert.Equal(t, 1024, *a.Metadata.Width)
	assert.Equal(t, "sea", a.Tags[0])
	assert.Equal(t, "Madrid", *a.Location.City)
}

func TestGalleryQueries(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id, title string, day int, size int64) Asset {
		return Asset{
			ID: id, UserID: "u", Title: title,
			CreatedAt: base.AddDate(0, 0, day),
			Metadata:  Metadata{Format: "jpeg", Size: ptr(size)},
		}
	}
	items := []Asset{mk("3", "charlie", 3, 300), mk("2", "Bravo", 2, 100), mk("1", "alpha", 1, 200)}

	inRange := InDateRange(items, base.AddDate(0, 0, 2), base.AddDate(0, 0, 3))
	require.Len(t, inRange, 2)
	assert.Equal(t, "3", inRange[0].ID)
	assert.Equal(t, "2", inRange[1].ID)

	byTitle := Sort(items, SortByTitle, OrderAsc)
	assert.Equal(t, []string{"1", "2", "3"}, ids(byTitle))

	bySize := Sort(items, SortBySize, OrderDesc)
	assert.Equal(t, []string{"3", "1", "2"}, ids(bySize))

	byDate := Sort(items, SortByDate, OrderAsc)
	assert.Equal(t, []string{"1", "2", "3"}, ids(byDate))
	assert.Equal(t, "3", items[0].ID, "input must not be reordered")

	st := ComputeStats(items)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, int64(600), st.TotalSize)
	assert.Equal(t, int64(200), st.AverageSize)
	assert.True(t, st.Oldest.Equal(base.AddDate(0, 0, 1)))
	assert.True(t, st.Newest.Equal(base.AddDate(0, 0, 3)))

	empty := ComputeStats(nil)
	assert.Zero(t, empty.Total)
	assert.Nil(t, empty.Oldest)
}

func TestOwnedBy(t *testing.T) {
	items := []Asset{{ID: "1", UserID: "a"}, {ID: "2", UserID: "b"}, {ID: "3", UserID: "a"}}
	assert.Equal(t, []string{"1", "3"}, ids(OwnedBy(items, "a")))
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags([]string{" ", ""}))
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" a", "b", "a"}))
}

func ids(items []Asset) []string {
	out := make([]string, 0, len(items))
	for _, a := range items {
		out = append(out, a.ID)
	}
	return out
}
