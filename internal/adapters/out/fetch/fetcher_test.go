package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_Files(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(p, []byte("jpeg-bytes"), 0o600))

	f := NewFetcher(nil, 0)
	ctx := context.Background()

	data, err := f.Fetch(ctx, "file://"+p)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	data, err = f.Fetch(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))

	_, err = f.Fetch(ctx, "file://"+filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()
	ctx := context.Background()

	data, err := NewFetcher(srv.Client(), 0).Fetch(ctx, srv.URL+"/img")
	require.NoError(t, err)
	assert.Len(t, data, 10)

	_, err = NewFetcher(srv.Client(), 0).Fetch(ctx, srv.URL+"/missing")
	assert.Error(t, err)

	_, err = NewFetcher(srv.Client(), 4).Fetch(ctx, srv.URL+"/img")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFetch_Rejects(t *testing.T) {
	f := NewFetcher(nil, 0)
	_, err := f.Fetch(context.Background(), " ")
	assert.ErrorIs(t, err, ErrEmptyURI)

	_, err = f.Fetch(context.Background(), "ph://asset/1")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}
