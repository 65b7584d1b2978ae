package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drmoto/internal/domain/asset"
	"drmoto/internal/domain/capture"
	userdom "drmoto/internal/domain/user"
)

type assetFixture struct {
	am      *AssetManager
	capture *fakeCapture
	fetcher *fakeFetcher
	blobs   *fakeBlobs
	docs    *fakeDocs
	prefs   *fakePrefs
}

func newAssetFixture(t *testing.T) *assetFixture {
	t.Helper()
	f := &assetFixture{
		capture: &fakeCapture{fn: func(context.Context, capture.Options) (capture.Result, error) {
			return capture.Result{URI: "file:///tmp/shot.jpg", Width: 800, Height: 600, Format: "jpeg"}, nil
		}},
		fetcher: &fakeFetcher{fn: func(context.Context, string) ([]byte, error) {
			return []byte("jpeg-bytes"), nil
		}},
		blobs: newFakeBlobs(),
		docs:  newFakeDocs(),
		prefs: newFakePrefs(),
	}
	am, err := NewAssetManager(&userdom.User{ID: "uid-1"}, AssetManagerDeps{
		Capture: f.capture,
		Fetcher: f.fetcher,
		Blobs:   f.blobs,
		Docs:    f.docs,
		Prefs:   f.prefs,
		Clock:   fixedClock(),
	})
	require.NoError(t, err)
	f.am = am
	return f
}

func rec(id, owner string, created time.Time) asset.Asset {
	return asset.Asset{
		ID: id, UserID: owner, URL: "https://x/" + id, Title: "Photo " + id,
		CreatedAt: created, Metadata: asset.Metadata{Format: "jpeg"},
	}
}

func (f *assetFixture) seed(t *testing.T, items ...asset.Asset) {
	t.Helper()
	f.docs.listFn = func(string, asset.SortOrder) ([]asset.Asset, error) { return items, nil }
	src, err := f.am.LoadAll(context.Background(), "uid-1")
	require.NoError(t, err)
	require.Equal(t, SourceRemote, src)
	f.docs.listFn = nil
	f.docs.calls = nil
}

func TestNewAssetManager_RequiresUser(t *testing.T) {
	_, err := NewAssetManager(nil, AssetManagerDeps{})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCapture_StoresThenPrepends(t *testing.T) {
	f := newAssetFixture(t)
	f.seed(t, rec("1", "uid-1", fixedNow.Add(-time.Hour)))

	got, err := f.am.Capture(context.Background(), capture.SourceCamera)
	require.NoError(t, err)
	require.NotNil(t, got)

	wantID := asset.NewID(fixedNow)
	assert.Equal(t, wantID, got.ID)
	assert.Equal(t, "uid-1", got.UserID)
	assert.Equal(t, "Photo 2", got.Title)
	assert.Equal(t, "https://blobs.example/photos/uid-1/"+wantID+".jpg", got.URL)
	assert.Equal(t, "file:///tmp/shot.jpg", got.LocalPath)
	assert.Equal(t, 800, *got.Metadata.Width)
	assert.Equal(t, int64(len("jpeg-bytes")), *got.Metadata.Size)

	assert.Equal(t, capture.Options{Source: capture.SourceCamera, Quality: 90, MaxWidth: 1024, MaxHeight: 1024}, f.capture.last)
	assert.Contains(t, f.blobs.uploaded, "photos/uid-1/"+wantID+".jpg")
	assert.Equal(t, []string{"set"}, f.docs.calls)

	list := f.am.Assets()
	require.Len(t, list, 2)
	assert.Equal(t, wantID, list[0].ID, "newest first")

	snap, err := asset.DecodeSnapshot([]byte(f.prefs.data[SnapshotKey("uid-1")]))
	require.NoError(t, err)
	assert.Equal(t, list, snap)
}

func TestCapture_CancelIsSilentNoop(t *testing.T) {
	f := newAssetFixture(t)
	f.seed(t, rec("1", "uid-1", fixedNow))
	setsBefore := f.prefs.sets
	f.capture.fn = func(context.Context, capture.Options) (capture.Result, error) {
		return capture.Result{}, capture.ErrCancelled
	}

	got, err := f.am.Capture(context.Background(), capture.SourceLibrary)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, f.am.Count())
	assert.Empty(t, f.blobs.uploaded)
	assert.Empty(t, f.docs.calls)
	assert.Equal(t, setsBefore, f.prefs.sets)
}

func TestCapture_DeviceFailure(t *testing.T) {
	f := newAssetFixture(t)
	f.capture.fn = func(context.Context, capture.Options) (capture.Result, error) {
		return capture.Result{}, errors.New("camera busy")
	}

	_, err := f.am.Capture(context.Background(), capture.SourceCamera)
	var ce *CaptureError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, CaptureDeviceFailure, ce.Kind)
	assert.Equal(t, MsgCaptureFailed, Message(err))
	assert.Zero(t, f.am.Count())
}

func TestCapture_StageFailuresLeaveListUntouched(t *testing.T) {
	boom := errors.New("boom")
	cases := []struct {
		name      string
		arrange   func(f *assetFixture)
		stage     Stage
		blobsLeft bool
	}{
		{"fetch", func(f *assetFixture) {
			f.fetcher.fn = func(context.Context, string) ([]byte, error) { return nil, boom }
		}, StageFetch, false},
		{"upload", func(f *assetFixture) {
			f.blobs.uploadFn = func(string, []byte) error { return boom }
		}, StageUpload, false},
		{"resolve-url", func(f *assetFixture) {
			f.blobs.urlFn = func(string) (string, error) { return "", boom }
		}, StageResolveURL, false},
		{"document", func(f *assetFixture) {
			f.docs.setFn = func(asset.Asset) error { return boom }
		}, StageDocument, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAssetFixture(t)
			tc.arrange(f)

			got, err := f.am.Capture(context.Background(), capture.SourceCamera)
			assert.Nil(t, got)

			var we *StoreWriteError
			require.ErrorAs(t, err, &we)
			assert.Equal(t, OpCapture, we.Op)
			assert.Equal(t, tc.stage, we.Stage)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, MsgCaptureFailed, Message(err))

			assert.Zero(t, f.am.Count())
			assert.Empty(t, f.blobs.uploaded, "no blob left behind")
			_, flushed := f.prefs.data[SnapshotKey("uid-1")]
			assert.False(t, flushed)
		})
	}
}

func TestLoadAll_RemoteReplacesAndFlushes(t *testing.T) {
	f := newAssetFixture(t)
	items := []asset.Asset{rec("2", "uid-1", fixedNow), rec("1", "uid-1", fixedNow.Add(-time.Minute))}
	var gotOrder asset.SortOrder
	f.docs.listFn = func(uid string, order asset.SortOrder) ([]asset.Asset, error) {
		assert.Equal(t, "uid-1", uid)
		gotOrder = order
		return items, nil
	}

	src, err := f.am.LoadAll(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, src)
	assert.Equal(t, asset.OrderDesc, gotOrder)
	assert.Equal(t, items, f.am.Assets())

	snap, err := asset.DecodeSnapshot([]byte(f.prefs.data[SnapshotKey("uid-1")]))
	require.NoError(t, err)
	assert.Equal(t, items, snap)
}

func TestLoadAll_RemoteFailureFallsBackToSnapshot(t *testing.T) {
	f := newAssetFixture(t)
	persisted := []asset.Asset{rec("5", "uid-1", fixedNow), rec("4", "uid-1", fixedNow.Add(-time.Hour))}
	data, err := asset.EncodeSnapshot(append(persisted, rec("x", "someone-else", fixedNow)))
	require.NoError(t, err)
	f.prefs.data[SnapshotKey("uid-1")] = string(data)

	f.docs.listFn = func(string, asset.SortOrder) ([]asset.Asset, error) {
		return nil, errors.New("offline")
	}

	src, err := f.am.LoadAll(context.Background(), "uid-1")
	require.NoError(t, err, "read failure degrades, it does not surface")
	assert.Equal(t, SourceLocal, src)
	assert.Equal(t, persisted, f.am.Assets())
}

func TestLoadAll_NoSnapshotYieldsEmpty(t *testing.T) {
	f := newAssetFixture(t)
	f.docs.listFn = func(string, asset.SortOrder) ([]asset.Asset, error) { return nil, errors.New("offline") }

	src, err := f.am.LoadAll(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, src)
	assert.Empty(t, f.am.Assets())
}

func TestLoadAll_BothTiersFail(t *testing.T) {
	f := newAssetFixture(t)
	f.seed(t, rec("1", "uid-1", fixedNow))
	f.docs.listFn = func(string, asset.SortOrder) ([]asset.Asset, error) { return nil, errors.New("offline") }
	f.prefs.getErr = errors.New("disk gone")

	_, err := f.am.LoadAll(context.Background(), "uid-1")
	var re *StoreReadError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, MsgLoadFailed, Message(err))
	assert.Equal(t, 1, f.am.Count(), "list unchanged")
}

func TestLoadAll_RejectsOtherUser(t *testing.T) {
	f := newAssetFixture(t)
	_, err := f.am.LoadAll(context.Background(), "uid-2")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, f.docs.calls)
}

func TestUpdateInfo_RemoteFirst(t *testing.T) {
	f := newAssetFixture(t)
	f.seed(t, rec("1", "uid-1", fixedNow.Add(-time.Hour)))

	var patch asset.Patch
	f.docs.updateFn = func(id string, p asset.Patch) error {
		assert.Equal(t, "1", id)
		patch = p
		return nil
	}

	require.NoError(t, f.am.UpdateInfo(context.Background(), "1", " Sunset ", "at the pier"))
	assert.Equal(t, "Sunset", patch.Title)
	assert.True(t, patch.UpdatedAt.Equal(fixedNow))

	got, ok := f.am.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Sunset", got.Title)
	assert.Equal(t, "at the pier", got.Description)
	require.NotNil(t, got.UpdatedAt)

	snap, err := asset.DecodeSnapshot([]byte(f.prefs.data[SnapshotKey("uid-1")]))
	require.NoError(t, err)
	assert.Equal(t, "Sunset", snap[0].Title)
}

func TestUpdateInfo_RemoteFailureKeepsRecord(t *testing.T) {
	f := newAssetFixture(t)
	orig := rec("1", "uid-1", fixedNow)
	orig.Description = "old"
	f.seed(t, orig)
	setsBefore := f.prefs.sets
	f.docs.updateFn = func(string, asset.Patch) error { return errors.New("permission denied") }

	err := f.am.UpdateInfo(context.Background(), "1", "New title", "new")

	var we *StoreWriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, OpUpdate, we.Op)
	assert.Equal(t, MsgSaveFailed, Message(err))

	got, _ := f.am.Get("1")
	assert.Equal(t, orig.Title, got.Title)
	assert.Equal(t, "old", got.Description)
	assert.Nil(t, got.UpdatedAt)
	assert.Equal(t, setsBefore, f.prefs.sets)
}

func TestUpdateInfo_UnknownID(t *testing.T) {
	f := newAssetFixture(t)
	err := f.am.UpdateInfo(context.Background(), "nope", "t", "")
	assert.ErrorIs(t, err, asset.ErrNotFound)
	assert.Empty(t, f.docs.calls)
}

func TestDelete_OrderBlobDocumentMemory(t *testing.T) {
	f := newAssetFixture(t)
	a := rec("1", "uid-1", fixedNow)
	b := rec("2", "uid-1", fixedNow.Add(-time.Hour))
	f.seed(t, a, b)

	require.NoError(t, f.am.Delete(context.Background(), a))
	assert.Equal(t, []string{"photos/uid-1/1.jpg"}, f.blobs.deleted)
	assert.Equal(t, []string{"delete"}, f.docs.calls)
	assert.Equal(t, []asset.Asset{b}, f.am.Assets())

	snap, err := asset.DecodeSnapshot([]byte(f.prefs.data[SnapshotKey("uid-1")]))
	require.NoError(t, err)
	assert.Equal(t, []asset.Asset{b}, snap)
}

func TestDelete_LegacyJPGBlobIsRemoved(t *testing.T) {
	f := newAssetFixture(t)
	a := rec("1", "uid-1", fixedNow)
	a.Metadata.Format = "png"
	f.seed(t, a)
	f.blobs.uploaded["photos/uid-1/1.jpg"] = []byte("legacy")

	require.NoError(t, f.am.Delete(context.Background(), a))
	assert.Equal(t, []string{"photos/uid-1/1.png", "photos/uid-1/1.jpg"}, f.blobs.deleted)
	assert.Empty(t, f.blobs.uploaded)
	assert.Equal(t, []string{"delete"}, f.docs.calls)
}

func TestDelete_BlobFailureNeverTouchesDocuments(t *testing.T) {
	f := newAssetFixture(t)
	a := rec("1", "uid-1", fixedNow)
	f.seed(t, a)
	f.blobs.deleteFn = func(string) error { return errors.New("503") }

	err := f.am.Delete(context.Background(), a)

	var we *StoreWriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, OpDelete, we.Op)
	assert.Equal(t, StageBlob, we.Stage)
	assert.Equal(t, MsgDeleteFailed, Message(err))
	assert.Empty(t, f.docs.calls)
	assert.Equal(t, []asset.Asset{a}, f.am.Assets())
}

func TestDelete_DocumentFailureKeepsRecord(t *testing.T) {
	f := newAssetFixture(t)
	a := rec("1", "uid-1", fixedNow)
	f.seed(t, a)
	f.docs.deleteFn = func(string) error { return errors.New("unavailable") }

	err := f.am.Delete(context.Background(), a)
	var we *StoreWriteError
	require.ErrorAs(t, err, &we)
	assert.Equal(t, StageDocument, we.Stage)
	assert.Equal(t, 1, f.am.Count())
}

func TestDelete_RejectsForeignRecord(t *testing.T) {
	f := newAssetFixture(t)
	err := f.am.Delete(context.Background(), rec("1", "intruder", fixedNow))
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Empty(t, f.blobs.deleted)
}

func TestInFlightGuard_RejectsConcurrentMutation(t *testing.T) {
	f := newAssetFixture(t)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	f.fetcher.fn = func(context.Context, string) ([]byte, error) {
		close(entered)
		<-proceed
		return []byte("x"), nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.am.Capture(context.Background(), capture.SourceCamera)
	}()

	<-entered
	_, err := f.am.Capture(context.Background(), capture.SourceCamera)
	assert.ErrorIs(t, err, ErrOperationInProgress)
	assert.Equal(t, MsgBusy, Message(err))
	assert.ErrorIs(t, f.am.UpdateInfo(context.Background(), "1", "t", ""), ErrOperationInProgress)

	close(proceed)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, f.am.Count())

	_, err = f.am.LoadAll(context.Background(), "uid-1")
	assert.NoError(t, err, "guard released after completion")
}

func TestGalleryReads(t *testing.T) {
	f := newAssetFixture(t)
	f.seed(t,
		rec("3", "uid-1", fixedNow),
		rec("2", "uid-1", fixedNow.Add(-24*time.Hour)),
		rec("1", "uid-1", fixedNow.Add(-48*time.Hour)),
	)

	assert.Equal(t, 3, f.am.Count())
	inRange := f.am.InDateRange(fixedNow.Add(-25*time.Hour), fixedNow)
	assert.Len(t, inRange, 2)

	asc := f.am.Sorted(asset.SortByDate, asset.OrderAsc)
	assert.Equal(t, "1", asc[0].ID)

	st := f.am.Stats()
	assert.Equal(t, 3, st.Total)
	assert.True(t, st.Newest.Equal(fixedNow))

	list := f.am.Assets()
	list[0].Title = "mutated"
	got, _ := f.am.Get("3")
	assert.NotEqual(t, "mutated", got.Title, "callers get copies")
}
