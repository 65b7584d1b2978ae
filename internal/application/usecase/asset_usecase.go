// internal/application/usecase/asset_usecase.go
package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"drmoto/internal/domain/asset"
	"drmoto/internal/domain/capture"
	userdom "drmoto/internal/domain/user"
)

// Source tells which tier LoadAll read from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// SnapshotKeyPrefix scopes the local asset snapshot per user.
const SnapshotKeyPrefix = "drmoto_photos"

func SnapshotKey(userID string) string {
	return SnapshotKeyPrefix + ":" + strings.TrimSpace(userID)
}

// AssetManagerDeps are the collaborators of an AssetManager.
type AssetManagerDeps struct {
	Capture capture.FacilityPort
	Fetcher capture.FetcherPort
	Blobs   asset.BlobStorePort
	Docs    asset.RepositoryPort
	Prefs   PreferenceStore

	// Bounds overrides quality and size of DefaultOptions when non-zero.
	Bounds capture.Options
	// Device is recorded in the metadata of new captures when set.
	Device string

	Clock   Clock
	Logger  *zap.Logger
	Metrics Metrics
}

// AssetManager owns the newest-first asset list of one signed-in user.
// Every record in the list belongs to that user.
type AssetManager struct {
	owner string
	deps  AssetManagerDeps
	log   *zap.Logger
	m     Metrics
	guard *inFlight

	mu    sync.RWMutex
	items []asset.Asset
}

func NewAssetManager(owner *userdom.User, deps AssetManagerDeps) (*AssetManager, error) {
	if owner == nil || strings.TrimSpace(owner.ID) == "" {
		return nil, ErrNotAuthenticated
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &AssetManager{
		owner: strings.TrimSpace(owner.ID),
		deps:  deps,
		log:   log.With(zap.String("uid", owner.ID)),
		m:     orNop(deps.Metrics),
		guard: newInFlight(),
		items: []asset.Asset{},
	}, nil
}

// Owner is the user id the list is scoped to.
func (am *AssetManager) Owner() string { return am.owner }

// ============================================================
// Capture
// ============================================================

// Capture asks the platform facility for an image and runs the store
// sequence. A cancelled capture returns (nil, nil) and changes nothing.
// No record reaches the list until every remote write succeeded.
func (am *AssetManager) Capture(ctx context.Context, src capture.Source) (*asset.Asset, error) {
	release, err := am.guard.enter()
	if err != nil {
		am.m.AssetOperation("capture", ResultBusy)
		return nil, err
	}
	defer release()

	res, err := am.deps.Capture.Capture(ctx, am.options(src))
	if err != nil {
		if errors.Is(err, capture.ErrCancelled) {
			am.m.AssetOperation("capture", ResultCancelled)
			am.log.Debug("capture cancelled", zap.String("source", string(src)))
			return nil, nil
		}
		am.m.AssetOperation("capture", ResultError)
		am.log.Warn("capture device failure", zap.String("source", string(src)), zap.Error(err))
		return nil, &CaptureError{Kind: CaptureDeviceFailure, Err: err}
	}

	rec, err := am.store(ctx, res)
	am.m.AssetOperation("capture", resultOf(err))
	if err != nil {
		return nil, err
	}

	am.mu.Lock()
	am.items = append([]asset.Asset{rec.Clone()}, am.items...)
	snap := asset.CloneAll(am.items)
	am.mu.Unlock()

	am.flush(ctx, snap)
	return &rec, nil
}

func (am *AssetManager) options(src capture.Source) capture.Options {
	opts := capture.DefaultOptions(src)
	b := am.deps.Bounds
	if b.Quality > 0 {
		opts.Quality = b.Quality
	}
	if b.MaxWidth > 0 {
		opts.MaxWidth = b.MaxWidth
	}
	if b.MaxHeight > 0 {
		opts.MaxHeight = b.MaxHeight
	}
	return opts
}

// store runs fetch → upload → resolve URL → document write.
func (am *AssetManager) store(ctx context.Context, res capture.Result) (asset.Asset, error) {
	now := am.deps.Clock.Now().UTC()
	id := asset.NewID(now)
	format := asset.NormalizeFormat(res.Format)
	path := asset.ObjectPath(am.owner, id, format)

	data, err := am.deps.Fetcher.Fetch(ctx, res.URI)
	if err != nil {
		return asset.Asset{}, am.storeFailed(OpCapture, StageFetch, err)
	}

	if err := am.deps.Blobs.Upload(ctx, path, asset.ContentType(format), bytes.NewReader(data)); err != nil {
		return asset.Asset{}, am.storeFailed(OpCapture, StageUpload, err)
	}
	am.m.AssetUploadBytes(len(data))

	url, err := am.deps.Blobs.DownloadURL(ctx, path)
	if err != nil {
		am.discardBlob(ctx, path)
		return asset.Asset{}, am.storeFailed(OpCapture, StageResolveURL, err)
	}

	am.mu.RLock()
	n := len(am.items)
	am.mu.RUnlock()

	size := int64(len(data))
	rec := asset.Asset{
		ID:        id,
		UserID:    am.owner,
		URL:       url,
		LocalPath: res.URI,
		Title:     asset.DefaultTitle(n + 1),
		CreatedAt: now,
		Metadata: asset.Metadata{
			Width:  positive(res.Width),
			Height: positive(res.Height),
			Format: format,
			Size:   &size,
		},
	}
	if d := strings.TrimSpace(am.deps.Device); d != "" {
		rec.Metadata.Device = &d
	}

	if err := am.deps.Docs.Set(ctx, rec); err != nil {
		am.discardBlob(ctx, path)
		return asset.Asset{}, am.storeFailed(OpCapture, StageDocument, err)
	}
	am.log.Info("photo stored", zap.String("id", id), zap.String("path", path), zap.Int64("bytes", size))
	return rec, nil
}

// discardBlob removes an upload whose record could not be written.
func (am *AssetManager) discardBlob(ctx context.Context, path string) {
	if err := am.deps.Blobs.Delete(ctx, path); err != nil {
		am.log.Warn("orphaned blob left behind", zap.String("path", path), zap.Error(err))
	}
}

func (am *AssetManager) storeFailed(op WriteOp, stage Stage, err error) error {
	am.m.AssetStoreFailure(string(stage))
	am.log.Error("store sequence aborted",
		zap.String("op", string(op)),
		zap.String("stage", string(stage)),
		zap.Error(err),
	)
	return writeErr(op, stage, err)
}

// ============================================================
// LoadAll
// ============================================================

// LoadAll replaces the list with the owner's remote records (newest first).
// When the remote query fails it falls back to the local snapshot; the two
// tiers are never merged. Only when both fail is a *StoreReadError returned,
// and the list is left as it was.
func (am *AssetManager) LoadAll(ctx context.Context, userID string) (Source, error) {
	if strings.TrimSpace(userID) != am.owner {
		return "", &ValidationError{Field: "userId", Reason: "not the signed-in user"}
	}
	release, err := am.guard.enter()
	if err != nil {
		am.m.AssetOperation("load", ResultBusy)
		return "", err
	}
	defer release()

	remote, rerr := am.deps.Docs.ListByOwner(ctx, am.owner, asset.OrderDesc)
	if rerr == nil {
		items := asset.OwnedBy(remote, am.owner)
		am.replace(items)
		am.flush(ctx, items)
		am.m.AssetLoadSource(string(SourceRemote))
		am.m.AssetOperation("load", ResultOK)
		return SourceRemote, nil
	}
	am.log.Warn("remote query failed; reading local snapshot", zap.Error(rerr))

	local, lerr := am.readSnapshot(ctx)
	if lerr != nil {
		am.m.AssetOperation("load", ResultError)
		am.log.Error("local snapshot unreadable", zap.Error(lerr))
		return "", &StoreReadError{Source: SourceLocal, Err: errors.Join(rerr, lerr)}
	}
	am.replace(local)
	am.m.AssetLoadSource(string(SourceLocal))
	am.m.AssetOperation("load", ResultOK)
	return SourceLocal, nil
}

func (am *AssetManager) readSnapshot(ctx context.Context) ([]asset.Asset, error) {
	raw, found, err := am.deps.Prefs.Get(ctx, SnapshotKey(am.owner))
	if err != nil {
		return nil, err
	}
	if !found {
		return []asset.Asset{}, nil
	}
	items, err := asset.DecodeSnapshot([]byte(raw))
	if err != nil {
		return nil, err
	}
	return asset.OwnedBy(items, am.owner), nil
}

func (am *AssetManager) replace(items []asset.Asset) {
	cp := asset.CloneAll(items)
	if cp == nil {
		cp = []asset.Asset{}
	}
	am.mu.Lock()
	am.items = cp
	am.mu.Unlock()
}

// ============================================================
// UpdateInfo
// ============================================================

// UpdateInfo writes title, description and updatedAt remotely, then patches
// the in-memory record. A failed remote write leaves the record unchanged.
func (am *AssetManager) UpdateInfo(ctx context.Context, id, title, description string) error {
	release, err := am.guard.enter()
	if err != nil {
		am.m.AssetOperation("update", ResultBusy)
		return err
	}
	defer release()

	id = strings.TrimSpace(id)
	if _, ok := am.find(id); !ok {
		am.m.AssetOperation("update", ResultError)
		return writeErr(OpUpdate, StageDocument, asset.ErrNotFound)
	}

	patch := asset.Patch{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		UpdatedAt:   am.deps.Clock.Now().UTC(),
	}
	if err := am.deps.Docs.Update(ctx, id, patch); err != nil {
		am.m.AssetOperation("update", ResultError)
		return am.storeFailed(OpUpdate, StageDocument, err)
	}

	am.mu.Lock()
	for i := range am.items {
		if am.items[i].ID == id {
			am.items[i].ApplyPatch(patch)
			break
		}
	}
	snap := asset.CloneAll(am.items)
	am.mu.Unlock()

	am.flush(ctx, snap)
	am.m.AssetOperation("update", ResultOK)
	return nil
}

// ============================================================
// Delete
// ============================================================

// Delete removes the blob (at its recorded and legacy paths), then the document, then the list entry. A blob
// failure aborts before the document store is touched; a document failure
// keeps the record in the list.
func (am *AssetManager) Delete(ctx context.Context, rec asset.Asset) error {
	release, err := am.guard.enter()
	if err != nil {
		am.m.AssetOperation("delete", ResultBusy)
		return err
	}
	defer release()

	if rec.UserID != am.owner {
		am.m.AssetOperation("delete", ResultError)
		return &ValidationError{Field: "userId", Reason: "record belongs to another user"}
	}
	if stored, ok := am.find(rec.ID); ok {
		rec = stored
	}

	// a missing object counts as deleted, so every candidate path is cleared
	for _, path := range rec.ObjectPaths() {
		if err := am.deps.Blobs.Delete(ctx, path); err != nil {
			am.m.AssetOperation("delete", ResultError)
			return am.storeFailed(OpDelete, StageBlob, err)
		}
	}
	if err := am.deps.Docs.Delete(ctx, rec.ID); err != nil {
		am.m.AssetOperation("delete", ResultError)
		return am.storeFailed(OpDelete, StageDocument, err)
	}

	am.mu.Lock()
	for i := range am.items {
		if am.items[i].ID == rec.ID {
			am.items = append(am.items[:i:i], am.items[i+1:]...)
			break
		}
	}
	snap := asset.CloneAll(am.items)
	am.mu.Unlock()

	am.flush(ctx, snap)
	am.m.AssetOperation("delete", ResultOK)
	return nil
}

// ============================================================
// Reads
// ============================================================

// Assets returns a copy of the list, newest first.
func (am *AssetManager) Assets() []asset.Asset {
	am.mu.RLock()
	defer am.mu.RUnlock()
	out := asset.CloneAll(am.items)
	if out == nil {
		return []asset.Asset{}
	}
	return out
}

// Get returns a copy of the record with id.
func (am *AssetManager) Get(id string) (asset.Asset, bool) {
	return am.find(strings.TrimSpace(id))
}

func (am *AssetManager) Count() int {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return len(am.items)
}

func (am *AssetManager) InDateRange(start, end time.Time) []asset.Asset {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return asset.InDateRange(am.items, start, end)
}

func (am *AssetManager) Sorted(by asset.SortBy, order asset.SortOrder) []asset.Asset {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return asset.Sort(am.items, by, order)
}

func (am *AssetManager) Stats() asset.Stats {
	am.mu.RLock()
	defer am.mu.RUnlock()
	return asset.ComputeStats(am.items)
}

func (am *AssetManager) find(id string) (asset.Asset, bool) {
	am.mu.RLock()
	defer am.mu.RUnlock()
	for _, a := range am.items {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return asset.Asset{}, false
}

// flush writes the snapshot. The remote store is already authoritative at
// this point, so a failure is logged and not returned.
func (am *AssetManager) flush(ctx context.Context, items []asset.Asset) {
	data, err := asset.EncodeSnapshot(items)
	if err != nil {
		am.log.Error("encode snapshot", zap.Error(err))
		return
	}
	if err := am.deps.Prefs.Set(ctx, SnapshotKey(am.owner), string(data)); err != nil {
		am.log.Warn("flush snapshot failed", zap.Error(err))
	}
}

func positive(n int) *int {
	if n <= 0 {
		return nil
	}
	return &n
}
