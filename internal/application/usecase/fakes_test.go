package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"drmoto/internal/application/observable"
	"drmoto/internal/domain/asset"
	"drmoto/internal/domain/capture"
	orderdom "drmoto/internal/domain/order"
	productdom "drmoto/internal/domain/product"
	"drmoto/internal/domain/session"
	userdom "drmoto/internal/domain/user"
)

var fixedNow = time.Date(2024, 4, 10, 15, 30, 0, 0, time.UTC)

func fixedClock() Clock { return ClockFunc(func() time.Time { return fixedNow }) }

// ----------------------------
// identity provider
// ----------------------------

type fakeProvider struct {
	createFn  func(ctx context.Context, email, password, name string) (session.Identity, error)
	signInFn  func(ctx context.Context, email, password string) (session.Identity, error)
	signOutFn func(ctx context.Context) error
	resetFn   func(ctx context.Context, email string) error
	deleteFn  func(ctx context.Context, uid string) error
	tokenFn   func(ctx context.Context) (string, error)

	stream  *observable.Value[*session.Identity]
	deleted []string
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{stream: observable.New[*session.Identity](nil)}
}

func (f *fakeProvider) CreateAccount(ctx context.Context, email, password, name string) (session.Identity, error) {
	return f.createFn(ctx, email, password, name)
}

func (f *fakeProvider) SignIn(ctx context.Context, email, password string) (session.Identity, error) {
	id, err := f.signInFn(ctx, email, password)
	if err == nil {
		f.stream.Set(&id)
	}
	return id, err
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.stream.Set(nil)
	if f.signOutFn == nil {
		return nil
	}
	return f.signOutFn(ctx)
}

func (f *fakeProvider) SendResetEmail(ctx context.Context, email string) error {
	return f.resetFn(ctx, email)
}

func (f *fakeProvider) DeleteAccount(ctx context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, uid)
}

func (f *fakeProvider) Subscribe(fn func(*session.Identity)) func() {
	return f.stream.Subscribe(fn)
}

func (f *fakeProvider) IDToken(ctx context.Context) (string, error) {
	if f.tokenFn == nil {
		return "", session.ErrNoSession
	}
	return f.tokenFn(ctx)
}

// ----------------------------
// user documents
// ----------------------------

type fakeUsers struct {
	mu        sync.Mutex
	docs      map[string]userdom.User
	createErr error
	getErr    error
	updateErr error
}

func newFakeUsers() *fakeUsers { return &fakeUsers{docs: map[string]userdom.User{}} }

func (f *fakeUsers) Create(_ context.Context, u userdom.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.docs[u.ID]; ok {
		return userdom.ErrConflict
	}
	f.docs[u.ID] = u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*userdom.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.docs[id]
	if !ok {
		return nil, userdom.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, u userdom.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.docs[u.ID]; !ok {
		return userdom.ErrNotFound
	}
	f.docs[u.ID] = u
	return nil
}

// ----------------------------
// preference store
// ----------------------------

type fakePrefs struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	sets   int
}

func newFakePrefs() *fakePrefs { return &fakePrefs{data: map[string]string{}} }

func (f *fakePrefs) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakePrefs) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	f.data[key] = value
	return nil
}

// ----------------------------
// capture + fetch
// ----------------------------

type fakeCapture struct {
	fn   func(ctx context.Context, opts capture.Options) (capture.Result, error)
	last capture.Options
}

func (f *fakeCapture) Capture(ctx context.Context, opts capture.Options) (capture.Result, error) {
	f.last = opts
	return f.fn(ctx, opts)
}

type fakeFetcher struct {
	fn func(ctx context.Context, uri string) ([]byte, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f.fn(ctx, uri)
}

// ----------------------------
// blob + document stores
// ----------------------------

type fakeBlobs struct {
	uploadFn func(path string, data []byte) error
	urlFn    func(path string) (string, error)
	deleteFn func(path string) error

	uploaded map[string][]byte
	deleted  []string
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{uploaded: map[string][]byte{}} }

func (f *fakeBlobs) Upload(_ context.Context, path, _ string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if f.uploadFn != nil {
		if err := f.uploadFn(path, data); err != nil {
			return err
		}
	}
	f.uploaded[path] = data
	return nil
}

func (f *fakeBlobs) DownloadURL(_ context.Context, path string) (string, error) {
	if f.urlFn != nil {
		return f.urlFn(path)
	}
	return "https://blobs.example/" + path, nil
}

func (f *fakeBlobs) Delete(_ context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	if f.deleteFn != nil {
		return f.deleteFn(path)
	}
	delete(f.uploaded, path)
	return nil
}

type fakeDocs struct {
	setFn    func(a asset.Asset) error
	updateFn func(id string, p asset.Patch) error
	deleteFn func(id string) error
	listFn   func(userID string, order asset.SortOrder) ([]asset.Asset, error)

	calls []string
	saved map[string]asset.Asset
}

func newFakeDocs() *fakeDocs { return &fakeDocs{saved: map[string]asset.Asset{}} }

func (f *fakeDocs) Set(_ context.Context, a asset.Asset) error {
	f.calls = append(f.calls, "set")
	if f.setFn != nil {
		if err := f.setFn(a); err != nil {
			return err
		}
	}
	f.saved[a.ID] = a
	return nil
}

func (f *fakeDocs) GetByID(_ context.Context, id string) (*asset.Asset, error) {
	f.calls = append(f.calls, "get")
	a, ok := f.saved[id]
	if !ok {
		return nil, asset.ErrNotFound
	}
	return &a, nil
}

func (f *fakeDocs) Update(_ context.Context, id string, p asset.Patch) error {
	f.calls = append(f.calls, "update")
	if f.updateFn != nil {
		return f.updateFn(id, p)
	}
	return nil
}

func (f *fakeDocs) Delete(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete")
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	delete(f.saved, id)
	return nil
}

func (f *fakeDocs) ListByOwner(_ context.Context, userID string, order asset.SortOrder) ([]asset.Asset, error) {
	f.calls = append(f.calls, "list")
	if f.listFn != nil {
		return f.listFn(userID, order)
	}
	return nil, nil
}

// ----------------------------
// catalog + orders
// ----------------------------

type fakeCatalog struct {
	products   map[int64]productdom.Product
	categories []productdom.Category
	err        error
	searched   string
}

func (f *fakeCatalog) List(_ context.Context, flt productdom.Filter) ([]productdom.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []productdom.Product
	for _, p := range f.products {
		if flt.Match(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id int64) (*productdom.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, productdom.ErrNotFound
	}
	return &p, nil
}

func (f *fakeCatalog) Categories(context.Context) ([]productdom.Category, error) {
	return f.categories, f.err
}

func (f *fakeCatalog) Search(ctx context.Context, q string) ([]productdom.Product, error) {
	f.searched = q
	return f.List(ctx, productdom.Filter{Query: q})
}

type fakeSubmitter struct {
	fn     func(o orderdom.Order) (orderdom.Receipt, error)
	orders []orderdom.Order
}

func (f *fakeSubmitter) Create(_ context.Context, o orderdom.Order) (orderdom.Receipt, error) {
	f.orders = append(f.orders, o)
	return f.fn(o)
}
