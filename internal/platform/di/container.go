// internal/platform/di/container.go
package di

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	capadapter "drmoto/internal/adapters/out/capture"
	pgrepo "drmoto/internal/adapters/out/db"
	fetchadapter "drmoto/internal/adapters/out/fetch"
	fbadapter "drmoto/internal/adapters/out/firebase"
	fsrepo "drmoto/internal/adapters/out/firestore"
	gcsadapter "drmoto/internal/adapters/out/gcs"
	httpout "drmoto/internal/adapters/out/http"
	mailadapter "drmoto/internal/adapters/out/mail"
	prefsadapter "drmoto/internal/adapters/out/prefs"
	redisadapter "drmoto/internal/adapters/out/redis"
	uc "drmoto/internal/application/usecase"
	"drmoto/internal/domain/asset"
	capdom "drmoto/internal/domain/capture"
	orderdom "drmoto/internal/domain/order"
	productdom "drmoto/internal/domain/product"
	userdom "drmoto/internal/domain/user"
	appcfg "drmoto/internal/infra/config"
	"drmoto/internal/platform/metrics"
)

// Container は main.go から使う依存オブジェクトの束。
type Container struct {
	Infra    *Infra
	Log      *zap.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Provider *fbadapter.IdentityProvider
	Session  *uc.SessionManager
	Cart     *uc.CartManager
	Catalog  *uc.CatalogUsecase
	Checkout *uc.CheckoutUsecase

	// gallery collaborators, shared by every AssetManager
	assets  asset.RepositoryPort
	blobs   asset.BlobStorePort
	capture capdom.FacilityPort
	fetcher capdom.FetcherPort
	prefs   uc.PreferenceStore
	bounds  capdom.Options
	device  string

	closers []func() error
}

// Build wires clients, adapters and managers. picker serves the library
// capture source and may be nil.
func Build(ctx context.Context, cfg *appcfg.Config, log *zap.Logger, picker capadapter.Picker) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}

	inf, err := NewInfra(ctx, cfg, log.Named("infra"))
	if err != nil {
		return nil, err
	}
	c := &Container{
		Infra:    inf,
		Log:      log,
		Registry: prometheus.NewRegistry(),
		bounds: capdom.Options{
			Quality:   cfg.CaptureQuality,
			MaxWidth:  cfg.CaptureMaxWidth,
			MaxHeight: cfg.CaptureMaxHeight,
		},
		device: deviceName(),
	}
	c.closers = append(c.closers, inf.Close)
	c.Metrics = metrics.NewCollector(c.Registry)

	fail := func(err error) (*Container, error) {
		_ = c.Close()
		return nil, err
	}

	// ------------------------------------------------------------
	// Document store
	// ------------------------------------------------------------
	var users userdom.RepositoryPort
	if inf.DB != nil {
		users = pgrepo.NewUserRepositoryPG(inf.DB.Client)
		c.assets = pgrepo.NewAssetRepositoryPG(inf.DB.Client)
	} else {
		users = fsrepo.NewUserRepositoryFS(inf.FirestoreClient(), cfg.UsersCollection)
		c.assets = fsrepo.NewAssetRepositoryFS(inf.FirestoreClient(), cfg.PhotosCollection)
	}

	// ------------------------------------------------------------
	// Blob store
	// ------------------------------------------------------------
	blobs := gcsadapter.NewAssetBlobStoreGCS(inf.GCS, cfg.AssetBucket, gcsadapter.URLMode(cfg.AssetURLMode))
	blobs.SignerEmail = cfg.GCSSignerEmail
	c.blobs = blobs

	// ------------------------------------------------------------
	// Preference store
	// ------------------------------------------------------------
	switch cfg.PrefsBackend {
	case appcfg.PrefsBackendRedis:
		rs := redisadapter.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		c.closers = append(c.closers, rs.Close)
		if err := rs.Ping(ctx); err != nil {
			return fail(fmt.Errorf("di: redis ping %s: %w", cfg.RedisAddr, err))
		}
		c.prefs = rs
	default:
		fsStore, err := prefsadapter.NewFileStore(cfg.PrefsDir)
		if err != nil {
			return fail(fmt.Errorf("di: preference store: %w", err))
		}
		c.prefs = fsStore
	}

	// ------------------------------------------------------------
	// Capture
	// ------------------------------------------------------------
	facility, err := capadapter.NewFacility(cfg.CaptureCommand, picker, cfg.CaptureDir, log.Named("capture"))
	if err != nil {
		return fail(fmt.Errorf("di: capture facility: %w", err))
	}
	c.capture = facility
	c.fetcher = fetchadapter.NewFetcher(nil, 0)

	// ------------------------------------------------------------
	// Identity provider
	// ------------------------------------------------------------
	apiKey, err := inf.Secrets.ValueOr(ctx, cfg.FirebaseWebAPIKey, cfg.FirebaseWebAPIKeySecret)
	if err != nil {
		log.Warn("identity toolkit api key unavailable", zap.Error(err))
	}
	toolkit := fbadapter.NewToolkitClient(cfg.IdentityToolkitURL, "", apiKey)
	if !toolkit.Configured() {
		log.Warn("FIREBASE_WEB_API_KEY is empty (sign-in will fail)")
	}

	var admin fbadapter.AdminAuth
	if inf.FirebaseAuth != nil {
		admin = inf.FirebaseAuth
	}
	var opts []fbadapter.Option
	if m := c.resetMailer(ctx, cfg); m != nil {
		opts = append(opts, fbadapter.WithResetMailer(m, cfg.ResetContinueURL))
	}
	c.Provider = fbadapter.NewIdentityProvider(admin, toolkit, log.Named("identity"), opts...)

	// ------------------------------------------------------------
	// Managers
	// ------------------------------------------------------------
	c.Session = uc.NewSessionManager(c.Provider, users, nil, log.Named("session"), c.Metrics)
	c.Cart = uc.NewCartManager(c.prefs, log.Named("cart"), c.Metrics)

	var catalog productdom.CatalogPort
	var submitter orderdom.SubmitterPort
	if cfg.CatalogBaseURL != "" {
		client := httpout.NewCatalogClient(cfg.CatalogBaseURL, cfg.CatalogRPS, c.Session.IDToken, log.Named("catalog"))
		catalog, submitter = client, client
	} else {
		log.Info("CATALOG_BASE_URL is empty (catalog and checkout disabled)")
	}
	c.Catalog = uc.NewCatalogUsecase(catalog, c.Cart)
	c.Checkout = uc.NewCheckoutUsecase(c.Session, c.Cart, submitter, "", log.Named("checkout"))

	return c, nil
}

func (c *Container) resetMailer(ctx context.Context, cfg *appcfg.Config) fbadapter.ResetMailer {
	key, err := c.Infra.Secrets.ValueOr(ctx, cfg.SendGridAPIKey, cfg.SendGridAPIKeySecret)
	if err != nil {
		c.Log.Warn("sendgrid api key unavailable", zap.Error(err))
		return nil
	}
	if key == "" || strings.TrimSpace(cfg.SendGridFrom) == "" {
		return nil
	}
	client := mailadapter.NewSendGridClient(key, "DrMoto", c.Log.Named("mail"))
	return mailadapter.NewResetMailer(client, cfg.SendGridFrom, "")
}

// Start follows the identity session and restores the persisted cart.
// A cart that cannot be read starts empty.
func (c *Container) Start(ctx context.Context) {
	c.Session.Start(ctx)
	if err := c.Cart.Load(ctx); err != nil {
		c.Log.Warn("cart load failed", zap.Error(err))
	}
}

// NewGallery builds the asset manager of the signed-in user.
func (c *Container) NewGallery(owner *userdom.User) (*uc.AssetManager, error) {
	return uc.NewAssetManager(owner, uc.AssetManagerDeps{
		Capture: c.capture,
		Fetcher: c.fetcher,
		Blobs:   c.blobs,
		Docs:    c.assets,
		Prefs:   c.prefs,
		Bounds:  c.bounds,
		Device:  c.device,
		Logger:  c.Log.Named("asset"),
		Metrics: c.Metrics,
	})
}

// Close は終了時に呼んで安全にリソースを閉じる。
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Session != nil {
		c.Session.Close()
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func deviceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return runtime.GOOS
	}
	return host + " (" + runtime.GOOS + ")"
}
