// internal/platform/di/infra.go
package di

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	appcfg "drmoto/internal/infra/config"
	"drmoto/internal/infra/database"
	firestoreinfra "drmoto/internal/infra/firestore"
	"drmoto/internal/infra/secrets"
)

// Infra owns the external clients.
// The document backend and GCS are strict; Firebase Auth and Secret Manager
// are best-effort (warn + continue).
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// exactly one of these is set, by DOCUMENT_BACKEND
	Firestore *firestoreinfra.ClientWrapper
	DB        *database.DB

	GCS          *storage.Client
	FirebaseApp  *firebase.App
	FirebaseAuth *firebaseauth.Client
	Secrets      *secrets.Resolver
}

func NewInfra(ctx context.Context, cfg *appcfg.Config, log *zap.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("di.infra: config is nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	inf := &Infra{Config: cfg, ProjectID: resolveProjectID(cfg)}

	credFile := strings.TrimSpace(cfg.FirestoreCredentialsFile)
	if credFile == "" {
		credFile = strings.TrimSpace(cfg.CredentialsFile)
	}
	var clientOpts []option.ClientOption
	if credFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credFile))
		log.Info("using credentials file for GCP clients", zap.String("file", redactPath(credFile)))
	} else {
		log.Info("using application default credentials")
	}

	// 1) Secret Manager (best-effort, only when a secret is referenced)
	if cfg.FirebaseWebAPIKeySecret != "" || cfg.SendGridAPIKeySecret != "" {
		r, err := secrets.NewResolver(ctx, inf.ProjectID, credFile)
		if err != nil {
			log.Warn("secret manager unavailable", zap.Error(err))
		} else {
			inf.Secrets = r
		}
	}

	// 2) Document backend (strict)
	switch cfg.DocumentBackend {
	case appcfg.DocumentBackendPostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseURL, log)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di.infra: postgres: %w", err)
		}
		inf.DB = db
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di.infra: migrations: %w", err)
		}
	default:
		if inf.ProjectID == "" {
			_ = inf.Close()
			return nil, errors.New("di.infra: projectID is empty (set GCP_PROJECT_ID or FIRESTORE_PROJECT_ID)")
		}
		cw, err := firestoreinfra.NewClient(ctx, inf.ProjectID, credFile, log)
		if err != nil {
			_ = inf.Close()
			return nil, fmt.Errorf("di.infra: firestore: %w", err)
		}
		inf.Firestore = cw
	}

	// 3) GCS (strict)
	gcs, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		_ = inf.Close()
		return nil, fmt.Errorf("di.infra: storage.NewClient failed: %w", err)
	}
	inf.GCS = gcs
	if strings.TrimSpace(cfg.AssetBucket) == "" {
		log.Warn("ASSET_BUCKET is empty (photo uploads will fail)")
	}

	// 4) Firebase App/Auth (best-effort)
	fbCfg := &firebase.Config{ProjectID: firstNonEmpty(cfg.FirebaseProjectID, inf.ProjectID)}
	app, err := firebase.NewApp(ctx, fbCfg, clientOpts...)
	if err != nil {
		log.Warn("firebase app init failed", zap.Error(err))
		return inf, nil
	}
	inf.FirebaseApp = app
	authClient, err := app.Auth(ctx)
	if err != nil {
		log.Warn("firebase auth init failed", zap.Error(err))
		return inf, nil
	}
	inf.FirebaseAuth = authClient
	log.Info("firebase auth initialized")

	return inf, nil
}

// Firestore client, or nil on the postgres backend.
func (i *Infra) FirestoreClient() *firestore.Client {
	if i == nil || i.Firestore == nil {
		return nil
	}
	return i.Firestore.Client
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Firestore != nil {
		errs = append(errs, i.Firestore.Close())
	}
	if i.DB != nil {
		errs = append(errs, i.DB.Close())
	}
	if i.GCS != nil {
		errs = append(errs, i.GCS.Close())
	}
	if i.Secrets != nil {
		errs = append(errs, i.Secrets.Close())
	}
	return errors.Join(errs...)
}

func resolveProjectID(cfg *appcfg.Config) string {
	return firstNonEmpty(cfg.FirestoreProjectID, cfg.ProjectID, cfg.FirebaseProjectID)
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// redactPath keeps only the last path segment.
func redactPath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
