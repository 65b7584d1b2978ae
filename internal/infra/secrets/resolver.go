// internal/infra/secrets/resolver.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotConfigured = errors.New("secrets: resolver not configured")
	ErrNotFound      = errors.New("secrets: secret not found")
	ErrEmptyPayload  = errors.New("secrets: empty payload")
)

// Resolver reads API keys from Secret Manager.
type Resolver struct {
	client    *secretmanager.Client
	projectID string

	// access is swapped in tests.
	access func(ctx context.Context, name string) ([]byte, error)
}

func NewResolver(ctx context.Context, projectID, credentialsFile string) (*Resolver, error) {
	pid := strings.TrimSpace(projectID)
	if pid == "" {
		return nil, fmt.Errorf("%w: projectID is empty", ErrNotConfigured)
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secrets: new client: %w", err)
	}
	r := &Resolver{client: c, projectID: pid}
	r.access = r.accessSM
	return r, nil
}

func (r *Resolver) accessSM(ctx context.Context, name string) ([]byte, error) {
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("secrets: AccessSecretVersion failed (%s): %w", name, err)
	}
	if resp == nil || resp.Payload == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyPayload, name)
	}
	return resp.Payload.Data, nil
}

// Get returns the trimmed payload of secretID at version ("" means latest).
// A full resource name ("projects/.../versions/...") is used as is.
func (r *Resolver) Get(ctx context.Context, secretID, version string) (string, error) {
	if r == nil || r.access == nil {
		return "", ErrNotConfigured
	}
	name := r.name(secretID, version)
	if name == "" {
		return "", fmt.Errorf("%w: secret id is empty", ErrNotConfigured)
	}
	data, err := r.access(ctx, name)
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyPayload, name)
	}
	return v, nil
}

// ValueOr returns direct when set, otherwise the secret named by secretID.
func (r *Resolver) ValueOr(ctx context.Context, direct, secretID string) (string, error) {
	if v := strings.TrimSpace(direct); v != "" {
		return v, nil
	}
	if strings.TrimSpace(secretID) == "" {
		return "", nil
	}
	return r.Get(ctx, secretID, "")
}

func (r *Resolver) name(secretID, version string) string {
	id := strings.TrimSpace(secretID)
	if id == "" {
		return ""
	}
	if strings.HasPrefix(id, "projects/") {
		return id
	}
	ver := strings.TrimSpace(version)
	if ver == "" {
		ver = "latest"
	}
	return "projects/" + r.projectID + "/secrets/" + id + "/versions/" + ver
}

func (r *Resolver) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
