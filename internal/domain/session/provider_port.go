package session

import "context"

// ProviderPort is the identity provider contract.
type ProviderPort interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (Identity, error)
	SignIn(ctx context.Context, email, password string) (Identity, error)
	SignOut(ctx context.Context) error
	SendResetEmail(ctx context.Context, email string) error

	// DeleteAccount removes an identity; used to roll back a failed registration.
	DeleteAccount(ctx context.Context, uid string) error

	// Subscribe pushes the current session (nil when signed out) and every later change.
	Subscribe(fn func(*Identity)) (cancel func())

	// IDToken returns a bearer token for the current session.
	IDToken(ctx context.Context) (string, error)
}
