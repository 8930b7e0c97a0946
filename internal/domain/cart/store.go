// internal/domain/cart/store.go
package cart

import (
	"context"
)

// LocalStore is the device-scoped cart store for anonymous shopping. Its
// lifetime is tied to the device session; there is no cross-device sync.
type LocalStore interface {
	Read(ctx context.Context) ([]LineItem, error)
	Write(ctx context.Context, items []LineItem) error
	Erase(ctx context.Context) error
}

// RemoteStore is the durable cart store for authenticated identities. Replace
// is a full overwrite, never incremental; identity is an opaque stable string.
type RemoteStore interface {
	Fetch(ctx context.Context, identity string) ([]LineItem, error)
	Replace(ctx context.Context, identity string, items []LineItem) error
	Clear(ctx context.Context, identity string) error
}

// PendingStore holds at most one incomplete add-to-cart attempt per device.
type PendingStore interface {
	Get(ctx context.Context) (*PendingItem, error)
	Put(ctx context.Context, item PendingItem) error
	Clear(ctx context.Context) error
}

// IdentityProvider reports the identity currently bound to the session:
// ok is false while the visitor is anonymous.
type IdentityProvider interface {
	Current() (identity string, ok bool)
}

// StaticIdentity is an IdentityProvider with a fixed value, built once per
// request from the decoded access token.
type StaticIdentity struct {
	Identity      string
	Authenticated bool
}

// Current returns the fixed identity value.
func (s StaticIdentity) Current() (string, bool) {
	return s.Identity, s.Authenticated
}

// Anonymous returns an identity provider for a session with no bound identity.
func Anonymous() IdentityProvider {
	return StaticIdentity{}
}

// Authenticated returns an identity provider bound to the given identity.
func Authenticated(identity string) IdentityProvider {
	return StaticIdentity{Identity: identity, Authenticated: true}
}
