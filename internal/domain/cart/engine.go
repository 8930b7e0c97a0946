// internal/domain/cart/engine.go
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// State is the engine's position in the anonymous/authenticated lifecycle.
type State int

const (
	// StateAnonymous means no identity is bound; the device store is
	// authoritative.
	StateAnonymous State = iota
	// StateMerging is the transient state while the guest cart is folded
	// into the persisted cart.
	StateMerging
	// StateAuthenticated means an identity is bound; the remote store is
	// authoritative.
	StateAuthenticated
)

// String returns a readable state name for logging.
func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateMerging:
		return "merging"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Engine presents one consistent cart view regardless of authentication state
// and performs the guest-to-user merge exactly once per login transition.
//
// The active store is selected when a state transition happens, never
// re-evaluated per call. Mutations are serialized with a mutex so the merge
// always runs to completion before any other operation observes cart state.
type Engine struct {
	mu       sync.Mutex
	state    State
	identity string
	items    []LineItem

	local   LocalStore
	remote  RemoteStore
	pending PendingStore
	logger  *logrus.Logger
}

// NewEngine builds a cart engine over the given stores. Call Start before
// using it.
func NewEngine(local LocalStore, remote RemoteStore, pending PendingStore, logger *logrus.Logger) *Engine {
	return &Engine{
		state:   StateAnonymous,
		items:   []LineItem{},
		local:   local,
		remote:  remote,
		pending: pending,
		logger:  logger,
	}
}

// Start binds the engine to the session's current identity. A session that is
// already authenticated at startup goes straight to the authenticated state
// and fetches the persisted cart; no merge happens in that case.
func (e *Engine) Start(ctx context.Context, provider IdentityProvider) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	identity, ok := provider.Current()
	if !ok {
		e.state = StateAnonymous
		e.identity = ""
		e.items = e.readLocal(ctx)
		return nil
	}

	e.state = StateAuthenticated
	e.identity = identity
	e.items = e.fetchRemote(ctx, identity)
	return nil
}

// Login handles the none-to-identity transition: it merges the device cart
// into the persisted cart, writes the result back, and erases the device
// cart. Logging in again with the identity that is already bound is a no-op,
// so the merge never fires twice for the same login.
func (e *Engine) Login(ctx context.Context, identity string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateAuthenticated {
		if e.identity == identity {
			return nil
		}
		// Different identity without an intervening logout: drop the stale
		// view and rebind. The device store was already consumed by the
		// previous merge, so this merge is trivial.
		e.resetToAnonymousLocked()
	}

	e.state = StateMerging
	e.logger.WithFields(logrus.Fields{
		"identity": identity,
	}).Debug("Merging device cart into persisted cart")

	deviceItems := e.readLocal(ctx)
	persistedItems := e.fetchRemote(ctx, identity)

	merged := MergeLines(persistedItems, deviceItems)

	if err := e.remote.Replace(ctx, identity, merged); err != nil {
		// Optimistic local state wins for the session; the persisted copy
		// catches up on the next successful write.
		e.logger.WithFields(logrus.Fields{
			"identity": identity,
			"error":    err.Error(),
		}).Warn("Failed to persist merged cart")
	}

	if err := e.local.Erase(ctx); err != nil {
		e.logger.WithFields(logrus.Fields{
			"identity": identity,
			"error":    err.Error(),
		}).Warn("Failed to erase device cart after merge")
	}

	// The transition to authenticated is unconditional; even an empty device
	// cart produces a (trivial) merge and a state change.
	e.state = StateAuthenticated
	e.identity = identity
	e.items = merged
	return nil
}

// Logout clears the bound identity. The stale authenticated cart is never
// written into the device store; the new anonymous session starts empty.
func (e *Engine) Logout(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateAnonymous {
		return nil
	}

	e.resetToAnonymousLocked()
	if err := e.local.Erase(ctx); err != nil {
		e.logger.WithField("error", err.Error()).Warn("Failed to erase device cart on logout")
	}
	return nil
}

// AddItem adds one unit of the given item. A line with the same
// (product_id, size) pair is incremented instead of duplicated. The item's
// Quantity field is ignored.
func (e *Engine) AddItem(ctx context.Context, item LineItem) []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := false
	for i := range e.items {
		if e.items[i].SameLine(item.ProductID, item.Size) {
			e.items[i].Quantity++
			added = true
			break
		}
	}
	if !added {
		item.Quantity = 1
		e.items = append(e.items, item)
	}

	e.persist(ctx)
	return e.snapshotLocked()
}

// RemoveItem deletes the matching line. Absent lines are a silent no-op.
func (e *Engine) RemoveItem(ctx context.Context, productID uint, size string) []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.items {
		if e.items[i].SameLine(productID, size) {
			e.items = append(e.items[:i], e.items[i+1:]...)
			e.persist(ctx)
			break
		}
	}
	return e.snapshotLocked()
}

// UpdateQuantity sets the line's quantity to an absolute value. Zero or
// negative behaves as RemoveItem; a missing line is a silent no-op.
func (e *Engine) UpdateQuantity(ctx context.Context, productID uint, size string, quantity int) []LineItem {
	if quantity <= 0 {
		return e.RemoveItem(ctx, productID, size)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.items {
		if e.items[i].SameLine(productID, size) {
			e.items[i].Quantity = quantity
			e.persist(ctx)
			break
		}
	}
	return e.snapshotLocked()
}

// ClearCart empties the cart and clears whichever store is authoritative.
func (e *Engine) ClearCart(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = []LineItem{}

	var err error
	if e.state == StateAuthenticated {
		err = e.remote.Clear(ctx, e.identity)
	} else {
		err = e.local.Erase(ctx)
	}
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"state": e.state.String(),
			"error": err.Error(),
		}).Warn("Failed to clear cart store")
	}
	return nil
}

// SetPendingItem records an add-to-cart attempt that still needs a size.
func (e *Engine) SetPendingItem(ctx context.Context, item PendingItem) error {
	if err := e.pending.Put(ctx, item); err != nil {
		e.logger.WithField("error", err.Error()).Warn("Failed to store pending item")
		return err
	}
	return nil
}

// PendingItem returns the current pending item, nil if the slot is empty.
func (e *Engine) PendingItem(ctx context.Context) (*PendingItem, error) {
	return e.pending.Get(ctx)
}

// CompletePendingItem supplies the missing size, folds the pending item into
// the cart with AddItem semantics and clears the slot.
func (e *Engine) CompletePendingItem(ctx context.Context, size string) ([]LineItem, error) {
	item, err := e.pending.Get(ctx)
	if err != nil {
		return e.Items(), err
	}
	if item == nil {
		return e.Items(), fmt.Errorf("no pending item to complete")
	}

	items := e.AddItem(ctx, LineItem{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Image:     item.Image,
		Size:      size,
	})

	if err := e.pending.Clear(ctx); err != nil {
		e.logger.WithField("error", err.Error()).Warn("Failed to clear pending item")
	}
	return items, nil
}

// ClearPendingItem abandons the pending add-to-cart attempt.
func (e *Engine) ClearPendingItem(ctx context.Context) error {
	return e.pending.Clear(ctx)
}

// Items returns a copy of the current cart lines.
func (e *Engine) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Totals recomputes the derived totals from the current lines.
func (e *Engine) Totals() Totals {
	return CalculateTotals(e.Items())
}

// Private helpers

// readLocal loads the device cart, treating any failure as an empty cart so a
// broken Redis never blocks shopping.
func (e *Engine) readLocal(ctx context.Context) []LineItem {
	items, err := e.local.Read(ctx)
	if err != nil {
		e.logger.WithField("error", err.Error()).Warn("Failed to read device cart, assuming empty")
		return []LineItem{}
	}
	return items
}

// fetchRemote loads the persisted cart, treating any failure as an empty cart
// rather than stalling the login or checkout flow.
func (e *Engine) fetchRemote(ctx context.Context, identity string) []LineItem {
	items, err := e.remote.Fetch(ctx, identity)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"identity": identity,
			"error":    err.Error(),
		}).Warn("Failed to fetch persisted cart, assuming empty")
		return []LineItem{}
	}
	return items
}

// persist writes the in-memory view to the active store. Write failures are
// logged and the in-memory state is kept; the engine never rolls back a
// mutation because storage misbehaved.
func (e *Engine) persist(ctx context.Context) {
	var err error
	if e.state == StateAuthenticated {
		err = e.remote.Replace(ctx, e.identity, e.items)
	} else {
		err = e.local.Write(ctx, e.items)
	}
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"state": e.state.String(),
			"error": err.Error(),
		}).Warn("Failed to persist cart")
	}
}

func (e *Engine) resetToAnonymousLocked() {
	e.state = StateAnonymous
	e.identity = ""
	e.items = []LineItem{}
}

func (e *Engine) snapshotLocked() []LineItem {
	out := make([]LineItem, len(e.items))
	copy(out, e.items)
	return out
}
