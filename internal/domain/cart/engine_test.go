package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type engineFixture struct {
	engine *Engine
	local  *RedisLocalStore
	remote *GormRemoteStore
	mr     *miniredis.Miniredis
}

func setupEngine(t *testing.T) *engineFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserCartLine{}))

	log := testLogger()
	local := NewRedisLocalStore(client, "device-001", 24*time.Hour, log)
	remote := NewGormRemoteStore(db)
	pending := NewRedisPendingStore(client, "device-001", time.Hour, log)

	return &engineFixture{
		engine: NewEngine(local, remote, pending, log),
		local:  local,
		remote: remote,
		mr:     mr,
	}
}

// ---------------------------------------------------------------------------
// Startup
// ---------------------------------------------------------------------------

func TestEngine_StartAnonymous(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 2}}))
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	assert.Equal(t, StateAnonymous, fx.engine.State())
	require.Len(t, fx.engine.Items(), 1)
}

func TestEngine_StartAuthenticatedSkipsMerge(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	// A device cart left over from before and a persisted cart both exist.
	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 2}}))
	require.NoError(t, fx.remote.Replace(ctx, "user:42", []LineItem{{ProductID: 2, Size: "L", Quantity: 1}}))

	// Starting with an already-bound identity fetches the persisted cart;
	// it never merges the device cart.
	require.NoError(t, fx.engine.Start(ctx, Authenticated("user:42")))
	assert.Equal(t, StateAuthenticated, fx.engine.State())

	items := fx.engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, uint(2), items[0].ProductID)

	deviceItems, err := fx.local.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, deviceItems, 1)
}

// ---------------------------------------------------------------------------
// Login merge
// ---------------------------------------------------------------------------

func TestEngine_LoginMergesIntoEmptyPersisted(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Price: 4500, Quantity: 2}}))
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	require.NoError(t, fx.engine.Login(ctx, "user:42"))
	assert.Equal(t, StateAuthenticated, fx.engine.State())

	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 2, persisted[0].Quantity)
	assert.Equal(t, int64(4500), persisted[0].Price)

	// Device cart is gone after the merge.
	deviceItems, err := fx.local.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, deviceItems)
}

func TestEngine_LoginSumsQuantities(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 1}}))
	require.NoError(t, fx.remote.Replace(ctx, "user:42", []LineItem{{ProductID: 1, Size: "M", Quantity: 3}}))

	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, 4, persisted[0].Quantity)
}

func TestEngine_LoginKeepsPersistedOrderFirst(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 2, Size: "L", Quantity: 1}}))
	require.NoError(t, fx.remote.Replace(ctx, "user:42", []LineItem{{ProductID: 1, Size: "S", Quantity: 1}}))

	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, uint(1), persisted[0].ProductID)
	assert.Equal(t, uint(2), persisted[1].ProductID)
}

func TestEngine_LoginWithEmptyDeviceCartStillTransitions(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.remote.Replace(ctx, "user:42", []LineItem{{ProductID: 1, Size: "S", Quantity: 1}}))

	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	assert.Equal(t, StateAuthenticated, fx.engine.State())
	require.Len(t, fx.engine.Items(), 1)
}

func TestEngine_LoginSameIdentityTwiceIsNoop(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 1}}))
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	first, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)

	// The identity-to-same-identity edge must not re-run the merge.
	require.NoError(t, fx.engine.Login(ctx, "user:42"))
	second, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEngine_MergeIdempotentOnSecondEmptyMerge(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{
		{ProductID: 1, Size: "M", Quantity: 2},
		{ProductID: 2, Size: "L", Quantity: 1},
	}))
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	afterFirst, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)

	// A fresh session on the same (now empty) device logging in again
	// merges nothing and leaves the persisted cart untouched.
	second := setupEngineSharing(t, fx)
	require.NoError(t, second.Start(ctx, Anonymous()))
	require.NoError(t, second.Login(ctx, "user:42"))

	afterSecond, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)
}

// setupEngineSharing builds a second engine over the same stores, modelling a
// new request against the same device and database.
func setupEngineSharing(t *testing.T, fx *engineFixture) *Engine {
	t.Helper()
	log := testLogger()
	client := goredis.NewClient(&goredis.Options{Addr: fx.mr.Addr()})
	t.Cleanup(func() { client.Close() })
	local := NewRedisLocalStore(client, "device-001", 24*time.Hour, log)
	pending := NewRedisPendingStore(client, "device-001", time.Hour, log)
	return NewEngine(local, fx.remote, pending, log)
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestEngine_LogoutStartsEmptyAnonymousSession(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 1}}))
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	require.NoError(t, fx.engine.Logout(ctx))
	assert.Equal(t, StateAnonymous, fx.engine.State())
	assert.Empty(t, fx.engine.Items())

	// The authenticated cart must not leak into the device store.
	deviceItems, err := fx.local.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, deviceItems)

	// The persisted cart stays where it belongs.
	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	assert.Len(t, persisted, 1)
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

func TestEngine_AddItemIncrementsExistingLine(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	item := LineItem{ProductID: 5, Name: "Sweat Capuche", Price: 5500, Size: "XL"}
	fx.engine.AddItem(ctx, item)
	fx.engine.AddItem(ctx, item)
	items := fx.engine.AddItem(ctx, item)

	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestEngine_AddItemDistinguishesSizes(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	fx.engine.AddItem(ctx, LineItem{ProductID: 5, Size: "M"})
	items := fx.engine.AddItem(ctx, LineItem{ProductID: 5, Size: "L"})

	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
}

func TestEngine_AddItemPersistsToActiveStore(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Start(ctx, Anonymous()))
	fx.engine.AddItem(ctx, LineItem{ProductID: 1, Size: "M", Price: 4500})

	deviceItems, err := fx.local.Read(ctx)
	require.NoError(t, err)
	require.Len(t, deviceItems, 1)

	require.NoError(t, fx.engine.Login(ctx, "user:42"))
	fx.engine.AddItem(ctx, LineItem{ProductID: 2, Size: "S", Price: 2500})

	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestEngine_RemoveItemAbsentIsNoop(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	fx.engine.AddItem(ctx, LineItem{ProductID: 1, Size: "M"})
	items := fx.engine.RemoveItem(ctx, 99, "XL")
	assert.Len(t, items, 1)
}

func TestEngine_UpdateQuantityZeroRemoves(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	item := LineItem{ProductID: 5, Size: "XL", Price: 5500}
	fx.engine.AddItem(ctx, item)
	fx.engine.AddItem(ctx, item)
	fx.engine.AddItem(ctx, item)

	items := fx.engine.UpdateQuantity(ctx, 5, "XL", 0)
	assert.Empty(t, items)
}

func TestEngine_UpdateQuantitySetsAbsoluteValue(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	fx.engine.AddItem(ctx, LineItem{ProductID: 5, Size: "XL"})
	items := fx.engine.UpdateQuantity(ctx, 5, "XL", 7)

	require.Len(t, items, 1)
	assert.Equal(t, 7, items[0].Quantity)
}

func TestEngine_UpdateQuantityAbsentIsNoop(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	items := fx.engine.UpdateQuantity(ctx, 99, "M", 5)
	assert.Empty(t, items)
}

func TestEngine_ClearCartAnonymous(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	fx.engine.AddItem(ctx, LineItem{ProductID: 1, Size: "M"})
	require.NoError(t, fx.engine.ClearCart(ctx))

	assert.Empty(t, fx.engine.Items())
	deviceItems, err := fx.local.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, deviceItems)
}

func TestEngine_ClearCartAuthenticated(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.engine.Start(ctx, Authenticated("user:42")))
	fx.engine.AddItem(ctx, LineItem{ProductID: 1, Size: "M"})
	require.NoError(t, fx.engine.ClearCart(ctx))

	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestEngine_Totals(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	item := LineItem{ProductID: 1, Size: "M", Price: 4500}
	fx.engine.AddItem(ctx, item)
	fx.engine.AddItem(ctx, item)
	fx.engine.AddItem(ctx, LineItem{ProductID: 2, Size: "L", Price: 5500})

	totals := fx.engine.Totals()
	assert.Equal(t, 2, totals.LineCount)
	assert.Equal(t, 3, totals.TotalItems)
	assert.Equal(t, int64(14500), totals.TotalPrice)
}

// ---------------------------------------------------------------------------
// Pending item
// ---------------------------------------------------------------------------

func TestEngine_PendingItemFlow(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	pending := PendingItem{ProductID: 4, Name: "Pantalon Cargo", Price: 6500, Image: "/images/cargo.jpg"}
	require.NoError(t, fx.engine.SetPendingItem(ctx, pending))

	got, err := fx.engine.PendingItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	items, err := fx.engine.CompletePendingItem(ctx, "M")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, uint(4), items[0].ProductID)
	assert.Equal(t, "M", items[0].Size)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, int64(6500), items[0].Price)

	// The slot is consumed.
	got, err = fx.engine.PendingItem(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEngine_PendingItemSurvivesLogin(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	require.NoError(t, fx.engine.SetPendingItem(ctx, PendingItem{ProductID: 4, Name: "Pantalon Cargo", Price: 6500}))
	require.NoError(t, fx.engine.Login(ctx, "user:42"))

	got, err := fx.engine.PendingItem(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	items, err := fx.engine.CompletePendingItem(ctx, "S")
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Completed after login, so it lands in the persisted cart.
	persisted, err := fx.remote.Fetch(ctx, "user:42")
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, "S", persisted[0].Size)
}

func TestEngine_CompletePendingItemWithoutSlot(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()
	require.NoError(t, fx.engine.Start(ctx, Anonymous()))

	_, err := fx.engine.CompletePendingItem(ctx, "M")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Failure degradation
// ---------------------------------------------------------------------------

type failingRemote struct{}

func (failingRemote) Fetch(ctx context.Context, identity string) ([]LineItem, error) {
	return nil, fmt.Errorf("persistence unavailable")
}

func (failingRemote) Replace(ctx context.Context, identity string, items []LineItem) error {
	return fmt.Errorf("persistence unavailable")
}

func (failingRemote) Clear(ctx context.Context, identity string) error {
	return fmt.Errorf("persistence unavailable")
}

func TestEngine_LoginWithFailingRemoteStillCompletes(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	require.NoError(t, fx.local.Write(ctx, []LineItem{{ProductID: 1, Size: "M", Quantity: 2}}))

	log := testLogger()
	client := goredis.NewClient(&goredis.Options{Addr: fx.mr.Addr()})
	t.Cleanup(func() { client.Close() })
	local := NewRedisLocalStore(client, "device-001", 24*time.Hour, log)
	pending := NewRedisPendingStore(client, "device-001", time.Hour, log)
	engine := NewEngine(local, failingRemote{}, pending, log)

	// A dead persistence service is treated as an empty persisted cart; the
	// merge still completes and the session keeps its in-memory view.
	require.NoError(t, engine.Start(ctx, Anonymous()))
	require.NoError(t, engine.Login(ctx, "user:42"))

	assert.Equal(t, StateAuthenticated, engine.State())
	items := engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestEngine_AddItemKeepsStateWhenWriteFails(t *testing.T) {
	fx := setupEngine(t)
	ctx := context.Background()

	log := testLogger()
	client := goredis.NewClient(&goredis.Options{Addr: fx.mr.Addr()})
	t.Cleanup(func() { client.Close() })
	local := NewRedisLocalStore(client, "device-001", 24*time.Hour, log)
	pending := NewRedisPendingStore(client, "device-001", time.Hour, log)
	engine := NewEngine(local, failingRemote{}, pending, log)

	require.NoError(t, engine.Start(ctx, Authenticated("user:42")))
	items := engine.AddItem(ctx, LineItem{ProductID: 1, Size: "M", Price: 4500})

	// The optimistic in-memory cart wins even though the write failed.
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}
