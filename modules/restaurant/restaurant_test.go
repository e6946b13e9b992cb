package restaurant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/eatgreet/eatgreet/modules/restaurant"
	"github.com/eatgreet/eatgreet/pkg/tenant"
)

// connectLazy opens a driver client without touching the network; the v2
// driver dials lazily, so repository construction stays offline.
func connectLazy(_ context.Context, uri string, _ func()) (*mongo.Client, error) {
	return mongo.Connect(options.Client().ApplyURI(uri))
}

func newTestPool(t *testing.T) *tenant.Pool {
	t.Helper()
	pool := tenant.NewPool(tenant.PoolConfig{
		BaseURI:        "mongodb://localhost:27017/eatgreet",
		DatabasePrefix: "resto_",
		OpenTimeout:    time.Second,
	}, tenant.WithOpenFunc(connectLazy))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = pool.Close(ctx)
	})
	return pool
}

func bindRepos(t *testing.T, binder *restaurant.Binder, conn *tenant.Conn) *restaurant.Repositories {
	t.Helper()
	got, err := binder.Bind(context.Background(), conn)
	require.NoError(t, err)
	repos, ok := got.(*restaurant.Repositories)
	require.True(t, ok)
	return repos
}

func TestBinder(t *testing.T) {
	t.Parallel()

	t.Run("repositories are memoized per tenant", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		registry := tenant.NewRegistry(pool)
		binder := restaurant.NewBinder(registry)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)

		first := bindRepos(t, binder, conn)
		second := bindRepos(t, binder, conn)

		assert.Same(t, first.Categories, second.Categories)
		assert.Same(t, first.MenuItems, second.MenuItems)
		assert.Same(t, first.Orders, second.Orders)
		assert.Same(t, first.Customers, second.Customers)
		assert.Equal(t, 4, registry.Len())
	})

	t.Run("distinct tenants get distinct repositories", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		registry := tenant.NewRegistry(pool)
		binder := restaurant.NewBinder(registry)

		cestro, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		taco, err := pool.Get(context.Background(), "taco_town")
		require.NoError(t, err)

		a := bindRepos(t, binder, cestro)
		b := bindRepos(t, binder, taco)

		assert.NotSame(t, a.Orders, b.Orders)
		assert.NotSame(t, a.MenuItems, b.MenuItems)
		assert.Equal(t, 8, registry.Len())
	})

	t.Run("eviction rebinds fresh repositories", func(t *testing.T) {
		t.Parallel()

		pool := newTestPool(t)
		registry := tenant.NewRegistry(pool)
		binder := restaurant.NewBinder(registry)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		stale := bindRepos(t, binder, conn)

		pool.Evict("cestro_kitchen")
		assert.Zero(t, registry.Len())

		fresh, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		rebound := bindRepos(t, binder, fresh)
		assert.NotSame(t, stale.Orders, rebound.Orders)
	})
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	_, ok := restaurant.FromContext(context.Background())
	assert.False(t, ok)

	repos := &restaurant.Repositories{}
	ctx := tenant.WithContext(context.Background(), &tenant.Context{
		Key:   "cestro_kitchen",
		Repos: repos,
	})

	got, ok := restaurant.FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, repos, got)

	categories, items, ok := restaurant.MenuRepos(ctx)
	assert.True(t, ok)
	assert.Equal(t, repos.Categories, categories)
	assert.Equal(t, repos.MenuItems, items)

	orders, _, ok := restaurant.OrderRepos(ctx)
	assert.True(t, ok)
	assert.Equal(t, repos.Orders, orders)

	customers, ok := restaurant.CustomerRepos(ctx)
	assert.True(t, ok)
	assert.Equal(t, repos.Customers, customers)
}
