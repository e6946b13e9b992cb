package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/eatgreet/eatgreet/pkg/tenant"
)

type categoryRepo struct{ db *mongo.Database }

type orderRepo struct{ db *mongo.Database }

func newCategoryRepo(db *mongo.Database) *categoryRepo { return &categoryRepo{db: db} }

func newOrderRepo(db *mongo.Database) *orderRepo { return &orderRepo{db: db} }

func TestRegistryBind(t *testing.T) {
	t.Parallel()

	t.Run("memoizes per handle and entity", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)

		first, err := tenant.Bind(registry, conn, tenant.EntityCategory, newCategoryRepo)
		require.NoError(t, err)

		// Re-binding is a no-op returning the existing instance.
		for range 5 {
			again, err := tenant.Bind(registry, conn, tenant.EntityCategory, newCategoryRepo)
			require.NoError(t, err)
			assert.Same(t, first, again)
		}
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("scopes bindings to the handle", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		cestro, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		taco, err := pool.Get(context.Background(), "taco_town")
		require.NoError(t, err)

		a, err := tenant.Bind(registry, cestro, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)
		b, err := tenant.Bind(registry, taco, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)

		assert.NotSame(t, a, b)
	})

	t.Run("rejects unknown entity", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)

		_, err = tenant.Bind(registry, conn, tenant.Entity("invoice"), newOrderRepo)
		assert.ErrorIs(t, err, tenant.ErrUnknownEntity)
	})

	t.Run("rejects conflicting repository type", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)

		_, err = tenant.Bind(registry, conn, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)

		_, err = tenant.Bind(registry, conn, tenant.EntityOrder, newCategoryRepo)
		assert.ErrorIs(t, err, tenant.ErrBindingConflict)
	})

	t.Run("concurrent binds observe one instance", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		conn, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)

		const n = 32
		repos := make([]*orderRepo, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				repos[i], _ = tenant.Bind(registry, conn, tenant.EntityOrder, newOrderRepo)
			}()
		}
		wg.Wait()

		for i := range n {
			assert.Same(t, repos[0], repos[i])
		}
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("eviction drops bindings for the evicted handle only", func(t *testing.T) {
		t.Parallel()

		opener := &fakeOpener{}
		pool := newTestPool(opener)
		registry := tenant.NewRegistry(pool)

		cestro, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		taco, err := pool.Get(context.Background(), "taco_town")
		require.NoError(t, err)

		stale, err := tenant.Bind(registry, cestro, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)
		kept, err := tenant.Bind(registry, taco, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)

		pool.Evict("cestro_kitchen")
		assert.Equal(t, 1, registry.Len())

		// Taco Town's binding survives untouched.
		again, err := tenant.Bind(registry, taco, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)
		assert.Same(t, kept, again)

		// A fresh handle for the evicted tenant gets a fresh repository.
		fresh, err := pool.Get(context.Background(), "cestro_kitchen")
		require.NoError(t, err)
		rebound, err := tenant.Bind(registry, fresh, tenant.EntityOrder, newOrderRepo)
		require.NoError(t, err)
		assert.NotSame(t, stale, rebound)
	})
}
