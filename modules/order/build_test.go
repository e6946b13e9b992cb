package order_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/modules/menu"
	"github.com/eatgreet/eatgreet/modules/order"
)

// stubItems is a minimal menu.ItemRepository over a fixed item set.
type stubItems struct {
	items map[string]*menu.Item
}

func newStubItems(items ...*menu.Item) *stubItems {
	s := &stubItems{items: make(map[string]*menu.Item)}
	for _, it := range items {
		if it.ID.IsZero() {
			it.ID = bson.NewObjectID()
		}
		s.items[it.ID.Hex()] = it
	}
	return s
}

func (s *stubItems) Get(_ context.Context, id bson.ObjectID) (*menu.Item, error) {
	if it, ok := s.items[id.Hex()]; ok {
		cp := *it
		return &cp, nil
	}
	return nil, menu.ErrItemNotFound
}

func (s *stubItems) Create(context.Context, *menu.Item) error { return nil }

func (s *stubItems) List(context.Context, menu.ItemFilter) ([]menu.Item, error) { return nil, nil }

func (s *stubItems) Update(context.Context, bson.ObjectID, menu.ItemUpdate) (*menu.Item, error) {
	return nil, menu.ErrItemNotFound
}

func (s *stubItems) Delete(context.Context, bson.ObjectID) error { return menu.ErrItemNotFound }

func (s *stubItems) SetAvailability(context.Context, bson.ObjectID, bool) (*menu.Item, error) {
	return nil, menu.ErrItemNotFound
}

func (s *stubItems) Exists(_ context.Context, id bson.ObjectID) (bool, error) {
	_, ok := s.items[id.Hex()]
	return ok, nil
}

func TestBuild(t *testing.T) {
	t.Parallel()

	wrap := &menu.Item{Name: "Paneer Wrap", Price: 180, Available: true}
	salad := &menu.Item{Name: "Green Salad", Price: 90, Available: true}
	soldOut := &menu.Item{Name: "Special Thali", Price: 250, Available: false}
	items := newStubItems(wrap, salad, soldOut)

	t.Run("snapshots prices and computes total", func(t *testing.T) {
		t.Parallel()

		ord, err := order.Build(context.Background(), items, order.CreateInput{
			Items: []order.CreateItemInput{
				{MenuItemID: wrap.ID.Hex(), Quantity: 2},
				{MenuItemID: salad.ID.Hex(), Quantity: 1},
			},
			TableNumber: "7",
		})
		require.NoError(t, err)

		assert.Equal(t, order.StatusPending, ord.Status)
		assert.Equal(t, order.PaymentPending, ord.PaymentStatus)
		assert.InDelta(t, 450.0, ord.TotalAmount, 1e-9)
		require.Len(t, ord.Items, 2)
		assert.Equal(t, "Paneer Wrap", ord.Items[0].Name)
		assert.InDelta(t, 180.0, ord.Items[0].Price, 1e-9)
		assert.Equal(t, order.ItemPending, ord.Items[0].Status)
	})

	t.Run("rejects empty order", func(t *testing.T) {
		t.Parallel()

		_, err := order.Build(context.Background(), items, order.CreateInput{})
		assert.ErrorIs(t, err, order.ErrInvalidInput)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		t.Parallel()

		_, err := order.Build(context.Background(), items, order.CreateInput{
			Items: []order.CreateItemInput{{MenuItemID: wrap.ID.Hex(), Quantity: 0}},
		})
		assert.ErrorIs(t, err, order.ErrInvalidInput)
	})

	t.Run("rejects unknown menu item", func(t *testing.T) {
		t.Parallel()

		_, err := order.Build(context.Background(), items, order.CreateInput{
			Items: []order.CreateItemInput{{MenuItemID: bson.NewObjectID().Hex(), Quantity: 1}},
		})
		assert.ErrorIs(t, err, order.ErrUnknownMenuItem)
	})

	t.Run("rejects unavailable menu item", func(t *testing.T) {
		t.Parallel()

		_, err := order.Build(context.Background(), items, order.CreateInput{
			Items: []order.CreateItemInput{{MenuItemID: soldOut.ID.Hex(), Quantity: 1}},
		})
		assert.ErrorIs(t, err, order.ErrItemUnavailable)
	})
}

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	t.Run("kitchen lifecycle", func(t *testing.T) {
		t.Parallel()

		allowed := []struct {
			from, to order.Status
		}{
			{order.StatusPending, order.StatusConfirmed},
			{order.StatusPending, order.StatusCancelled},
			{order.StatusConfirmed, order.StatusPreparing},
			{order.StatusPreparing, order.StatusReady},
			{order.StatusReady, order.StatusCompleted},
		}
		for _, tc := range allowed {
			assert.True(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
		}

		denied := []struct {
			from, to order.Status
		}{
			{order.StatusPending, order.StatusReady},
			{order.StatusCompleted, order.StatusPending},
			{order.StatusCancelled, order.StatusConfirmed},
			{order.StatusReady, order.StatusCancelled},
		}
		for _, tc := range denied {
			assert.False(t, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
		}
	})

	t.Run("payment lifecycle", func(t *testing.T) {
		t.Parallel()

		assert.True(t, order.PaymentPending.CanTransitionTo(order.PaymentPaid))
		assert.True(t, order.PaymentPending.CanTransitionTo(order.PaymentFailed))
		assert.True(t, order.PaymentFailed.CanTransitionTo(order.PaymentPending))
		assert.False(t, order.PaymentPaid.CanTransitionTo(order.PaymentPending))
	})
}
