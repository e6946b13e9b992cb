package order_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/modules/menu"
	"github.com/eatgreet/eatgreet/modules/order"
)

// memOrders mirrors the mongo-backed repository contract, including
// transition enforcement, over a map.
type memOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*order.Order)}
}

func (r *memOrders) Create(_ context.Context, ord *order.Order) error {
	if ord.ID.IsZero() {
		ord.ID = bson.NewObjectID()
	}
	ord.CreatedAt = time.Now().UTC()
	ord.UpdatedAt = ord.CreatedAt
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[ord.ID.Hex()] = ord
	return nil
}

func (r *memOrders) List(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]order.Order, 0, len(r.orders))
	for _, ord := range r.orders {
		if filter.Status != nil && ord.Status != *filter.Status {
			continue
		}
		out = append(out, *ord)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memOrders) Get(_ context.Context, id bson.ObjectID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ord, ok := r.orders[id.Hex()]; ok {
		cp := *ord
		return &cp, nil
	}
	return nil, order.ErrNotFound
}

func (r *memOrders) UpdateStatus(_ context.Context, id bson.ObjectID, next order.Status) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id.Hex()]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !ord.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, ord.Status, next)
	}
	ord.Status = next
	cp := *ord
	return &cp, nil
}

func (r *memOrders) UpdatePaymentStatus(_ context.Context, id bson.ObjectID, next order.PaymentStatus) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id.Hex()]
	if !ok {
		return nil, order.ErrNotFound
	}
	if !ord.PaymentStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", order.ErrInvalidTransition, ord.PaymentStatus, next)
	}
	ord.PaymentStatus = next
	cp := *ord
	return &cp, nil
}

func (r *memOrders) UpdateItemStatus(_ context.Context, id bson.ObjectID, index int, next order.ItemStatus) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord, ok := r.orders[id.Hex()]
	if !ok {
		return nil, order.ErrNotFound
	}
	if index < 0 || index >= len(ord.Items) {
		return nil, fmt.Errorf("%w: %d", order.ErrLineItemOutOfRange, index)
	}
	ord.Items[index].Status = next
	cp := *ord
	return &cp, nil
}

func (r *memOrders) DailyStats(_ context.Context, now time.Time) (*order.DailyStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	stats := &order.DailyStats{}
	for _, ord := range r.orders {
		if ord.CreatedAt.Before(startOfDay) {
			continue
		}
		stats.OrdersToday++
		if ord.PaymentStatus == order.PaymentPaid {
			stats.RevenueToday += ord.TotalAmount
		}
		if ord.Status == order.StatusPending {
			stats.PendingCount++
		}
	}
	return stats, nil
}

func newTestHandler(items menu.ItemRepository) (http.Handler, *memOrders) {
	orders := newMemOrders()
	repos := func(ctx context.Context) (order.Repository, menu.ItemRepository, bool) {
		return orders, items, true
	}
	return order.NewHandler(repos, nil).Handle(), orders
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func TestOrderRoutes(t *testing.T) {
	t.Parallel()

	wrap := &menu.Item{Name: "Paneer Wrap", Price: 180, Available: true}
	salad := &menu.Item{Name: "Green Salad", Price: 90, Available: true}
	items := newStubItems(wrap, salad)

	createOrder := func(t *testing.T, h http.Handler) order.Order {
		t.Helper()
		rec := doJSON(t, h, http.MethodPost, "/", order.CreateInput{
			Items: []order.CreateItemInput{
				{MenuItemID: wrap.ID.Hex(), Quantity: 2},
				{MenuItemID: salad.ID.Hex(), Quantity: 1},
			},
			TableNumber:  "7",
			CustomerName: "Asha",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		return decodeData[order.Order](t, rec)
	}

	t.Run("create computes total server-side", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		ord := createOrder(t, h)
		assert.InDelta(t, 450.0, ord.TotalAmount, 1e-9)
		assert.Equal(t, order.StatusPending, ord.Status)
	})

	t.Run("create with unknown item is 422", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		rec := doJSON(t, h, http.MethodPost, "/", order.CreateInput{
			Items: []order.CreateItemInput{{MenuItemID: bson.NewObjectID().Hex(), Quantity: 1}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("status transitions", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		ord := createOrder(t, h)

		rec := doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/status", map[string]string{
			"status": "confirmed",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decodeData[order.Order](t, rec)
		assert.Equal(t, order.StatusConfirmed, updated.Status)

		// Skipping straight to completed is a conflict.
		rec = doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/status", map[string]string{
			"status": "completed",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("payment transition", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		ord := createOrder(t, h)

		rec := doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/payment", map[string]string{
			"paymentStatus": "paid",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decodeData[order.Order](t, rec)
		assert.Equal(t, order.PaymentPaid, updated.PaymentStatus)

		rec = doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/payment", map[string]string{
			"paymentStatus": "pending",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("line item status update", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		ord := createOrder(t, h)

		rec := doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/items/1/status", map[string]string{
			"status": "ready",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		updated := decodeData[order.Order](t, rec)
		assert.Equal(t, order.ItemReady, updated.Items[1].Status)
		assert.Equal(t, order.ItemPending, updated.Items[0].Status)

		rec = doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/items/9/status", map[string]string{
			"status": "ready",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("list filters by status", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		first := createOrder(t, h)
		createOrder(t, h)

		rec := doJSON(t, h, http.MethodPatch, "/"+first.ID.Hex()+"/status", map[string]string{
			"status": "confirmed",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/?status=pending", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		listed := decodeData[[]order.Order](t, rec)
		require.Len(t, listed, 1)
		assert.NotEqual(t, first.ID, listed[0].ID)
	})

	t.Run("daily stats reflect paid revenue", func(t *testing.T) {
		t.Parallel()

		h, _ := newTestHandler(items)
		ord := createOrder(t, h)
		createOrder(t, h)

		rec := doJSON(t, h, http.MethodPatch, "/"+ord.ID.Hex()+"/payment", map[string]string{
			"paymentStatus": "paid",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/stats/daily", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decodeData[order.DailyStats](t, rec)
		assert.Equal(t, int64(2), stats.OrdersToday)
		assert.InDelta(t, 450.0, stats.RevenueToday, 1e-9)
		assert.Equal(t, int64(2), stats.PendingCount)
	})
}
