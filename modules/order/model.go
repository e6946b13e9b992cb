package order

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Status is the kitchen lifecycle of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus tracks settlement separately from the kitchen lifecycle.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// ItemStatus is the per-line-item preparation state.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemServed    ItemStatus = "served"
)

var orderTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted},
}

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending: {PaymentPaid, PaymentFailed},
	PaymentFailed:  {PaymentPending, PaymentPaid},
}

// CanTransitionTo reports whether the kitchen status may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the payment status may move to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func validItemStatus(s ItemStatus) bool {
	switch s {
	case ItemPending, ItemPreparing, ItemReady, ItemServed:
		return true
	}
	return false
}

// LineItem is a snapshot of a menu item at order time. Name and price are
// copied so later menu edits never rewrite history.
type LineItem struct {
	MenuItemID bson.ObjectID `bson:"menuItem" json:"menuItemId"`
	Name       string        `bson:"name" json:"name"`
	Price      float64       `bson:"price" json:"price"`
	Quantity   int           `bson:"quantity" json:"quantity"`
	Status     ItemStatus    `bson:"status" json:"status"`
}

// Order is a tenant-scoped order document in the orders collection.
type Order struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Items         []LineItem    `bson:"items" json:"items"`
	TotalAmount   float64       `bson:"totalAmount" json:"totalAmount"`
	Status        Status        `bson:"status" json:"status"`
	PaymentStatus PaymentStatus `bson:"paymentStatus" json:"paymentStatus"`
	TableNumber   string        `bson:"tableNumber,omitempty" json:"tableNumber,omitempty"`
	CustomerName  string        `bson:"customerName,omitempty" json:"customerName,omitempty"`
	CustomerPhone string        `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// DailyStats is the read-only dashboard projection for the current day.
type DailyStats struct {
	OrdersToday  int64   `json:"ordersToday"`
	RevenueToday float64 `json:"revenueToday"`
	PendingCount int64   `json:"pendingCount"`
}
