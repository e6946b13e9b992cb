package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/eatgreet/eatgreet/modules/menu"
)

// CreateInput is a client order request. Line items reference menu items by
// id; names and prices are resolved server-side.
type CreateInput struct {
	Items         []CreateItemInput `json:"items"`
	TableNumber   string            `json:"tableNumber"`
	CustomerName  string            `json:"customerName"`
	CustomerPhone string            `json:"customerPhone"`
}

type CreateItemInput struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

// Build assembles an Order from client input. Every referenced menu item is
// looked up in the given repository, which belongs to the requesting tenant;
// an id from another restaurant's menu can therefore never validate. Names
// and prices are snapshotted and the total is computed server-side.
func Build(ctx context.Context, items menu.ItemRepository, in CreateInput) (*Order, error) {
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", ErrInvalidInput)
	}

	ord := &Order{
		Items:         make([]LineItem, 0, len(in.Items)),
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		TableNumber:   strings.TrimSpace(in.TableNumber),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
	}

	for _, li := range in.Items {
		if li.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		id, err := bson.ObjectIDFromHex(li.MenuItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMenuItem, li.MenuItemID)
		}
		it, err := items.Get(ctx, id)
		if err != nil {
			if errors.Is(err, menu.ErrItemNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownMenuItem, id.Hex())
			}
			return nil, err
		}
		if !it.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, it.Name)
		}

		ord.Items = append(ord.Items, LineItem{
			MenuItemID: it.ID,
			Name:       it.Name,
			Price:      it.Price,
			Quantity:   li.Quantity,
			Status:     ItemPending,
		})
		ord.TotalAmount += it.Price * float64(li.Quantity)
	}

	return ord, nil
}
