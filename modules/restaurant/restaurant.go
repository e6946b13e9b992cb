// Package restaurant assembles the per-tenant repository set. It is the
// single place where tenant connection handles meet the feature modules:
// repositories are constructed through the model registry, so each tenant
// gets exactly one instance per entity, and cross-entity references are
// wired by handing sibling repositories to the constructors.
package restaurant

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/eatgreet/eatgreet/modules/customer"
	"github.com/eatgreet/eatgreet/modules/menu"
	"github.com/eatgreet/eatgreet/modules/order"
	"github.com/eatgreet/eatgreet/pkg/tenant"
)

// Repositories is the complete tenant-scoped repository set attached to each
// resolved request.
type Repositories struct {
	Categories menu.CategoryRepository
	MenuItems  menu.ItemRepository
	Orders     order.Repository
	Customers  customer.Repository
}

// Binder builds Repositories for a tenant connection handle. Plug it into
// the tenant middleware.
type Binder struct {
	registry *tenant.Registry
}

func NewBinder(registry *tenant.Registry) *Binder {
	return &Binder{registry: registry}
}

// Bind constructs (or reuses) the tenant's repositories. Item repositories
// receive the same tenant's category repository, and nothing else, for
// reference validation; orders likewise validate against the tenant's own
// menu items at build time.
func (b *Binder) Bind(_ context.Context, conn *tenant.Conn) (any, error) {
	categories, err := tenant.Bind(b.registry, conn, tenant.EntityCategory, menu.NewCategoryRepository)
	if err != nil {
		return nil, err
	}
	items, err := tenant.Bind(b.registry, conn, tenant.EntityMenuItem, func(db *mongo.Database) menu.ItemRepository {
		return menu.NewItemRepository(db, categories)
	})
	if err != nil {
		return nil, err
	}
	orders, err := tenant.Bind(b.registry, conn, tenant.EntityOrder, order.NewRepository)
	if err != nil {
		return nil, err
	}
	customers, err := tenant.Bind(b.registry, conn, tenant.EntityCustomer, customer.NewRepository)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Categories: categories,
		MenuItems:  items,
		Orders:     orders,
		Customers:  customers,
	}, nil
}

// FromContext retrieves the tenant's repositories from the request context.
func FromContext(ctx context.Context) (*Repositories, bool) {
	return tenant.ReposAs[*Repositories](ctx)
}

// MenuRepos adapts FromContext for the menu handlers.
func MenuRepos(ctx context.Context) (menu.CategoryRepository, menu.ItemRepository, bool) {
	repos, ok := FromContext(ctx)
	if !ok {
		return nil, nil, false
	}
	return repos.Categories, repos.MenuItems, true
}

// OrderRepos adapts FromContext for the order handlers.
func OrderRepos(ctx context.Context) (order.Repository, menu.ItemRepository, bool) {
	repos, ok := FromContext(ctx)
	if !ok {
		return nil, nil, false
	}
	return repos.Orders, repos.MenuItems, true
}

// CustomerRepos adapts FromContext for the customer handlers.
func CustomerRepos(ctx context.Context) (customer.Repository, bool) {
	repos, ok := FromContext(ctx)
	if !ok {
		return nil, false
	}
	return repos.Customers, true
}
