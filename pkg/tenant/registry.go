package tenant

import (
	"sync"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Entity identifies one of the fixed tenant-scoped entity types.
type Entity string

const (
	EntityCategory Entity = "category"
	EntityMenuItem Entity = "menuItem"
	EntityOrder    Entity = "order"
	EntityCustomer Entity = "customer"
)

func knownEntity(e Entity) bool {
	switch e {
	case EntityCategory, EntityMenuItem, EntityOrder, EntityCustomer:
		return true
	}
	return false
}

type binding struct {
	conn   *Conn
	entity Entity
}

// Registry memoizes entity repositories per connection handle. For a given
// (handle, entity) pair exactly one repository instance exists; re-binding
// returns it unchanged. Entries are dropped when their handle is evicted
// from the pool.
type Registry struct {
	mu       sync.Mutex
	bindings map[binding]any
}

// NewRegistry creates a registry. When pool is non-nil the registry
// subscribes to its evictions so stale bindings never outlive their handle.
func NewRegistry(pool *Pool) *Registry {
	r := &Registry{bindings: make(map[binding]any)}
	if pool != nil {
		pool.OnEvict(r.drop)
	}
	return r
}

func (r *Registry) drop(conn *Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for b := range r.bindings {
		if b.conn == conn {
			delete(r.bindings, b)
		}
	}
}

// Bind returns the repository bound to (conn, entity), constructing it with
// build on first use. A second Bind for the same pair is a no-op returning
// the existing instance, never a duplicate. Construction is serialized, so
// concurrent callers also observe a single instance.
func Bind[T any](r *Registry, conn *Conn, entity Entity, build func(db *mongo.Database) T) (T, error) {
	var zero T
	if !knownEntity(entity) {
		return zero, ErrUnknownEntity
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := binding{conn: conn, entity: entity}
	if existing, ok := r.bindings[b]; ok {
		repo, ok := existing.(T)
		if !ok {
			return zero, ErrBindingConflict
		}
		return repo, nil
	}

	repo := build(conn.Database())
	r.bindings[b] = repo
	return repo, nil
}

// Len reports the number of live bindings. Intended for tests and metrics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}
