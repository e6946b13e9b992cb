package tenant

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/event"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/sync/singleflight"
)

// PoolConfig holds connection pool settings sourced from the environment.
type PoolConfig struct {
	// BaseURI is the cluster connection string. The database path segment
	// is replaced per tenant.
	BaseURI string `env:"MONGODB_URL,required"`
	// DatabasePrefix namespaces tenant databases on the shared cluster.
	DatabasePrefix string `env:"TENANT_DB_PREFIX" envDefault:"resto_"`
	// OpenTimeout bounds the first connection attempt to a tenant
	// partition so one unreachable partition cannot hang a request.
	OpenTimeout time.Duration `env:"TENANT_OPEN_TIMEOUT" envDefault:"5s"`
}

// Conn is a long-lived handle to one tenant's partition. Safe for concurrent
// use by in-flight requests; never closed while healthy.
type Conn struct {
	key    Key
	client *mongo.Client
	db     *mongo.Database
}

// Key returns the tenant key the handle is bound to.
func (c *Conn) Key() Key { return c.key }

// Database returns the tenant's database handle.
func (c *Conn) Database() *mongo.Database { return c.db }

// OpenFunc opens a client for one tenant partition URI. Implementations must
// invoke onStale when they detect the connection is no longer usable; the
// pool then drops the cached handle so the next resolution reopens it.
type OpenFunc func(ctx context.Context, uri string, onStale func()) (*mongo.Client, error)

// PoolOption configures pool construction.
type PoolOption func(*Pool)

// WithOpenFunc replaces the default MongoDB opener. Used by tests to
// substitute a fake backend.
func WithOpenFunc(open OpenFunc) PoolOption {
	return func(p *Pool) {
		if open != nil {
			p.open = open
		}
	}
}

// WithPoolLogger sets the logger for pool lifecycle events.
func WithPoolLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// Pool maps tenant keys to live connection handles, creating and caching
// them on demand. It is the only component that opens tenant partitions.
type Pool struct {
	baseURI  string
	dbPrefix string
	timeout  time.Duration
	open     OpenFunc
	log      *slog.Logger

	group singleflight.Group

	mu         sync.RWMutex
	conns      map[Key]*Conn
	evictHooks []func(*Conn)
}

// NewPool creates a connection pool for the cluster described by cfg.
func NewPool(cfg PoolConfig, opts ...PoolOption) *Pool {
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 5 * time.Second
	}
	p := &Pool{
		baseURI:  cfg.BaseURI,
		dbPrefix: cfg.DatabasePrefix,
		timeout:  cfg.OpenTimeout,
		open:     openMongo,
		log:      slog.Default(),
		conns:    make(map[Key]*Conn),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnEvict registers a hook invoked whenever a handle leaves the cache.
// Must be called before the pool serves requests.
func (p *Pool) OnEvict(h func(*Conn)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.evictHooks = append(p.evictHooks, h)
}

// Get returns the cached handle for key, opening a new one on first access.
// Concurrent first-time calls for the same key share a single open; exactly
// one handle is ever cached per key. Failed opens are never cached.
func (p *Pool) Get(ctx context.Context, key Key) (*Conn, error) {
	if key == "" {
		return nil, ErrInvalidTenantKey
	}

	p.mu.RLock()
	conn, ok := p.conns[key]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	v, err, _ := p.group.Do(string(key), func() (any, error) {
		// Re-check under the flight: a previous flight may have cached
		// the handle between our miss and this call.
		p.mu.RLock()
		conn, ok := p.conns[key]
		p.mu.RUnlock()
		if ok {
			return conn, nil
		}
		// The open is shared by every concurrent waiter on this key, so it
		// must not die with the winning caller's request. Detach it from the
		// caller's cancellation; OpenTimeout still bounds it.
		return p.openConn(context.WithoutCancel(ctx), key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Conn), nil
}

// Evict removes the cached handle for key, if any. In-flight operations
// holding the stale handle fail naturally; the next Get reopens.
func (p *Pool) Evict(key Key) {
	p.mu.Lock()
	conn, ok := p.conns[key]
	if ok {
		delete(p.conns, key)
	}
	hooks := p.evictHooks
	p.mu.Unlock()

	if !ok {
		return
	}
	p.disposeConn(conn, hooks)
}

// Close evicts every cached handle. Intended for process shutdown.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	conns := p.conns
	p.conns = make(map[Key]*Conn)
	hooks := p.evictHooks
	p.mu.Unlock()

	var errs []error
	for _, conn := range conns {
		for _, h := range hooks {
			h(conn)
		}
		if conn.client != nil {
			if err := conn.client.Disconnect(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Pool) openConn(ctx context.Context, key Key) (*Conn, error) {
	dbName := p.dbPrefix + string(key)
	uri, err := PartitionURI(p.baseURI, dbName)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	conn := &Conn{key: key}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.open(ctx, uri, func() { p.evictIf(key, conn) })
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	conn.client = client
	if client != nil {
		conn.db = client.Database(dbName)
	}

	p.mu.Lock()
	p.conns[key] = conn
	p.mu.Unlock()

	p.log.InfoContext(ctx, "tenant partition opened",
		slog.String("tenant_key", string(key)),
		slog.String("database", dbName),
	)
	return conn, nil
}

// evictIf drops the cached handle for key only if it is still the same
// instance, so a stale disconnect event cannot evict a newer healthy handle.
func (p *Pool) evictIf(key Key, conn *Conn) {
	p.mu.Lock()
	cached, ok := p.conns[key]
	if !ok || cached != conn {
		p.mu.Unlock()
		return
	}
	delete(p.conns, key)
	hooks := p.evictHooks
	p.mu.Unlock()

	p.log.Warn("tenant partition evicted after disconnect",
		slog.String("tenant_key", string(key)),
	)
	p.disposeConn(conn, hooks)
}

func (p *Pool) disposeConn(conn *Conn, hooks []func(*Conn)) {
	for _, h := range hooks {
		h(conn)
	}
	if conn.client == nil {
		return
	}
	// Disconnect in the background: eviction runs on request or driver
	// callbacks paths and must not block them.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = conn.client.Disconnect(ctx)
	}()
}

// PartitionURI replaces the database path segment of the base connection URI
// with dbName, preserving host, credentials, and query options.
func PartitionURI(base, dbName string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/" + dbName
	return u.String(), nil
}

// newPoolMonitor reports driver pool-cleared events, emitted when a server
// becomes unreachable, back to the pool as staleness.
func newPoolMonitor(onStale func()) *event.PoolMonitor {
	return &event.PoolMonitor{Event: func(e *event.PoolEvent) {
		if e.Type == event.ConnectionPoolCleared {
			onStale()
		}
	}}
}

// openMongo is the production OpenFunc: connect, register the disconnect
// observer, and verify the partition answers within the deadline.
func openMongo(ctx context.Context, uri string, onStale func()) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetPoolMonitor(newPoolMonitor(onStale))

	if deadline, ok := ctx.Deadline(); ok {
		opts.SetServerSelectionTimeout(time.Until(deadline))
	}

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return client, nil
}
