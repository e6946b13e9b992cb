package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eatgreet/eatgreet/core"
	"github.com/eatgreet/eatgreet/modules/account"
	"github.com/eatgreet/eatgreet/modules/customer"
	"github.com/eatgreet/eatgreet/modules/menu"
	"github.com/eatgreet/eatgreet/modules/order"
	"github.com/eatgreet/eatgreet/modules/restaurant"
	"github.com/eatgreet/eatgreet/pkg/config"
	"github.com/eatgreet/eatgreet/pkg/httpserver"
	"github.com/eatgreet/eatgreet/pkg/logger"
	mongoconn "github.com/eatgreet/eatgreet/pkg/mongo"
	redisconn "github.com/eatgreet/eatgreet/pkg/redis"
	"github.com/eatgreet/eatgreet/pkg/requestid"
	"github.com/eatgreet/eatgreet/pkg/storage"
	"github.com/eatgreet/eatgreet/pkg/tenant"
)

type appConfig struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"local"`
	MediaDir      string `env:"MEDIA_DIR" envDefault:"./media"`
	MediaBaseURL  string `env:"MEDIA_BASE_URL" envDefault:"/media/"`
}

func main() {
	var appCfg appConfig
	config.MustLoad(&appCfg)

	var serverCfg httpserver.Config
	config.MustLoad(&serverCfg)
	var mongoCfg mongoconn.Config
	config.MustLoad(&mongoCfg)
	var poolCfg tenant.PoolConfig
	config.MustLoad(&poolCfg)
	var accountCfg account.Config
	config.MustLoad(&accountCfg)

	log := logger.New(
		logger.WithLevel(parseLevel(appCfg.LogLevel)),
		logger.WithFormat(logger.Format(appCfg.LogFormat)),
		logger.WithService("eatgreet"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
			account.LoggerExtractor(),
		),
	)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, appCfg, serverCfg, mongoCfg, poolCfg, accountCfg); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	log *slog.Logger,
	appCfg appConfig,
	serverCfg httpserver.Config,
	mongoCfg mongoconn.Config,
	poolCfg tenant.PoolConfig,
	accountCfg account.Config,
) error {
	// Shared control-plane database: accounts live here, outside any tenant
	// partition.
	globalClient, err := mongoconn.Connect(ctx, mongoCfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = globalClient.Disconnect(shutdownCtx)
	}()

	globalDB := globalClient.Database("eatgreet")
	if err := account.EnsureIndexes(ctx, globalDB); err != nil {
		return err
	}

	accountStore := account.NewStore(globalDB)
	accountSvc, err := account.NewService(accountCfg, accountStore, log)
	if err != nil {
		return err
	}

	var nameCache account.Cache
	if appCfg.RedisEnabled {
		var redisCfg redisconn.Config
		config.MustLoad(&redisCfg)
		redisClient, err := redisconn.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = redisClient.Close() }()
		nameCache = account.NewRedisCache(redisClient, "")
	}
	nameProvider := account.NewNameProvider(accountStore, nameCache, 5*time.Minute)

	pool := tenant.NewPool(poolCfg, tenant.WithPoolLogger(log))
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = pool.Close(shutdownCtx)
	}()
	registry := tenant.NewRegistry(pool)
	binder := restaurant.NewBinder(registry)

	// Authenticated principal wins; anonymous identifiers fall back to
	// header, query, and body, with account-id lookups translated to names.
	resolver := tenant.ChainResolver(
		account.PrincipalResolver(),
		account.MapIdentifier(tenant.DefaultResolver(), nameProvider),
	)

	media, err := buildMediaStorage(ctx, appCfg)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(account.Middleware(accountSvc))
	r.Use(tenant.Middleware(pool, binder, resolver,
		tenant.WithLogger(log),
		tenant.WithSkipPaths("/healthz", "/auth"),
	))

	r.Get("/healthz", healthHandler(mongoconn.Healthcheck(globalClient)))
	r.Mount("/auth", account.NewHandler(accountSvc, accountStore, log).Handle())

	r.Group(func(r chi.Router) {
		r.Use(tenant.RequireTenant(nil))
		r.Mount("/menu", menu.NewHandler(restaurant.MenuRepos, media, log).Handle())
		r.Mount("/orders", order.NewHandler(restaurant.OrderRepos, log).Handle())
		r.Mount("/customers", customer.NewHandler(restaurant.CustomerRepos, log).Handle())
	})

	if appCfg.StorageDriver == "local" {
		fs := http.StripPrefix(appCfg.MediaBaseURL, http.FileServer(http.Dir(appCfg.MediaDir)))
		r.Get(appCfg.MediaBaseURL+"*", fs.ServeHTTP)
	}

	return httpserver.New(serverCfg, log).Run(ctx, r)
}

func buildMediaStorage(ctx context.Context, cfg appConfig) (storage.Storage, error) {
	if cfg.StorageDriver == "s3" {
		var s3Cfg storage.S3Config
		config.MustLoad(&s3Cfg)
		return storage.NewS3Storage(ctx, s3Cfg)
	}
	return storage.NewLocalStorage(cfg.MediaDir, cfg.MediaBaseURL)
}

func healthHandler(probe func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := probe(r.Context()); err != nil {
			core.JSONError(w, core.ErrServiceUnavailable.WithMessage("database unreachable"))
			return
		}
		core.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
