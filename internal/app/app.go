package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/config"
	"github.com/MrSnakeDoc/hublink/internal/httpserver"
	"github.com/MrSnakeDoc/hublink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/hublink/internal/hub"
	"github.com/MrSnakeDoc/hublink/internal/logger"
	"github.com/MrSnakeDoc/hublink/internal/metrics"
	"github.com/MrSnakeDoc/hublink/internal/redis"
	"github.com/MrSnakeDoc/hublink/internal/scheduler"
	"github.com/MrSnakeDoc/hublink/internal/sources/static"
	"github.com/MrSnakeDoc/hublink/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/hublink/internal/store/redis"
	"github.com/MrSnakeDoc/hublink/internal/version"
	"github.com/MrSnakeDoc/hublink/internal/weather"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *postgres.Store
	redisClient *goredis.Client
	refresher   *scheduler.ConfigRefresher
	weather     *scheduler.WeatherPoller
	clicks      *scheduler.ClickCollector
}

// authBackend groups what the configured auth mode provides.
type authBackend struct {
	validator     auth.TokenValidator
	roles         auth.RoleChecker
	authenticator auth.Authenticator
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	ctx := context.Background()

	collector := metrics.NewCollector()

	// Static document, the permanent fallback
	loader := static.NewLoader(cfg.StaticDocument, cfg.StaticFetchTimeout)
	staticSource := static.NewSource(loader, static.NewMapper())

	// Remote store (optional)
	var db *postgres.Store
	var remote hub.RemoteReader
	if cfg.DatabaseURL != "" {
		loggerClient.Info("connecting to remote store")
		store, err := postgres.Open(ctx, postgres.Options{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			Migrate:         cfg.DBMigrate,
		})
		if err != nil {
			loggerClient.Errorf("Failed to open remote store: %v", err)
			os.Exit(1)
		}
		db = store
		remote = store
		loggerClient.Info("remote store initialized successfully",
			logger.Bool("migrated", cfg.DBMigrate))
	} else {
		loggerClient.Info("no remote store configured, serving the static document only")
	}

	backend, err := newAuthBackend(cfg, db)
	if err != nil {
		loggerClient.Errorf("Failed to initialize auth backend: %v", err)
		os.Exit(1)
	}
	sessions := auth.NewSessions(backend.validator, cfg.ServiceToken)

	resolver := hub.NewResolver(staticSource, sessions, remote, collector, loggerClient.With(logger.String("component", "resolver")))
	configStore := hub.NewConfigStore(resolver, collector, loggerClient.With(logger.String("component", "config_store")))
	configStore.Subscribe(collector.ObservePublished)

	var saver deps.ConfigSaver
	if db != nil {
		saver = hub.NewSaver(db, configStore, collector, loggerClient.With(logger.String("component", "saver")))
	}

	// Redis (optional) - click counting and weather cache
	var redisClient *goredis.Client
	var redisStore *redisstore.Store
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.New(ctx, redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("Redis unavailable, click counting and weather cache disabled",
				logger.Error(err))
			redisClient = nil
		} else {
			redisStore = redisstore.NewStore(redisClient)
			loggerClient.Info("Redis initialized successfully")
		}
	}

	// Manual refresh trigger (buffered: one pending refresh at most)
	reloadTrigger := make(chan struct{}, 1)

	watchPath := ""
	if cfg.WatchStaticDocument && !loader.IsRemote() {
		watchPath = cfg.StaticDocument
	}
	refresher := scheduler.NewConfigRefresher(
		configStore,
		loggerClient,
		cfg.RefreshInterval,
		watchPath,
		reloadTrigger,
	)

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		TimeNow:        time.Now,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		CORSOrigins:    cfg.CORSOrigins,
		Store:          configStore,
		Saver:          saver,
		Validator:      backend.validator,
		Roles:          backend.roles,
		Authenticator:  backend.authenticator,
		AdminRole:      cfg.AdminRole,
		Metrics:        collector,
		StaticDocument: cfg.StaticDocument,
		ReloadTrigger:  reloadTrigger,
	}
	if db != nil {
		d.Database = db
	}

	var clickCollector *scheduler.ClickCollector
	if redisStore != nil {
		d.Clicks = redisStore
		d.Redis = redisStore
		clickCollector = scheduler.NewClickCollector(
			redisStore,
			configStore,
			loggerClient,
			cfg.GCInterval,
			scheduler.DefaultClickGCThreshold,
		)
	}

	var weatherPoller *scheduler.WeatherPoller
	if cfg.WeatherEnabled() {
		var cache weather.Cache
		if redisStore != nil {
			cache = redisStore
		}
		client := weather.NewClient(weather.Options{
			BaseURL:   cfg.WeatherURL,
			City:      cfg.WeatherCity,
			Latitude:  cfg.WeatherLatitude,
			Longitude: cfg.WeatherLongitude,
			Interval:  cfg.WeatherInterval,
		}, cache, loggerClient.With(logger.String("component", "weather")))
		d.Weather = client
		weatherPoller = scheduler.NewWeatherPoller(client, loggerClient, cfg.WeatherInterval)
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		db:          db,
		redisClient: redisClient,
		refresher:   refresher,
		weather:     weatherPoller,
		clicks:      clickCollector,
	}
}

// newAuthBackend builds the validator, role checker and authenticator of
// the configured auth mode. All three are nil when admin is disabled.
func newAuthBackend(cfg *config.Config, db *postgres.Store) (authBackend, error) {
	switch cfg.AuthMode {
	case config.AuthModeSupabase:
		client, err := auth.NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return authBackend{}, err
		}
		return authBackend{validator: client, roles: client, authenticator: client}, nil

	case config.AuthModeJWT:
		validator, err := auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
		if err != nil {
			return authBackend{}, err
		}
		if db == nil {
			return authBackend{}, fmt.Errorf("jwt auth mode requires a remote store for roles")
		}
		return authBackend{validator: validator, roles: db, authenticator: auth.JWTAuthenticator{}}, nil

	default:
		return authBackend{}, nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting hublink v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Loads the configuration and starts periodic refresh
	if err := a.refresher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start config refresher: %w", err)
	}
	a.logger.Info("config refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval),
		logger.String("document", a.cfg.StaticDocument))

	if a.weather != nil {
		if err := a.weather.Start(ctx); err != nil {
			return fmt.Errorf("failed to start weather poller: %w", err)
		}
		a.logger.Info("weather poller started",
			logger.String("city", a.cfg.WeatherCity),
			logger.Duration("interval", a.cfg.WeatherInterval))
	}

	if a.clicks != nil {
		if err := a.clicks.Start(ctx); err != nil {
			return fmt.Errorf("failed to start click collector: %w", err)
		}
		a.logger.Info("click collector started",
			logger.Duration("interval", a.cfg.GCInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.refresher.Stop()
	if a.weather != nil {
		a.weather.Stop()
	}
	if a.clicks != nil {
		a.clicks.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("failed to close remote store: %v", err)
		} else {
			a.logger.Info("✅ Remote store closed cleanly")
		}
	}

	a.logger.Info("✅ hublink stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
