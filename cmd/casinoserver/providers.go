package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"

	"github.com/cory-johannsen/starcase/internal/config"
	"github.com/cory-johannsen/starcase/internal/game/economy"
	"github.com/cory-johannsen/starcase/internal/game/event"
	"github.com/cory-johannsen/starcase/internal/game/rng"
	"github.com/cory-johannsen/starcase/internal/game/session"
	"github.com/cory-johannsen/starcase/internal/grpcapi"
	"github.com/cory-johannsen/starcase/internal/httpapi"
	"github.com/cory-johannsen/starcase/internal/jobs"
	"github.com/cory-johannsen/starcase/internal/observability"
	"github.com/cory-johannsen/starcase/internal/server"
	"github.com/cory-johannsen/starcase/internal/storage/memory"
	"github.com/cory-johannsen/starcase/internal/storage/postgres"
)

// configPath is the -config flag value.
type configPath string

var providerSet = wire.NewSet(
	provideConfig,
	provideLogging,
	provideLogger,
	provideSettings,
	provideContent,
	provideBus,
	provideStorage,
	provideManager,
	provideHTTPHandler,
	provideGRPCServer,
	provideScheduler,
	provideApp,
)

// logging bundles the root logger with its runtime level.
type logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// storage is the selected profile store plus the collaborators it brings.
type storage struct {
	Store session.Store
	// Sink receives events alongside the bus; nil for the memory driver.
	Sink event.Sink
	// Health is an optional background service watching the backend.
	Health server.Service
}

// app is the assembled server.
type app struct {
	logger    *zap.Logger
	lifecycle *server.Lifecycle
}

func provideConfig(path configPath) (config.Config, error) {
	return config.Load(string(path))
}

func provideLogging(cfg config.Config) (logging, error) {
	logger, level, err := observability.NewLogger(cfg.Logging, "casinoserver")
	if err != nil {
		return logging{}, err
	}
	return logging{Logger: logger, Level: level}, nil
}

func provideLogger(l logging) *zap.Logger { return l.Logger }

func provideSettings(cfg config.Config) (session.Settings, error) {
	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		return session.Settings{}, fmt.Errorf("loading timezone: %w", err)
	}
	return session.Settings{
		Economy: economy.Settings{
			StartingBalance:  cfg.Economy.StartingBalance,
			StartingGems:     cfg.Economy.StartingGems,
			ExperienceBase:   cfg.Economy.ExperienceBase,
			ExperienceGrowth: cfg.Economy.ExperienceGrowth,
		},
		LevelUpBonus:     cfg.Economy.LevelUpBonus,
		UpgradeMaxChance: cfg.Games.UpgradeMaxChance,
		MinerBombs:       cfg.Games.MinerBombs,
		MaxCaseQuantity:  cfg.Games.MaxCaseQuantity,
		CrashTick:        cfg.Games.CrashTick,
		CrashCooldown:    cfg.Games.CrashCooldown,
		Location:         loc,
	}, nil
}

func provideContent(cfg config.Config, logger *zap.Logger) (*session.Content, func(), error) {
	content, err := session.LoadContent(cfg.Content.Dir, logger)
	if err != nil {
		return nil, nil, err
	}
	return content, content.Close, nil
}

func provideBus(logger *zap.Logger) *event.Bus {
	return event.NewBus(logger.Named("bus"), 64)
}

func provideStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (storage, func(), error) {
	if cfg.Storage.Driver != "postgres" {
		logger.Info("using in-memory profile store")
		return storage{Store: memory.NewStore()}, func() {}, nil
	}

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database, logger.Named("postgres"))
	if err != nil {
		return storage{}, nil, fmt.Errorf("connecting to database: %w", err)
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	recorder := postgres.NewRoundRecorder(pool.DB(), logger.Named("rounds"), 256)

	stop := make(chan struct{})
	health := &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return nil
				case <-ticker.C:
					_ = pool.Health(ctx, 5*time.Second)
				}
			}
		},
		StopFn: func(context.Context) error {
			close(stop)
			return nil
		},
	}
	cleanup := func() {
		recorder.Close()
		pool.Close()
	}
	return storage{
		Store:  postgres.NewProfileStore(pool.DB()),
		Sink:   recorder,
		Health: health,
	}, cleanup, nil
}

func provideManager(content *session.Content, settings session.Settings, st storage, bus *event.Bus, logger *zap.Logger) *session.Manager {
	var sink event.Sink = bus
	if st.Sink != nil {
		sink = event.Multi{bus, st.Sink}
	}
	newSource := func(string) rng.Source { return rng.NewCryptoSource() }
	if logger.Core().Enabled(zapcore.DebugLevel) {
		rngLogger := logger.Named("rng")
		newSource = func(player string) rng.Source {
			return rng.NewLoggedSource(rng.NewCryptoSource(), rngLogger, player)
		}
	}
	return session.NewManager(session.ManagerConfig{
		Content:   content,
		Settings:  settings,
		Store:     st.Store,
		Sink:      sink,
		Logger:    logger.Named("sessions"),
		NewSource: newSource,
	})
}

func provideHTTPHandler(cfg config.Config, mgr *session.Manager, content *session.Content, bus *event.Bus, l logging) http.Handler {
	h := httpapi.NewHandler(mgr, httpapi.NewCatalog(content), bus, l.Logger.Named("http"), httpapi.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		LogLevel:       l.Level,
	})
	return h.Router()
}

func provideGRPCServer(mgr *session.Manager, bus *event.Bus, logger *zap.Logger) *grpc.Server {
	s := grpc.NewServer()
	grpcapi.Register(s, grpcapi.NewServer(mgr, bus, logger.Named("grpc")))
	return s
}

func provideScheduler(cfg config.Config, settings session.Settings, mgr *session.Manager, logger *zap.Logger) (*jobs.Scheduler, error) {
	s := jobs.NewScheduler(settings.Location, time.Minute, logger.Named("jobs"))
	if err := jobs.ScheduleCasino(s, mgr, cfg.Jobs.DailyReset, cfg.Jobs.Flush); err != nil {
		return nil, err
	}
	return s, nil
}

func provideApp(
	cfg config.Config,
	logger *zap.Logger,
	st storage,
	mgr *session.Manager,
	scheduler *jobs.Scheduler,
	grpcServer *grpc.Server,
	handler http.Handler,
) *app {
	lc := server.NewLifecycle(logger, 10*time.Second)

	if st.Health != nil {
		lc.Add("postgres", st.Health)
	}
	done := make(chan struct{})
	lc.Add("sessions", &server.FuncService{
		StartFn: func() error {
			<-done
			return nil
		},
		StopFn: func(ctx context.Context) error {
			defer close(done)
			return mgr.Close(ctx)
		},
	})
	lc.Add("scheduler", &server.FuncService{
		StartFn: func() error {
			scheduler.Start()
			return nil
		},
		StopFn: func(context.Context) error {
			scheduler.Stop()
			return nil
		},
	})
	lc.Add("grpc", server.GRPCService(cfg.GRPC.Addr(), grpcServer, logger))
	lc.Add("http", server.HTTPService(cfg.HTTP.Addr(), handler, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout, logger))
	return &app{logger: logger, lifecycle: lc}
}
