// Package server assembles the gateway: configuration, storage backends,
// services, the gRPC transport, the metrics endpoint and the whitelist
// sweeper, and runs them until shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	gs "github.com/dmitrijs2005/gophgate/internal/server/grpc"
	"github.com/dmitrijs2005/gophgate/internal/server/metrics"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"github.com/dmitrijs2005/gophgate/internal/server/storage"
	"github.com/dmitrijs2005/gophgate/internal/server/telemetry"
)

const (
	serviceName     = "gophgate"
	shutdownTimeout = 10 * time.Second
)

// newObjectStore is a seam for tests that run without S3.
var newObjectStore = func(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
	return storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          c.S3Bucket,
		Region:          c.S3Region,
		AccessKeyID:     c.S3AccessKeyID,
		SecretAccessKey: c.S3SecretAccessKey,
		BaseEndpoint:    c.S3BaseEndpoint,
	})
}

type App struct {
	config       *config.Config
	logger       logging.Logger
	repos        repomanager.RepositoryManager
	metrics      *metrics.Metrics
	grpcServer   *gs.GRPCServer
	sweeper      *services.Sweeper
	shutdownOTel func(context.Context) error
}

// NewApp validates c and builds every component. A configuration problem is
// reported as common.ErrConfiguration before anything is opened.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	shutdownOTel, err := telemetry.Setup(ctx, serviceName, c.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	repos, err := repomanager.New(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		_ = shutdownOTel(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		_ = shutdownOTel(ctx)
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = repos.Close()
		_ = shutdownOTel(ctx)
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	m := metrics.New()

	tokens := services.NewTokenService(repos.Whitelist(), repos.Users(), auth.NewJWTSigner([]byte(c.SecretKey)), c, m, logger)
	us := services.NewUserService(repos.Users(), tokens, auth.BcryptVerifier{}, logger)
	as := services.NewAssetService(store, c.S3SignExpires, m, logger)

	if err := seedUsers(ctx, us, c.SeedUsers, logger); err != nil {
		_ = repos.Close()
		_ = shutdownOTel(ctx)
		return nil, fmt.Errorf("seed users error: %w", err)
	}

	srv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, as, tokens, rate.Limit(c.AuthRateLimit), c.AuthRateBurst)

	return &App{
		config:       c,
		logger:       logger,
		repos:        repos,
		metrics:      m,
		grpcServer:   srv,
		sweeper:      services.NewSweeper(tokens, c.SweepInterval, logger),
		shutdownOTel: shutdownOTel,
	}, nil
}

// seedUsers registers the configured accounts. Existing ones are left as
// they are, so restarts with the same settings are harmless.
func seedUsers(ctx context.Context, us *services.UserService, entries []string, logger logging.Logger) error {
	for _, entry := range entries {
		email, password, err := config.ParseSeedUser(entry)
		if err != nil {
			return err
		}

		if _, err := us.Register(ctx, email, password); err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				logger.Info(ctx, "seed user already exists", "email", email)
				continue
			}
			return err
		}
		logger.Info(ctx, "seed user created", "email", email)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())

	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "metrics server failed", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or a server fails, then stops the
// sweeper and releases the database and the tracer provider.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.sweeper.Start(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx, cancelFunc)
		}()
	} else {
		app.logger.Info(ctx, "Metrics endpoint disabled")
	}

	wg.Wait()
	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	app.sweeper.Stop()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	if err := app.shutdownOTel(ctx); err != nil {
		app.logger.Error(ctx, "telemetry shutdown error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
