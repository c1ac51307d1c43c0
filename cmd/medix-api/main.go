package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/domain/patient"
	v1 "github.com/dmehra2102/prod-golang-projects/medix/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/repository/mongodb"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/tracer"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "medix-api: %v\n", err)
		os.Exit(1)
	}
}

// stores bundles the repositories of the selected driver with its cleanup.
type stores struct {
	doctors  service.DoctorRepository
	patients patient.Repository
	close    func(ctx context.Context) error
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Error("tracer shutdown", zap.Error(err))
		}
	}()

	collector := metrics.NewCollector(cfg.App.Name, prometheus.DefaultRegisterer)

	st, err := openStores(ctx, cfg, collector, log)
	if err != nil {
		return err
	}

	jwtManager := auth.NewJWTManager(cfg.Auth)
	authSvc := service.NewAuthService(st.doctors, jwtManager, cfg.Auth.BcryptCost, collector, log)
	patientSvc := service.NewPatientService(st.patients, log, service.WithMetrics(collector))

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := v1.NewRouter(v1.RouterDeps{
		AuthService:    authSvc,
		PatientService: patientSvc,
		Metrics:        collector,
		CORS:           cfg.CORS,
		ServiceName:    cfg.Tracing.ServiceName,
		Log:            log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	runErr := serve(ctx, srv, cfg.Server.ShutdownTimeout, log)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := st.close(closeCtx); err != nil {
		log.Error("closing store", zap.Error(err))
	}

	log.Info("server stopped")
	return runErr
}

// serve runs srv until it fails or ctx is cancelled, then drains in-flight
// requests. A listen or serve failure is returned after the drain.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
			runErr = fmt.Errorf("serving http: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	return runErr
}

func openStores(ctx context.Context, cfg *config.Config, m *metrics.Collector, log *zap.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		db := client.Database(cfg.Mongo.Database)
		if err := database.EnsureMongoIndexes(ctx, db, log); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("creating mongo indexes: %w", err)
		}
		log.Info("connected to mongo", zap.String("database", cfg.Mongo.Database))
		return &stores{
			doctors:  mongodb.NewDoctorRepository(db, m),
			patients: mongodb.NewPatientRepository(client, db, m),
			close:    client.Disconnect,
		}, nil

	case config.DriverPostgres:
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("postgres handle: %w", err)
		}
		if err := database.Migrate(db, log); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("migrating postgres: %w", err)
		}
		log.Info("connected to postgres", zap.String("database", cfg.Database.Name))
		return &stores{
			doctors:  postgres.NewDoctorRepository(db, m),
			patients: postgres.NewPatientRepository(db, m),
			close:    func(context.Context) error { return sqlDB.Close() },
		}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return &stores{
			doctors:  memory.NewDoctorRepository(),
			patients: memory.NewPatientRepository(),
			close:    func(context.Context) error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
