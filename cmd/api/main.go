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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/config"
	appointmentHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	authHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/auth"
	doctorHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/doctor"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	patientHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/patient"
	prescriptionHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prescription"
	prometheusHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/memory"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	redisRepo "github.com/jwalitptl/clinic-scheduler/internal/repository/redis"
	"github.com/jwalitptl/clinic-scheduler/internal/router"
	appointmentService "github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	authService "github.com/jwalitptl/clinic-scheduler/internal/service/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/service/availability"
	doctorService "github.com/jwalitptl/clinic-scheduler/internal/service/doctor"
	"github.com/jwalitptl/clinic-scheduler/internal/service/identity"
	patientService "github.com/jwalitptl/clinic-scheduler/internal/service/patient"
	prescriptionService "github.com/jwalitptl/clinic-scheduler/internal/service/prescription"
	"github.com/jwalitptl/clinic-scheduler/pkg/auth"
	"github.com/jwalitptl/clinic-scheduler/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
	"github.com/jwalitptl/clinic-scheduler/pkg/security"
	"github.com/jwalitptl/clinic-scheduler/pkg/worker"
)

type repositories struct {
	admins        repository.AdminRepository
	doctors       repository.DoctorRepository
	patients      repository.PatientRepository
	appointments  repository.AppointmentRepository
	prescriptions repository.PrescriptionRepository
	checks        map[string]repository.HealthChecker
	closers       []func() error
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.Setup(&logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	repos, sink, err := setupStorage(ctx, cfg)
	if err != nil {
		appLogger.Fatal(err, "failed to initialize storage")
	}

	dispatcher := worker.NewDispatcher(sink, worker.DispatcherConfig{
		QueueSize:     cfg.Events.QueueSize,
		RetryAttempts: cfg.Events.RetryAttempts,
		RetryDelay:    cfg.Events.RetryDelay,
	}, appLogger, m)
	// the dispatcher outlives the signal context so that requests still
	// finishing during shutdown can publish
	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	go dispatcher.Start(dispatchCtx)
	defer func() {
		for _, closeFn := range repos.closers {
			if err := closeFn(); err != nil {
				appLogger.Error(err, "failed to close resource")
			}
		}
	}()

	// Initialize services
	tokens, err := auth.NewJWTService(auth.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.Expiry,
	})
	if err != nil {
		appLogger.Fatal(err, "invalid jwt configuration")
	}
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	resolver := identity.NewResolver(repos.admins, repos.doctors, repos.patients, identity.Config{
		CacheTTL:        cfg.Cache.IdentityTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, m)
	authSvc := authService.NewService(tokens, resolver, repos.admins, repos.doctors, repos.patients, hasher, m)
	calculator := availability.NewCalculator(repos.appointments, cfg.Scheduling.SlotGrid, time.Local, m)
	appointmentSvc := appointmentService.NewService(
		repos.appointments,
		appointmentService.NewValidator(repos.doctors, calculator),
		calculator,
		dispatcher,
		m,
		appointmentService.Options{RevalidateOnUpdate: cfg.Scheduling.RevalidateOnUpdate},
	)
	doctorSvc := doctorService.NewService(repos.doctors, calculator, hasher, resolver, m)
	patientSvc := patientService.NewService(repos.patients, hasher)
	prescriptionSvc := prescriptionService.NewService(repos.prescriptions, repos.appointments)

	if cfg.Security.AdminPassword != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.Security.AdminUsername, cfg.Security.AdminPassword)
		if err != nil {
			appLogger.Fatal(err, "failed to bootstrap admin account")
		}
		if created {
			appLogger.Info("admin account created", "username", cfg.Security.AdminUsername)
		}
	}

	// Initialize handlers
	authMW := middleware.NewAuthMiddleware(authSvc)
	r, err := router.NewRouter(
		router.RouterConfig{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimitRPS:     cfg.RateLimit.RPS,
			RateLimitBurst:   cfg.RateLimit.Burst,
			RequestTimeout:   cfg.Server.RequestTimeout,
			CORSConfig:       middleware.CORSConfig{AllowOrigins: cfg.Server.CORSOrigins, MaxAge: 86400},
			Debug:            cfg.Log.Level == "debug",
		},
		m,
		prometheusHandler.New(registry),
		health.NewHandler(repos.checks),
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc, authMW),
		patientHandler.NewHandler(patientSvc, appointmentSvc, authMW),
		appointmentHandler.NewHandler(appointmentSvc, calculator, authMW),
		prescriptionHandler.NewHandler(prescriptionSvc, authMW),
	)
	if err != nil {
		appLogger.Fatal(err, "failed to build router")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("server starting", "port", cfg.Server.Port, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal(err, "server failed")
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(err, "server forced to shutdown")
	}

	stopDispatcher()
	select {
	case <-dispatcher.Done():
	case <-time.After(cfg.Server.ShutdownTimeout):
		appLogger.Warn("event dispatcher did not drain before shutdown timeout")
	}
}

// setupStorage wires the configured database driver and, when enabled, Redis
// for prescriptions and appointment events.
func setupStorage(ctx context.Context, cfg *config.Config) (*repositories, messaging.Publisher, error) {
	repos := &repositories{checks: make(map[string]repository.HealthChecker)}
	var publisher messaging.Publisher = messaging.LogPublisher{}

	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		repos.admins = store.Admins()
		repos.doctors = store.Doctors()
		repos.patients = store.Patients()
		repos.appointments = store.Appointments()
		repos.prescriptions = store.Prescriptions()
		repos.checks["memory"] = store
		log.Warn().Msg("using in-memory storage; data is lost on restart")
		return repos, publisher, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repos.closers = append(repos.closers, db.Close)
		if cfg.Database.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		repos.admins = postgres.NewAdminRepository(db)
		repos.doctors = postgres.NewDoctorRepository(db)
		repos.patients = postgres.NewPatientRepository(db)
		repos.appointments = postgres.NewAppointmentRepository(db)
		repos.checks["postgres"] = postgres.NewHealthChecker(db)

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if !cfg.Redis.Enabled {
		// prescriptions fall back to process memory
		repos.prescriptions = memory.NewStore().Prescriptions()
		return repos, publisher, nil
	}

	client, err := redis.NewClient(ctx, redis.Config{
		URL:          cfg.Redis.URL,
		Password:     cfg.Redis.Password,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	repos.closers = append(repos.closers, client.Close)

	repos.prescriptions = redisRepo.NewPrescriptionRepository(client,
		newBreaker("redis-prescriptions", cfg), cfg.Redis.KeyPrefix, cfg.Redis.PrescriptionTTL)
	repos.checks["redis"] = redisRepo.NewHealthChecker(client)

	broker := redis.NewRedisBroker(client, newBreaker("redis-events", cfg), &log.Logger)
	publisher = messaging.NewChannelPublisher(broker, cfg.Redis.EventsChannel)
	return repos, publisher, nil
}

func newBreaker(name string, cfg *config.Config) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        name,
		MaxFailures: cfg.Redis.BreakerThreshold,
		Timeout:     cfg.Redis.BreakerTimeout,
	})
}
