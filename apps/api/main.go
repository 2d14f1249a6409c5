package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	achandler "github.com/edusekai/school-saas/domains/accesscontrol/be/handler"
	acrepo "github.com/edusekai/school-saas/domains/accesscontrol/be/repo"
	acservice "github.com/edusekai/school-saas/domains/accesscontrol/be/service"
	directoryhandler "github.com/edusekai/school-saas/domains/directory/be/handler"
	directoryprov "github.com/edusekai/school-saas/domains/directory/be/provisioning"
	directoryrepo "github.com/edusekai/school-saas/domains/directory/be/repo"
	directoryservice "github.com/edusekai/school-saas/domains/directory/be/service"
	identityhandler "github.com/edusekai/school-saas/domains/identity/be/handler"
	identityrepo "github.com/edusekai/school-saas/domains/identity/be/repo"
	identityservice "github.com/edusekai/school-saas/domains/identity/be/service"
	onboardinghandler "github.com/edusekai/school-saas/domains/onboarding/be/handler"
	onboardingservice "github.com/edusekai/school-saas/domains/onboarding/be/service"
	profileshandler "github.com/edusekai/school-saas/domains/profiles/be/handler"
	profilesrepo "github.com/edusekai/school-saas/domains/profiles/be/repo"
	profilesservice "github.com/edusekai/school-saas/domains/profiles/be/service"
	platformauth "github.com/edusekai/school-saas/platform/go/auth"
	platformlogging "github.com/edusekai/school-saas/platform/go/logging"
	"github.com/edusekai/school-saas/platform/go/metrics"
	platformmiddleware "github.com/edusekai/school-saas/platform/go/middleware"
	"github.com/edusekai/school-saas/platform/go/persistence"
	"github.com/edusekai/school-saas/platform/go/tenant"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	PublicPort      string        `env:"PUBLIC_PORT"` // port advertised in entry URLs, empty for none
	Scheme          string        `env:"PUBLIC_SCHEME" envDefault:"https"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	BaseDomain      string        `env:"BASE_DOMAIN,required"`
	SharedHosts     []string      `env:"SHARED_HOSTS" envSeparator:","`
	TokenSecret     string        `env:"TOKEN_SECRET,required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// ManualOnboarding defers student and instructor profile creation to the
	// in-app enrolment flow instead of provisioning on role assignment.
	ManualOnboarding bool `env:"MANUAL_ONBOARDING" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "api-server",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	tenantDB := persistence.NewTenantDB(persistence.TenantDBConfig{
		Pool:         pool,
		SharedSchema: tenant.SharedSchema,
	})

	tokenCodec, err := platformauth.NewTokenCodec(cfg.TokenSecret, cfg.TokenTTL)
	if err != nil {
		logger.Fatal("init token codec", zap.Error(err))
	}

	identityService := identityservice.New(identityrepo.NewPostgresRepository(tenantDB))
	identityHTTPHandler := identityhandler.New(identityService, tokenCodec, logger)

	directoryService := directoryservice.New(
		directoryrepo.NewPostgresRepository(tenantDB),
		directoryprov.NewSchemaProvisioner(pool),
		cfg.BaseDomain,
		logger,
	)
	directoryHTTPHandler := directoryhandler.New(directoryService, logger)

	profileProvisioner := profilesservice.NewProvisioner(profilesservice.ProvisionerConfig{
		ManualOnboarding: cfg.ManualOnboarding,
		Logger:           logger,
	})
	profilesService := profilesservice.New(profilesservice.Config{
		Repository: profilesrepo.NewPostgresRepository(tenantDB),
		Logger:     logger,
	})
	profilesHTTPHandler := profileshandler.New(profilesService, logger)

	accessStore := acrepo.NewPostgresStore(tenantDB)
	accessService := acservice.New(acservice.Config{
		Store:       accessStore,
		Users:       identityService,
		Provisioner: profileProvisioner,
		Logger:      logger,
	})
	resolver := acservice.NewResolver(accessStore, logger)
	accessHTTPHandler := achandler.New(accessService, resolver, logger)

	onboardingService := onboardingservice.New(onboardingservice.Config{
		Identities:       identityService,
		Directory:        directoryService,
		AccessControl:    accessService,
		Consistency:      profilesService,
		Scheme:           cfg.Scheme,
		Port:             cfg.PublicPort,
		ManualOnboarding: cfg.ManualOnboarding,
		Logger:           logger,
	})
	onboardingHTTPHandler := onboardinghandler.New(onboardingService, logger)

	rootRouter := chi.NewRouter()
	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)
	rootRouter.Use(metrics.Middleware("api-server"))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Handle("/metrics", metrics.Handler())

	sharedHosts := cfg.SharedHosts
	if len(sharedHosts) == 0 {
		sharedHosts = []string{cfg.BaseDomain, "localhost"}
	}

	apiRouter := chi.NewRouter()
	apiRouter.Use(tenant.Binder(tenant.BinderConfig{
		Resolver:    directoryService,
		SharedHosts: sharedHosts,
		Logger:      logger,
	}))
	apiRouter.Use(platformlogging.RequestLogger(logger))
	apiRouter.Use(platformauth.Middleware(tokenCodec))

	// Shared-host endpoints: registration, login, domain availability.
	apiRouter.Post("/register", onboardingHTTPHandler.Register)
	apiRouter.Post("/auth/login", identityHTTPHandler.Login)
	apiRouter.Get("/auth/me", identityHTTPHandler.Me)
	apiRouter.Get("/domains/check", directoryHTTPHandler.CheckDomain)

	// Tenant-host endpoints.
	apiRouter.Get("/me/profile", profilesHTTPHandler.MyProfile)
	apiRouter.Group(func(r chi.Router) {
		r.Use(accessHTTPHandler.RequirePermission("view_role"))
		r.Get("/roles", accessHTTPHandler.ListRoles)
	})
	apiRouter.Group(func(r chi.Router) {
		r.Use(accessHTTPHandler.RequirePermission("edit_role"))
		r.Post("/user-roles", accessHTTPHandler.AssignRole)
	})
	apiRouter.Group(func(r chi.Router) {
		r.Use(accessHTTPHandler.RequirePermission("view_institution_profile"))
		r.Get("/institution", profilesHTTPHandler.Institution)
	})
	apiRouter.Group(func(r chi.Router) {
		r.Use(accessHTTPHandler.RequirePermission("edit_institution_profile"))
		r.Patch("/institution", profilesHTTPHandler.UpdateInstitution)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting api server",
			zap.String("port", cfg.Port),
			zap.String("base_domain", cfg.BaseDomain))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
