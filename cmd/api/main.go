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

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/unimind/wellness-api/internal/config"
	"github.com/unimind/wellness-api/internal/directory"
	"github.com/unimind/wellness-api/internal/handlers"
	"github.com/unimind/wellness-api/internal/logging"
	"github.com/unimind/wellness-api/internal/metrics"
	"github.com/unimind/wellness-api/internal/middleware"
	"github.com/unimind/wellness-api/internal/services"
	"github.com/unimind/wellness-api/internal/store"
	"github.com/unimind/wellness-api/internal/utils"
)

const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Error("failed to load configuration", logging.Fields{"error": err})
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("failed to configure logger", logging.Fields{"error": err})
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("api stopped with error")
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *logrus.Entry) error {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancelConnect := context.WithTimeout(signalCtx, connectTimeout)
	defer cancelConnect()

	mongoStore, err := store.NewManager(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := mongoStore.Close(closeCtx); err != nil {
			logger.WithError(err).Warn("failed to disconnect mongo")
		}
	}()

	if err := mongoStore.EnsureIndexes(connectCtx); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	logger.WithFields(logrus.Fields{
		"event":    "mongo_connected",
		"database": cfg.MongoDatabase,
	}).Info("connected to mongo")

	users := store.NewUserRepository(mongoStore.Users())
	appointments := store.NewAppointmentRepository(mongoStore.Appointments(), users)
	resolver := directory.NewResolver(users)
	provisioner := directory.NewProvisioner(users, logger)

	if cfg.SeedDemoData {
		if _, err := provisioner.EnsureDemoStudent(connectCtx); err != nil {
			return fmt.Errorf("seed demo student: %w", err)
		}
		if err := provisioner.EnsureCounselors(connectCtx, directory.DemoCounselors); err != nil {
			return fmt.Errorf("seed counselors: %w", err)
		}
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	booking := services.NewBookingService(resolver, provisioner, appointments, cfg.Location, logger)
	accounts := services.NewAccountService(users, tokens)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(signalCtx)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(logger, recorder),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	opts := handlers.RouteOptions{
		RateLimit: middleware.RateLimit(limiter, recorder),
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	if cfg.AuthRequired {
		opts.Auth = middleware.AuthMiddleware(tokens)
	}

	h := handlers.NewHandler(booking, accounts, mongoStore, recorder, logger)
	h.RegisterRoutes(router, opts)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"event":         "http_listening",
			"addr":          srv.Addr,
			"auth_required": cfg.AuthRequired,
			"timezone":      cfg.Location.String(),
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-signalCtx.Done():
		logger.WithField("event", "shutdown_signal").Info("received termination signal, shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.WithField("event", "shutdown_complete").Info("server stopped")
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
