package main

import (
	"context"
	"errors"
	"log"
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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/harentsoaR/telehealth-api/internal/config"
	"github.com/harentsoaR/telehealth-api/internal/handlers"
	"github.com/harentsoaR/telehealth-api/internal/logger"
	"github.com/harentsoaR/telehealth-api/internal/metrics"
	"github.com/harentsoaR/telehealth-api/internal/middleware"
	"github.com/harentsoaR/telehealth-api/internal/repository"
	"github.com/harentsoaR/telehealth-api/internal/services"
	"github.com/harentsoaR/telehealth-api/internal/utils"
)

func main() {
	cfg, dotenvLoaded, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logg.Sync() //nolint:errcheck

	if !dotenvLoaded {
		logg.Info("no .env file found, relying on environment variables")
	}
	logg.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("database", cfg.Mongo.Database),
		zap.Bool("smsEnabled", cfg.SMS.Enabled),
	)

	if err := run(cfg, logg); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logg *zap.Logger) error {
	// --- Database Connection ---
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logg.Warn("mongo disconnect", zap.Error(err))
		}
	}()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	db := client.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	logg.Info("connected to MongoDB")

	// --- Services ---
	tokens, err := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(registry)

	users := repository.NewUserMongoRepository(db)
	availabilityRepo := repository.NewAvailabilityMongoRepository(db)
	appointmentRepo := repository.NewAppointmentMongoRepository(db)

	notifier := services.NewSMSNotifier(cfg.SMS, users, logg)
	authSvc := services.NewAuthService(users, tokens, logg)
	availabilitySvc := services.NewAvailabilityService(availabilityRepo, m, logg)
	bookingSvc := services.NewBookingService(appointmentRepo, availabilityRepo, notifier, m, logg)

	h := handlers.NewHandler(authSvc, availabilitySvc, bookingSvc, logg)

	// --- Gin Router ---
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(logg),
		m.Middleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	r.GET("/healthz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.AuthRequestsPerMinute, cfg.RateLimit.AuthBurst)
	h.RegisterRoutes(r, tokens, limiter.Middleware())

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logg.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
