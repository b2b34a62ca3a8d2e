package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/auth"
	"github.com/ukydev/fuel-tracker/internal/config"
	"github.com/ukydev/fuel-tracker/internal/db"
	"github.com/ukydev/fuel-tracker/internal/events"
	"github.com/ukydev/fuel-tracker/internal/handlers"
	"github.com/ukydev/fuel-tracker/internal/middleware"
	"github.com/ukydev/fuel-tracker/internal/server"
)

// collections are the stores behind the API.
type collections struct {
	Users       db.UserCollection
	Vehicles    db.VehicleCollection
	FuelRecords db.FuelRecordCollection
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := cfg.Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	mongoClient, err := db.ConnectMongo(ctx, cfg.Mongo.URI)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.Mongo.Database).Info("Connected to MongoDB")

	store := db.NewStore(mongoClient.Database(cfg.Mongo.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	publisher := newPublisher(cfg.MQTT, log)
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router, err := newRouter(cfg, collections{
		Users:       store.Users,
		Vehicles:    store.Vehicles,
		FuelRecords: store.FuelRecords,
	}, publisher, reg, log, func(ctx context.Context) error {
		return mongoClient.Ping(ctx, nil)
	})
	if err != nil {
		return err
	}

	return serve(ctx, newHTTPServer(cfg, router), cfg.HTTP.ShutdownTimeout, log)
}

// newPublisher connects to the MQTT broker when one is configured. Without a
// broker, or when it is unreachable, changes are not published.
func newPublisher(cfg config.MQTTConfig, log logrus.FieldLogger) events.Publisher {
	if cfg.Broker == "" {
		log.Info("MQTT broker not configured, fuel record events disabled")
		return events.NopPublisher{}
	}
	publisher, err := events.NewMQTTPublisher(cfg.Broker, cfg.ClientID, log)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.Broker).Warn("MQTT unavailable, fuel record events disabled")
		return events.NopPublisher{}
	}
	log.WithField("broker", cfg.Broker).Info("Publishing fuel record events")
	return publisher
}

func newRouter(cfg *config.Config, c collections, publisher events.Publisher, reg *prometheus.Registry, log *logrus.Logger, health func(context.Context) error) (http.Handler, error) {
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	if err := limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		return nil, err
	}

	authService := auth.NewService(cfg.JWT.Secret, cfg.JWT.Expiry)
	if cfg.JWT.Secret == "" {
		log.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	return server.NewRouter(server.Deps{
		Auth:          handlers.NewAuthHandler(authService, c.Users, log),
		Vehicles:      handlers.NewVehicleHandler(c.Vehicles, c.FuelRecords, log),
		FuelRecords:   handlers.NewFuelRecordHandler(c.Vehicles, c.FuelRecords, publisher, log),
		Authenticator: middleware.NewAuthMiddleware(authService),
		RateLimiter:   limiter,
		Metrics:       middleware.NewMetrics(reg),
		Gatherer:      reg,
		Log:           log,
		Health:        health,
	}), nil
}

func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is done, then drains in-flight requests for up to
// shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log logrus.FieldLogger) error {
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return err
	}
	log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("Server stopped")
	return nil
}
