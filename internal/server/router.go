// Package server assembles the HTTP API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/handlers"
	"github.com/ukydev/fuel-tracker/internal/middleware"
	"github.com/ukydev/fuel-tracker/internal/models"
)

// Deps are the parts the router wires together.
type Deps struct {
	Auth        *handlers.AuthHandler
	Vehicles    *handlers.VehicleHandler
	FuelRecords *handlers.FuelRecordHandler

	Authenticator *middleware.AuthMiddleware
	RateLimiter   *middleware.RateLimiter
	Metrics       *middleware.Metrics
	Gatherer      prometheus.Gatherer
	Log           logrus.FieldLogger

	// Health reports whether backing services are reachable. Optional.
	Health func(ctx context.Context) error
}

// NewRouter returns the API handler. Everything under /api except /api/auth
// requires a bearer token.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = jsonMessage(http.StatusNotFound, "Not found")
	r.MethodNotAllowedHandler = jsonMessage(http.StatusMethodNotAllowed, "Method not allowed")

	if d.Log != nil {
		r.Use(middleware.RequestLogger(d.Log))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
	}

	r.HandleFunc("/health", healthHandler(d.Health)).Methods(http.MethodGet)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()
	if d.RateLimiter != nil {
		api.Use(d.RateLimiter.Limit)
	}
	api.Use(d.Authenticator.Authenticate)

	api.HandleFunc("/auth/register", d.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", d.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/forgot-password", d.Auth.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset-password", d.Auth.ResetPassword).Methods(http.MethodPost)

	// owner and driver must be registered before {id}
	api.HandleFunc("/vehicles/owner", d.Vehicles.ListOwned).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/driver", d.Vehicles.ListAssigned).Methods(http.MethodGet)
	api.HandleFunc("/vehicles", d.Vehicles.Create).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}", d.Vehicles.Get).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/{id}", d.Vehicles.Update).Methods(http.MethodPut)
	api.HandleFunc("/vehicles/{id}", d.Vehicles.Delete).Methods(http.MethodDelete)

	records := api.PathPrefix("/vehicles/{vehicleId}/fuel-records").Subrouter()
	records.HandleFunc("", d.FuelRecords.List).Methods(http.MethodGet)
	records.HandleFunc("", d.FuelRecords.Create).Methods(http.MethodPost)
	records.HandleFunc("/{id}", d.FuelRecords.Get).Methods(http.MethodGet)
	records.HandleFunc("/{id}", d.FuelRecords.Update).Methods(http.MethodPut)
	records.HandleFunc("/{id}", d.FuelRecords.Delete).Methods(http.MethodDelete)

	return r
}

func healthHandler(check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "message": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func jsonMessage(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, models.MessageResponse{Message: message})
	})
}
