// Package server exposes the shipping orchestrator over REST. Every
// endpoint responds with the uniform JSON envelope and maps the error
// taxonomy onto HTTP status codes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/trovecart/shipping/internal/locations"
	"github.com/trovecart/shipping/internal/serviceability"
	"github.com/trovecart/shipping/internal/shipment"
	"github.com/trovecart/shipping/internal/telemetry"
	"github.com/trovecart/shipping/pkg/carrier/shiprocket"
)

// Server is the HTTP server for the shipping service.
type Server struct {
	port       int
	session    *shiprocket.Session
	api        shiprocket.APIClient
	aggregator *serviceability.Aggregator
	driver     *shipment.Driver
	registry   *locations.Registry
	logger     *otelzap.Logger
	metrics    *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int
}

// Deps bundles the wired components the server fronts.
type Deps struct {
	Session    *shiprocket.Session
	API        shiprocket.APIClient
	Aggregator *serviceability.Aggregator
	Driver     *shipment.Driver
	Registry   *locations.Registry
	Metrics    *telemetry.Metrics
}

// New creates a new server instance.
func New(cfg Config, deps Deps, logger *otelzap.Logger) *Server {
	return &Server{
		port:       cfg.Port,
		session:    deps.Session,
		api:        deps.API,
		aggregator: deps.Aggregator,
		driver:     deps.Driver,
		registry:   deps.Registry,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// Router builds the route table. Exposed for handler tests.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1/shipping").Subrouter()
	api.Use(s.instrument)

	api.HandleFunc("/authenticate", s.handleAuthenticate).Methods(http.MethodPost)
	api.HandleFunc("/serviceability", s.handleServiceability).Methods(http.MethodGet)
	api.HandleFunc("/serviceability/multi", s.handleServiceabilityMulti).Methods(http.MethodPost)
	api.HandleFunc("/orders/create", s.handleCreateOrder).Methods(http.MethodPost)
	api.HandleFunc("/awb/assign", s.handleAssignAWB).Methods(http.MethodPost)
	api.HandleFunc("/pickup/generate", s.handleGeneratePickup).Methods(http.MethodPost)
	api.HandleFunc("/manifest/generate", s.handleGenerateManifest).Methods(http.MethodPost)
	api.HandleFunc("/label/generate", s.handleGenerateLabel).Methods(http.MethodPost)
	api.HandleFunc("/print/generate", s.handleGeneratePrint).Methods(http.MethodPost)
	api.HandleFunc("/invoice/generate", s.handleGenerateInvoice).Methods(http.MethodPost)
	api.HandleFunc("/orders/cancel", s.handleCancelOrders).Methods(http.MethodPost)
	api.HandleFunc("/tracking/{awb}", s.handleTracking).Methods(http.MethodGet)
	api.HandleFunc("/pickup-locations", s.handleListPickupLocations).Methods(http.MethodGet)
	api.HandleFunc("/pickup-locations", s.handleUpsertPickupLocation).Methods(http.MethodPost)
	api.HandleFunc("/admin/shipping-charge", s.handleAdminShippingCharge).Methods(http.MethodPost)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		respondMessage(w, http.StatusNotFound, "route not found")
	})

	return r
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// instrument records a per-request counter keyed by route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		operation := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				operation = tpl
			}
		}
		s.metrics.RecordRequest(operation, fmt.Sprintf("%d", recorder.status))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
