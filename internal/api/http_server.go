package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"karenta/internal/config"
	"karenta/internal/domain"
	"karenta/internal/export"
	"karenta/internal/metrics"

	"github.com/rs/zerolog"
)

// Server exposes the booking backend over HTTP.
type Server struct {
	cfg       config.APIConfig
	sessions  domain.SessionManager
	bookings  domain.BookingService
	declines  domain.DeclineService
	vehicles  domain.VehicleService
	customers domain.CustomerService
	proofs    domain.ProofStorage
	exporter  *export.Exporter
	server    *http.Server
	logger    *zerolog.Logger
}

type Deps struct {
	Sessions  domain.SessionManager
	Bookings  domain.BookingService
	Declines  domain.DeclineService
	Vehicles  domain.VehicleService
	Customers domain.CustomerService
	Proofs    domain.ProofStorage
	Exporter  *export.Exporter
}

func NewServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		sessions:  deps.Sessions,
		bookings:  deps.Bookings,
		declines:  deps.Declines,
		vehicles:  deps.Vehicles,
		customers: deps.Customers,
		proofs:    deps.Proofs,
		exporter:  deps.Exporter,
		logger:    logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/wizard/{kind}/start", s.handleWizardStart)
	mux.HandleFunc("GET /api/v1/wizard/{kind}", s.handleWizardState)
	mux.HandleFunc("POST /api/v1/wizard/{kind}/next", s.handleWizardNext)
	mux.HandleFunc("POST /api/v1/wizard/{kind}/back", s.handleWizardBack)
	mux.HandleFunc("POST /api/v1/wizard/{kind}/cancel", s.handleWizardCancel)
	mux.HandleFunc("POST /api/v1/wizard/booking/dates", s.handleWizardDates)
	mux.HandleFunc("POST /api/v1/wizard/booking/submit", s.handleBookingSubmit)
	mux.HandleFunc("POST /api/v1/wizard/decline/submit", s.handleDeclineSubmit)

	mux.HandleFunc("GET /api/v1/bookings/{id}", s.handleGetBooking)
	mux.HandleFunc("GET /api/v1/bookings", s.handleGetBookingByNumber)
	mux.HandleFunc("POST /api/v1/bookings/{id}/confirm", s.handleConfirmBooking)
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", s.handleCompleteBooking)

	mux.HandleFunc("GET /api/v1/availability", s.handleAvailability)
	mux.HandleFunc("GET /api/v1/vehicles", s.handleVehicles)
	mux.HandleFunc("GET /api/v1/vehicles/{id}", s.handleVehicle)
	mux.HandleFunc("GET /api/v1/pickup-points", s.handlePickupPoints)

	mux.HandleFunc("GET /api/v1/customers", s.handleListCustomers)
	mux.HandleFunc("POST /api/v1/customers", s.handleSaveCustomer)
	mux.HandleFunc("GET /api/v1/customers/{id}/bookings", s.handleCustomerBookings)

	mux.HandleFunc("POST /api/v1/uploads/proofs", s.handleProofUpload)
	mux.HandleFunc("GET /api/v1/reports/schedule", s.handleScheduleReport)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := NewAuth(cfg)
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.loggingMiddleware(auth.Wrap(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("http api listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the configured root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		metrics.IncHTTP(r.URL.Path)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
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

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

func decodeBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
