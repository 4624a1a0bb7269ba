// Package api exposes the booking service over HTTP.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"jethotel/internal/access"
	"jethotel/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// IdentityResolver turns the authenticated user id into an actor.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID int64) (access.Actor, error)
}

// ReportWriter renders the audit workbook.
type ReportWriter interface {
	WriteReport(ctx context.Context, w io.Writer) error
}

// Config holds the HTTP listener settings.
type Config struct {
	Address string
	APIKey  string
}

// HTTPServer serves the REST API.
type HTTPServer struct {
	cfg        Config
	booking    *service.BookingService
	identities IdentityResolver
	reports    ReportWriter
	logger     *zerolog.Logger
	srv        *http.Server
}

func NewHTTPServer(cfg Config, booking *service.BookingService, identities IdentityResolver, reports ReportWriter, logger *zerolog.Logger) *HTTPServer {
	l := logger.With().Str("component", "http").Logger()
	s := &HTTPServer{
		cfg:        cfg,
		booking:    booking,
		identities: identities,
		reports:    reports,
		logger:     &l,
	}
	s.srv = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Handler builds the router.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.instrument)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAPIKey)

	api.HandleFunc("/rooms", s.handleListRooms).Methods(http.MethodGet)
	api.HandleFunc("/users", s.handleRegister).Methods(http.MethodPost)

	user := api.NewRoute().Subrouter()
	user.Use(s.identify)

	user.HandleFunc("/reservations", s.handleCreateReservation).Methods(http.MethodPost)
	user.HandleFunc("/reservations", s.handleUserReservations).Methods(http.MethodGet)
	user.HandleFunc("/transactions", s.handleUserTransactions).Methods(http.MethodGet)
	user.HandleFunc("/transactions/{id:[0-9]+}/confirm", s.handleConfirmPayment).Methods(http.MethodPost)
	user.HandleFunc("/notifications", s.handleUserNotifications).Methods(http.MethodGet)
	user.HandleFunc("/notifications/{id:[0-9]+}/read", s.handleMarkRead).Methods(http.MethodPost)

	admin := user.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/notifications", s.handleAdminNotifications).Methods(http.MethodGet)
	admin.HandleFunc("/reservations/{id:[0-9]+}", s.handleCancelReservation).Methods(http.MethodDelete)
	admin.HandleFunc("/transactions/{id:[0-9]+}/approve", s.handleApprovePayment).Methods(http.MethodPost)
	admin.HandleFunc("/rooms", s.handleAddRoom).Methods(http.MethodPost)
	admin.HandleFunc("/rooms/{id:[0-9]+}", s.handleUpdateRoom).Methods(http.MethodPut)
	admin.HandleFunc("/rooms/{id:[0-9]+}", s.handleDeleteRoom).Methods(http.MethodDelete)
	admin.HandleFunc("/report.xlsx", s.handleReport).Methods(http.MethodGet)

	return r
}

// Start blocks serving HTTP until Shutdown is called.
func (s *HTTPServer) Start() error {
	s.logger.Info().Str("address", s.cfg.Address).Msg("HTTP API listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
