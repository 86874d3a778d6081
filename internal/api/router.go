package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type RouterOptions struct {
	StaticDir       string
	RateLimitMax    int
	RateLimitWindow time.Duration
	TrustProxy      bool
	// Access log in Apache combined format; nil disables it.
	AccessLog io.Writer
}

func NewRouter(h *UserReservationHandler, opts RouterOptions, log *slog.Logger) http.Handler {
	r := mux.NewRouter()

	var create http.Handler = http.HandlerFunc(h.CreateReservation)
	if opts.RateLimitMax > 0 {
		create = NewRateLimiter(opts.RateLimitMax, opts.RateLimitWindow).Middleware(create)
	}

	// Public endpoints
	r.Handle("/api/reservations", create).Methods(http.MethodPost)
	r.HandleFunc("/healthz", Health).Methods(http.MethodGet)

	// Site
	r.PathPrefix("/").Handler(StaticHandler(opts.StaticDir)).Methods(http.MethodGet, http.MethodHead)

	var handler http.Handler = r
	handler = SecurityHeaders(handler)
	handler = handlers.CompressHandler(handler)
	handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: log}),
		handlers.PrintRecoveryStack(true),
	)(handler)
	if opts.AccessLog != nil {
		handler = handlers.CombinedLoggingHandler(opts.AccessLog, handler)
	}
	if opts.TrustProxy {
		handler = handlers.ProxyHeaders(handler)
	}
	return handler
}
