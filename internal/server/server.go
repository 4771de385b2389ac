package server

import (
	"context"
	"net/http"

	"github.com/set-night/timetravel/internal/booking"
	"github.com/set-night/timetravel/internal/domain"
	"github.com/set-night/timetravel/internal/middleware"
)

// Completer answers a conversation on behalf of the concierge persona.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, turns []domain.Turn) (string, error)
}

// Bookings prices and submits reservations.
type Bookings interface {
	Quote(key domain.DestinationKey, start, end string, travelers int) (booking.Quote, error)
	Submit(ctx context.Context, f booking.Form) (*domain.Booking, error)
	Get(ctx context.Context, reference string) (*domain.Booking, error)
}

type Deps struct {
	Chat     Completer
	Bookings Bookings
	// RateLimitPerMinute caps /api/chat per client address; zero disables it.
	RateLimitPerMinute int
}

type Server struct {
	deps    Deps
	limiter *middleware.RateLimiter
	mux     *http.ServeMux
}

func New(deps Deps) *Server {
	s := &Server{
		deps:    deps,
		limiter: middleware.NewRateLimiter(deps.RateLimitPerMinute),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("POST /api/chat", RateLimit(s.limiter)(http.HandlerFunc(s.handleChat)))
	s.mux.HandleFunc("GET /api/destinations", s.handleDestinations)
	s.mux.HandleFunc("GET /api/quote", s.handleQuote)
	s.mux.HandleFunc("POST /api/bookings", s.handleCreateBooking)
	s.mux.HandleFunc("GET /api/bookings/{reference}", s.handleGetBooking)
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// Handler returns the routes wrapped in the recovery and logging middleware.
func (s *Server) Handler() http.Handler {
	return Chain(s.mux, Recover(), Logging())
}
