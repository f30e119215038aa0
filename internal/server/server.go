package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bdsalocin/comhodl-api/internal/catalog"
	"github.com/bdsalocin/comhodl-api/internal/leaderboard"
)

// Deps are the collaborators the API handlers need.
type Deps struct {
	Store       Store
	Places      *catalog.Registry
	Tokens      *Tokens
	Board       leaderboard.Board
	Broker      *Broker
	CORSOrigin  string
	MerchantTTL time.Duration
	// Now is the clock used for rewards and défi windows.
	Now func() time.Time
}

func (d *Deps) defaults() {
	if d.Places == nil {
		d.Places = catalog.Default()
	}
	if d.Board == nil {
		d.Board = leaderboard.NewMemory()
	}
	if d.Broker == nil {
		d.Broker = NewBroker()
	}
	if d.CORSOrigin == "" {
		d.CORSOrigin = "*"
	}
	if d.MerchantTTL == 0 {
		d.MerchantTTL = 5 * time.Minute
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// New builds the HTTP server. mount attaches extra sub-routers (health,
// websockets) owned by other packages.
func New(addr string, logger *slog.Logger, deps Deps, mount func(chi.Router)) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewHandler(logger, deps, mount),
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// NewHandler returns the fully wired router.
func NewHandler(logger *slog.Logger, deps Deps, mount func(chi.Router)) http.Handler {
	deps.defaults()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(deps.CORSOrigin))

	addRoutes(r, logger, deps)
	if mount != nil {
		mount(r)
	}
	return r
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
