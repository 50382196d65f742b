package web

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/vitos/spot_arbitrage_bot/internal/usecase"
	"go.uber.org/zap"
)

// Controller is the start/stop surface exposed over HTTP.
type Controller interface {
	Start() (string, bool)
	Stop() (string, bool)
	Status() usecase.ServiceStatus
}

// controlTokenHeader carries the shared secret for the control routes.
const controlTokenHeader = "X-Control-Token"

type Server struct {
	router       *http.ServeMux
	server       *http.Server
	controller   Controller
	hub          *Hub
	controlToken string
	logger       *zap.Logger
}

// NewServer builds the HTTP surface. POST /start and /stop are only
// registered when controlToken is set.
func NewServer(port int, controlToken string, controller Controller, hub *Hub, logger *zap.Logger) *Server {
	s := &Server{
		router:       http.NewServeMux(),
		controller:   controller,
		hub:          hub,
		controlToken: controlToken,
		logger:       logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	// Liveness for the process host
	s.router.HandleFunc("GET /{$}", s.handleLiveness)

	s.router.HandleFunc("GET /status", s.handleStatus)

	if s.controlToken != "" {
		s.router.HandleFunc("POST /start", s.requireToken(s.handleStart))
		s.router.HandleFunc("POST /stop", s.requireToken(s.handleStop))
	}

	// Live alert stream
	if s.hub != nil {
		s.router.HandleFunc("GET /ws", s.hub.ServeWS)
	}
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(controlTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.controlToken)) != 1 {
			s.logger.Warn("Rejected control request",
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr))
			s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or missing " + controlTokenHeader})
			return
		}
		next(w, r)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.server.Shutdown(ctx)
}
