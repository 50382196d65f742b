package web

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const livenessText = "Arbitrage bot running"

type errorResponse struct {
	Error string `json:"error"`
}

type commandResponse struct {
	Ack     string `json:"ack"`
	Changed bool   `json:"changed"`
	State   string `json:"state"`
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(livenessText))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Status())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	ack, changed := s.controller.Start()
	s.logger.Info("Start requested over HTTP", zap.String("remote", r.RemoteAddr), zap.Bool("changed", changed))
	s.writeJSON(w, http.StatusOK, commandResponse{
		Ack:     ack,
		Changed: changed,
		State:   string(s.controller.Status().State),
	})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	ack, changed := s.controller.Stop()
	s.logger.Info("Stop requested over HTTP", zap.String("remote", r.RemoteAddr), zap.Bool("changed", changed))
	s.writeJSON(w, http.StatusOK, commandResponse{
		Ack:     ack,
		Changed: changed,
		State:   string(s.controller.Status().State),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}
