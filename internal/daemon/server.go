package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spendtrail/spendtraild/internal/badge"
	"github.com/spendtrail/spendtraild/internal/bus"
	"github.com/spendtrail/spendtraild/internal/ingest"
	"github.com/spendtrail/spendtraild/internal/profile"
	"github.com/spendtrail/spendtraild/internal/queue"
	"github.com/spendtrail/spendtraild/internal/settings"
	"github.com/spendtrail/spendtraild/internal/status"
	"github.com/spendtrail/spendtraild/internal/syncengine"
	"go.uber.org/zap"
)

// Server exposes the control API on the profile's unix socket. It is the
// surface the ctl CLI and any local UI talk to.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	socketPath string
	logger     *zap.Logger

	profileName string
	handler     *ingest.Handler
	engine      *syncengine.Engine
	queue       *queue.Store
	badge       *badge.Counter
	settings    *settings.Settings
	machine     *status.Machine
	bus         *bus.Bus
}

// NewServer creates an HTTP server bound to the profile's unix socket.
func NewServer(
	p Params,
	logger *zap.Logger,
	handler *ingest.Handler,
	engine *syncengine.Engine,
	q *queue.Store,
	badgeCounter *badge.Counter,
	st *settings.Settings,
	machine *status.Machine,
	b *bus.Bus,
) (*Server, error) {
	socketPath := p.SocketPath
	if socketPath == "" {
		socketPath = profile.SocketPath(p.ProfileName)
	}

	// Clean stale socket if it exists.
	if _, err := os.Stat(socketPath); err == nil {
		_ = os.Remove(socketPath)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen unix socket: %w", err)
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}

	s := &Server{
		listener:    listener,
		socketPath:  socketPath,
		logger:      logger,
		profileName: p.ProfileName,
		handler:     handler,
		engine:      engine,
		queue:       q,
		badge:       badgeCounter,
		settings:    st,
		machine:     machine,
		bus:         b,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/ingest", s.handleIngest).Methods(http.MethodPost)
	api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	api.HandleFunc("/queue", s.handleQueueList).Methods(http.MethodGet)
	api.HandleFunc("/queue", s.handleQueueClear).Methods(http.MethodDelete)
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/autosync", s.handleAutoSync).Methods(http.MethodPut)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s, nil
}

// Start begins serving control requests. Blocks until stopped.
func (s *Server) Start() error {
	s.logger.Info("control server starting", zap.String("socket", s.socketPath))
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown and removes the socket file.
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("control server stopping")
	_ = s.httpServer.Shutdown(ctx)
	_ = os.Remove(s.socketPath)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var raw ingest.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	result := s.handler.HandleIncoming(r.Context(), raw)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	report, err := s.engine.ProcessQueue(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleQueueList(w http.ResponseWriter, r *http.Request) {
	items, err := s.queue.ReadAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if items == nil {
		items = []queue.Item{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(items),
		"items": items,
	})
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.bus.Publish(bus.Event{Kind: bus.KindQueueCleared, Timestamp: time.Now()})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":  s.profileName,
		"state":    s.machine.Current(),
		"autoSync": s.settings.AutoSyncEnabled(r.Context()),
		"badge":    s.badge.Get(r.Context()),
		"queue":    stats,
	})
}

func (s *Server) handleAutoSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if err := s.settings.SetAutoSync(r.Context(), req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": req.Enabled})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
