// Package server exposes the indexed data and the administrative controls
// over HTTP, plus the WebSocket push endpoint.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/qubic-markets/qx-indexer/internal/config"
	"github.com/qubic-markets/qx-indexer/internal/database"
	"github.com/qubic-markets/qx-indexer/internal/notify"
)

const shutdownTimeout = 5 * time.Second

// Engine is the slice of the ingestion engine the admin endpoints drive.
type Engine interface {
	Running() bool
	Checkpoint(ctx context.Context) (uint64, error)
	SetCheckpoint(ctx context.Context, tick uint64) error
	RunNow()
}

type Server struct {
	db     *database.DB
	engine Engine
	hub    *notify.Hub
	log    *zap.SugaredLogger
	http   *http.Server
}

func New(cfg *config.Server, db *database.DB, engine Engine, hub *notify.Hub, log *zap.SugaredLogger) *Server {
	s := &Server{
		db:     db,
		engine: engine,
		hub:    hub,
		log:    log,
	}

	s.http = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.routes(),
	}

	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthcheck", s.handleHealthcheck).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/trades", s.handleListTrades).Methods(http.MethodGet)
	v1.HandleFunc("/trades/{txHash}", s.handleGetTrade).Methods(http.MethodGet)
	v1.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	v1.HandleFunc("/assets/{id}/trades", s.handleAssetTrades).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}", s.handleGetUser).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}/trades", s.handleUserTrades).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}/notifications", s.handleUserNotifications).Methods(http.MethodGet)
	v1.HandleFunc("/notifications/{id}/read", s.handleMarkNotificationRead).Methods(http.MethodPost)

	v1.HandleFunc("/indexer/status", s.handleIndexerStatus).Methods(http.MethodGet)
	v1.HandleFunc("/indexer/run", s.handleIndexerRun).Methods(http.MethodPost)
	v1.HandleFunc("/indexer/checkpoint", s.handleSetCheckpoint).Methods(http.MethodPut)

	r.HandleFunc("/ws", s.hub.HandleWS)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Infow("http server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
