package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/qubic-markets/qx-indexer/internal/database"
)

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	q := database.TradeQuery{
		StartTick: queryUint(r, "startTick"),
		EndTick:   queryUint(r, "endTick"),
		Page:      int(queryUint(r, "page")),
		Limit:     int(queryUint(r, "limit")),
	}

	trades, err := s.db.ListTrades(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleGetTrade(w http.ResponseWriter, r *http.Request) {
	txHash := mux.Vars(r)["txHash"]

	trade, err := s.db.GetTradeByTxHash(r.Context(), txHash)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if trade == nil {
		s.writeError(w, http.StatusNotFound, errors.New("trade not found"))
		return
	}

	s.writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	limit := int(queryUint(r, "limit"))
	if limit <= 0 {
		limit = 10
	}

	assets, err := s.db.ListAssets(r.Context(), int(queryUint(r, "page")), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleAssetTrades(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid asset id"))
		return
	}

	q := database.TradeQuery{
		AssetID: id,
		Page:    int(queryUint(r, "page")),
		Limit:   int(queryUint(r, "limit")),
	}

	trades, err := s.db.ListTrades(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.db.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if user == nil {
		s.writeError(w, http.StatusNotFound, errors.New("user not found"))
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserTrades(w http.ResponseWriter, r *http.Request) {
	q := database.TradeQuery{
		UserID: mux.Vars(r)["id"],
		Page:   int(queryUint(r, "page")),
		Limit:  int(queryUint(r, "limit")),
	}

	trades, err := s.db.ListTrades(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleUserNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := s.db.ListNotifications(
		r.Context(), mux.Vars(r)["id"], unreadOnly,
		int(queryUint(r, "page")), int(queryUint(r, "limit")),
	)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	err := s.db.MarkNotificationRead(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.writeError(w, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]bool{"read": true})
}

func (s *Server) handleIndexerStatus(w http.ResponseWriter, r *http.Request) {
	tick, err := s.engine.Checkpoint(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":       s.engine.Running(),
		"processedTick": tick,
	})
}

func (s *Server) handleIndexerRun(w http.ResponseWriter, r *http.Request) {
	s.engine.RunNow()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

type setCheckpointRequest struct {
	ProcessedTick uint64 `json:"processedTick"`
}

func (s *Server) handleSetCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req setCheckpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	if err := s.engine.SetCheckpoint(r.Context(), req.ProcessedTick); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]uint64{"processedTick": req.ProcessedTick})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Errorw("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func queryUint(r *http.Request, key string) uint64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}

	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0
	}

	return n
}
