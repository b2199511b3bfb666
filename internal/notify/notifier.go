// Package notify persists notifications and pushes them, plus live trade
// feeds, to WebSocket subscribers.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/qubic-markets/qx-indexer/internal/database"
)

// SystemUser addresses broadcast-only notifications that belong to no single
// account.
const SystemUser = "SYSTEM"

type Manager struct {
	db  *database.DB
	hub *Hub
	log *zap.SugaredLogger
}

func NewManager(db *database.DB, hub *Hub, log *zap.SugaredLogger) *Manager {
	return &Manager{db: db, hub: hub, log: log}
}

// Notify stores a notification for the user and pushes it to their open
// connections. SYSTEM notifications are broadcast without a stored row.
func (m *Manager) Notify(ctx context.Context, userID, title, message string) error {
	if userID == SystemUser {
		m.hub.Broadcast("notification", systemNotification(title, message))
		m.log.Infow("system notification sent", "title", title)
		return nil
	}

	notification, err := m.db.CreateNotification(ctx, userID, title, message)
	if err != nil {
		return err
	}

	m.hub.SendToUser(userID, "notification", notification)
	m.log.Infow("notification sent", "user", userID, "title", title)

	return nil
}

// BroadcastTrade announces a newly indexed trade to every subscriber.
func (m *Manager) BroadcastTrade(_ context.Context, trade *database.Trade) error {
	m.hub.Broadcast("trade:new", trade)
	return nil
}

func systemNotification(title, message string) map[string]interface{} {
	return map[string]interface{}{
		"title":     title,
		"message":   message,
		"timestamp": time.Now().UnixMilli(),
		"read":      false,
	}
}
