package server

import (
	"database/sql"
	"log/slog"

	"github.com/stadtaev/cityquest/internal/quest"
)

// API bundles the gateway's collaborators: the scoring engine, the SSE broker,
// and the admin identity configuration.
type API struct {
	log    *slog.Logger
	engine *quest.Engine
	broker *Broker
	db     *sql.DB // nil when running on the in-memory store

	adminIDs     map[int64]bool
	adminKeyHash string
}

func NewAPI(log *slog.Logger, engine *quest.Engine, db *sql.DB, adminIDs []int64, adminKeyHash string) *API {
	ids := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = true
	}
	return &API{
		log:          log,
		engine:       engine,
		broker:       NewBroker(),
		db:           db,
		adminIDs:     ids,
		adminKeyHash: adminKeyHash,
	}
}

// isAdmin reports whether the chat id is on the static allowlist. Admins are
// exempt from the game-active gate.
func (a *API) isAdmin(chatID int64) bool {
	return a.adminIDs[chatID]
}
