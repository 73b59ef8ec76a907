package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, api *API) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("CityQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", api.handleHealth())

	// Player routes — the messaging gateway passes the chat id it trusts.
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", api.handleRegister())
		r.Post("/team/members", api.handleMembers())
		r.Get("/team/progress", api.handleProgress())
		r.Get("/points", api.handlePoints())
		r.Post("/point/activate", api.handleActivate())
		r.Post("/game/code", api.handleCode())
		r.Post("/game/answer", api.handleAnswer())
		r.Post("/miniquest/start", api.handleMiniQuestStart())
		r.Post("/miniquest/answer", api.handleMiniQuestAnswer())
		r.Get("/ranking", api.handleRanking())
		r.Get("/events", api.handleEvents())
	})

	// Admin routes — static allowlist plus optional key check.
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(api.adminOnly)
		r.Post("/game", api.handleGameActive())
		r.Post("/reset", api.handleReset())
		r.Post("/broadcast", api.handleBroadcast())
		r.Post("/prizes/clear", api.handleClearPrizes())
		r.Get("/stats", api.handleStats())
		r.Get("/winners", api.handleWinners())
	})
}
