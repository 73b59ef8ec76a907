package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/stadtaev/cityquest/internal/quest"
)

type GameActiveRequest struct {
	Active bool `json:"active"`
}

type GameActiveResponse struct {
	Active  bool   `json:"active"`
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

func (a *API) handleGameActive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameActiveRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		changed, err := a.engine.SetGameActive(r.Context(), req.Active)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		resp := GameActiveResponse{Active: req.Active, Changed: changed}
		switch {
		case !changed && req.Active:
			resp.Message = "game is already active"
		case !changed:
			resp.Message = "game is already paused"
		case req.Active:
			resp.Message = "game started"
		default:
			resp.Message = "game paused"
		}

		if changed {
			broadcast := "🚀 The game is on! Head to your first point."
			if !req.Active {
				broadcast = "🛑 The game is paused. New actions are unavailable."
			}
			a.fanOut(r.Context(), Event{Type: "game_status", Active: req.Active, Message: broadcast})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type ResetResponse struct {
	AffectedChatIDs []int64 `json:"affectedChatIds"`
}

func (a *API) handleReset() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		affected, err := a.engine.ResetAllTeams(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		for _, chatID := range affected {
			a.broker.Publish(chatID, Event{Type: "reset", Message: "Your progress was reset by the organizers."})
		}

		if affected == nil {
			affected = []int64{}
		}
		writeJSON(w, http.StatusOK, ResetResponse{AffectedChatIDs: affected})
	}
}

type BroadcastRequest struct {
	Message string `json:"message"`
}

type BroadcastResponse struct {
	Delivered int `json:"delivered"`
}

func (a *API) handleBroadcast() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BroadcastRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusBadRequest, "message is required")
			return
		}

		delivered, err := a.fanOut(r.Context(), Event{Type: "broadcast", Message: req.Message})
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, BroadcastResponse{Delivered: delivered})
	}
}

// fanOut publishes an event to every registered non-admin team. Failures for
// one team never abort delivery to the rest.
func (a *API) fanOut(ctx context.Context, event Event) (int, error) {
	teams, err := a.engine.Teams(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, t := range teams {
		if a.isAdmin(t.ChatID) {
			continue
		}
		a.broker.Publish(t.ChatID, event)
		delivered++
	}
	return delivered, nil
}

func (a *API) handleClearPrizes() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := a.engine.ClearPrizes(r.Context()); err != nil {
			writeQuestError(a.log, w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}

type StatsTeam struct {
	ChatID          int64      `json:"chatId"`
	TeamName        string     `json:"teamName"`
	CaptainID       int64      `json:"captainId"`
	Members         []string   `json:"members"`
	Score           int        `json:"score"`
	CompletedPoints []int      `json:"completedPoints"`
	Prizes          []int      `json:"prizes"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	TimeInGame      string     `json:"timeInGame"`
}

type StatsResponse struct {
	Teams        []StatsTeam         `json:"teams"`
	Prizes       []quest.PrizeRecord `json:"prizes"`
	GameActive   bool                `json:"gameActive"`
	AllCompleted bool                `json:"allCompleted"`
}

func (a *API) handleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := a.engine.Teams(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}
		prizes, err := a.engine.Prizes(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}
		active, err := a.engine.GameActive(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		now := time.Now()
		rows := make([]StatsTeam, 0, len(teams))
		for _, t := range teams {
			members := t.Members
			if members == nil {
				members = []string{}
			}
			completed := t.CompletedPoints
			if completed == nil {
				completed = []int{}
			}
			rows = append(rows, StatsTeam{
				ChatID:          t.ChatID,
				TeamName:        t.Name,
				CaptainID:       t.CaptainID,
				Members:         members,
				Score:           t.Score,
				CompletedPoints: completed,
				Prizes:          t.PrizesReceived,
				StartedAt:       t.StartedAt,
				CompletedAt:     t.CompletedAt,
				TimeInGame:      formatElapsed(now.Sub(t.StartedAt)),
			})
		}
		if prizes == nil {
			prizes = []quest.PrizeRecord{}
		}

		writeJSON(w, http.StatusOK, StatsResponse{
			Teams:        rows,
			Prizes:       prizes,
			GameActive:   active,
			AllCompleted: quest.AllCompleted(teams, a.engine.Catalog().TotalPoints()),
		})
	}
}

type WinnersResponse struct {
	Winners []RankingRow `json:"winners"`
	Text    string       `json:"text"`
}

func (a *API) handleWinners() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teams, err := a.engine.Teams(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		winners := quest.Winners(teams)
		totalPoints := a.engine.Catalog().TotalPoints()
		rows := make([]RankingRow, 0, len(winners))
		for i, t := range winners {
			rows = append(rows, RankingRow{
				Rank:            i + 1,
				TeamName:        t.Name,
				Score:           t.Score,
				CompletedPoints: len(t.CompletedPoints),
				TotalPoints:     totalPoints,
				Completed:       t.CompletedAt != nil,
			})
		}

		writeJSON(w, http.StatusOK, WinnersResponse{
			Winners: rows,
			Text:    formatWinners(winners, time.Now()),
		})
	}
}
