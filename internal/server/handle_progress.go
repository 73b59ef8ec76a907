package server

import (
	"net/http"
)

func (a *API) handleProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID, ok := chatIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "chatId query parameter required")
			return
		}

		snapshot, err := a.engine.Progress(r.Context(), chatID)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, snapshot)
	}
}

type RankingResponse struct {
	Rows []RankingRow `json:"rows"`
	Text string       `json:"text"`
}

type RankingRow struct {
	Rank            int    `json:"rank"`
	TeamName        string `json:"teamName"`
	Score           int    `json:"score"`
	CompletedPoints int    `json:"completedPoints"`
	TotalPoints     int    `json:"totalPoints"`
	Completed       bool   `json:"completed"`
}

func (a *API) handleRanking() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeIdle := r.URL.Query().Get("all") == "true"

		teams, err := a.engine.Teams(r.Context())
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		ranked := rankingRows(teams, includeIdle, a.engine.Catalog().TotalPoints())
		writeJSON(w, http.StatusOK, RankingResponse{
			Rows: ranked,
			Text: formatRanking(ranked),
		})
	}
}
