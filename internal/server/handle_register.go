package server

import (
	"net/http"

	"github.com/stadtaev/cityquest/internal/quest"
)

type RegisterRequest struct {
	ChatID    int64  `json:"chatId"`
	TeamName  string `json:"teamName"`
	CaptainID int64  `json:"captainId"`
}

type TeamResponse struct {
	ChatID            int64    `json:"chatId"`
	TeamName          string   `json:"teamName"`
	Score             int      `json:"score"`
	Phase             string   `json:"phase"`
	Members           []string `json:"members"`
	WaitingForMembers bool     `json:"waitingForMembers"`
}

func teamResponse(t quest.Team) TeamResponse {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	return TeamResponse{
		ChatID:            t.ChatID,
		TeamName:          t.Name,
		Score:             t.Score,
		Phase:             string(t.Phase),
		Members:           members,
		WaitingForMembers: t.WaitingForMembers,
	}
}

func (a *API) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ChatID == 0 {
			writeError(w, http.StatusBadRequest, "chatId is required")
			return
		}

		team, err := a.engine.Register(r.Context(), req.ChatID, req.TeamName, req.CaptainID)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, teamResponse(team))
	}
}

type MembersRequest struct {
	ChatID  int64  `json:"chatId"`
	Members string `json:"members"`
}

func (a *API) handleMembers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MembersRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		team, err := a.engine.SetMembers(r.Context(), req.ChatID, req.Members)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, teamResponse(team))
	}
}
