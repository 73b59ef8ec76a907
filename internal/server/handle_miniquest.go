package server

import (
	"net/http"
	"strings"
)

type MiniQuestStartRequest struct {
	ChatID int64 `json:"chatId"`
}

type MiniQuestStartResponse struct {
	Task string `json:"task"`
}

func (a *API) handleMiniQuestStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MiniQuestStartRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		mq, err := a.engine.StartMiniQuest(r.Context(), req.ChatID, a.isAdmin(req.ChatID))
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, MiniQuestStartResponse{Task: mq.Task})
	}
}

type MiniQuestAnswerRequest struct {
	ChatID int64  `json:"chatId"`
	Answer string `json:"answer"`
}

func (a *API) handleMiniQuestAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MiniQuestAnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Answer) == "" {
			writeError(w, http.StatusBadRequest, "answer is required")
			return
		}

		res, err := a.engine.SubmitMiniQuest(r.Context(), req.ChatID, req.Answer)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
