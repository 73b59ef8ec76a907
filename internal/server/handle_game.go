package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/stadtaev/cityquest/internal/quest"
)

// chatIDParam reads the chatId query parameter for GET endpoints.
func chatIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("chatId"), 10, 64)
	return id, err == nil && id != 0
}

type PointInfo struct {
	PointID     int     `json:"pointId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Questions   int     `json:"questions"`
}

func pointInfo(p quest.Point) PointInfo {
	return PointInfo{
		PointID:     p.ID,
		Name:        p.Name,
		Description: p.Description,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Questions:   len(p.Questions),
	}
}

func (a *API) handlePoints() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID, ok := chatIDParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "chatId query parameter required")
			return
		}

		points, err := a.engine.AvailablePoints(r.Context(), chatID)
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		infos := make([]PointInfo, 0, len(points))
		for _, p := range points {
			infos = append(infos, pointInfo(p))
		}
		writeJSON(w, http.StatusOK, infos)
	}
}

type ActivateRequest struct {
	ChatID  int64 `json:"chatId"`
	PointID int   `json:"pointId"`
}

type ActivateResponse struct {
	Point  PointInfo `json:"point"`
	Prompt string    `json:"prompt"`
}

func (a *API) handleActivate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ActivateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		res, err := a.engine.ActivatePoint(r.Context(), req.ChatID, req.PointID, a.isAdmin(req.ChatID))
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		writeJSON(w, http.StatusOK, ActivateResponse{
			Point:  pointInfo(res.Point),
			Prompt: formatPointPrompt(res.Point),
		})
	}
}

type CodeRequest struct {
	ChatID int64  `json:"chatId"`
	Code   string `json:"code"`
}

func (a *API) handleCode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Code) == "" {
			writeError(w, http.StatusBadRequest, "code is required")
			return
		}

		res, err := a.engine.SubmitCode(r.Context(), req.ChatID, req.Code, a.isAdmin(req.ChatID))
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		a.notifyCompletion(req.ChatID, res.Completion)
		writeJSON(w, http.StatusOK, res)
	}
}

type AnswerRequest struct {
	ChatID        int64  `json:"chatId"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
}

func (a *API) handleAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Answer) == "" {
			writeError(w, http.StatusBadRequest, "answer is required")
			return
		}

		res, err := a.engine.SubmitAnswer(r.Context(), req.ChatID, req.QuestionIndex, req.Answer, a.isAdmin(req.ChatID))
		if err != nil {
			writeQuestError(a.log, w, err)
			return
		}

		a.notifyCompletion(req.ChatID, res.Completion)
		writeJSON(w, http.StatusOK, res)
	}
}

// notifyCompletion fans out prize and quest-complete events. Admin audit
// copies go to every allowlisted admin chat.
func (a *API) notifyCompletion(chatID int64, c *quest.Completion) {
	if c == nil {
		return
	}
	if c.Prize != nil {
		a.broker.Publish(chatID, Event{Type: "prize_awarded", Threshold: c.Prize.Threshold})
		for adminID := range a.adminIDs {
			a.broker.Publish(adminID, Event{
				Type:      "prize_audit",
				Threshold: c.Prize.Threshold,
				Message:   strconv.FormatInt(chatID, 10),
			})
		}
	}
	if c.QuestComplete {
		a.broker.Publish(chatID, Event{Type: "quest_complete"})
		for adminID := range a.adminIDs {
			a.broker.Publish(adminID, Event{
				Type:    "quest_complete_audit",
				Message: strconv.FormatInt(chatID, 10),
			})
		}
	}
}
