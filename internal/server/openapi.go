package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CityQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Scoring and progression backend for the city-quest game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/register")
	postRegister.SetSummary("Register a team")
	postRegister.SetDescription("Creates the team for a chat. Idempotent for a known chat id; team names are globally unique.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /api/team/members
	postMembers, _ := r.NewOperationContext(http.MethodPost, "/api/team/members")
	postMembers.SetSummary("Set team members")
	postMembers.SetDescription("Stores the comma-separated member list for the team.")
	postMembers.AddReqStructure(MembersRequest{})
	postMembers.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMembers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postMembers)

	// GET /api/team/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/team/progress")
	getProgress.SetSummary("Team progress")
	getProgress.SetDescription("Returns score, completed points, and elapsed time for a team.")
	getProgress.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getProgress)

	// GET /api/points
	getPoints, _ := r.NewOperationContext(http.MethodGet, "/api/points")
	getPoints.SetSummary("Available points")
	getPoints.SetDescription("Lists catalog points the team has not completed yet.")
	getPoints.AddRespStructure([]PointInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	getPoints.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPoints)

	// POST /api/point/activate
	postActivate, _ := r.NewOperationContext(http.MethodPost, "/api/point/activate")
	postActivate.SetSummary("Activate a point")
	postActivate.SetDescription("Puts the team in front of a point and starts the activation clock. Completed points cannot be reactivated.")
	postActivate.AddReqStructure(ActivateRequest{})
	postActivate.AddRespStructure(ActivateResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postActivate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postActivate.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postActivate)

	// POST /api/game/code
	postCode, _ := r.NewOperationContext(http.MethodPost, "/api/game/code")
	postCode.SetSummary("Submit point code")
	postCode.SetDescription("Checks the secret code for the active point. A match opens the question sequence; a mismatch costs a flat penalty.")
	postCode.AddReqStructure(CodeRequest{})
	postCode.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCode)

	// POST /api/game/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/game/answer")
	postAnswer.SetSummary("Submit answer")
	postAnswer.SetDescription("Scores the answer to the current question, applying pace penalties and adaptive question costs.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// POST /api/miniquest/start
	postMQStart, _ := r.NewOperationContext(http.MethodPost, "/api/miniquest/start")
	postMQStart.SetSummary("Start a mini-quest")
	postMQStart.SetDescription("Hands the team a random unsolved mini-quest.")
	postMQStart.AddReqStructure(MiniQuestStartRequest{})
	postMQStart.AddRespStructure(MiniQuestStartResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMQStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postMQStart)

	// POST /api/miniquest/answer
	postMQAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/miniquest/answer")
	postMQAnswer.SetSummary("Answer a mini-quest")
	postMQAnswer.SetDescription("Checks the mini-quest answer; a first-time solve awards the flat bonus.")
	postMQAnswer.AddReqStructure(MiniQuestAnswerRequest{})
	postMQAnswer.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postMQAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postMQAnswer)

	// GET /api/ranking
	getRanking, _ := r.NewOperationContext(http.MethodGet, "/api/ranking")
	getRanking.SetSummary("Leaderboard")
	getRanking.SetDescription("Returns the ranked teams plus a rendered leaderboard text. Pass all=true to include idle teams.")
	getRanking.AddRespStructure(RankingResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getRanking)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of broadcasts, prize awards, and game status changes for a chat.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/game
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/admin/game")
	postGame.SetSummary("Set game active")
	postGame.SetDescription("Flips the persisted game-active flag and broadcasts the change. Requires admin headers.")
	postGame.AddReqStructure(GameActiveRequest{})
	postGame.AddRespStructure(GameActiveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postGame)

	// POST /api/admin/reset
	postReset, _ := r.NewOperationContext(http.MethodPost, "/api/admin/reset")
	postReset.SetSummary("Reset all teams")
	postReset.SetDescription("Wipes every team record and returns the chat ids that had progress. Requires admin headers.")
	postReset.AddRespStructure(ResetResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postReset)

	// POST /api/admin/broadcast
	postBroadcast, _ := r.NewOperationContext(http.MethodPost, "/api/admin/broadcast")
	postBroadcast.SetSummary("Broadcast a message")
	postBroadcast.SetDescription("Fans a message out to every non-admin team. Requires admin headers.")
	postBroadcast.AddReqStructure(BroadcastRequest{})
	postBroadcast.AddRespStructure(BroadcastResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postBroadcast.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postBroadcast)

	// POST /api/admin/prizes/clear
	postClear, _ := r.NewOperationContext(http.MethodPost, "/api/admin/prizes/clear")
	postClear.SetSummary("Clear prize ledger")
	postClear.SetDescription("Empties the global prize ledger. Requires admin headers.")
	postClear.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postClear.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postClear)

	// GET /api/admin/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/admin/stats")
	getStats.SetSummary("Full statistics")
	getStats.SetDescription("Returns every team with scores, prizes, and timing, plus the ledger. Requires admin headers.")
	getStats.AddRespStructure(StatsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getStats)

	// GET /api/admin/winners
	getWinners, _ := r.NewOperationContext(http.MethodGet, "/api/admin/winners")
	getWinners.SetSummary("Winner podium")
	getWinners.SetDescription("Returns teams in winner order plus a rendered podium text. Requires admin headers.")
	getWinners.AddRespStructure(WinnersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getWinners.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getWinners)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
