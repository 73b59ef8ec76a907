package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stadtaev/cityquest/internal/quest"
	"github.com/stadtaev/cityquest/internal/store"
)

// setupServer builds a router over the in-memory store with the game active.
// The answer pace check is disabled; pace scoring is covered by engine tests.
func setupServer(t *testing.T, adminIDs ...int64) (*chi.Mux, *API) {
	t.Helper()

	mem := store.NewMemory()
	if err := mem.SetActive(context.Background(), true); err != nil {
		t.Fatalf("activate game: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules := quest.DefaultRules()
	rules.MinAnswerInterval = 0

	engine := quest.NewEngine(logger, quest.Demo(), mem, mem, mem, rules)
	api := NewAPI(logger, engine, nil, adminIDs, "")

	r := chi.NewRouter()
	addRoutes(r, api)
	return r, api
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, r http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerTeam(t *testing.T, r http.Handler, chatID int64, name string) {
	t.Helper()
	w := postJSON(t, r, "/api/register", RegisterRequest{ChatID: chatID, TeamName: name, CaptainID: chatID + 1})
	if w.Code != http.StatusOK {
		t.Fatalf("register %q: expected 200, got %d: %s", name, w.Code, w.Body.String())
	}
}

// demoPlay holds the code and answer sequence for each demo catalog point.
var demoPlay = map[int]struct {
	code    string
	answers []string
}{
	1: {"fuente 1651", []string{"1", "0"}},
	2: {"san francisco", []string{"catacombs", "2"}},
	3: {"union 1821", []string{"san martin"}},
	4: {"muralla", []string{"1", "rimac"}},
}

// completePoint walks a team through one demo point and returns the final
// answer result.
func completePoint(t *testing.T, r http.Handler, chatID int64, pointID int) quest.AnswerResult {
	t.Helper()
	play := demoPlay[pointID]

	w := postJSON(t, r, "/api/point/activate", ActivateRequest{ChatID: chatID, PointID: pointID})
	if w.Code != http.StatusOK {
		t.Fatalf("activate point %d: expected 200, got %d: %s", pointID, w.Code, w.Body.String())
	}

	w = postJSON(t, r, "/api/game/code", CodeRequest{ChatID: chatID, Code: play.code})
	if w.Code != http.StatusOK {
		t.Fatalf("code for point %d: expected 200, got %d: %s", pointID, w.Code, w.Body.String())
	}

	var last quest.AnswerResult
	for i, ans := range play.answers {
		w = postJSON(t, r, "/api/game/answer", AnswerRequest{ChatID: chatID, QuestionIndex: i, Answer: ans})
		if w.Code != http.StatusOK {
			t.Fatalf("answer %d of point %d: expected 200, got %d: %s", i, pointID, w.Code, w.Body.String())
		}
		json.NewDecoder(w.Body).Decode(&last)
		if !last.Correct {
			t.Fatalf("answer %d of point %d: expected correct", i, pointID)
		}
	}
	return last
}

func TestRegister(t *testing.T) {
	r, _ := setupServer(t)

	w := postJSON(t, r, "/api/register", RegisterRequest{ChatID: 100, TeamName: "Los Incas", CaptainID: 5})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TeamResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.TeamName != "Los Incas" || resp.Score != 0 {
		t.Errorf("unexpected team %+v", resp)
	}
	if !resp.WaitingForMembers {
		t.Error("expected new team to await its member list")
	}

	// Same name under a different chat is refused.
	w = postJSON(t, r, "/api/register", RegisterRequest{ChatID: 200, TeamName: "Los Incas"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate name, got %d", w.Code)
	}

	// Same chat registering again gets its team back.
	w = postJSON(t, r, "/api/register", RegisterRequest{ChatID: 100, TeamName: "Otro Nombre"})
	if w.Code != http.StatusOK {
		t.Fatalf("re-register: expected 200, got %d", w.Code)
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.TeamName != "Los Incas" {
		t.Errorf("expected existing name back, got %q", resp.TeamName)
	}
}

func TestRegisterRequiresChatID(t *testing.T) {
	r, _ := setupServer(t)

	w := postJSON(t, r, "/api/register", RegisterRequest{TeamName: "Sin Chat"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSetMembers(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	w := postJSON(t, r, "/api/team/members", MembersRequest{ChatID: 100, Members: "Maria, Carlos, Ana"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp TeamResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Members) != 3 {
		t.Errorf("expected 3 members, got %v", resp.Members)
	}
	if resp.WaitingForMembers {
		t.Error("expected waitingForMembers cleared")
	}
}

func TestPointsList(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	w := getPath(t, r, "/api/points?chatId=100")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var points []PointInfo
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 4 {
		t.Fatalf("expected 4 points, got %d", len(points))
	}

	completePoint(t, r, 100, 1)

	w = getPath(t, r, "/api/points?chatId=100")
	json.NewDecoder(w.Body).Decode(&points)
	if len(points) != 3 {
		t.Errorf("expected 3 points after completion, got %d", len(points))
	}
	for _, p := range points {
		if p.PointID == 1 {
			t.Error("expected completed point dropped from the list")
		}
	}
}

func TestCodeAndAnswerFlow(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	w := postJSON(t, r, "/api/point/activate", ActivateRequest{ChatID: 100, PointID: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("activate: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var act ActivateResponse
	json.NewDecoder(w.Body).Decode(&act)
	if act.Point.PointID != 1 || act.Prompt == "" {
		t.Errorf("unexpected activation %+v", act)
	}

	// Wrong code costs a point and leaves the team in place.
	w = postJSON(t, r, "/api/game/code", CodeRequest{ChatID: 100, Code: "nope"})
	var code quest.CodeResult
	json.NewDecoder(w.Body).Decode(&code)
	if code.Accepted || code.Penalty != 1 || code.Score != -1 {
		t.Errorf("unexpected wrong-code result %+v", code)
	}

	// Right code opens the first question. Matching ignores case and spacing.
	w = postJSON(t, r, "/api/game/code", CodeRequest{ChatID: 100, Code: " FUENTE  1651 "})
	json.NewDecoder(w.Body).Decode(&code)
	if !code.Accepted {
		t.Fatalf("expected code accepted, got %+v", code)
	}
	if code.Question == nil || code.Question.Index != 0 || code.Question.Cost != 10 {
		t.Fatalf("expected first question at base cost, got %+v", code.Question)
	}

	// Wrong answer: penalty plus a cheaper retry of the same question.
	w = postJSON(t, r, "/api/game/answer", AnswerRequest{ChatID: 100, QuestionIndex: 0, Answer: "2"})
	var ans quest.AnswerResult
	json.NewDecoder(w.Body).Decode(&ans)
	if ans.Correct || ans.Penalty != 1 || ans.Score != -2 {
		t.Errorf("unexpected wrong-answer result %+v", ans)
	}
	if ans.NextQuestion == nil || ans.NextQuestion.Index != 0 || ans.NextQuestion.Cost != 8 {
		t.Errorf("expected same question at cost 8, got %+v", ans.NextQuestion)
	}

	// Correct answer earns the reduced value and advances.
	w = postJSON(t, r, "/api/game/answer", AnswerRequest{ChatID: 100, QuestionIndex: 0, Answer: "1"})
	json.NewDecoder(w.Body).Decode(&ans)
	if !ans.Correct || ans.Awarded != 8 || ans.Score != 6 {
		t.Errorf("unexpected correct-answer result %+v", ans)
	}
	if ans.NextQuestion == nil || ans.NextQuestion.Index != 1 {
		t.Fatalf("expected question 1 next, got %+v", ans.NextQuestion)
	}

	// Final answer completes the point.
	w = postJSON(t, r, "/api/game/answer", AnswerRequest{ChatID: 100, QuestionIndex: 1, Answer: "0"})
	json.NewDecoder(w.Body).Decode(&ans)
	if !ans.Correct || ans.Score != 16 {
		t.Errorf("unexpected final result %+v", ans)
	}
	if ans.Completion == nil || ans.Completion.PointID != 1 || ans.Completion.CompletedCount != 1 {
		t.Fatalf("expected completion of point 1, got %+v", ans.Completion)
	}
	if ans.Completion.QuestComplete {
		t.Error("quest should not be complete after one point")
	}

	// The completed point cannot be re-activated.
	w = postJSON(t, r, "/api/point/activate", ActivateRequest{ChatID: 100, PointID: 1})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 re-activating a completed point, got %d", w.Code)
	}
}

func TestAnswerWithoutQuestion(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	w := postJSON(t, r, "/api/game/answer", AnswerRequest{ChatID: 100, QuestionIndex: 0, Answer: "1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 with no question in progress, got %d", w.Code)
	}
}

func TestGameInactiveGate(t *testing.T) {
	r, api := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	if _, err := api.engine.SetGameActive(context.Background(), false); err != nil {
		t.Fatalf("pause game: %v", err)
	}

	w := postJSON(t, r, "/api/point/activate", ActivateRequest{ChatID: 100, PointID: 1})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 while paused, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuestCompleteAwardsPrize(t *testing.T) {
	r, api := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")
	registerTeam(t, r, 200, "Los Condores")

	events := api.broker.Subscribe(100)
	defer api.broker.Unsubscribe(100, events)

	var last quest.AnswerResult
	for pointID := 1; pointID <= 4; pointID++ {
		last = completePoint(t, r, 100, pointID)
	}

	if last.Completion == nil || !last.Completion.QuestComplete {
		t.Fatalf("expected quest complete, got %+v", last.Completion)
	}
	if last.Completion.Prize == nil || last.Completion.Prize.Threshold != 4 {
		t.Fatalf("expected the threshold-4 prize, got %+v", last.Completion.Prize)
	}
	// Full run with no mistakes: 7 questions at base cost.
	if last.Score != 70 {
		t.Errorf("expected score 70, got %d", last.Score)
	}

	// Prize and completion events reach the team's stream.
	types := map[string]bool{}
	for len(events) > 0 {
		var ev Event
		json.Unmarshal(<-events, &ev)
		types[ev.Type] = true
	}
	if !types["prize_awarded"] || !types["quest_complete"] {
		t.Errorf("expected prize_awarded and quest_complete events, got %v", types)
	}

	// The second team finishes too, but the prize is gone.
	for pointID := 1; pointID <= 4; pointID++ {
		last = completePoint(t, r, 200, pointID)
	}
	if last.Completion == nil || !last.Completion.QuestComplete {
		t.Fatalf("expected second quest complete, got %+v", last.Completion)
	}
	if last.Completion.Prize != nil {
		t.Errorf("expected no prize for the second finisher, got %+v", last.Completion.Prize)
	}
}

func TestMiniQuestEndpoints(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")

	w := postJSON(t, r, "/api/miniquest/start", MiniQuestStartRequest{ChatID: 100})
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var start MiniQuestStartResponse
	json.NewDecoder(w.Body).Decode(&start)
	if start.Task == "" {
		t.Fatal("expected a task")
	}

	// Look the answer up in the demo catalog.
	answer := ""
	for _, mq := range quest.Demo().MiniQuests() {
		if mq.Task == start.Task {
			answer = mq.Answer
		}
	}
	if answer == "" {
		t.Fatalf("task %q not in the demo catalog", start.Task)
	}

	w = postJSON(t, r, "/api/miniquest/answer", MiniQuestAnswerRequest{ChatID: 100, Answer: answer})
	if w.Code != http.StatusOK {
		t.Fatalf("answer: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res quest.MiniQuestResult
	json.NewDecoder(w.Body).Decode(&res)
	if !res.Correct || res.Awarded != 5 || res.Score != 5 {
		t.Errorf("expected flat 5 award, got %+v", res)
	}

	// No task in progress after the solve.
	w = postJSON(t, r, "/api/miniquest/answer", MiniQuestAnswerRequest{ChatID: 100, Answer: answer})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 with no task pending, got %d", w.Code)
	}
}

func TestProgressEndpoint(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")
	completePoint(t, r, 100, 3)

	w := getPath(t, r, "/api/team/progress?chatId=100")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var snap quest.ProgressSnapshot
	json.NewDecoder(w.Body).Decode(&snap)
	if snap.TeamName != "Los Incas" || snap.Score != 10 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if len(snap.CompletedPoints) != 1 || snap.TotalPoints != 4 {
		t.Errorf("unexpected completion counts in %+v", snap)
	}

	// Unknown teams are a 404.
	w = getPath(t, r, "/api/team/progress?chatId=999")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown team, got %d", w.Code)
	}
}

func TestRankingEndpoint(t *testing.T) {
	r, _ := setupServer(t)
	registerTeam(t, r, 100, "Los Incas")
	registerTeam(t, r, 200, "Los Condores")

	// Only teams with completed points make the board by default.
	w := getPath(t, r, "/api/ranking")
	var board RankingResponse
	json.NewDecoder(w.Body).Decode(&board)
	if len(board.Rows) != 0 {
		t.Errorf("expected empty board, got %d rows", len(board.Rows))
	}

	w = getPath(t, r, "/api/ranking?all=true")
	json.NewDecoder(w.Body).Decode(&board)
	if len(board.Rows) != 2 {
		t.Errorf("expected both teams with all=true, got %d rows", len(board.Rows))
	}

	completePoint(t, r, 200, 1)

	w = getPath(t, r, "/api/ranking")
	json.NewDecoder(w.Body).Decode(&board)
	if len(board.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(board.Rows))
	}
	row := board.Rows[0]
	if row.Rank != 1 || row.TeamName != "Los Condores" || row.CompletedPoints != 1 {
		t.Errorf("unexpected row %+v", row)
	}
	if board.Text == "" {
		t.Error("expected rendered leaderboard text")
	}
}

func TestHealth(t *testing.T) {
	r, _ := setupServer(t)

	w := getPath(t, r, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp HealthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Status != "ok" {
		t.Errorf("expected status ok, got %q", resp.Status)
	}
}

func TestOpenAPISpec(t *testing.T) {
	r, _ := setupServer(t)

	w := getPath(t, r, "/openapi.json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var spec struct {
		OpenAPI string         `json:"openapi"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.NewDecoder(w.Body).Decode(&spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}
	if spec.OpenAPI == "" {
		t.Error("expected an openapi version")
	}
	for _, path := range []string{"/api/register", "/api/game/answer", "/api/admin/game"} {
		if _, ok := spec.Paths[path]; !ok {
			t.Errorf("expected %s in the spec", path)
		}
	}
}
