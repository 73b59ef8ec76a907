package quest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Rules holds the scoring constants. The penalty interval varies between
// production and rehearsal setups, so everything is injected rather than
// hardcoded.
type Rules struct {
	BaseCost           int
	TooFastPenalty     int
	WrongAnswerPenalty int
	WrongCodePenalty   int
	ErrorStep          int
	MinAnswerInterval  time.Duration
	MiniQuestReward    int
	PrizeThresholds    []int
}

// DefaultRules returns the production scoring constants.
func DefaultRules() Rules {
	return Rules{
		BaseCost:           10,
		TooFastPenalty:     3,
		WrongAnswerPenalty: 1,
		WrongCodePenalty:   1,
		ErrorStep:          2,
		MinAnswerInterval:  71 * time.Second,
		MiniQuestReward:    5,
		PrizeThresholds:    []int{4, 7, 10},
	}
}

func (r Rules) isThreshold(count int) bool {
	for _, t := range r.PrizeThresholds {
		if t == count {
			return true
		}
	}
	return false
}

// Engine applies the scoring and progression rules to team state. It is not
// reentrant per team: callers must serialize event delivery for a chat id.
type Engine struct {
	log     *slog.Logger
	catalog *Catalog
	teams   TeamStore
	prizes  PrizeLedger
	status  StatusStore
	rules   Rules
	now     func() time.Time
}

// NewEngine wires the engine to its collaborators.
func NewEngine(log *slog.Logger, catalog *Catalog, teams TeamStore, prizes PrizeLedger, status StatusStore, rules Rules) *Engine {
	return &Engine{
		log:     log,
		catalog: catalog,
		teams:   teams,
		prizes:  prizes,
		status:  status,
		rules:   rules,
		now:     time.Now,
	}
}

// Catalog exposes the quest catalog for presentation.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Rules exposes the active scoring constants.
func (e *Engine) Rules() Rules {
	return e.rules
}

// gate rejects non-admin actions while the game is paused.
func (e *Engine) gate(ctx context.Context, admin bool) error {
	if admin {
		return nil
	}
	active, err := e.status.Active(ctx)
	if err != nil {
		return fmt.Errorf("reading game status: %w", err)
	}
	if !active {
		return ErrGameInactive
	}
	return nil
}

// Register creates the team for a chat id, or returns the existing one.
// Name uniqueness across teams is enforced by the store.
func (e *Engine) Register(ctx context.Context, chatID int64, name string, captainID int64) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, fmt.Errorf("team name is required: %w", ErrValidation)
	}

	team, err := e.teams.Register(ctx, Team{
		ChatID:            chatID,
		Name:              name,
		CaptainID:         captainID,
		Phase:             PhaseIdle,
		StartedAt:         e.now(),
		WaitingForMembers: true,
	})
	if err != nil {
		return Team{}, err
	}

	e.log.Info("team registered", "chat_id", chatID, "team", team.Name)
	return team, nil
}

// SetMembers parses the comma-separated member list and stores it,
// clearing the members input mode.
func (e *Engine) SetMembers(ctx context.Context, chatID int64, raw string) (Team, error) {
	var members []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return Team{}, fmt.Errorf("no member names given: %w", ErrValidation)
	}

	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return Team{}, err
	}
	team.Members = members
	team.WaitingForMembers = false
	if err := e.teams.Save(ctx, team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// AvailablePoints lists the catalog points the team has not completed yet.
func (e *Engine) AvailablePoints(ctx context.Context, chatID int64) ([]Point, error) {
	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return e.catalog.Available(team.CompletedPoints), nil
}

// ActivatePoint puts the team in front of a point: the code prompt goes out
// and the activation clock starts. Re-activating a completed point is refused.
func (e *Engine) ActivatePoint(ctx context.Context, chatID int64, pointID int, admin bool) (ActivateResult, error) {
	if err := e.gate(ctx, admin); err != nil {
		return ActivateResult{}, err
	}

	point, err := e.catalog.Point(pointID)
	if err != nil {
		return ActivateResult{}, err
	}

	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return ActivateResult{}, err
	}
	if team.HasCompleted(pointID) {
		return ActivateResult{}, fmt.Errorf("point %d already completed: %w", pointID, ErrDuplicate)
	}

	now := e.now()
	team.Phase = PhaseAwaitingCode
	team.CurrentPoint = pointID
	team.QuestionIndex = 0
	team.TotalQuestions = 0
	team.PointActivatedAt = &now
	team.LastAnswerAt = nil
	team.WaitingForMembers = false
	team.WaitingForBroadcast = false
	team.CurrentMiniQuest = ""

	if err := e.teams.Save(ctx, team); err != nil {
		return ActivateResult{}, err
	}

	e.log.Info("point activated", "chat_id", chatID, "team", team.Name, "point", pointID)
	return ActivateResult{Point: point}, nil
}

// SubmitCode checks the entered code against the active point. A match opens
// the question sequence and establishes the clock for question one; a mismatch
// costs a flat penalty and leaves the team awaiting the code.
func (e *Engine) SubmitCode(ctx context.Context, chatID int64, raw string, admin bool) (CodeResult, error) {
	if err := e.gate(ctx, admin); err != nil {
		return CodeResult{}, err
	}

	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return CodeResult{}, err
	}
	if team.Phase != PhaseAwaitingCode {
		return CodeResult{}, fmt.Errorf("no point awaiting a code: %w", ErrValidation)
	}

	point, err := e.catalog.Point(team.CurrentPoint)
	if err != nil {
		return CodeResult{}, err
	}

	if NormalizeCode(raw) != NormalizeCode(point.Code) {
		team.Score -= e.rules.WrongCodePenalty
		if err := e.teams.Save(ctx, team); err != nil {
			return CodeResult{}, err
		}
		e.log.Info("wrong code", "chat_id", chatID, "team", team.Name, "point", point.ID)
		return CodeResult{Penalty: e.rules.WrongCodePenalty, Score: team.Score}, nil
	}

	now := e.now()
	team.LastAnswerAt = &now
	team.PointActivatedAt = &now

	if len(point.Questions) == 0 {
		// Nothing to answer at this point; the code alone completes it.
		completion, err := e.completePoint(ctx, &team, point.ID, now)
		if err != nil {
			return CodeResult{}, err
		}
		if err := e.teams.Save(ctx, team); err != nil {
			return CodeResult{}, err
		}
		return CodeResult{Accepted: true, Score: team.Score, Completion: completion}, nil
	}

	team.Phase = PhaseAnswering
	team.QuestionIndex = 0
	team.TotalQuestions = len(point.Questions)
	if err := e.teams.Save(ctx, team); err != nil {
		return CodeResult{}, err
	}

	prompt := e.prompt(&team, point, 0)
	e.log.Info("code accepted", "chat_id", chatID, "team", team.Name, "point", point.ID)
	return CodeResult{Accepted: true, Score: team.Score, Question: &prompt}, nil
}

// SubmitAnswer scores an answer to the current question. Correct answers award
// the question's current cost, reduced when given faster than the configured
// interval; wrong answers cost a flat penalty and shrink the question's value.
func (e *Engine) SubmitAnswer(ctx context.Context, chatID int64, index int, answer string, admin bool) (AnswerResult, error) {
	if err := e.gate(ctx, admin); err != nil {
		return AnswerResult{}, err
	}

	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return AnswerResult{}, err
	}
	if team.Phase != PhaseAnswering {
		return AnswerResult{}, fmt.Errorf("no question in progress: %w", ErrValidation)
	}
	if index != team.QuestionIndex {
		return AnswerResult{}, fmt.Errorf("question %d is not current: %w", index, ErrValidation)
	}

	point, err := e.catalog.Point(team.CurrentPoint)
	if err != nil {
		return AnswerResult{}, err
	}
	question, err := e.catalog.Question(point.ID, index)
	if err != nil {
		return AnswerResult{}, err
	}

	now := e.now()

	// The first question is timed against point activation, later ones
	// against the previous answer, so idling before a rush is still caught.
	ref := team.PointActivatedAt
	if index > 0 && team.LastAnswerAt != nil {
		ref = team.LastAnswerAt
	}
	tooFast := ref != nil && now.Sub(*ref) < e.rules.MinAnswerInterval

	cost := team.CostOf(point.ID, index, e.rules.BaseCost)
	team.LastAnswerAt = &now

	if !question.Check(answer) {
		team.Score -= e.rules.WrongAnswerPenalty
		newCost := team.ReduceCost(point.ID, index, e.rules.BaseCost, e.rules.ErrorStep)
		if err := e.teams.Save(ctx, team); err != nil {
			return AnswerResult{}, err
		}
		retry := e.prompt(&team, point, index)
		e.log.Info("wrong answer", "chat_id", chatID, "team", team.Name, "point", point.ID, "question", index, "cost", newCost)
		return AnswerResult{
			Penalty:      e.rules.WrongAnswerPenalty,
			Score:        team.Score,
			NextQuestion: &retry,
		}, nil
	}

	awarded := cost
	if tooFast {
		awarded = cost - e.rules.TooFastPenalty
		if awarded < 1 {
			awarded = 1
		}
		team.ReduceCost(point.ID, index, e.rules.BaseCost, e.rules.TooFastPenalty)
	}
	team.Score += awarded

	result := AnswerResult{Correct: true, TooFast: tooFast, Awarded: awarded}

	if index+1 < team.TotalQuestions {
		team.QuestionIndex = index + 1
		if err := e.teams.Save(ctx, team); err != nil {
			return AnswerResult{}, err
		}
		next := e.prompt(&team, point, index+1)
		result.NextQuestion = &next
		result.Score = team.Score
		return result, nil
	}

	completion, err := e.completePoint(ctx, &team, point.ID, now)
	if err != nil {
		return AnswerResult{}, err
	}
	if err := e.teams.Save(ctx, team); err != nil {
		return AnswerResult{}, err
	}
	result.Completion = completion
	result.Score = team.Score
	return result, nil
}

// completePoint records a point completion on the team and evaluates quest
// completion plus prize thresholds. Mutates team; the caller saves it.
func (e *Engine) completePoint(ctx context.Context, team *Team, pointID int, now time.Time) (*Completion, error) {
	if !team.HasCompleted(pointID) {
		team.CompletedPoints = append(team.CompletedPoints, pointID)
	}
	team.clearPoint()

	completion := &Completion{
		PointID:        pointID,
		CompletedCount: len(team.CompletedPoints),
		TotalPoints:    e.catalog.TotalPoints(),
	}

	if completion.CompletedCount == completion.TotalPoints && team.CompletedAt == nil {
		team.CompletedAt = &now
		completion.QuestComplete = true
		e.log.Info("quest complete", "chat_id", team.ChatID, "team", team.Name, "score", team.Score)
	}

	prize, err := e.evaluatePrize(ctx, team, completion.CompletedCount, now)
	if err != nil {
		return nil, err
	}
	completion.Prize = prize

	e.log.Info("point completed", "chat_id", team.ChatID, "team", team.Name,
		"point", pointID, "completed", completion.CompletedCount)
	return completion, nil
}

// evaluatePrize runs the threshold check against the global ledger. Losing the
// race to another team is a silent no-op.
func (e *Engine) evaluatePrize(ctx context.Context, team *Team, completedCount int, now time.Time) (*PrizeAward, error) {
	if !e.rules.isThreshold(completedCount) || team.HasPrize(completedCount) {
		return nil, nil
	}

	won, err := e.prizes.Claim(ctx, PrizeRecord{
		Threshold: completedCount,
		ChatID:    team.ChatID,
		TeamName:  team.Name,
		AwardedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("claiming prize: %w", err)
	}
	if !won {
		return nil, nil
	}

	team.PrizesReceived = append(team.PrizesReceived, completedCount)
	e.log.Info("prize awarded", "chat_id", team.ChatID, "team", team.Name, "threshold", completedCount)
	return &PrizeAward{Threshold: completedCount}, nil
}

// prompt builds the next question prompt with its current cost.
func (e *Engine) prompt(team *Team, point Point, index int) QuestionPrompt {
	q := point.Questions[index]
	return QuestionPrompt{
		PointID: point.ID,
		Index:   index,
		Total:   len(point.Questions),
		Text:    q.Text,
		Options: q.Options,
		Cost:    team.CostOf(point.ID, index, e.rules.BaseCost),
	}
}

// Progress returns the team's standing for display.
func (e *Engine) Progress(ctx context.Context, chatID int64) (ProgressSnapshot, error) {
	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return ProgressSnapshot{}, err
	}

	members := team.Members
	if members == nil {
		members = []string{}
	}
	completed := team.CompletedPoints
	if completed == nil {
		completed = []int{}
	}

	return ProgressSnapshot{
		TeamName:            team.Name,
		CaptainID:           team.CaptainID,
		Members:             members,
		Score:               team.Score,
		CompletedPoints:     completed,
		TotalPoints:         e.catalog.TotalPoints(),
		CompletedMiniQuests: len(team.CompletedMiniQuests),
		TotalMiniQuests:     len(e.catalog.MiniQuests()),
		StartedAt:           team.StartedAt,
		CompletedAt:         team.CompletedAt,
		ElapsedMinutes:      int(e.now().Sub(team.StartedAt).Minutes()),
	}, nil
}
