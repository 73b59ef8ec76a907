package quest

import (
	"fmt"
	"time"
)

// Phase is the explicit per-team position in the quiz flow.
type Phase string

const (
	// PhaseIdle means no point is active: the team is choosing what to do next.
	PhaseIdle Phase = "idle"
	// PhaseAwaitingCode means a point is active and the team must enter its code.
	PhaseAwaitingCode Phase = "awaiting_code"
	// PhaseAnswering means the code was accepted and questions are running.
	PhaseAnswering Phase = "answering"
)

// Team is the per-chat game state record.
type Team struct {
	ChatID    int64    `json:"chatId"`
	Name      string   `json:"name"`
	CaptainID int64    `json:"captainId"`
	Members   []string `json:"members,omitempty"`

	Score           int   `json:"score"`
	CompletedPoints []int `json:"completedPoints,omitempty"`

	Phase          Phase `json:"phase"`
	CurrentPoint   int   `json:"currentPoint,omitempty"`
	QuestionIndex  int   `json:"questionIndex,omitempty"`
	TotalQuestions int   `json:"totalQuestions,omitempty"`

	// QuestionCost holds the adaptive per-question score value, keyed by
	// "pointID_questionIndex". Absent keys mean the base cost.
	QuestionCost map[string]int `json:"questionCost,omitempty"`

	PointActivatedAt *time.Time `json:"pointActivatedAt,omitempty"`
	LastAnswerAt     *time.Time `json:"lastAnswerAt,omitempty"`
	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`

	PrizesReceived []int `json:"prizesReceived,omitempty"`

	WaitingForMembers   bool `json:"waitingForMembers,omitempty"`
	WaitingForBroadcast bool `json:"waitingForBroadcast,omitempty"`

	CurrentMiniQuest    string   `json:"currentMiniQuest,omitempty"`
	CompletedMiniQuests []string `json:"completedMiniQuests,omitempty"`
}

func costKey(pointID, index int) string {
	return fmt.Sprintf("%d_%d", pointID, index)
}

// CostOf returns the current score value of a question, or base if unseen.
func (t *Team) CostOf(pointID, index, base int) int {
	if c, ok := t.QuestionCost[costKey(pointID, index)]; ok {
		return c
	}
	return base
}

// ReduceCost permanently lowers a question's value by delta, flooring at 1.
func (t *Team) ReduceCost(pointID, index, base, delta int) int {
	if t.QuestionCost == nil {
		t.QuestionCost = make(map[string]int)
	}
	c := t.CostOf(pointID, index, base) - delta
	if c < 1 {
		c = 1
	}
	t.QuestionCost[costKey(pointID, index)] = c
	return c
}

// HasCompleted reports whether the team already completed the point.
func (t *Team) HasCompleted(pointID int) bool {
	for _, id := range t.CompletedPoints {
		if id == pointID {
			return true
		}
	}
	return false
}

// HasPrize reports whether the team already holds the given threshold prize.
func (t *Team) HasPrize(threshold int) bool {
	for _, p := range t.PrizesReceived {
		if p == threshold {
			return true
		}
	}
	return false
}

// HasMiniQuest reports whether the team already solved the given mini-quest.
func (t *Team) HasMiniQuest(task string) bool {
	for _, done := range t.CompletedMiniQuests {
		if done == task {
			return true
		}
	}
	return false
}

// clearPoint drops the active point, returning the team to idle.
func (t *Team) clearPoint() {
	t.Phase = PhaseIdle
	t.CurrentPoint = 0
	t.QuestionIndex = 0
	t.TotalQuestions = 0
	t.PointActivatedAt = nil
}
