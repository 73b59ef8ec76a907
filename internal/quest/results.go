package quest

import "time"

// QuestionPrompt describes the question the team should be shown next,
// including its current adaptive cost.
type QuestionPrompt struct {
	PointID int      `json:"pointId"`
	Index   int      `json:"index"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"`
	Cost    int      `json:"cost"`
}

// ActivateResult is the outcome of activating a point.
type ActivateResult struct {
	Point Point `json:"point"`
}

// CodeResult is the outcome of a code submission. On a mismatch Accepted is
// false, Penalty holds the deduction, and no question is asked.
type CodeResult struct {
	Accepted bool            `json:"accepted"`
	Penalty  int             `json:"penalty,omitempty"`
	Score    int             `json:"score"`
	Question *QuestionPrompt `json:"question,omitempty"`

	// Set when the point carries no questions and the accepted code
	// completes it outright.
	Completion *Completion `json:"completion,omitempty"`
}

// PrizeAward reports a threshold prize won during this operation.
type PrizeAward struct {
	Threshold int `json:"threshold"`
}

// Completion reports a point completion and its consequences.
type Completion struct {
	PointID        int         `json:"pointId"`
	CompletedCount int         `json:"completedCount"`
	TotalPoints    int         `json:"totalPoints"`
	QuestComplete  bool        `json:"questComplete"`
	Prize          *PrizeAward `json:"prize,omitempty"`
}

// AnswerResult is the outcome of an answer submission. For a correct answer
// either NextQuestion or Completion is set; for an incorrect one NextQuestion
// re-asks the same index at its reduced cost.
type AnswerResult struct {
	Correct      bool            `json:"correct"`
	TooFast      bool            `json:"tooFast,omitempty"`
	Awarded      int             `json:"awarded,omitempty"`
	Penalty      int             `json:"penalty,omitempty"`
	Score        int             `json:"score"`
	NextQuestion *QuestionPrompt `json:"nextQuestion,omitempty"`
	Completion   *Completion     `json:"completion,omitempty"`
}

// MiniQuestResult is the outcome of a mini-quest answer.
type MiniQuestResult struct {
	Correct          bool   `json:"correct"`
	AlreadyCompleted bool   `json:"alreadyCompleted,omitempty"`
	Awarded          int    `json:"awarded,omitempty"`
	Score            int    `json:"score"`
	Task             string `json:"task"`
}

// ProgressSnapshot summarizes a team's standing for display.
type ProgressSnapshot struct {
	TeamName            string     `json:"teamName"`
	CaptainID           int64      `json:"captainId"`
	Members             []string   `json:"members"`
	Score               int        `json:"score"`
	CompletedPoints     []int      `json:"completedPoints"`
	TotalPoints         int        `json:"totalPoints"`
	CompletedMiniQuests int        `json:"completedMiniQuests"`
	TotalMiniQuests     int        `json:"totalMiniQuests"`
	StartedAt           time.Time  `json:"startedAt"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	ElapsedMinutes      int        `json:"elapsedMinutes"`
}
