package quest

import (
	"context"
	"time"
)

// TeamStore is the durable per-team state collection. Implementations must
// enforce name uniqueness on Register (ErrDuplicate) and treat a repeat
// registration for a known chat id as a lookup.
type TeamStore interface {
	Register(ctx context.Context, team Team) (Team, error)
	Get(ctx context.Context, chatID int64) (Team, error)
	Save(ctx context.Context, team Team) error
	List(ctx context.Context) ([]Team, error)
	// DeleteAll wipes every team and returns the chat ids of teams that had
	// any progress, for notification fan-out.
	DeleteAll(ctx context.Context) ([]int64, error)
}

// PrizeRecord is one write-once ledger entry: a threshold claimed by a team.
type PrizeRecord struct {
	Threshold int       `json:"threshold"`
	ChatID    int64     `json:"chatId"`
	TeamName  string    `json:"teamName"`
	AwardedAt time.Time `json:"awardedAt"`
}

// PrizeLedger is the global source of truth for claimed thresholds. Claim must
// check and write as a single step relative to ledger storage so concurrent
// claims for one threshold resolve to exactly one winner.
type PrizeLedger interface {
	// Claim records the award if the threshold is still unclaimed. It returns
	// false, without error, when another team already holds it.
	Claim(ctx context.Context, rec PrizeRecord) (bool, error)
	Awards(ctx context.Context) ([]PrizeRecord, error)
	Clear(ctx context.Context) error
}

// StatusStore persists the single game-active flag.
type StatusStore interface {
	Active(ctx context.Context) (bool, error)
	SetActive(ctx context.Context, active bool) error
}
