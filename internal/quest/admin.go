package quest

import "context"

// SetGameActive flips the persisted game-active flag. It returns false when the
// flag already has the requested value, so callers can skip announcements.
func (e *Engine) SetGameActive(ctx context.Context, active bool) (bool, error) {
	current, err := e.status.Active(ctx)
	if err != nil {
		return false, err
	}
	if current == active {
		return false, nil
	}
	if err := e.status.SetActive(ctx, active); err != nil {
		return false, err
	}
	e.log.Info("game status changed", "active", active)
	return true, nil
}

// GameActive reports the current gate state.
func (e *Engine) GameActive(ctx context.Context) (bool, error) {
	return e.status.Active(ctx)
}

// ResetAllTeams wipes every team record and returns the chat ids of teams that
// had progress, so the gateway can notify them.
func (e *Engine) ResetAllTeams(ctx context.Context) ([]int64, error) {
	affected, err := e.teams.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Info("all teams reset", "notified", len(affected))
	return affected, nil
}

// ClearPrizes empties the global prize ledger.
func (e *Engine) ClearPrizes(ctx context.Context) error {
	if err := e.prizes.Clear(ctx); err != nil {
		return err
	}
	e.log.Info("prize ledger cleared")
	return nil
}

// Prizes lists the claimed ledger entries.
func (e *Engine) Prizes(ctx context.Context) ([]PrizeRecord, error) {
	return e.prizes.Awards(ctx)
}

// Teams lists all registered teams.
func (e *Engine) Teams(ctx context.Context) ([]Team, error) {
	return e.teams.List(ctx)
}
