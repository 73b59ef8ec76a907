package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/stadtaev/cityquest/internal/quest"
)

// Memory is an in-process implementation of the quest store interfaces.
// Used in tests and for throwaway runs without a database file.
type Memory struct {
	mu     sync.Mutex
	teams  map[int64]quest.Team
	prizes map[int]quest.PrizeRecord
	active bool
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		teams:  make(map[int64]quest.Team),
		prizes: make(map[int]quest.PrizeRecord),
	}
}

func (m *Memory) Register(_ context.Context, team quest.Team) (quest.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.teams[team.ChatID]; ok {
		return existing, nil
	}
	for _, t := range m.teams {
		if t.Name == team.Name {
			return quest.Team{}, fmt.Errorf("team name %q: %w", team.Name, quest.ErrDuplicate)
		}
	}
	m.teams[team.ChatID] = team
	return team, nil
}

func (m *Memory) Get(_ context.Context, chatID int64) (quest.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	team, ok := m.teams[chatID]
	if !ok {
		return quest.Team{}, fmt.Errorf("team %d: %w", chatID, quest.ErrNotFound)
	}
	return team, nil
}

func (m *Memory) Save(_ context.Context, team quest.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.teams[team.ChatID]; !ok {
		return fmt.Errorf("team %d: %w", team.ChatID, quest.ErrNotFound)
	}
	m.teams[team.ChatID] = team
	return nil
}

func (m *Memory) List(_ context.Context) ([]quest.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	teams := make([]quest.Team, 0, len(m.teams))
	for _, t := range m.teams {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ChatID < teams[j].ChatID })
	return teams, nil
}

func (m *Memory) DeleteAll(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected []int64
	for _, t := range m.teams {
		if t.Score > 0 || len(t.CompletedPoints) > 0 {
			affected = append(affected, t.ChatID)
		}
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	m.teams = make(map[int64]quest.Team)
	return affected, nil
}

func (m *Memory) Claim(_ context.Context, rec quest.PrizeRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, claimed := m.prizes[rec.Threshold]; claimed {
		return false, nil
	}
	m.prizes[rec.Threshold] = rec
	return true, nil
}

func (m *Memory) Awards(_ context.Context) ([]quest.PrizeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := make([]quest.PrizeRecord, 0, len(m.prizes))
	for _, r := range m.prizes {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Threshold < recs[j].Threshold })
	return recs, nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prizes = make(map[int]quest.PrizeRecord)
	return nil
}

func (m *Memory) Active(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, nil
}

func (m *Memory) SetActive(_ context.Context, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = active
	return nil
}

var (
	_ quest.TeamStore   = (*Memory)(nil)
	_ quest.PrizeLedger = (*Memory)(nil)
	_ quest.StatusStore = (*Memory)(nil)
)
