package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stadtaev/cityquest/internal/database"
	"github.com/stadtaev/cityquest/internal/quest"
)

func setupDocStore(t *testing.T) *DocStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewDocStore(ctx, db)
	if err != nil {
		t.Fatalf("init doc store: %v", err)
	}
	return s
}

func sampleTeam(chatID int64, name string) quest.Team {
	activated := time.Date(2025, 6, 14, 10, 30, 0, 0, time.UTC)
	return quest.Team{
		ChatID:           chatID,
		Name:             name,
		CaptainID:        chatID + 1,
		Members:          []string{"Maria", "Carlos"},
		Score:            12,
		CompletedPoints:  []int{1},
		Phase:            quest.PhaseAwaitingCode,
		CurrentPoint:     2,
		QuestionCost:     map[string]int{"2_0": 8},
		PointActivatedAt: &activated,
		StartedAt:        time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC),
	}
}

func TestRegisterAndGetRoundtrip(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	in := sampleTeam(100, "Los Incas")
	if _, err := s.Register(ctx, in); err != nil {
		t.Fatalf("register: %v", err)
	}

	out, err := s.Get(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != in.Name || out.Score != in.Score || out.Phase != in.Phase {
		t.Errorf("roundtrip mismatch: %+v", out)
	}
	if len(out.Members) != 2 || out.Members[0] != "Maria" {
		t.Errorf("members lost in roundtrip: %v", out.Members)
	}
	if out.QuestionCost["2_0"] != 8 {
		t.Errorf("question costs lost in roundtrip: %v", out.QuestionCost)
	}
	if out.PointActivatedAt == nil || !out.PointActivatedAt.Equal(*in.PointActivatedAt) {
		t.Errorf("activation time lost in roundtrip: %v", out.PointActivatedAt)
	}
}

func TestRegisterExistingChatReturnsStored(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, sampleTeam(100, "Los Incas")); err != nil {
		t.Fatalf("register: %v", err)
	}

	again, err := s.Register(ctx, sampleTeam(100, "Different Name"))
	if err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if again.Name != "Los Incas" {
		t.Errorf("expected the stored team back, got %q", again.Name)
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, sampleTeam(100, "Los Incas")); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := s.Register(ctx, sampleTeam(200, "Los Incas"))
	if !errors.Is(err, quest.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := setupDocStore(t)

	_, err := s.Get(context.Background(), 999)
	if !errors.Is(err, quest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSave(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	team := sampleTeam(100, "Los Incas")
	if _, err := s.Register(ctx, team); err != nil {
		t.Fatalf("register: %v", err)
	}

	team.Score = 99
	team.Phase = quest.PhaseIdle
	if err := s.Save(ctx, team); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Get(ctx, 100)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Score != 99 || out.Phase != quest.PhaseIdle {
		t.Errorf("save not applied: %+v", out)
	}

	// Saving an unknown team is refused.
	stranger := sampleTeam(500, "Ghosts")
	if err := s.Save(ctx, stranger); !errors.Is(err, quest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown team, got %v", err)
	}
}

func TestListOrderedByChatID(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	for _, chatID := range []int64{300, 100, 200} {
		team := sampleTeam(chatID, "")
		team.Name = map[int64]string{100: "A", 200: "B", 300: "C"}[chatID]
		if _, err := s.Register(ctx, team); err != nil {
			t.Fatalf("register %d: %v", chatID, err)
		}
	}

	teams, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	for i, want := range []int64{100, 200, 300} {
		if teams[i].ChatID != want {
			t.Errorf("position %d: expected chat %d, got %d", i, want, teams[i].ChatID)
		}
	}
}

func TestDeleteAllReportsProgress(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	scored := sampleTeam(100, "Scored")
	fresh := sampleTeam(200, "Fresh")
	fresh.Score = 0
	fresh.CompletedPoints = nil

	for _, team := range []quest.Team{scored, fresh} {
		if _, err := s.Register(ctx, team); err != nil {
			t.Fatalf("register %q: %v", team.Name, err)
		}
	}

	affected, err := s.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(affected) != 1 || affected[0] != 100 {
		t.Errorf("expected only the scoring team reported, got %v", affected)
	}

	teams, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(teams) != 0 {
		t.Errorf("expected empty collection, got %d teams", len(teams))
	}
}

func TestClaimIsWriteOnce(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	rec := quest.PrizeRecord{
		Threshold: 4,
		ChatID:    100,
		TeamName:  "Los Incas",
		AwardedAt: time.Date(2025, 6, 14, 11, 0, 0, 0, time.UTC),
	}

	won, err := s.Claim(ctx, rec)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !won {
		t.Fatal("expected first claim to win")
	}

	rival := rec
	rival.ChatID = 200
	rival.TeamName = "Los Condores"
	won, err = s.Claim(ctx, rival)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if won {
		t.Error("expected second claim for the same threshold to lose")
	}

	// A different threshold is still open.
	other := rec
	other.Threshold = 7
	won, err = s.Claim(ctx, other)
	if err != nil {
		t.Fatalf("other threshold: %v", err)
	}
	if !won {
		t.Error("expected a free threshold to be claimable")
	}

	awards, err := s.Awards(ctx)
	if err != nil {
		t.Fatalf("awards: %v", err)
	}
	if len(awards) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(awards))
	}
	if awards[0].Threshold != 4 || awards[0].TeamName != "Los Incas" {
		t.Errorf("expected the original winner on threshold 4, got %+v", awards[0])
	}
}

func TestClaimRaceHasOneWinner(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	const claimers = 8
	results := make(chan bool, claimers)
	var wg sync.WaitGroup
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			won, err := s.Claim(ctx, quest.PrizeRecord{Threshold: 4, ChatID: chatID})
			if err != nil {
				t.Errorf("claim from %d: %v", chatID, err)
				return
			}
			results <- won
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	winners := 0
	for won := range results {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("expected exactly one winner, got %d", winners)
	}

	awards, err := s.Awards(ctx)
	if err != nil {
		t.Fatalf("awards: %v", err)
	}
	if len(awards) != 1 {
		t.Errorf("expected a single ledger entry, got %d", len(awards))
	}
}

func TestClearPrizes(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	if _, err := s.Claim(ctx, quest.PrizeRecord{Threshold: 4, ChatID: 100, TeamName: "Los Incas"}); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	awards, err := s.Awards(ctx)
	if err != nil {
		t.Fatalf("awards: %v", err)
	}
	if len(awards) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(awards))
	}

	// The threshold is claimable again.
	won, err := s.Claim(ctx, quest.PrizeRecord{Threshold: 4, ChatID: 200, TeamName: "Los Condores"})
	if err != nil || !won {
		t.Fatalf("expected re-claim after clear, got won=%v err=%v", won, err)
	}
}

func TestGameStatusFlag(t *testing.T) {
	s := setupDocStore(t)
	ctx := context.Background()

	active, err := s.Active(ctx)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active {
		t.Error("expected inactive before any write")
	}

	if err := s.SetActive(ctx, true); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if active, _ = s.Active(ctx); !active {
		t.Error("expected active after set")
	}

	if err := s.SetActive(ctx, false); err != nil {
		t.Fatalf("set inactive: %v", err)
	}
	if active, _ = s.Active(ctx); active {
		t.Error("expected inactive after unset")
	}
}

func TestMemoryMatchesDocStoreSemantics(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Register(ctx, sampleTeam(100, "Los Incas")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := m.Register(ctx, sampleTeam(200, "Los Incas")); !errors.Is(err, quest.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := m.Get(ctx, 999); !errors.Is(err, quest.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	won, err := m.Claim(ctx, quest.PrizeRecord{Threshold: 4, ChatID: 100})
	if err != nil || !won {
		t.Fatalf("expected first claim to win, got won=%v err=%v", won, err)
	}
	won, err = m.Claim(ctx, quest.PrizeRecord{Threshold: 4, ChatID: 200})
	if err != nil || won {
		t.Fatalf("expected second claim to lose, got won=%v err=%v", won, err)
	}

	affected, err := m.DeleteAll(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if len(affected) != 1 || affected[0] != 100 {
		t.Errorf("expected the scoring team reported, got %v", affected)
	}
}
