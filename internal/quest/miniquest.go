package quest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

// StartMiniQuest hands the team a random mini-quest it has not solved yet.
// Mini-quests are ungated side-tasks: they do not touch the point flow.
func (e *Engine) StartMiniQuest(ctx context.Context, chatID int64, admin bool) (MiniQuest, error) {
	if err := e.gate(ctx, admin); err != nil {
		return MiniQuest{}, err
	}

	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return MiniQuest{}, err
	}

	available := e.catalog.AvailableMiniQuests(team.CompletedMiniQuests)
	if len(available) == 0 {
		return MiniQuest{}, fmt.Errorf("all mini-quests completed: %w", ErrNotFound)
	}
	mq := available[rand.Intn(len(available))]

	team.CurrentMiniQuest = mq.Task
	team.WaitingForMembers = false
	team.WaitingForBroadcast = false
	if err := e.teams.Save(ctx, team); err != nil {
		return MiniQuest{}, err
	}

	e.log.Info("mini-quest started", "chat_id", chatID, "team", team.Name)
	return mq, nil
}

// SubmitMiniQuest checks the answer to the team's current mini-quest. A correct
// first-time solve awards the flat reward; the task is consumed either way.
func (e *Engine) SubmitMiniQuest(ctx context.Context, chatID int64, answer string) (MiniQuestResult, error) {
	team, err := e.teams.Get(ctx, chatID)
	if err != nil {
		return MiniQuestResult{}, err
	}
	if team.CurrentMiniQuest == "" {
		return MiniQuestResult{}, fmt.Errorf("no active mini-quest: %w", ErrValidation)
	}

	mq, err := e.catalog.MiniQuest(team.CurrentMiniQuest)
	if err != nil {
		return MiniQuestResult{}, err
	}

	result := MiniQuestResult{Task: mq.Task}
	team.CurrentMiniQuest = ""

	if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(mq.Answer)) {
		if team.HasMiniQuest(mq.Task) {
			result.AlreadyCompleted = true
		} else {
			result.Correct = true
			result.Awarded = e.rules.MiniQuestReward
			team.Score += e.rules.MiniQuestReward
			team.CompletedMiniQuests = append(team.CompletedMiniQuests, mq.Task)
			e.log.Info("mini-quest solved", "chat_id", chatID, "team", team.Name, "awarded", result.Awarded)
		}
	}

	if err := e.teams.Save(ctx, team); err != nil {
		return MiniQuestResult{}, err
	}
	result.Score = team.Score
	return result, nil
}
