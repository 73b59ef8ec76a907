package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/stadtaev/cityquest/internal/quest"
)

// Presentation layer: the core returns structured outcomes, the text the
// gateway relays to chats is rendered here.

func formatPointPrompt(p quest.Point) string {
	return fmt.Sprintf("📍 Point %d — %s\n%s\n\nEnter the secret code when you arrive.", p.ID, p.Name, p.Description)
}

func formatElapsed(d time.Duration) string {
	mins := int(d.Minutes())
	if mins >= 60 {
		return fmt.Sprintf("%dh %dm", mins/60, mins%60)
	}
	return fmt.Sprintf("%dm", mins)
}

func rankingRows(teams []quest.Team, includeIdle bool, totalPoints int) []RankingRow {
	ranked := quest.Ranking(teams, includeIdle)
	rows := make([]RankingRow, 0, len(ranked))
	for i, t := range ranked {
		rows = append(rows, RankingRow{
			Rank:            i + 1,
			TeamName:        t.Name,
			Score:           t.Score,
			CompletedPoints: len(t.CompletedPoints),
			TotalPoints:     totalPoints,
			Completed:       len(t.CompletedPoints) >= totalPoints,
		})
	}
	return rows
}

func formatRanking(rows []RankingRow) string {
	if len(rows) == 0 {
		return "🏆 Leaderboard\n\nNo teams on the board yet."
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n")
	for _, row := range rows {
		progress := fmt.Sprintf("%d/%d points", row.CompletedPoints, row.TotalPoints)
		if row.Completed {
			progress = "quest complete"
		}
		fmt.Fprintf(&b, "\n%d. %s — %d pts (%s)", row.Rank, row.TeamName, row.Score, progress)
	}
	return b.String()
}

func formatWinners(winners []quest.Team, now time.Time) string {
	if len(winners) == 0 {
		return "🏆 No winners determined\n\nNo teams with any progress."
	}

	medals := []string{"🥇", "🥈", "🥉"}
	top := winners
	if len(top) > 3 {
		top = top[:3]
	}

	var b strings.Builder
	b.WriteString("🏆 Top 3\n")
	for i, t := range top {
		var timing string
		if t.CompletedAt != nil {
			timing = fmt.Sprintf("finished in %s", formatElapsed(t.CompletedAt.Sub(t.StartedAt)))
		} else {
			timing = fmt.Sprintf("%s in game, not finished", formatElapsed(now.Sub(t.StartedAt)))
		}
		fmt.Fprintf(&b, "\n%s %d. %s — %d pts, %s", medals[i], i+1, t.Name, t.Score, timing)
	}
	fmt.Fprintf(&b, "\n\nTeams in contention: %d", len(winners))
	return b.String()
}
