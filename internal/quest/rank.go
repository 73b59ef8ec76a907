package quest

import "sort"

// Ranking orders teams for the leaderboard: score descending, then completed
// point count descending, then earlier start first. Teams with no completed
// points are dropped unless includeIdle is set.
func Ranking(teams []Team, includeIdle bool) []Team {
	ranked := make([]Team, 0, len(teams))
	for _, t := range teams {
		if includeIdle || len(t.CompletedPoints) > 0 {
			ranked = append(ranked, t)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.CompletedPoints) != len(b.CompletedPoints) {
			return len(a.CompletedPoints) > len(b.CompletedPoints)
		}
		return a.StartedAt.Before(b.StartedAt)
	})
	return ranked
}

// Winners orders teams for the final podium: score descending, then earlier
// completion first, a finished team ahead of an unfinished one, then earlier
// start first. Teams that never scored or completed anything are excluded.
func Winners(teams []Team) []Team {
	active := make([]Team, 0, len(teams))
	for _, t := range teams {
		if t.Score > 0 || len(t.CompletedPoints) > 0 {
			active = append(active, t)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		a, b := active[i], active[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		switch {
		case a.CompletedAt != nil && b.CompletedAt != nil:
			return a.CompletedAt.Before(*b.CompletedAt)
		case a.CompletedAt != nil:
			return true
		case b.CompletedAt != nil:
			return false
		}
		return a.StartedAt.Before(b.StartedAt)
	})
	return active
}

// AllCompleted reports whether every team has finished all catalog points.
// False when no teams are registered.
func AllCompleted(teams []Team, totalPoints int) bool {
	if len(teams) == 0 {
		return false
	}
	for _, t := range teams {
		if len(t.CompletedPoints) < totalPoints {
			return false
		}
	}
	return true
}
