package economy

import (
	"sort"

	"adquest/internal/types"
)

// LeaderboardMetric selects the ranking key.
type LeaderboardMetric string

const (
	RankByBalance LeaderboardMetric = "balance"
	RankByAds     LeaderboardMetric = "ads"
)

// LeaderboardEntry is one ranked row. Only public fields leave the engine.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// Leaderboard ranks users by the chosen metric descending, ties broken by
// earliest account creation. Pure read: the snapshot is never mutated and
// re-computation over unchanged input yields the same order.
func (e *Engine) Leaderboard(state *types.AppState, metric LeaderboardMetric, limit int) []LeaderboardEntry {
	value := func(u *types.User) int64 {
		if metric == RankByAds {
			return u.TotalAdsWatched
		}
		return u.Balance
	}

	ranked := make([]*types.User, len(state.Users))
	copy(ranked, state.Users)
	sort.SliceStable(ranked, func(i, j int) bool {
		vi, vj := value(ranked[i]), value(ranked[j])
		if vi != vj {
			return vi > vj
		}
		return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
	})

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]LeaderboardEntry, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, LeaderboardEntry{
			Rank:  i + 1,
			Name:  ranked[i].Name,
			Value: value(ranked[i]),
		})
	}
	return out
}
