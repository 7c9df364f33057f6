package economy

import (
	"time"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// AdResult reports one credited ad view.
type AdResult struct {
	Reward          int64              `json:"reward"`
	Multiplier      catalog.Multiplier `json:"multiplier"`
	Commission      int64              `json:"commission"`
	DailyAdsWatched int64              `json:"daily_ads_watched"`
	DailyLimit      int64              `json:"daily_limit"`
}

// WatchAd credits one ad view: base reward scaled by the active time-of-day
// multiplier, bounded by the effective plan's daily quota. At the quota the
// operation fails and nothing changes. Referral commission is paid on the
// gross credited amount, multiplier included.
func (e *Engine) WatchAd(state *types.AppState, userID string, now time.Time) (AdResult, error) {
	u := state.UserByID(userID)
	if u == nil {
		return AdResult{}, ErrUserNotFound
	}

	e.NormalizeDaily(u, now)

	plan := catalog.PlanByType(e.EffectivePlan(u, now))
	if u.DailyAdsWatched >= plan.DailyLimit {
		return AdResult{}, ErrDailyQuotaExceeded
	}

	mult := catalog.ActiveMultiplier(now.UTC().Hour())
	reward := e.cfg.AdReward * mult.Value

	u.DailyAdsWatched++
	u.TotalAdsWatched++
	u.LastAdResetDate = Day(now)
	state.Stats.TotalAdsWatched++
	commission := e.creditEarning(state, u, reward)

	return AdResult{
		Reward:          reward,
		Multiplier:      mult,
		Commission:      commission,
		DailyAdsWatched: u.DailyAdsWatched,
		DailyLimit:      plan.DailyLimit,
	}, nil
}
