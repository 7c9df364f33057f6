// Package economy implements the rewards engine: ad rewards with daily
// quotas and time-of-day multipliers, referral bonuses and commissions,
// milestone tasks, subscription plans, the spin wheel and the
// deposit/withdrawal approval workflow.
//
// Every operation is a synchronous transform of one *types.AppState. An
// operation validates all inputs before touching the snapshot, so a
// rejection never leaves it partially mutated. Persistence is the caller's
// job: load snapshot, run operations, save snapshot.
package economy

import (
	"math/rand"
	"time"

	"adquest/internal/config"
	"adquest/internal/types"
)

type Engine struct {
	cfg config.Config
	rng *rand.Rand
}

// New builds an engine. rng feeds the spin wheel; pass a seeded source for
// deterministic draws.
func New(cfg config.Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg, rng: rng}
}

// Day formats a timestamp as the quota day key.
func Day(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// NormalizeDaily is the lazy daily reset: when the stored reset date is not
// today, the daily ad counter restarts at zero. It runs on every entry point
// that loads a user, never on a timer, and is idempotent within a day.
func (e *Engine) NormalizeDaily(u *types.User, now time.Time) bool {
	day := Day(now)
	if u.LastAdResetDate == day {
		return false
	}
	u.DailyAdsWatched = 0
	u.LastAdResetDate = day
	return true
}

// EffectivePlan degrades an expired plan to FREE. The check is lazy: the
// stored plan is left as-is and only the returned tier changes, so expiry
// needs no background job. Expiry never refunds the purchase price.
func (e *Engine) EffectivePlan(u *types.User, now time.Time) types.PlanType {
	if u.PlanExpiry != nil && now.After(*u.PlanExpiry) {
		return types.PlanFree
	}
	return u.Plan
}

// creditEarning credits an earned amount to a user's balance and pays the
// recurring referral commission on the gross amount. Deposits never go
// through here; they are not earnings.
func (e *Engine) creditEarning(state *types.AppState, u *types.User, amount int64) int64 {
	u.Balance += amount
	if u.ReferredBy == "" {
		return 0
	}
	referrer := state.UserByReferralCode(u.ReferredBy)
	if referrer == nil {
		// Referrer account is gone; the lookup key stays but pays nobody.
		return 0
	}
	commission := amount * e.cfg.ReferralCommissionBP / 10_000
	referrer.ReferralEarnings += commission
	return commission
}
