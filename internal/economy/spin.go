package economy

import (
	"time"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// SpinResult reports one consumed spin.
type SpinResult struct {
	Prize          int64 `json:"prize"`
	Commission     int64 `json:"commission"`
	SpinsRemaining int64 `json:"spins_remaining"`
}

// Spin consumes one credit and pays a prize drawn from the weighted wheel.
// The draw walks cumulative weights over the engine's random source, so a
// seeded source is fully deterministic. The prize is an earning, so referral
// commission applies.
func (e *Engine) Spin(state *types.AppState, userID string, now time.Time) (SpinResult, error) {
	u := state.UserByID(userID)
	if u == nil {
		return SpinResult{}, ErrUserNotFound
	}
	if u.SpinsAvailable <= 0 {
		return SpinResult{}, ErrNoSpinsAvailable
	}

	e.NormalizeDaily(u, now)

	prize := e.drawPrize()
	u.SpinsAvailable--
	commission := e.creditEarning(state, u, prize)

	return SpinResult{
		Prize:          prize,
		Commission:     commission,
		SpinsRemaining: u.SpinsAvailable,
	}, nil
}

func (e *Engine) drawPrize() int64 {
	n := e.rng.Int63n(catalog.TotalSpinWeight())
	for _, p := range catalog.SpinPrizes {
		if n < p.Weight {
			return p.Amount
		}
		n -= p.Weight
	}
	// Unreachable while weights sum correctly; pay the smallest prize.
	return catalog.SpinPrizes[0].Amount
}
