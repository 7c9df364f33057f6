package economy

import (
	"time"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// PurchasePlan debits the tier price and activates the plan for the
// configured validity window. The FREE tier is the default state and cannot
// be purchased. Insufficient balance rejects the purchase untouched.
func (e *Engine) PurchasePlan(state *types.AppState, userID string, pt types.PlanType, now time.Time) (catalog.Plan, error) {
	u := state.UserByID(userID)
	if u == nil {
		return catalog.Plan{}, ErrUserNotFound
	}
	if pt == types.PlanFree {
		return catalog.Plan{}, ErrPlanPurchaseFailed
	}

	plan := catalog.PlanByType(pt)
	if plan.Type != pt {
		// Unknown tier name.
		return catalog.Plan{}, ErrPlanPurchaseFailed
	}
	if u.Balance < plan.Price {
		return catalog.Plan{}, ErrPlanPurchaseFailed
	}

	e.NormalizeDaily(u, now)
	expiry := now.UTC().AddDate(0, 0, int(e.cfg.PlanValidityDays))
	u.Balance -= plan.Price
	u.Plan = pt
	u.PlanExpiry = &expiry
	return plan, nil
}
