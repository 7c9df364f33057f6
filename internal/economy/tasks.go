package economy

import (
	"time"

	"adquest/internal/catalog"
	"adquest/internal/types"
)

// TaskEligible evaluates the milestone predicate for a task against the
// user's counters. The engine records completion but never re-derives
// eligibility, so callers must check this before CompleteTask.
func (e *Engine) TaskEligible(state *types.AppState, t *types.Task, u *types.User) bool {
	switch t.Type {
	case types.TaskAdsMilestone:
		return u.TotalAdsWatched >= catalog.AdsMilestoneTarget
	case types.TaskReferralMilestone:
		return state.ReferralCount(u) >= catalog.ReferralMilestoneTarget
	case types.TaskProfile:
		return u.Name != ""
	case types.TaskDailyCheckin:
		return true
	default:
		return false
	}
}

// CompleteTask pays a task reward exactly once per user. A second completion
// of the same task fails and changes nothing. The reward is an earning, so
// referral commission applies.
func (e *Engine) CompleteTask(state *types.AppState, taskID, userID string, now time.Time) (int64, error) {
	t := state.TaskByID(taskID)
	if t == nil {
		return 0, ErrTaskNotFound
	}
	u := state.UserByID(userID)
	if u == nil {
		return 0, ErrUserNotFound
	}

	if t.CompletedByUser(userID) {
		return 0, ErrDuplicateTaskCompletion
	}

	e.NormalizeDaily(u, now)
	t.CompletedBy = append(t.CompletedBy, userID)
	e.creditEarning(state, u, t.Reward)
	return t.Reward, nil
}
