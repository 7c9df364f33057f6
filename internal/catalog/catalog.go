// Package catalog holds the static economy tables: subscription plans,
// time-of-day reward multipliers, the default task set and the spin prize
// wheel. Tables are ordered; lookup semantics depend on declaration order.
package catalog

import "adquest/internal/types"

// Plan is one subscription tier.
type Plan struct {
	Type       types.PlanType `json:"type"`
	Name       string         `json:"name"`
	DailyLimit int64          `json:"daily_limit"`
	Price      int64          `json:"price"`
}

// Plans is ordered from FREE upward, strictly increasing in limit and price.
var Plans = []Plan{
	{Type: types.PlanFree, Name: "Free", DailyLimit: 5, Price: 0},
	{Type: types.PlanBasic, Name: "Basic", DailyLimit: 30, Price: 500},
	{Type: types.PlanPro, Name: "Pro", DailyLimit: 50, Price: 1000},
	{Type: types.PlanElite, Name: "Elite", DailyLimit: 100, Price: 2000},
}

// PlanByType returns the plan definition for a tier. Unknown tiers fall back
// to FREE so a stale snapshot can never grant an unbounded quota.
func PlanByType(pt types.PlanType) Plan {
	for _, p := range Plans {
		if p.Type == pt {
			return p
		}
	}
	return Plans[0]
}

// Multiplier scales ad rewards during [StartHour, EndHour).
type Multiplier struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Value     int64  `json:"value"`
	Label     string `json:"label"`
}

// Identity is returned when no window matches the current hour.
var Identity = Multiplier{Value: 1, Label: "Standard (1x)"}

// Multipliers is scanned in order; the first window containing the hour
// wins. Do not sort: overlap resolution depends on declaration order.
var Multipliers = []Multiplier{
	{StartHour: 18, EndHour: 20, Value: 2, Label: "Golden Hour (2x)"},
	{StartHour: 0, EndHour: 1, Value: 3, Label: "Night Owl (3x)"},
}

// ActiveMultiplier returns the first window whose half-open hour range
// contains hour, or Identity when none matches.
func ActiveMultiplier(hour int) Multiplier {
	for _, m := range Multipliers {
		if hour >= m.StartHour && hour < m.EndHour {
			return m
		}
	}
	return Identity
}

// Milestone thresholds checked by task eligibility.
const (
	AdsMilestoneTarget      = 50
	ReferralMilestoneTarget = 5
)

// DefaultTasks seeds a fresh snapshot. Completion sets start empty.
func DefaultTasks() []*types.Task {
	return []*types.Task{
		{
			ID:          "t1",
			Title:       "Daily Check-in",
			Description: "Log in every day to earn.",
			Reward:      5,
			Type:        types.TaskDailyCheckin,
			CompletedBy: []string{},
		},
		{
			ID:          "t2",
			Title:       "Ad Enthusiast",
			Description: "Watch 50 ads total.",
			Reward:      100,
			Type:        types.TaskAdsMilestone,
			CompletedBy: []string{},
		},
		{
			ID:          "t3",
			Title:       "Team Builder",
			Description: "Refer 5 friends.",
			Reward:      250,
			Type:        types.TaskReferralMilestone,
			CompletedBy: []string{},
		},
	}
}

// NewState returns an empty snapshot seeded with the default tasks.
func NewState() *types.AppState {
	return &types.AppState{
		Users:        []*types.User{},
		Transactions: []*types.Transaction{},
		Tasks:        DefaultTasks(),
	}
}

// SpinPrize is one wheel segment. Weight is relative.
type SpinPrize struct {
	Amount int64 `json:"amount"`
	Weight int64 `json:"weight"`
}

// SpinPrizes is the wheel, in declaration order. Selection walks cumulative
// weights, so a seeded random source draws a deterministic sequence.
var SpinPrizes = []SpinPrize{
	{Amount: 5, Weight: 40},
	{Amount: 10, Weight: 30},
	{Amount: 25, Weight: 15},
	{Amount: 50, Weight: 8},
	{Amount: 100, Weight: 5},
	{Amount: 250, Weight: 2},
}

// TotalSpinWeight is the sum of all prize weights.
func TotalSpinWeight() int64 {
	var total int64
	for _, p := range SpinPrizes {
		total += p.Weight
	}
	return total
}
