package types

import (
	"strings"
	"time"
)

// PlanType is a subscription tier. Tiers are strictly increasing in both
// daily limit and price.
type PlanType string

const (
	PlanFree  PlanType = "FREE"
	PlanBasic PlanType = "BASIC"
	PlanPro   PlanType = "PRO"
	PlanElite PlanType = "ELITE"
)

// Role controls access to the admin surface. It is set once at account
// creation and checked instead of comparing emails.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// TransactionType distinguishes money-in from money-out requests.
type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
)

// TransactionStatus is the request state machine. PENDING is the only
// non-terminal state.
type TransactionStatus string

const (
	TxPending  TransactionStatus = "PENDING"
	TxApproved TransactionStatus = "APPROVED"
	TxRejected TransactionStatus = "REJECTED"
)

// PaymentMethod is the closed set of supported payout channels.
type PaymentMethod string

const (
	MethodJazzCash  PaymentMethod = "JazzCash"
	MethodEasyPaisa PaymentMethod = "EasyPaisa"
)

// ValidMethod reports whether m is one of the supported channels.
func ValidMethod(m PaymentMethod) bool {
	return m == MethodJazzCash || m == MethodEasyPaisa
}

// TaskType categorizes how a task's eligibility is evaluated.
type TaskType string

const (
	TaskDailyCheckin      TaskType = "DAILY_CHECKIN"
	TaskAdsMilestone      TaskType = "ADS_MILESTONE"
	TaskProfile           TaskType = "PROFILE"
	TaskReferralMilestone TaskType = "REFERRAL_MILESTONE"
)

// User is one account. ReferredBy holds the referrer's referral code as a
// lookup key only; deleting the referrer never touches this record.
// PlanExpiry is nil while the user has never purchased a plan.
type User struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"password_hash"`
	Role             Role       `json:"role"`
	ReferralCode     string     `json:"referral_code"`
	ReferredBy       string     `json:"referred_by,omitempty"`
	Balance          int64      `json:"balance"`
	ReferralEarnings int64      `json:"referral_earnings"`
	Plan             PlanType   `json:"plan"`
	PlanExpiry       *time.Time `json:"plan_expiry,omitempty"`
	DailyAdsWatched  int64      `json:"daily_ads_watched"`
	LastAdResetDate  string     `json:"last_ad_reset_date"` // YYYY-MM-DD (UTC)
	TotalAdsWatched  int64      `json:"total_ads_watched"`
	SpinsAvailable   int64      `json:"spins_available"`
	Fingerprint      string     `json:"fingerprint"`
	IsFlagged        bool       `json:"is_flagged"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Transaction is one deposit or withdrawal request. ExternalRef carries the
// user-supplied payment reference on deposits, empty otherwise.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Type        TransactionType   `json:"type"`
	Amount      int64             `json:"amount"`
	Method      PaymentMethod     `json:"method"`
	ExternalRef string            `json:"external_ref,omitempty"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Task pays a one-time reward per user. CompletedBy holds each user id at
// most once.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Reward      int64    `json:"reward"`
	Type        TaskType `json:"type"`
	CompletedBy []string `json:"completed_by"`
}

// CompletedByUser reports whether userID already claimed this task.
func (t *Task) CompletedByUser(userID string) bool {
	for _, id := range t.CompletedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// SystemStats are aggregate counters owned by the snapshot.
type SystemStats struct {
	TotalPayouts    int64 `json:"total_payouts"`
	TotalAdsWatched int64 `json:"total_ads_watched"`
}

// AppState is the whole application state. It is the single unit of
// persistence: loaded at session start, mutated by domain operations, saved
// as one value. No entity is persisted independently.
type AppState struct {
	Users        []*User        `json:"users"`
	Transactions []*Transaction `json:"transactions"`
	Tasks        []*Task        `json:"tasks"`
	Stats        SystemStats    `json:"stats"`
}

// UserByID returns the user with the given id, or nil.
func (s *AppState) UserByID(id string) *User {
	for _, u := range s.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// UserByEmail matches case-insensitively; emails are unique across users.
func (s *AppState) UserByEmail(email string) *User {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.Users {
		if strings.ToLower(u.Email) == email {
			return u
		}
	}
	return nil
}

// UserByReferralCode returns the owner of a referral code, or nil.
func (s *AppState) UserByReferralCode(code string) *User {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	for _, u := range s.Users {
		if strings.EqualFold(u.ReferralCode, code) {
			return u
		}
	}
	return nil
}

// TransactionByID returns the transaction with the given id, or nil.
func (s *AppState) TransactionByID(id string) *Transaction {
	for _, tx := range s.Transactions {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

// TaskByID returns the task with the given id, or nil.
func (s *AppState) TaskByID(id string) *Task {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ReferralCount counts accounts that signed up with this user's code.
func (s *AppState) ReferralCount(u *User) int64 {
	var n int64
	for _, other := range s.Users {
		if other.ID != u.ID && other.ReferredBy != "" && strings.EqualFold(other.ReferredBy, u.ReferralCode) {
			n++
		}
	}
	return n
}
