package economy

import "errors"

// Domain rejections. Every operation either mutates the snapshot and
// returns a payload, or returns exactly one of these and leaves the
// snapshot untouched.
var (
	ErrDailyQuotaExceeded           = errors.New("daily ad quota exceeded")
	ErrInsufficientBalance          = errors.New("insufficient balance")
	ErrBelowMinimumWithdrawal       = errors.New("below minimum withdrawal")
	ErrDuplicateTaskCompletion      = errors.New("task already completed")
	ErrNoSpinsAvailable             = errors.New("no spins available")
	ErrInvalidReferralCode          = errors.New("invalid referral code")
	ErrDuplicateEmail               = errors.New("email already registered")
	ErrDuplicateReferralCode        = errors.New("referral code already taken")
	ErrInvalidTransactionTransition = errors.New("invalid transaction transition")
	ErrPlanPurchaseFailed           = errors.New("plan purchase failed")

	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrInvalidPaymentMethod = errors.New("unsupported payment method")
)
