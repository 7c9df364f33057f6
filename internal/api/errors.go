package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"adquest/internal/economy"
)

// Handler-local rejections that never originate in the engine.
var (
	errInvalidCredentials = errors.New("invalid credentials")
	errNotEligible        = errors.New("task requirements not met")
)

// ErrorCode is the machine-readable error class in API responses.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeRateLimit         ErrorCode = "RATE_LIMIT"
	ErrCodeInternalError     ErrorCode = "INTERNAL_ERROR"
	ErrCodeDuplicateEntry    ErrorCode = "DUPLICATE_ENTRY"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeBelowMinimum      ErrorCode = "BELOW_MINIMUM"
	ErrCodeDailyLimit        ErrorCode = "DAILY_LIMIT"
	ErrCodeNoSpins           ErrorCode = "NO_SPINS"
	ErrCodeInvalidReferral   ErrorCode = "INVALID_REFERRAL"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodePlanPurchase      ErrorCode = "PLAN_PURCHASE_FAILED"
)

// APIError is the JSON error envelope.
type APIError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error   *APIError `json:"error"`
	Success bool      `json:"success"`
}

// classify maps domain rejections onto API codes and HTTP statuses.
func classify(err error) (ErrorCode, int) {
	switch {
	case errors.Is(err, economy.ErrDailyQuotaExceeded):
		return ErrCodeDailyLimit, http.StatusTooManyRequests
	case errors.Is(err, economy.ErrInsufficientBalance):
		return ErrCodeInsufficientFunds, http.StatusBadRequest
	case errors.Is(err, economy.ErrBelowMinimumWithdrawal):
		return ErrCodeBelowMinimum, http.StatusBadRequest
	case errors.Is(err, economy.ErrDuplicateTaskCompletion),
		errors.Is(err, economy.ErrDuplicateEmail),
		errors.Is(err, economy.ErrDuplicateReferralCode):
		return ErrCodeDuplicateEntry, http.StatusConflict
	case errors.Is(err, economy.ErrNoSpinsAvailable):
		return ErrCodeNoSpins, http.StatusConflict
	case errors.Is(err, economy.ErrInvalidReferralCode):
		return ErrCodeInvalidReferral, http.StatusBadRequest
	case errors.Is(err, economy.ErrInvalidTransactionTransition):
		return ErrCodeInvalidTransition, http.StatusConflict
	case errors.Is(err, economy.ErrPlanPurchaseFailed):
		return ErrCodePlanPurchase, http.StatusBadRequest
	case errors.Is(err, economy.ErrUserNotFound),
		errors.Is(err, economy.ErrTaskNotFound),
		errors.Is(err, economy.ErrTransactionNotFound):
		return ErrCodeNotFound, http.StatusNotFound
	case errors.Is(err, economy.ErrInvalidAmount),
		errors.Is(err, economy.ErrInvalidPaymentMethod):
		return ErrCodeInvalidRequest, http.StatusBadRequest
	default:
		return ErrCodeInternalError, http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := classify(err)
	if status >= http.StatusInternalServerError {
		log.Printf("api: %s %s: %v", r.Method, r.URL.Path, err)
	}
	writeErrorCode(w, r, code, status, err.Error())
}

func writeErrorCode(w http.ResponseWriter, r *http.Request, code ErrorCode, status int, msg string) {
	resp := errorResponse{
		Error: &APIError{
			Code:      code,
			Message:   msg,
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
