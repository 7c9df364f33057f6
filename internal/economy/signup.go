package economy

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"adquest/internal/types"
)

// SignupInput carries validated account-creation inputs. PasswordHash is
// produced by the presentation layer; the engine never sees the plaintext.
// Fingerprint is an opaque device identifier used for equality only.
type SignupInput struct {
	Name         string
	Email        string
	PasswordHash string
	ReferralCode string // code of the referring user, optional
	Fingerprint  string
}

// Signup creates an account, pays the signup bonus, and, when a valid
// referral code is supplied, pays the referrer the one-time referral bonus
// and records the relationship as a lookup key. The bonus is paid exactly
// once, at creation; existing accounts can never earn it retroactively.
//
// If another account shares the fingerprint, both are flagged. The flag is
// advisory metadata and blocks nothing here.
func (e *Engine) Signup(state *types.AppState, in SignupInput, now time.Time) (*types.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if state.UserByEmail(email) != nil {
		return nil, ErrDuplicateEmail
	}

	refCode := strings.TrimSpace(in.ReferralCode)
	var referrer *types.User
	if refCode != "" {
		referrer = state.UserByReferralCode(refCode)
		if referrer == nil {
			return nil, ErrInvalidReferralCode
		}
	}

	code, err := newReferralCode(state)
	if err != nil {
		return nil, err
	}

	role := types.RoleUser
	if email == e.cfg.AdminEmail {
		role = types.RoleAdmin
	}

	u := &types.User{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(in.Name),
		Email:           email,
		PasswordHash:    in.PasswordHash,
		Role:            role,
		ReferralCode:    code,
		Balance:         e.cfg.SignupBonus,
		Plan:            types.PlanFree,
		LastAdResetDate: Day(now),
		SpinsAvailable:  e.cfg.SignupSpins,
		Fingerprint:     strings.TrimSpace(in.Fingerprint),
		CreatedAt:       now.UTC(),
	}

	if referrer != nil {
		u.ReferredBy = referrer.ReferralCode
		referrer.Balance += e.cfg.ReferralBonus
	}

	if u.Fingerprint != "" {
		for _, other := range state.Users {
			if other.Fingerprint == u.Fingerprint {
				other.IsFlagged = true
				u.IsFlagged = true
			}
		}
	}

	state.Users = append(state.Users, u)
	return u, nil
}

// newReferralCode draws a short code and guarantees uniqueness across the
// snapshot. Collisions are vanishingly rare; the retry cap only bounds the
// scan on a pathological snapshot.
func newReferralCode(state *types.AppState) (string, error) {
	for i := 0; i < 10; i++ {
		raw := strings.ReplaceAll(uuid.NewString(), "-", "")
		code := strings.ToUpper(raw[:8])
		if state.UserByReferralCode(code) == nil {
			return code, nil
		}
	}
	return "", ErrDuplicateReferralCode
}
