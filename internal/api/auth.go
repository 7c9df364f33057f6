package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"adquest/internal/types"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

const tokenTTL = 7 * 24 * time.Hour

func hashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (a *App) issueToken(u *types.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": u.ID,
		"exp": a.now().Add(tokenTTL).Unix(),
		"iat": a.now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.cfg.JWTSecret))
}

func (a *App) parseToken(raw string) (string, bool) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(a.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return "", false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	sub, _ := claims["sub"].(string)
	return sub, sub != ""
}

// requireAuth resolves the bearer token to a user id. The user record is
// looked up per request so a deleted account loses access immediately.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			writeErrorCode(w, r, ErrCodeUnauthorized, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, ok := a.parseToken(raw)
		if !ok {
			writeErrorCode(w, r, ErrCodeUnauthorized, http.StatusUnauthorized, "invalid token")
			return
		}

		var exists bool
		a.view(func(state *types.AppState) {
			exists = state.UserByID(userID) != nil
		})
		if !exists {
			writeErrorCode(w, r, ErrCodeUnauthorized, http.StatusUnauthorized, "unknown account")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates the admin surface on the stored role attribute, never
// on an email comparison.
func (a *App) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)

		var isAdmin bool
		a.view(func(state *types.AppState) {
			if u := state.UserByID(userID); u != nil {
				isAdmin = u.Role == types.RoleAdmin
			}
		})
		if !isAdmin {
			writeErrorCode(w, r, ErrCodeForbidden, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func currentUserID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}
