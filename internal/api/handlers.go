package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adquest/internal/catalog"
	"adquest/internal/economy"
	"adquest/internal/types"
)

// Router wires the full HTTP surface: auth, user actions, admin workflow
// and metrics.
func (a *App) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(a.metrics.Middleware)
	r.Use(newIPLimiter(a.cfg.RateLimitPerSec, a.cfg.RateLimitBurst).middleware)

	r.Get("/health", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", a.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", a.handleSignup)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Get("/me", a.handleMe)
			r.Post("/ads/watch", a.handleWatchAd)
			r.Get("/tasks", a.handleListTasks)
			r.Post("/tasks/{id}/complete", a.handleCompleteTask)
			r.Post("/spin", a.handleSpin)
			r.Get("/leaderboard", a.handleLeaderboard)
			r.Get("/plans", a.handleListPlans)
			r.Post("/plans/purchase", a.handlePurchasePlan)
			r.Get("/transactions", a.handleOwnTransactions)
			r.Post("/transactions/deposit", a.handleRequestDeposit)
			r.Post("/transactions/withdraw", a.handleRequestWithdrawal)

			r.Route("/admin", func(r chi.Router) {
				r.Use(a.requireAdmin)
				r.Get("/users", a.handleAdminUsers)
				r.Get("/stats", a.handleAdminStats)
				r.Get("/transactions", a.handleAdminTransactions)
				r.Post("/transactions/{id}/approve", a.handleApprove)
				r.Post("/transactions/{id}/reject", a.handleReject)
			})
		})
	})

	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": a.now().Unix(),
	})
}

// userView is the sanitized user payload; the password hash never leaves
// the server.
type userView struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Email            string         `json:"email"`
	Role             types.Role     `json:"role"`
	ReferralCode     string         `json:"referral_code"`
	ReferredBy       string         `json:"referred_by,omitempty"`
	Balance          int64          `json:"balance"`
	ReferralEarnings int64          `json:"referral_earnings"`
	Plan             types.PlanType `json:"plan"`
	PlanExpiry       *time.Time     `json:"plan_expiry,omitempty"`
	DailyAdsWatched  int64          `json:"daily_ads_watched"`
	DailyLimit       int64          `json:"daily_limit"`
	TotalAdsWatched  int64          `json:"total_ads_watched"`
	SpinsAvailable   int64          `json:"spins_available"`
	IsFlagged        bool           `json:"is_flagged"`
	CreatedAt        time.Time      `json:"created_at"`
}

func (a *App) viewOf(u *types.User, now time.Time) userView {
	effective := a.engine.EffectivePlan(u, now)
	return userView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		ReferralCode:     u.ReferralCode,
		ReferredBy:       u.ReferredBy,
		Balance:          u.Balance,
		ReferralEarnings: u.ReferralEarnings,
		Plan:             effective,
		PlanExpiry:       u.PlanExpiry,
		DailyAdsWatched:  u.DailyAdsWatched,
		DailyLimit:       catalog.PlanByType(effective).DailyLimit,
		TotalAdsWatched:  u.TotalAdsWatched,
		SpinsAvailable:   u.SpinsAvailable,
		IsFlagged:        u.IsFlagged,
		CreatedAt:        u.CreatedAt,
	}
}

type signupRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code"`
}

func (a *App) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 6 {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "name, email and a password of 6+ characters are required")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := a.now()
	var created *types.User
	err = a.update(r.Context(), func(state *types.AppState) error {
		u, err := a.engine.Signup(state, economy.SignupInput{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			ReferralCode: req.ReferralCode,
			Fingerprint:  r.Header.Get("X-Device-Fingerprint"),
		}, now)
		if err != nil {
			return err
		}
		created = u
		a.metrics.Signups.Inc()
		a.metrics.Users.Set(float64(len(state.Users)))
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := a.issueToken(created)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  a.viewOf(created, now),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	now := a.now()
	var matched *types.User
	err := a.update(r.Context(), func(state *types.AppState) error {
		u := state.UserByEmail(req.Email)
		if u == nil || !checkPassword(u.PasswordHash, req.Password) {
			return errInvalidCredentials
		}
		// Login loads the record, so the lazy daily reset runs here too.
		a.engine.NormalizeDaily(u, now)
		matched = u
		return nil
	})
	if err != nil {
		writeErrorCode(w, r, ErrCodeUnauthorized, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := a.issueToken(matched)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  a.viewOf(matched, now),
	})
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	var view userView
	err := a.update(r.Context(), func(state *types.AppState) error {
		u := state.UserByID(currentUserID(r))
		if u == nil {
			return economy.ErrUserNotFound
		}
		a.engine.NormalizeDaily(u, now)
		view = a.viewOf(u, now)
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":       view,
		"multiplier": catalog.ActiveMultiplier(now.UTC().Hour()),
	})
}

func (a *App) handleWatchAd(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	var result economy.AdResult
	err := a.update(r.Context(), func(state *types.AppState) error {
		res, err := a.engine.WatchAd(state, currentUserID(r), now)
		if err != nil {
			return err
		}
		result = res
		a.metrics.AdsWatched.Inc()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type taskView struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Reward      int64          `json:"reward"`
	Type        types.TaskType `json:"type"`
	Eligible    bool           `json:"eligible"`
	Completed   bool           `json:"completed"`
}

func (a *App) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var out []taskView
	var notFound bool
	a.view(func(state *types.AppState) {
		u := state.UserByID(currentUserID(r))
		if u == nil {
			notFound = true
			return
		}
		for _, t := range state.Tasks {
			out = append(out, taskView{
				ID:          t.ID,
				Title:       t.Title,
				Description: t.Description,
				Reward:      t.Reward,
				Type:        t.Type,
				Eligible:    a.engine.TaskEligible(state, t, u),
				Completed:   t.CompletedByUser(u.ID),
			})
		}
	})
	if notFound {
		writeError(w, r, economy.ErrUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")
	now := a.now()
	var reward int64
	err := a.update(r.Context(), func(state *types.AppState) error {
		u := state.UserByID(currentUserID(r))
		t := state.TaskByID(taskID)
		if u == nil {
			return economy.ErrUserNotFound
		}
		if t == nil {
			return economy.ErrTaskNotFound
		}
		// The engine only records completion; eligibility is on us.
		if !a.engine.TaskEligible(state, t, u) {
			return errNotEligible
		}
		paid, err := a.engine.CompleteTask(state, taskID, u.ID, now)
		if err != nil {
			return err
		}
		reward = paid
		a.metrics.TasksCompleted.Inc()
		return nil
	})
	if err != nil {
		if err == errNotEligible {
			writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "task requirements not met")
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reward": reward})
}

func (a *App) handleSpin(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	var result economy.SpinResult
	err := a.update(r.Context(), func(state *types.AppState) error {
		res, err := a.engine.Spin(state, currentUserID(r), now)
		if err != nil {
			return err
		}
		result = res
		a.metrics.Spins.Inc()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	metric := economy.RankByBalance
	if r.URL.Query().Get("metric") == string(economy.RankByAds) {
		metric = economy.RankByAds
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var entries []economy.LeaderboardEntry
	a.view(func(state *types.AppState) {
		entries = a.engine.Leaderboard(state, metric, limit)
	})
	writeJSON(w, http.StatusOK, entries)
}

func (a *App) handleListPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Plans)
}

type purchasePlanRequest struct {
	Plan types.PlanType `json:"plan"`
}

func (a *App) handlePurchasePlan(w http.ResponseWriter, r *http.Request) {
	var req purchasePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	now := a.now()
	var plan catalog.Plan
	err := a.update(r.Context(), func(state *types.AppState) error {
		p, err := a.engine.PurchasePlan(state, currentUserID(r), req.Plan, now)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

type depositRequest struct {
	Amount      int64               `json:"amount"`
	Method      types.PaymentMethod `json:"method"`
	ExternalRef string              `json:"external_ref"`
}

func (a *App) handleRequestDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	var tx *types.Transaction
	err := a.update(r.Context(), func(state *types.AppState) error {
		created, err := a.engine.RequestDeposit(state, currentUserID(r), req.Amount, req.Method, req.ExternalRef, a.now())
		if err != nil {
			return err
		}
		tx = created
		a.metrics.Transactions.WithLabelValues(string(created.Type), "requested").Inc()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

type withdrawRequest struct {
	Amount int64               `json:"amount"`
	Method types.PaymentMethod `json:"method"`
}

func (a *App) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, r, ErrCodeInvalidRequest, http.StatusBadRequest, "invalid request body")
		return
	}

	var tx *types.Transaction
	err := a.update(r.Context(), func(state *types.AppState) error {
		created, err := a.engine.RequestWithdrawal(state, currentUserID(r), req.Amount, req.Method, a.now())
		if err != nil {
			return err
		}
		tx = created
		a.metrics.Transactions.WithLabelValues(string(created.Type), "requested").Inc()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (a *App) handleOwnTransactions(w http.ResponseWriter, r *http.Request) {
	var out []*types.Transaction
	a.view(func(state *types.AppState) {
		for _, tx := range state.Transactions {
			if tx.UserID == currentUserID(r) {
				out = append(out, tx)
			}
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	now := a.now()
	var out []userView
	a.view(func(state *types.AppState) {
		for _, u := range state.Users {
			out = append(out, a.viewOf(u, now))
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	var stats types.SystemStats
	var users int
	a.view(func(state *types.AppState) {
		stats = state.Stats
		users = len(state.Users)
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"total_payouts":     stats.TotalPayouts,
		"total_ads_watched": stats.TotalAdsWatched,
		"users":             users,
	})
}

func (a *App) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	status := types.TransactionStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status == "" {
		status = types.TxPending
	}

	var out []*types.Transaction
	a.view(func(state *types.AppState) {
		for _, tx := range state.Transactions {
			if tx.Status == status {
				out = append(out, tx)
			}
		}
	})
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleApprove(w http.ResponseWriter, r *http.Request) {
	a.resolveTransaction(w, r, true)
}

func (a *App) handleReject(w http.ResponseWriter, r *http.Request) {
	a.resolveTransaction(w, r, false)
}

func (a *App) resolveTransaction(w http.ResponseWriter, r *http.Request, approve bool) {
	txID := chi.URLParam(r, "id")
	var tx *types.Transaction
	err := a.update(r.Context(), func(state *types.AppState) error {
		var err error
		if approve {
			tx, err = a.engine.Approve(state, txID)
		} else {
			tx, err = a.engine.Reject(state, txID)
		}
		if err != nil {
			return err
		}
		a.metrics.Transactions.WithLabelValues(string(tx.Type), strings.ToLower(string(tx.Status))).Inc()
		a.metrics.TotalPayouts.Set(float64(state.Stats.TotalPayouts))
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}
