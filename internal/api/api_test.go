package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"adquest/internal/config"
	"adquest/internal/economy"
	"adquest/internal/monitoring"
	"adquest/internal/store"
)

type testServer struct {
	app    *App
	router http.Handler
	now    time.Time
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{
		Port:                 8080,
		JWTSecret:            "test-secret",
		AdminEmail:           "admin@adquest.com",
		AdReward:             10,
		MinWithdrawal:        1500,
		SignupBonus:          50,
		ReferralBonus:        50,
		ReferralCommissionBP: 500,
		SignupSpins:          3,
		PlanValidityDays:     30,
		RateLimitPerSec:      1000,
		RateLimitBurst:       1000,
	}

	ts := &testServer{now: time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC)}
	engine := economy.New(cfg, rand.New(rand.NewSource(1)))
	app, err := NewApp(context.Background(), cfg, engine, store.NewMemoryStore(), monitoring.New(), func() time.Time {
		return ts.now
	})
	if err != nil {
		t.Fatal(err)
	}
	ts.app = app
	ts.router = app.Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

func (ts *testServer) signup(t *testing.T, name, email, password, refCode string) authResponse {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": password, "referral_code": refCode,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: status %d: %s", email, rec.Code, rec.Body.String())
	}
	var resp authResponse
	decodeBody(t, rec, &resp)
	return resp
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) ErrorCode {
	t.Helper()
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Error == nil {
		t.Fatalf("no error envelope in %q", rec.Body.String())
	}
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.signup(t, "Alice", "alice@example.com", "secret123", "")
	if resp.Token == "" {
		t.Fatal("no token issued")
	}
	if resp.User.Balance != 50 || resp.User.SpinsAvailable != 3 {
		t.Errorf("new user = %+v", resp.User)
	}
	if resp.User.DailyLimit != 5 {
		t.Errorf("daily limit = %d, want 5", resp.User.DailyLimit)
	}

	t.Run("login", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "secret123",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != ErrCodeUnauthorized {
			t.Errorf("code = %s", code)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"name": "Other", "email": "alice@example.com", "password": "secret123",
		})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != ErrCodeDuplicateEntry {
			t.Errorf("code = %s", code)
		}
	})

	t.Run("short password", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"name": "B", "email": "b@example.com", "password": "123",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("protected route without token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/me", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("me", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/me", resp.Token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var me struct {
			User userView `json:"user"`
		}
		decodeBody(t, rec, &me)
		if me.User.Email != "alice@example.com" {
			t.Errorf("me = %+v", me.User)
		}
	})
}

func TestWatchAdEndpoint(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signup(t, "Alice", "alice@example.com", "secret123", "")

	// Clock is fixed at 19:00 UTC, inside the 2x window.
	rec := ts.do(t, http.MethodPost, "/api/v1/ads/watch", user.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var res economy.AdResult
	decodeBody(t, rec, &res)
	if res.Reward != 20 || res.Multiplier.Value != 2 {
		t.Errorf("result = %+v", res)
	}

	for i := 0; i < 4; i++ {
		if rec := ts.do(t, http.MethodPost, "/api/v1/ads/watch", user.Token, nil); rec.Code != http.StatusOK {
			t.Fatalf("ad %d: status %d", i+2, rec.Code)
		}
	}
	rec = ts.do(t, http.MethodPost, "/api/v1/ads/watch", user.Token, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over quota status = %d", rec.Code)
	}
	if code := errCode(t, rec); code != ErrCodeDailyLimit {
		t.Errorf("code = %s", code)
	}

	// Advancing the clock past midnight reopens the quota.
	ts.now = ts.now.AddDate(0, 0, 1)
	rec = ts.do(t, http.MethodPost, "/api/v1/ads/watch", user.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("next-day status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestTasksEndpoint(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signup(t, "Alice", "alice@example.com", "secret123", "")

	rec := ts.do(t, http.MethodGet, "/api/v1/tasks", user.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var tasks []taskView
	decodeBody(t, rec, &tasks)
	if len(tasks) != 3 {
		t.Fatalf("tasks = %d, want 3", len(tasks))
	}
	byID := map[string]taskView{}
	for _, task := range tasks {
		byID[task.ID] = task
	}
	if !byID["t1"].Eligible || byID["t2"].Eligible || byID["t3"].Eligible {
		t.Errorf("eligibility = %+v", byID)
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/t1/complete", user.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/t1/complete", user.Token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rec.Code)
	}

	// Milestone far away: rejected before the engine is asked to pay.
	rec = ts.do(t, http.MethodPost, "/api/v1/tasks/t2/complete", user.Token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("ineligible status = %d", rec.Code)
	}
}

func TestSpinEndpoint(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signup(t, "Alice", "alice@example.com", "secret123", "")

	for i := 2; i >= 0; i-- {
		rec := ts.do(t, http.MethodPost, "/api/v1/spin", user.Token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("spin: status %d: %s", rec.Code, rec.Body.String())
		}
		var res economy.SpinResult
		decodeBody(t, rec, &res)
		if res.SpinsRemaining != int64(i) {
			t.Errorf("remaining = %d, want %d", res.SpinsRemaining, i)
		}
	}
	rec := ts.do(t, http.MethodPost, "/api/v1/spin", user.Token, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("exhausted status = %d", rec.Code)
	}
	if code := errCode(t, rec); code != ErrCodeNoSpins {
		t.Errorf("code = %s", code)
	}
}

func TestTransactionsAndAdminFlow(t *testing.T) {
	ts := newTestServer(t)
	admin := ts.signup(t, "Admin", "admin@adquest.com", "secret123", "")
	user := ts.signup(t, "Alice", "alice@example.com", "secret123", "")

	t.Run("admin surface is role gated", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/admin/users", user.Token, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
		rec = ts.do(t, http.MethodGet, "/api/v1/admin/users", admin.Token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("withdrawal below minimum", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/transactions/withdraw", user.Token, map[string]any{
			"amount": 100, "method": "JazzCash",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != ErrCodeBelowMinimum {
			t.Errorf("code = %s", code)
		}
	})

	var depositID string
	t.Run("deposit request and approval", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/transactions/deposit", user.Token, map[string]any{
			"amount": 2000, "method": "EasyPaisa", "external_ref": "ep-991",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var tx struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		decodeBody(t, rec, &tx)
		if tx.Status != "PENDING" {
			t.Errorf("status = %s", tx.Status)
		}
		depositID = tx.ID

		rec = ts.do(t, http.MethodGet, "/api/v1/admin/transactions?status=PENDING", admin.Token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("pending list status = %d", rec.Code)
		}

		rec = ts.do(t, http.MethodPost, "/api/v1/admin/transactions/"+depositID+"/approve", admin.Token, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("approve status = %d: %s", rec.Code, rec.Body.String())
		}

		// Approved deposit lands on the balance.
		rec = ts.do(t, http.MethodGet, "/api/v1/me", user.Token, nil)
		var me struct {
			User userView `json:"user"`
		}
		decodeBody(t, rec, &me)
		if me.User.Balance != 2050 {
			t.Errorf("balance = %d, want 2050", me.User.Balance)
		}
	})

	t.Run("terminal transaction rejects re-approval", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/admin/transactions/"+depositID+"/approve", admin.Token, nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != ErrCodeInvalidTransition {
			t.Errorf("code = %s", code)
		}
	})

	t.Run("withdrawal escrow visible to owner", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/transactions/withdraw", user.Token, map[string]any{
			"amount": 1500, "method": "JazzCash",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		rec = ts.do(t, http.MethodGet, "/api/v1/transactions", user.Token, nil)
		var txs []struct {
			Type string `json:"type"`
		}
		decodeBody(t, rec, &txs)
		if len(txs) != 2 {
			t.Errorf("own transactions = %d, want 2", len(txs))
		}
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	ts := newTestServer(t)
	a := ts.signup(t, "A", "a@example.com", "secret123", "")
	ts.signup(t, "B", "b@example.com", "secret123", "")

	// A earns once; B stays on the signup bonus.
	if rec := ts.do(t, http.MethodPost, "/api/v1/ads/watch", a.Token, nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Body.String())
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/leaderboard?metric=balance", a.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var entries []economy.LeaderboardEntry
	decodeBody(t, rec, &entries)
	if len(entries) != 2 || entries[0].Name != "A" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestPlanEndpoints(t *testing.T) {
	ts := newTestServer(t)
	user := ts.signup(t, "Alice", "alice@example.com", "secret123", "")

	rec := ts.do(t, http.MethodGet, "/api/v1/plans", user.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	// Signup bonus alone cannot afford any paid tier.
	rec = ts.do(t, http.MethodPost, "/api/v1/plans/purchase", user.Token, map[string]string{"plan": "BASIC"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if code := errCode(t, rec); code != ErrCodePlanPurchase {
		t.Errorf("code = %s", code)
	}
}

func TestReferralSignupFlow(t *testing.T) {
	ts := newTestServer(t)
	ref := ts.signup(t, "Ref", "ref@example.com", "secret123", "")

	rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name": "New", "email": "new@example.com", "password": "secret123",
		"referral_code": ref.User.ReferralCode,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.do(t, http.MethodGet, "/api/v1/me", ref.Token, nil)
	var me struct {
		User userView `json:"user"`
	}
	decodeBody(t, rec, &me)
	if me.User.Balance != 100 {
		t.Errorf("referrer balance = %d, want 100", me.User.Balance)
	}

	t.Run("bogus code rejected", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
			"name": "X", "email": "x@example.com", "password": "secret123",
			"referral_code": "NOPE0000",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		if code := errCode(t, rec); code != ErrCodeInvalidReferral {
			t.Errorf("code = %s", code)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("adquest_")) {
		t.Error("metrics output missing adquest namespace")
	}
}
