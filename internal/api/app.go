// Package api is the HTTP presentation layer over the economy engine. It
// owns the one explicit read-modify-write wrapper around the snapshot: every
// mutating handler runs under the app mutex and the whole state is saved
// synchronously after each successful operation. Across processes this stays
// last-writer-wins; that limitation is accepted for a single-session design.
package api

import (
	"context"
	"sync"
	"time"

	"adquest/internal/config"
	"adquest/internal/economy"
	"adquest/internal/monitoring"
	"adquest/internal/store"
	"adquest/internal/types"
)

// Clock yields the current time; injectable for deterministic tests.
type Clock func() time.Time

type App struct {
	cfg     config.Config
	engine  *economy.Engine
	store   store.Store
	metrics *monitoring.Metrics
	now     Clock

	mu    sync.Mutex
	state *types.AppState
}

func NewApp(ctx context.Context, cfg config.Config, engine *economy.Engine, st store.Store, metrics *monitoring.Metrics, clock Clock) (*App, error) {
	if clock == nil {
		clock = time.Now
	}
	state, err := st.Load(ctx)
	if err != nil {
		return nil, err
	}
	app := &App{
		cfg:     cfg,
		engine:  engine,
		store:   st,
		metrics: metrics,
		now:     clock,
		state:   state,
	}
	metrics.Users.Set(float64(len(state.Users)))
	metrics.TotalPayouts.Set(float64(state.Stats.TotalPayouts))
	return app, nil
}

// update runs one domain operation under the lock and persists the whole
// snapshot afterwards. When fn rejects, the engine left the state untouched
// and nothing is saved.
func (a *App) update(ctx context.Context, fn func(state *types.AppState) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := fn(a.state); err != nil {
		return err
	}
	return a.store.Save(ctx, a.state)
}

// view runs a read-only function under the lock.
func (a *App) view(fn func(state *types.AppState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a.state)
}
