package applications

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	apps map[string]LoanApplication
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{apps: make(map[string]LoanApplication)}
}

func (r *MemoryRepo) Create(ctx context.Context, app LoanApplication) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = cloneApplication(app)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (LoanApplication, error) {
	if err := ctx.Err(); err != nil {
		return LoanApplication{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	app, ok := r.apps[id]
	if !ok {
		return LoanApplication{}, ErrNotFound
	}
	return cloneApplication(app), nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Transition, error) {
	if err := ctx.Err(); err != nil {
		return Transition{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return Transition{}, ErrNotFound
	}
	if upd.ExpectedVersion > 0 && app.Version != upd.ExpectedVersion {
		return Transition{}, ErrVersionConflict
	}

	from := app.Status
	app.Status = upd.Status
	if upd.RiskProbability != nil {
		p := *upd.RiskProbability
		app.RiskProbability = &p
	}
	app.Version++
	app.UpdatedAt = nextUpdatedAt(app.UpdatedAt, upd.At)
	r.apps[id] = app
	return Transition{From: from, Application: cloneApplication(app)}, nil
}

// nextUpdatedAt returns at, or one microsecond past prev when the clock has
// not moved forward. Postgres stores microseconds.
func nextUpdatedAt(prev, at time.Time) time.Time {
	floor := prev.Add(time.Microsecond)
	if at.Before(floor) {
		return floor
	}
	return at
}

func cloneApplication(app LoanApplication) LoanApplication {
	if app.RiskProbability != nil {
		p := *app.RiskProbability
		app.RiskProbability = &p
	}
	return app
}

var _ Repo = (*MemoryRepo)(nil)
