package applications

import "context"

// Repo persists loan applications.
type Repo interface {
	Create(ctx context.Context, app LoanApplication) error
	GetByID(ctx context.Context, id string) (LoanApplication, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Transition, error)
}
