package applications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"loangate-backend/internal/risk"
	"loangate-backend/internal/shared/metrics"
)

// Scorer produces a risk assessment for an applicant profile.
type Scorer interface {
	Score(ctx context.Context, p risk.ApplicantProfile) (risk.Assessment, error)
}

// CreateInput carries the fields of a new application.
type CreateInput struct {
	ExternalRef  string  `validate:"max=128"`
	Email        string  `validate:"omitempty,email"`
	LoanAmount   float64 `validate:"gte=0"`
	CreditScore  float64 `validate:"gte=0"`
	AnnualIncome float64 `validate:"gte=0"`
	MonthlyDebts float64 `validate:"gte=0"`
	HouseStatus  string  `validate:"max=64"`
	YearsInJob   float64 `validate:"gte=0"`
	// Status is optional; empty means pending.
	Status string
}

// Evaluation is the outcome of scoring a stored application.
type Evaluation struct {
	Assessment risk.Assessment
	Transition Transition
}

// Service contains business logic for loan applications.
type Service struct {
	Repo     Repo
	Scorer   Scorer
	Validate *validator.Validate
	Now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo, scorer Scorer) *Service {
	return &Service{Repo: repo, Scorer: scorer, Validate: validator.New()}
}

// Create stores a new application with createdAt equal to updatedAt.
func (s *Service) Create(ctx context.Context, in CreateInput) (LoanApplication, error) {
	in.ExternalRef = strings.TrimSpace(in.ExternalRef)
	in.Email = strings.TrimSpace(in.Email)
	in.HouseStatus = strings.TrimSpace(in.HouseStatus)
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return LoanApplication{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	status := StatusPending
	if strings.TrimSpace(in.Status) != "" {
		parsed, err := ParseStatus(in.Status)
		if err != nil {
			return LoanApplication{}, err
		}
		status = parsed
	}

	now := s.now()
	app := LoanApplication{
		ID:           uuid.NewString(),
		ExternalRef:  in.ExternalRef,
		Email:        in.Email,
		LoanAmount:   in.LoanAmount,
		CreditScore:  in.CreditScore,
		AnnualIncome: in.AnnualIncome,
		MonthlyDebts: in.MonthlyDebts,
		HouseStatus:  in.HouseStatus,
		YearsInJob:   in.YearsInJob,
		Status:       status,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, app); err != nil {
		return LoanApplication{}, storeError(err)
	}
	metrics.ApplicationTransitionsTotal.WithLabelValues("none", string(status)).Inc()
	return app, nil
}

// Get returns an application by id.
func (s *Service) Get(ctx context.Context, id string) (LoanApplication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return LoanApplication{}, ErrNotFound
	}
	app, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return LoanApplication{}, storeError(err)
	}
	return app, nil
}

// UpdateStatus sets a new status. A positive expectedVersion makes the
// update conditional on the stored version.
func (s *Service) UpdateStatus(ctx context.Context, id, status string, expectedVersion int64) (Transition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Transition{}, ErrNotFound
	}
	if strings.TrimSpace(status) == "" {
		return Transition{}, fmt.Errorf("%w: status is required", ErrInvalidInput)
	}
	next, err := ParseStatus(status)
	if err != nil {
		return Transition{}, err
	}
	if expectedVersion < 0 {
		return Transition{}, fmt.Errorf("%w: version must not be negative", ErrInvalidInput)
	}
	return s.apply(ctx, id, StatusUpdate{Status: next, ExpectedVersion: expectedVersion})
}

// Evaluate scores the stored application and moves it to approved or
// rejected. Closed applications cannot be evaluated. The update is
// conditional on the version read, so a concurrent change yields
// ErrVersionConflict.
func (s *Service) Evaluate(ctx context.Context, id string) (Evaluation, error) {
	if s.Scorer == nil {
		return Evaluation{}, risk.ErrModelUnavailable
	}
	app, err := s.Get(ctx, id)
	if err != nil {
		return Evaluation{}, err
	}
	if app.Status == StatusClosed {
		return Evaluation{}, fmt.Errorf("%w: application is closed", ErrInvalidInput)
	}

	profile, err := ProfileOf(app)
	if err != nil {
		return Evaluation{}, err
	}
	assessment, err := s.Scorer.Score(ctx, profile)
	if err != nil {
		if errors.Is(err, risk.ErrInvalidInput) {
			return Evaluation{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return Evaluation{}, err
	}

	next := StatusRejected
	if assessment.Decision == risk.DecisionApprove {
		next = StatusApproved
	}
	p := assessment.Probability
	tr, err := s.apply(ctx, app.ID, StatusUpdate{
		Status:          next,
		RiskProbability: &p,
		ExpectedVersion: app.Version,
	})
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Assessment: assessment, Transition: tr}, nil
}

// ProfileOf builds the scoring input from a stored application.
func ProfileOf(app LoanApplication) (risk.ApplicantProfile, error) {
	home, err := risk.ParseHomeOwnership(app.HouseStatus)
	if err != nil {
		return risk.ApplicantProfile{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return risk.ApplicantProfile{
		HomeOwnership: home,
		LoanAmount:    app.LoanAmount,
		CreditScore:   app.CreditScore,
		AnnualIncome:  app.AnnualIncome,
		MonthlyDebt:   app.MonthlyDebts,
		YearsInJob:    app.YearsInJob,
	}, nil
}

func (s *Service) apply(ctx context.Context, id string, upd StatusUpdate) (Transition, error) {
	upd.At = s.now()
	tr, err := s.Repo.UpdateStatus(ctx, id, upd)
	if err != nil {
		return Transition{}, storeError(err)
	}
	metrics.ApplicationTransitionsTotal.WithLabelValues(string(tr.From), string(tr.Application.Status)).Inc()
	return tr, nil
}

func (s *Service) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return now.UTC().Truncate(time.Microsecond)
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict), errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
