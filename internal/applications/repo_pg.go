package applications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"loangate-backend/internal/shared/storage/db"
)

const applicationColumns = `id, external_ref, email, loan_amount, credit_score, annual_income, monthly_debts,
       house_status, years_in_job, status, risk_probability, version, created_at, updated_at`

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a loan application.
func (r *PGRepo) Create(ctx context.Context, app LoanApplication) error {
	const query = `
INSERT INTO loan_applications (
    id,
    external_ref,
    email,
    loan_amount,
    credit_score,
    annual_income,
    monthly_debts,
    house_status,
    years_in_job,
    status,
    risk_probability,
    version,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		app.ID,
		nullString(app.ExternalRef),
		nullString(app.Email),
		app.LoanAmount,
		app.CreditScore,
		app.AnnualIncome,
		app.MonthlyDebts,
		nullString(app.HouseStatus),
		app.YearsInJob,
		string(app.Status),
		nullFloat(app.RiskProbability),
		app.Version,
		app.CreatedAt,
		app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetByID returns a loan application by id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (LoanApplication, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LoanApplication{}, ErrNotFound
	}
	query := `SELECT ` + applicationColumns + ` FROM loan_applications WHERE id = $1`
	return scanApplication(r.DB.QueryRowContext(ctx, query, id))
}

// UpdateStatus locks the row, checks the expected version and writes the new
// status in one transaction. updated_at never moves backwards.
func (r *PGRepo) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) (Transition, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Transition{}, ErrNotFound
	}
	var tr Transition
	err := db.InTx(ctx, r.DB, func(tx *sql.Tx) error {
		var (
			from    string
			version int64
		)
		err := tx.QueryRowContext(ctx, `SELECT status, version FROM loan_applications WHERE id = $1 FOR UPDATE`, id).Scan(&from, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		if upd.ExpectedVersion > 0 && version != upd.ExpectedVersion {
			return ErrVersionConflict
		}

		query := `
UPDATE loan_applications
SET status = $2,
    risk_probability = COALESCE($3, risk_probability),
    version = version + 1,
    updated_at = GREATEST($4, updated_at + interval '1 microsecond')
WHERE id = $1
RETURNING ` + applicationColumns

		app, err := scanApplication(tx.QueryRowContext(ctx, query, id, string(upd.Status), nullFloat(upd.RiskProbability), upd.At))
		if err != nil {
			return err
		}
		tr = Transition{From: Status(from), Application: app}
		return nil
	})
	switch {
	case err == nil:
		return tr, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict), errors.Is(err, ErrStoreUnavailable):
		return Transition{}, err
	default:
		return Transition{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func scanApplication(row *sql.Row) (LoanApplication, error) {
	var (
		app         LoanApplication
		externalRef sql.NullString
		email       sql.NullString
		houseStatus sql.NullString
		status      string
		probability sql.NullFloat64
	)
	err := row.Scan(
		&app.ID,
		&externalRef,
		&email,
		&app.LoanAmount,
		&app.CreditScore,
		&app.AnnualIncome,
		&app.MonthlyDebts,
		&houseStatus,
		&app.YearsInJob,
		&status,
		&probability,
		&app.Version,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return LoanApplication{}, ErrNotFound
	}
	if err != nil {
		return LoanApplication{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	app.ExternalRef = externalRef.String
	app.Email = email.String
	app.HouseStatus = houseStatus.String
	app.Status = Status(status)
	if probability.Valid {
		p := probability.Float64
		app.RiskProbability = &p
	}
	return app, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
