package applications

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

var columnNames = []string{
	"id", "external_ref", "email", "loan_amount", "credit_score", "annual_income", "monthly_debts",
	"house_status", "years_in_job", "status", "risk_probability", "version", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	app := LoanApplication{
		ID:           uuid.NewString(),
		Email:        "a@example.com",
		LoanAmount:   10000,
		CreditScore:  720,
		AnnualIncome: 60000,
		MonthlyDebts: 500,
		HouseStatus:  "Rent",
		YearsInJob:   3,
		Status:       StatusPending,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	mock.ExpectExec("INSERT INTO loan_applications").
		WithArgs(
			app.ID,
			sql.NullString{}, // external_ref
			sql.NullString{String: "a@example.com", Valid: true},
			app.LoanAmount,
			app.CreditScore,
			app.AnnualIncome,
			app.MonthlyDebts,
			sql.NullString{String: "Rent", Valid: true},
			app.YearsInJob,
			"pending",
			sql.NullFloat64{},
			int64(1),
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), app); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoCreateWrapsDriverError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO loan_applications").WillReturnError(errors.New("connection refused"))

	err := repo.Create(context.Background(), LoanApplication{ID: uuid.NewString(), Status: StatusPending})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestPGRepoGetByID(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM loan_applications WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columnNames).
			AddRow(id, "LA-7", nil, 5000.0, 680.0, 40000.0, 300.0, "Own Home", 2.0, "approved", 0.81, int64(2), now, now))

	app, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if app.ExternalRef != "LA-7" || app.Email != "" || app.Status != StatusApproved {
		t.Fatalf("unexpected application %+v", app)
	}
	if app.RiskProbability == nil || *app.RiskProbability != 0.81 {
		t.Fatalf("expected probability 0.81, got %v", app.RiskProbability)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	mock.ExpectQuery("SELECT .* FROM loan_applications").WithArgs(id).WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetByIDInvalidUUID(t *testing.T) {
	repo, mock := newMockRepo(t)
	if _, err := repo.GetByID(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestPGRepoUpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	created := time.Now().UTC().Add(-time.Hour)
	at := time.Now().UTC()
	p := 0.73

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, version FROM loan_applications WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "version"}).AddRow("pending", int64(1)))
	mock.ExpectQuery("UPDATE loan_applications").
		WithArgs(id, "approved", sql.NullFloat64{Float64: p, Valid: true}, at).
		WillReturnRows(sqlmock.NewRows(columnNames).
			AddRow(id, nil, nil, 1000.0, 700.0, 50000.0, 100.0, "Rent", 4.0, "approved", p, int64(2), created, at))
	mock.ExpectCommit()

	tr, err := repo.UpdateStatus(context.Background(), id, StatusUpdate{
		Status:          StatusApproved,
		RiskProbability: &p,
		ExpectedVersion: 1,
		At:              at,
	})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if tr.From != StatusPending || tr.Application.Status != StatusApproved || tr.Application.Version != 2 {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoUpdateStatusVersionConflict(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, version FROM loan_applications").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status", "version"}).AddRow("pending", int64(4)))
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), id, StatusUpdate{Status: StatusClosed, ExpectedVersion: 3})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoUpdateStatusNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status, version FROM loan_applications").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), id, StatusUpdate{Status: StatusClosed})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
