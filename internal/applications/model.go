package applications

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a loan application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusClosed   Status = "closed"
)

// ParseStatus accepts the known statuses case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, s)
}

// LoanApplication is one submitted loan application.
type LoanApplication struct {
	ID              string
	ExternalRef     string
	Email           string
	LoanAmount      float64
	CreditScore     float64
	AnnualIncome    float64
	MonthlyDebts    float64
	HouseStatus     string
	YearsInJob      float64
	Status          Status
	RiskProbability *float64
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StatusUpdate describes one status mutation. ExpectedVersion of zero skips
// the version check.
type StatusUpdate struct {
	Status          Status
	RiskProbability *float64
	ExpectedVersion int64
	At              time.Time
}

// Transition is the result of a status mutation.
type Transition struct {
	From        Status
	Application LoanApplication
}
