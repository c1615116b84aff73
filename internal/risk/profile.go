package risk

import (
	"fmt"
	"math"
	"strings"
)

// HomeOwnership is the categorical home-ownership feature. Values are the
// category indices the model was trained with.
type HomeOwnership int

const (
	HomeRent     HomeOwnership = 0
	HomeMortgage HomeOwnership = 1
	HomeOwn      HomeOwnership = 2
)

// String returns the canonical category name.
func (h HomeOwnership) String() string {
	switch h {
	case HomeRent:
		return "Rent"
	case HomeMortgage:
		return "Home Mortgage"
	case HomeOwn:
		return "Own Home"
	default:
		return fmt.Sprintf("HomeOwnership(%d)", int(h))
	}
}

// ParseHomeOwnership maps a category name to its index. Both the short names
// (Own, Mortgage, Rent) and the training-set labels (Own Home, Home Mortgage) are accepted.
func ParseHomeOwnership(raw string) (HomeOwnership, error) {
	switch strings.ToLower(strings.Join(strings.Fields(raw), " ")) {
	case "rent":
		return HomeRent, nil
	case "mortgage", "home mortgage":
		return HomeMortgage, nil
	case "own", "own home":
		return HomeOwn, nil
	default:
		return 0, fmt.Errorf("%w: unknown home ownership %q", ErrInvalidInput, raw)
	}
}

// ApplicantProfile is the immutable input to scoring.
type ApplicantProfile struct {
	HomeOwnership HomeOwnership
	LoanAmount    float64
	CreditScore   float64
	AnnualIncome  float64
	MonthlyDebt   float64
	YearsInJob    float64
}

// Validate checks the category range and that every numeric field is finite.
func (p ApplicantProfile) Validate() error {
	if p.HomeOwnership < HomeRent || p.HomeOwnership > HomeOwn {
		return fmt.Errorf("%w: home ownership index %d", ErrInvalidInput, int(p.HomeOwnership))
	}
	fields := []struct {
		name  string
		value float64
	}{
		{"loan_amount", p.LoanAmount},
		{"credit_score", p.CreditScore},
		{"annual_income", p.AnnualIncome},
		{"monthly_debt", p.MonthlyDebt},
		{"years_in_job_numeric", p.YearsInJob},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInput, f.name)
		}
	}
	return nil
}

// categorical returns the categorical feature vector.
func (p ApplicantProfile) categorical() []int {
	return []int{int(p.HomeOwnership)}
}

// continuous returns the continuous features in the positional order the
// model weights expect: loan amount, credit score, annual income, monthly debt, years in job.
func (p ApplicantProfile) continuous() []float64 {
	return []float64{p.LoanAmount, p.CreditScore, p.AnnualIncome, p.MonthlyDebt, p.YearsInJob}
}
