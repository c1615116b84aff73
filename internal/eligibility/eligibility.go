// Package eligibility implements the rule-based pre-qualification check that
// runs before a full risk assessment.
package eligibility

import "strconv"

const (
	MinCreditScore     = 600
	MinAnnualIncome    = 20000
	MinYearsInJob      = 2
	MaxLoanTenureYears = 30
	MinLoanTenureYears = 5
	MaxOtherLoans      = 2
)

const (
	TermsNotEligible       = "Not eligible"
	TermsTenureNotEligible = "Not eligible for this loan tenure"
)

// Input is the applicant data the rules look at.
type Input struct {
	LoanAmount         float64
	CreditScore        float64
	AnnualIncome       float64
	MonthlyDebts       float64
	YearsInJob         float64
	HouseOwned         bool
	LoanPurpose        string
	NumberOfOtherLoans int
	Bankruptcy         bool
	LoanTenure         float64
}

// Result is the outcome of Check.
type Result struct {
	Eligible      bool    `json:"eligible"`
	MaxLoanAmount float64 `json:"maxLoanAmount"`
	LoanTerms     string  `json:"loanTerms"`
}

// Check applies the fixed pre-qualification rules. An applicant who passes
// every rule may borrow the requested amount; tenures under five years are
// still reported as not eligible for that tenure.
func Check(in Input) Result {
	if !passes(in) {
		return Result{LoanTerms: TermsNotEligible}
	}
	terms := TermsTenureNotEligible
	if in.LoanTenure >= MinLoanTenureYears {
		terms = strconv.FormatFloat(in.LoanTenure, 'f', -1, 64) + " years"
	}
	return Result{Eligible: true, MaxLoanAmount: in.LoanAmount, LoanTerms: terms}
}

func passes(in Input) bool {
	return in.CreditScore >= MinCreditScore &&
		in.AnnualIncome >= MinAnnualIncome &&
		in.YearsInJob >= MinYearsInJob &&
		in.LoanTenure <= MaxLoanTenureYears &&
		in.NumberOfOtherLoans <= MaxOtherLoans &&
		!in.Bankruptcy
}
