package risk

type scoreRequest struct {
	HomeOwnership string   `json:"home_ownership" binding:"required"`
	LoanAmount    *float64 `json:"loan_amount" binding:"required"`
	CreditScore   *float64 `json:"credit_score" binding:"required"`
	AnnualIncome  *float64 `json:"annual_income" binding:"required"`
	MonthlyDebt   *float64 `json:"monthly_debt" binding:"required"`
	YearsInJob    *float64 `json:"years_in_job_numeric" binding:"required"`
}

func (r scoreRequest) toProfile() (ApplicantProfile, error) {
	home, err := ParseHomeOwnership(r.HomeOwnership)
	if err != nil {
		return ApplicantProfile{}, err
	}
	return ApplicantProfile{
		HomeOwnership: home,
		LoanAmount:    *r.LoanAmount,
		CreditScore:   *r.CreditScore,
		AnnualIncome:  *r.AnnualIncome,
		MonthlyDebt:   *r.MonthlyDebt,
		YearsInJob:    *r.YearsInJob,
	}, nil
}

type scoreResponse struct {
	Probability float64 `json:"probability"`
	Prediction  string  `json:"prediction"`
}
