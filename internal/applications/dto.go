package applications

import "time"

type createRequest struct {
	ExternalRef  string  `json:"loan_application_id"`
	Email        string  `json:"email"`
	LoanAmount   float64 `json:"loanAmount"`
	CreditScore  float64 `json:"creditScore"`
	AnnualIncome float64 `json:"annualIncome"`
	MonthlyDebts float64 `json:"monthlyDebts"`
	HouseStatus  string  `json:"houseStatus"`
	YearsInJob   float64 `json:"yearsInJob"`
	Status       string  `json:"status"`
}

func (r createRequest) input() CreateInput {
	return CreateInput{
		ExternalRef:  r.ExternalRef,
		Email:        r.Email,
		LoanAmount:   r.LoanAmount,
		CreditScore:  r.CreditScore,
		AnnualIncome: r.AnnualIncome,
		MonthlyDebts: r.MonthlyDebts,
		HouseStatus:  r.HouseStatus,
		YearsInJob:   r.YearsInJob,
		Status:       r.Status,
	}
}

type updateStatusRequest struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

// ApplicationResponse is the JSON view of a LoanApplication.
type ApplicationResponse struct {
	ID              string    `json:"id"`
	ExternalRef     string    `json:"loan_application_id,omitempty"`
	Email           string    `json:"email,omitempty"`
	LoanAmount      float64   `json:"loanAmount"`
	CreditScore     float64   `json:"creditScore"`
	AnnualIncome    float64   `json:"annualIncome"`
	MonthlyDebts    float64   `json:"monthlyDebts"`
	HouseStatus     string    `json:"houseStatus,omitempty"`
	YearsInJob      float64   `json:"yearsInJob"`
	Status          string    `json:"status"`
	RiskProbability *float64  `json:"riskProbability,omitempty"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toApplicationResponse(app LoanApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:              app.ID,
		ExternalRef:     app.ExternalRef,
		Email:           app.Email,
		LoanAmount:      app.LoanAmount,
		CreditScore:     app.CreditScore,
		AnnualIncome:    app.AnnualIncome,
		MonthlyDebts:    app.MonthlyDebts,
		HouseStatus:     app.HouseStatus,
		YearsInJob:      app.YearsInJob,
		Status:          string(app.Status),
		RiskProbability: app.RiskProbability,
		Version:         app.Version,
		CreatedAt:       app.CreatedAt,
		UpdatedAt:       app.UpdatedAt,
	}
}
