package eligibility

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/shared/server/respond"
)

type checkRequest struct {
	LoanAmount         *float64 `json:"loanAmount" binding:"required,gte=0"`
	CreditScore        *float64 `json:"creditScore" binding:"required,gte=0"`
	AnnualIncome       *float64 `json:"annualIncome" binding:"required,gte=0"`
	MonthlyDebts       float64  `json:"monthlyDebts" binding:"gte=0"`
	YearsInJob         *float64 `json:"yearsInJob" binding:"required,gte=0"`
	HouseOwned         bool     `json:"houseOwned"`
	LoanPurpose        string   `json:"loanPurpose" binding:"max=256"`
	NumberOfOtherLoans int      `json:"numberOfOtherLoans" binding:"gte=0"`
	Bankruptcy         bool     `json:"bankruptcy"`
	LoanTenure         *float64 `json:"loanTenure" binding:"required,gt=0"`
}

// Handler serves the eligibility check.
type Handler struct{}

// NewHandler constructs a Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// RegisterRoutes attaches the eligibility route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/loan/eligibility", h.check)
}

func (h *Handler) check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	res := Check(Input{
		LoanAmount:         *req.LoanAmount,
		CreditScore:        *req.CreditScore,
		AnnualIncome:       *req.AnnualIncome,
		MonthlyDebts:       req.MonthlyDebts,
		YearsInJob:         *req.YearsInJob,
		HouseOwned:         req.HouseOwned,
		LoanPurpose:        req.LoanPurpose,
		NumberOfOtherLoans: req.NumberOfOtherLoans,
		Bankruptcy:         req.Bankruptcy,
		LoanTenure:         *req.LoanTenure,
	})
	respond.OK(c, gin.H{
		"success":       true,
		"eligible":      res.Eligible,
		"maxLoanAmount": res.MaxLoanAmount,
		"loanTerms":     res.LoanTerms,
	})
}
