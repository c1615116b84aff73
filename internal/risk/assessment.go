package risk

// Decision is the binary outcome of a risk assessment.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Assessment is the probability and decision produced for one profile.
type Assessment struct {
	Probability float64  `json:"probability"`
	Decision    Decision `json:"decision"`
}

// Prediction renders the decision the way the scoring endpoint reports it.
func (a Assessment) Prediction() string {
	if a.Decision == DecisionApprove {
		return "Yes"
	}
	return "No"
}
