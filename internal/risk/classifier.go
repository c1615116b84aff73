package risk

import (
	"context"
	"errors"
	"time"

	"loangate-backend/internal/shared/metrics"
	"loangate-backend/internal/shared/telemetry"
)

// DefaultThreshold is the probability a profile must exceed to be approved.
const DefaultThreshold = 0.5

// Classifier scores applicant profiles against a loaded model.
type Classifier struct {
	Model     *ModelContext
	Threshold float64
	Cache     Cache
	CacheTTL  time.Duration
}

// Score runs inference for one profile. A score is approved only when the
// probability is strictly greater than the threshold.
func (c *Classifier) Score(ctx context.Context, p ApplicantProfile) (Assessment, error) {
	if c == nil || c.Model == nil {
		return Assessment{}, ErrModelUnavailable
	}
	if err := p.Validate(); err != nil {
		return Assessment{}, err
	}

	key := ""
	if c.Cache != nil {
		key = cacheKey(c.Model.Fingerprint(), p)
		cached, ok, err := c.Cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RiskCacheLookupsTotal.WithLabelValues("error").Inc()
			telemetry.Warn("risk.cache_get_failed", map[string]any{"error": err})
		case ok:
			metrics.RiskCacheLookupsTotal.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.RiskCacheLookupsTotal.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	prob, err := c.Model.Probability(p.categorical(), p.continuous())
	metrics.RiskInferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Assessment{}, err
	}

	threshold := c.Threshold
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	a := Assessment{Probability: prob, Decision: DecisionReject}
	if prob > threshold {
		a.Decision = DecisionApprove
	}
	metrics.RiskScoresTotal.WithLabelValues(string(a.Decision)).Inc()

	if c.Cache != nil {
		if err := c.Cache.Set(ctx, key, a, c.CacheTTL); err != nil && !errors.Is(err, context.Canceled) {
			telemetry.Warn("risk.cache_set_failed", map[string]any{"error": err})
		}
	}
	return a, nil
}
