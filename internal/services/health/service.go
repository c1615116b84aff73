package health

import (
	"context"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the health payload.
type Report struct {
	OK       bool              `json:"ok"`
	Database string            `json:"database"`
	Model    string            `json:"model,omitempty"`
	Checks   map[string]string `json:"checks,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB           Pinger
	ModelVersion string
	Timeout      time.Duration
}

// NewService constructs a new health service. db may be nil when the
// process runs on in-memory repositories.
func NewService(db Pinger, modelVersion string) *Service {
	return &Service{DB: db, ModelVersion: modelVersion, Timeout: 2 * time.Second}
}

// Status checks the database, if any, within the configured timeout.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Database: "memory", Model: s.ModelVersion}
	if s.DB == nil {
		return r
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		r.Checks = map[string]string{"database": err.Error()}
		return r
	}
	r.Database = "ok"
	return r
}
