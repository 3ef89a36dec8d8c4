// Package health aggregates component availability checks for the
// readiness endpoint.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	content Pinger
	cache   Pinger
	backend Pinger
}

// New creates a Service. cache and backend can be nil; search keeps
// working without either, so they only degrade the report.
func New(content, cache, backend Pinger) *Service {
	return &Service{content: content, cache: cache, backend: backend}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	run := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			checks[name] = CheckError
		} else {
			checks[name] = CheckOK
		}
	}

	run("content_db", s.content)
	run("cache", s.cache)
	run("search_backend", s.backend)

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
