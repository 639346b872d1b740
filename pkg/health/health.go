// Package health runs registered component checks concurrently and serves
// the aggregate as liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

type Status string

const (
	StatusUp       Status = "up"
	StatusDown     Status = "down"
	StatusDegraded Status = "degraded"
)

// Check probes a single dependency.
type Check func(ctx context.Context) ComponentHealth

type ComponentHealth struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Report struct {
	Status     Status                     `json:"status"`
	Components map[string]ComponentHealth `json:"components"`
	Timestamp  string                     `json:"timestamp"`
}

type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// PingCheck adapts a ping function. A failing critical dependency reports
// down; a failing optional one reports degraded.
func PingCheck(ping func(ctx context.Context) error, critical bool) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := ping(ctx); err != nil {
			status := StatusDegraded
			if critical {
				status = StatusDown
			}
			return ComponentHealth{Status: status, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// IndexCheck reports up once the index is frozen and holds documents.
func IndexCheck(docCount func() int) Check {
	return func(ctx context.Context) ComponentHealth {
		n := docCount()
		if n == 0 {
			return ComponentHealth{Status: StatusDown, Message: "index is empty"}
		}
		return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d documents", n)}
	}
}

// Run executes all checks concurrently. The overall status is the worst
// component status.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.RUnlock()

	report := Report{
		Status:     StatusUp,
		Components: make(map[string]ComponentHealth, len(checks)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			result := check(ctx)
			result.Latency = time.Since(start).Round(time.Millisecond).String()
			mu.Lock()
			report.Components[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()

	for _, comp := range report.Components {
		switch comp.Status {
		case StatusDown:
			report.Status = StatusDown
		case StatusDegraded:
			if report.Status == StatusUp {
				report.Status = StatusDegraded
			}
		}
	}
	return report
}

func (c *Checker) LiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}
}

// ReadyHandler answers 200 while queries can be served, which includes the
// degraded state, and 503 otherwise.
func (c *Checker) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		report := c.Run(ctx)
		w.Header().Set("Content-Type", "application/json")
		if report.Status == StatusDown {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	}
}
