package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRunAggregatesWorstStatus(t *testing.T) {
	down := errors.New("connection refused")
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
		code   int
	}{
		{"all up", map[string]Check{
			"index": IndexCheck(func() int { return 3 }),
			"redis": PingCheck(func(context.Context) error { return nil }, false),
		}, StatusUp, http.StatusOK},
		{"optional down", map[string]Check{
			"index": IndexCheck(func() int { return 3 }),
			"redis": PingCheck(func(context.Context) error { return down }, false),
		}, StatusDegraded, http.StatusOK},
		{"critical down", map[string]Check{
			"index":    IndexCheck(func() int { return 3 }),
			"redis":    PingCheck(func(context.Context) error { return down }, false),
			"postgres": PingCheck(func(context.Context) error { return down }, true),
		}, StatusDown, http.StatusServiceUnavailable},
		{"empty index", map[string]Check{
			"index": IndexCheck(func() int { return 0 }),
		}, StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			report := c.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("status = %s, want %s (%+v)", report.Status, tt.want, report.Components)
			}
			if len(report.Components) != len(tt.checks) {
				t.Errorf("components = %d, want %d", len(report.Components), len(tt.checks))
			}

			rec := httptest.NewRecorder()
			c.ReadyHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			if rec.Code != tt.code {
				t.Errorf("ready code = %d, want %d", rec.Code, tt.code)
			}
			var decoded Report
			if err := json.NewDecoder(rec.Body).Decode(&decoded); err != nil {
				t.Fatalf("decoding report: %v", err)
			}
			if decoded.Status != tt.want {
				t.Errorf("served status = %s", decoded.Status)
			}
		})
	}
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("code = %d", rec.Code)
	}
}
