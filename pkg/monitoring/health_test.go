package monitoring

import (
	"testing"
)

func TestCheckHealthAggregation(t *testing.T) {
	tests := []struct {
		name    string
		results []string
		want    string
	}{
		{"all healthy", []string{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []string{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []string{StatusDegraded, StatusUnhealthy}, StatusUnhealthy},
		{"unknown status counts as unhealthy", []string{"weird"}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			hc := NewHealthChecker("mti", "test")
			for i, status := range tc.results {
				status := status
				hc.AddCheck(string(rune('a'+i)), func() CheckResult {
					return CheckResult{Status: status}
				})
			}

			got := hc.CheckHealth()
			if got.Status != tc.want {
				t.Fatalf("CheckHealth status = %q, want %q", got.Status, tc.want)
			}
			if len(got.Checks) != len(tc.results) {
				t.Fatalf("expected %d check results, got %d", len(tc.results), len(got.Checks))
			}
		})
	}
}

func TestConfigurationHealthCheck(t *testing.T) {
	check := ConfigurationHealthCheck(map[string]string{"DATABASE_URL": "postgres://x"})
	if result := check(); result.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", result.Status)
	}

	check = ConfigurationHealthCheck(map[string]string{"DATABASE_URL": ""})
	if result := check(); result.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy for missing config, got %s", result.Status)
	}
}
