package deployment

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		input    string
		expected Status
	}{
		{"success", StatusSuccess},
		{"in_progress", StatusInProgress},
		{"failed", StatusFailed},
		{"pending", StatusUnknown},
		{"", StatusUnknown},
		{"SUCCESS", StatusUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseStatus(tc.input); got != tc.expected {
				t.Errorf("ParseStatus(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	testCases := []struct {
		input    string
		expected Environment
	}{
		{"production", EnvProduction},
		{"staging", EnvStaging},
		{"development", EnvDevelopment},
		{"qa", EnvUnknown},
		{"", EnvUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := ParseEnvironment(tc.input); got != tc.expected {
				t.Errorf("ParseEnvironment(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestRecord_UnmarshalUnknownEnums(t *testing.T) {
	data := []byte(`{"id":7,"status":"exploded","environment":"moon","duration":"1m 2s"}`)

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Failed to unmarshal record: %v", err)
	}

	if rec.Status != StatusUnknown {
		t.Errorf("Expected unknown status, got %q", rec.Status)
	}
	if rec.Environment != EnvUnknown {
		t.Errorf("Expected unknown environment, got %q", rec.Environment)
	}
	if rec.Status.Label() != "Unknown" {
		t.Errorf("Expected label 'Unknown', got %q", rec.Status.Label())
	}
	if rec.Status.Color() == "" || rec.Environment.Color() == "" {
		t.Error("Unknown values must still have a color")
	}
}

func TestRecord_UnmarshalRejectsNonString(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"status":5}`), &rec); err == nil {
		t.Error("Expected error for numeric status")
	}
}

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"4m 22s", 4*time.Minute + 22*time.Second, false},
		{"0m 58s", 58 * time.Second, false},
		{"10m 0s", 10 * time.Minute, false},
		{" 1m  5s ", time.Minute + 5*time.Second, false},
		{"4:22", 0, true},
		{"", 0, true},
		{"m s", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseDuration(tc.input)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tc.input, err, tc.wantErr)
			}
			if got != tc.expected {
				t.Errorf("ParseDuration(%q) = %v, expected %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(4*time.Minute + 22*time.Second); got != "4m 22s" {
		t.Errorf("Expected '4m 22s', got %q", got)
	}
	if got := FormatDuration(-time.Second); got != "0m 0s" {
		t.Errorf("Expected '0m 0s' for negative duration, got %q", got)
	}

	d, err := ParseDuration(FormatDuration(125 * time.Second))
	if err != nil || d != 125*time.Second {
		t.Errorf("Expected round trip of 125s, got %v (err %v)", d, err)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		ago      time.Duration
		expected string
	}{
		{"just now", 0, "0 seconds ago"},
		{"seconds", 45 * time.Second, "45 seconds ago"},
		{"minute boundary", 60 * time.Second, "1 minutes ago"},
		{"minutes", 20 * time.Minute, "20 minutes ago"},
		{"hours", 3 * time.Hour, "3 hours ago"},
		{"days", 50 * time.Hour, "2 days ago"},
		{"future", -time.Minute, "0 seconds ago"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativeTime(now.Add(-tc.ago), now); got != tc.expected {
				t.Errorf("RelativeTime = %q, expected %q", got, tc.expected)
			}
		})
	}
}

func TestStatus_Presentation(t *testing.T) {
	testCases := []struct {
		status Status
		label  string
		class  string
	}{
		{StatusSuccess, "Successful", "status-success"},
		{StatusInProgress, "In Progress", "status-in-progress"},
		{StatusFailed, "Failed", "status-failed"},
		{Status("bogus"), "Unknown", "status-unknown"},
	}

	for _, tc := range testCases {
		if got := tc.status.Label(); got != tc.label {
			t.Errorf("%q.Label() = %q, expected %q", tc.status, got, tc.label)
		}
		if got := tc.status.Class(); got != tc.class {
			t.Errorf("%q.Class() = %q, expected %q", tc.status, got, tc.class)
		}
	}

	if EnvStaging.Class() != "environment-staging" {
		t.Errorf("Unexpected staging class %q", EnvStaging.Class())
	}
	if Environment("moon").Label() != "unknown" {
		t.Errorf("Expected unknown environment label, got %q", Environment("moon").Label())
	}
}

func TestRecord_LogLines(t *testing.T) {
	rec := Record{Status: StatusSuccess, Environment: EnvStaging, Duration: "2m 12s"}
	lines := rec.LogLines()
	if len(lines) != 11 {
		t.Fatalf("Expected 11 success log lines, got %d", len(lines))
	}
	if lines[7].Text != "Deploying to staging..." {
		t.Errorf("Unexpected deploy line %q", lines[7].Text)
	}
	if last := lines[len(lines)-1].String(); last != "[INFO] Deployment process finished in 2m 12s" {
		t.Errorf("Unexpected last line %q", last)
	}

	rec.Status = StatusInProgress
	if lines := rec.LogLines(); len(lines) != 5 || lines[4].Text != "Build in progress..." {
		t.Errorf("Unexpected in-progress log: %v", lines)
	}

	rec.Status = StatusFailed
	lines = rec.LogLines()
	if len(lines) != 7 {
		t.Fatalf("Expected 7 failed log lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[6].String(), "[FAILED] Deployment failed after 2m 12s") {
		t.Errorf("Unexpected failure line %q", lines[6].String())
	}

	rec.Status = StatusUnknown
	if lines := rec.LogLines(); len(lines) != 1 {
		t.Errorf("Expected a single line for unknown status, got %d", len(lines))
	}
}

func TestRecord_Actions(t *testing.T) {
	failed := Record{Status: StatusFailed}.Actions()
	if len(failed) != 3 || failed[1] != "Retry Deployment" {
		t.Errorf("Expected retry action for failed deployment, got %v", failed)
	}

	ok := Record{Status: StatusSuccess}.Actions()
	for _, a := range ok {
		if a == "Retry Deployment" {
			t.Error("Retry must only be offered for failed deployments")
		}
	}
}
