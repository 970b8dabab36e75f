// Package deployment defines the deployment record shown by the dashboard
// and the presentation helpers derived from it.
package deployment

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of a deployment
type Status string

const (
	StatusSuccess    Status = "success"
	StatusInProgress Status = "in_progress"
	StatusFailed     Status = "failed"
	StatusUnknown    Status = "unknown"
)

// Environment is the target environment of a deployment
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvStaging     Environment = "staging"
	EnvDevelopment Environment = "development"
	EnvUnknown     Environment = "unknown"
)

// Statuses lists the recognized statuses in chart order
var Statuses = []Status{StatusSuccess, StatusInProgress, StatusFailed}

// Environments lists the recognized environments
var Environments = []Environment{EnvProduction, EnvStaging, EnvDevelopment}

// Record is a single deployment event shown on the dashboard.
// Records are values; nothing in this module mutates a record once created.
type Record struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	ProjectName string      `json:"projectName"`
	DeployedAt  time.Time   `json:"deployedAt"`
	Status      Status      `json:"status"`
	Environment Environment `json:"environment"`
	Duration    string      `json:"duration"`
	Avatar      string      `json:"avatar"`
}

// ParseStatus maps a raw value to a Status. Unrecognized values map to
// StatusUnknown.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusSuccess, StatusInProgress, StatusFailed:
		return Status(s)
	default:
		return StatusUnknown
	}
}

// ParseEnvironment maps a raw value to an Environment. Unrecognized values
// map to EnvUnknown.
func ParseEnvironment(s string) Environment {
	switch Environment(s) {
	case EnvProduction, EnvStaging, EnvDevelopment:
		return Environment(s)
	default:
		return EnvUnknown
	}
}

// Known reports whether s is one of the recognized statuses
func (s Status) Known() bool {
	return ParseStatus(string(s)) != StatusUnknown
}

// Known reports whether e is one of the recognized environments
func (e Environment) Known() bool {
	return ParseEnvironment(string(e)) != EnvUnknown
}

// UnmarshalJSON decodes a status, degrading unrecognized values to unknown.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	*s = ParseStatus(raw)
	return nil
}

// UnmarshalJSON decodes an environment, degrading unrecognized values to unknown.
func (e *Environment) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("environment must be a string: %w", err)
	}
	*e = ParseEnvironment(raw)
	return nil
}
