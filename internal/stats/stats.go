// Package stats reduces a sequence of deployment records into the counts and
// success rate shown on the dashboard cards.
package stats

import (
	"math"

	"deployhub/internal/deployment"
)

// HealthyRate is the success rate at or above which the dashboard reports
// "Excellent".
const HealthyRate = 80

// Stats is the aggregate view of a record sequence
type Stats struct {
	Total           int `json:"total"`
	SuccessCount    int `json:"successCount"`
	FailedCount     int `json:"failedCount"`
	InProgressCount int `json:"inProgressCount"`
	UnknownCount    int `json:"unknownCount"`
	SuccessRate     int `json:"successRate"`
}

// Compute aggregates records. It has no side effects and never divides by zero.
func Compute(records []deployment.Record) Stats {
	s := Stats{Total: len(records)}

	for _, r := range records {
		switch r.Status {
		case deployment.StatusSuccess:
			s.SuccessCount++
		case deployment.StatusFailed:
			s.FailedCount++
		case deployment.StatusInProgress:
			s.InProgressCount++
		default:
			s.UnknownCount++
		}
	}

	if s.Total > 0 {
		s.SuccessRate = int(math.Round(float64(s.SuccessCount) / float64(s.Total) * 100))
	}

	return s
}

// Ratio returns count as a percentage of the total, 0 for an empty sequence
func (s Stats) Ratio(count int) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(count) / float64(s.Total) * 100
}

// Healthy reports whether the success rate meets HealthyRate
func (s Stats) Healthy() bool {
	return s.SuccessRate >= HealthyRate
}

// Health is the text shown next to the success rate
func (s Stats) Health() string {
	if s.Healthy() {
		return "Excellent"
	}
	return "Needs improvement"
}
