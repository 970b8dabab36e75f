package deployment

import (
	"fmt"
	"time"
)

// Fallback color for anything the dashboard does not recognize
const unknownColor = "#9CA3AF"

// Label returns the human-readable status badge text
func (s Status) Label() string {
	switch s {
	case StatusSuccess:
		return "Successful"
	case StatusInProgress:
		return "In Progress"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Color returns the hex color used for the status dot and badge
func (s Status) Color() string {
	switch s {
	case StatusSuccess:
		return "#10B981"
	case StatusInProgress:
		return "#F59E0B"
	case StatusFailed:
		return "#EF4444"
	default:
		return unknownColor
	}
}

// Class returns the CSS class of the status badge
func (s Status) Class() string {
	switch s {
	case StatusSuccess:
		return "status-success"
	case StatusInProgress:
		return "status-in-progress"
	case StatusFailed:
		return "status-failed"
	default:
		return "status-unknown"
	}
}

// Label returns the environment badge text
func (e Environment) Label() string {
	if !e.Known() {
		return string(EnvUnknown)
	}
	return string(e)
}

// Color returns the hex color of the environment badge
func (e Environment) Color() string {
	switch e {
	case EnvProduction:
		return "#8B5CF6"
	case EnvStaging:
		return "#3B82F6"
	case EnvDevelopment:
		return "#06B6D4"
	default:
		return unknownColor
	}
}

// Class returns the CSS class of the environment badge
func (e Environment) Class() string {
	switch e {
	case EnvProduction:
		return "environment-production"
	case EnvStaging:
		return "environment-staging"
	case EnvDevelopment:
		return "environment-development"
	default:
		return "environment-unknown"
	}
}

// RelativeTime renders how long ago t happened relative to now.
// Timestamps in the future are reported as "0 seconds ago".
func RelativeTime(t, now time.Time) string {
	diff := int64(now.Sub(t) / time.Second)
	if diff < 0 {
		diff = 0
	}

	switch {
	case diff < 60:
		return fmt.Sprintf("%d seconds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%d minutes ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%d hours ago", diff/3600)
	default:
		return fmt.Sprintf("%d days ago", diff/86400)
	}
}
