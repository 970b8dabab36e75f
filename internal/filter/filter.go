// Package filter produces filtered, ordered views of a deployment record
// sequence. It never mutates its input.
package filter

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"deployhub/internal/deployment"
)

// All matches every status or environment
const All = "all"

// SortKey selects the ordering of the filtered view
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortDuration SortKey = "duration"
)

// SortKeys lists the recognized sort keys in menu order
var SortKeys = []SortKey{SortNewest, SortOldest, SortDuration}

// ErrInvalidCriteria is returned for unrecognized filter options
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Criteria is the user's filter and sort selection
type Criteria struct {
	Status      string  `json:"status"`
	Environment string  `json:"environment"`
	SortBy      SortKey `json:"sortBy"`
	Query       string  `json:"query,omitempty"`
}

// Default returns the criteria that keeps everything, newest first
func Default() Criteria {
	return Criteria{Status: All, Environment: All, SortBy: SortNewest}
}

// ParseCriteria validates raw option values. Empty values take their defaults.
func ParseCriteria(status, environment, sortBy, query string) (Criteria, error) {
	c := Default()
	c.Query = strings.TrimSpace(query)

	if status != "" {
		if status != All && !deployment.Status(status).Known() {
			return Criteria{}, fmt.Errorf("%w: unknown status %q", ErrInvalidCriteria, status)
		}
		c.Status = status
	}

	if environment != "" {
		if environment != All && !deployment.Environment(environment).Known() {
			return Criteria{}, fmt.Errorf("%w: unknown environment %q", ErrInvalidCriteria, environment)
		}
		c.Environment = environment
	}

	if sortBy != "" {
		key := SortKey(sortBy)
		if !slices.Contains(SortKeys, key) {
			return Criteria{}, fmt.Errorf("%w: unknown sort key %q", ErrInvalidCriteria, sortBy)
		}
		c.SortBy = key
	}

	return c, nil
}

// Match reports whether r passes the status, environment and search predicates
func (c Criteria) Match(r deployment.Record) bool {
	if c.Status != "" && c.Status != All && string(r.Status) != c.Status {
		return false
	}
	if c.Environment != "" && c.Environment != All && string(r.Environment) != c.Environment {
		return false
	}
	return c.matchQuery(r)
}

func (c Criteria) matchQuery(r deployment.Record) bool {
	if c.Query == "" {
		return true
	}
	q := strings.ToLower(c.Query)
	for _, field := range []string{r.ProjectName, r.Username, string(r.Environment)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Select returns the records matching c in input order
func Select(records []deployment.Record, c Criteria) []deployment.Record {
	out := make([]deployment.Record, 0, len(records))
	for _, r := range records {
		if c.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a stably sorted copy of records
func Sort(records []deployment.Record, key SortKey) []deployment.Record {
	out := slices.Clone(records)
	if out == nil {
		out = []deployment.Record{}
	}

	switch key {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b deployment.Record) int {
			return a.DeployedAt.Compare(b.DeployedAt)
		})
	case SortDuration:
		slices.SortStableFunc(out, compareDuration)
	default:
		slices.SortStableFunc(out, func(a, b deployment.Record) int {
			return b.DeployedAt.Compare(a.DeployedAt)
		})
	}

	return out
}

// Apply filters then sorts records according to c
func Apply(records []deployment.Record, c Criteria) []deployment.Record {
	return Sort(Select(records, c), c.SortBy)
}

// compareDuration orders longest first; unparseable durations go last
func compareDuration(a, b deployment.Record) int {
	da, errA := deployment.ParseDuration(a.Duration)
	db, errB := deployment.ParseDuration(b.Duration)

	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return cmp.Compare(db, da)
}

