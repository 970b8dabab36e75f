// Package source provides the record sources that deliver the initial
// deployment records to the dashboard.
package source

import (
	"context"
	"time"

	"deployhub/internal/deployment"
)

// DefaultDelay simulates the latency of fetching deployments from an API
const DefaultDelay = time.Second

// Source delivers an ordered, newest-first sequence of deployment records
type Source interface {
	Load(ctx context.Context) ([]deployment.Record, error)
}

// Static delivers the seed records after Delay
type Static struct {
	Delay time.Duration
	Now   func() time.Time
}

// NewStatic creates a static source with the default delay and the wall clock
func NewStatic() *Static {
	return &Static{Delay: DefaultDelay, Now: time.Now}
}

// Load waits for the simulated fetch delay, then returns the seed records
// with timestamps relative to the moment they are delivered.
func (s *Static) Load(ctx context.Context) ([]deployment.Record, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return Seed(now()), nil
}

// Seed returns the five seed deployments, newest first, relative to now
func Seed(now time.Time) []deployment.Record {
	now = now.UTC()
	return []deployment.Record{
		{
			ID:          1,
			Username:    "sarah_dev",
			ProjectName: "E-commerce Platform",
			DeployedAt:  now.Add(-2 * time.Minute),
			Status:      deployment.StatusSuccess,
			Avatar:      "https://randomuser.me/api/portraits/women/44.jpg",
			Environment: deployment.EnvProduction,
			Duration:    "1m 45s",
		},
		{
			ID:          2,
			Username:    "crypto_wizard",
			ProjectName: "Blockchain Explorer",
			DeployedAt:  now.Add(-5 * time.Minute),
			Status:      deployment.StatusSuccess,
			Avatar:      "https://randomuser.me/api/portraits/men/32.jpg",
			Environment: deployment.EnvStaging,
			Duration:    "2m 12s",
		},
		{
			ID:          3,
			Username:    "dev_ninja",
			ProjectName: "AI Image Generator",
			DeployedAt:  now.Add(-10 * time.Minute),
			Status:      deployment.StatusInProgress,
			Avatar:      "https://randomuser.me/api/portraits/women/68.jpg",
			Environment: deployment.EnvDevelopment,
			Duration:    "3m 10s",
		},
		{
			ID:          4,
			Username:    "code_master",
			ProjectName: "Task Management App",
			DeployedAt:  now.Add(-20 * time.Minute),
			Status:      deployment.StatusFailed,
			Avatar:      "https://randomuser.me/api/portraits/men/75.jpg",
			Environment: deployment.EnvProduction,
			Duration:    "0m 58s",
		},
		{
			ID:          5,
			Username:    "web3_enthusiast",
			ProjectName: "NFT Marketplace",
			DeployedAt:  now.Add(-30 * time.Minute),
			Status:      deployment.StatusSuccess,
			Avatar:      "https://randomuser.me/api/portraits/women/90.jpg",
			Environment: deployment.EnvProduction,
			Duration:    "4m 22s",
		},
	}
}
