package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"deployhub/internal/deployment"
)

// DefaultInterval is how often a synthetic deployment arrives
const DefaultInterval = 15 * time.Second

// Hook is called with every record the simulator appends
type Hook func(ctx context.Context, r deployment.Record)

// Simulator periodically generates a record and prepends it to a feed.
// Start acquires the ticker; Stop releases it and waits for the goroutine.
type Simulator struct {
	Feed      *Feed
	Generator *Generator
	Interval  time.Duration
	Logger    *slog.Logger

	mu     sync.Mutex
	hooks  []Hook
	cancel context.CancelFunc
	run    uint64
	wg     sync.WaitGroup
}

// NewSimulator creates a simulator appending to f every interval
func NewSimulator(f *Feed, gen *Generator, interval time.Duration, logger *slog.Logger) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Simulator{
		Feed:      f,
		Generator: gen,
		Interval:  interval,
		Logger:    logger,
	}
}

// OnRecord registers a hook run after each append, in registration order
func (s *Simulator) OnRecord(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hooks = append(s.hooks, h)
}

// Start begins generating records. It is a no-op if already running.
// Cancelling ctx stops the simulator as Stop does.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.run++
	run := s.run

	ticker := time.NewTicker(s.Interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		defer s.finish(run, cancel)

		s.Logger.Info("Simulator started", "interval", s.Interval.String())
		for {
			select {
			case <-ctx.Done():
				s.Logger.Info("Simulator stopped")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// finish clears the running state when the loop exits on its own, so a
// cancelled parent context leaves the simulator restartable
func (s *Simulator) finish(run uint64, cancel context.CancelFunc) {
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == run {
		s.cancel = nil
	}
}

// Tick generates one record, prepends it to the feed and runs the hooks
func (s *Simulator) Tick(ctx context.Context) deployment.Record {
	r := s.Generator.Next()
	s.Feed.Prepend(r)

	s.Logger.Debug("Synthetic deployment generated",
		"id", r.ID,
		"project", r.ProjectName,
		"status", r.Status,
		"environment", r.Environment)

	s.mu.Lock()
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	for _, h := range hooks {
		h(ctx, r)
	}
	return r
}

// Stop cancels the simulator and waits for it to exit. It is safe to call
// more than once and before Start.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Running reports whether Start has been called without a matching Stop
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cancel != nil
}
