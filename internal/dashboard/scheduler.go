package dashboard

import (
	"sync"
	"time"

	"trade-dashboard-sync/internal/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Cycle is one auto-refresh period starting at Start.
type Cycle struct {
	Start    time.Time
	Interval time.Duration
}

// Remaining is the time left in the cycle at now, never negative.
func (c Cycle) Remaining(now time.Time) time.Duration {
	remaining := c.Interval - now.Sub(c.Start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Countdown is the display projection of the scheduler at a point in time.
type Countdown struct {
	Enabled   bool          `json:"enabled"`
	Interval  time.Duration `json:"-"`
	Remaining time.Duration `json:"-"`
	// Progress runs from 0 at the start of a cycle to 1 at its boundary.
	Progress float64 `json:"progress"`
}

// Scheduler owns the auto-refresh setting and the timer that fires refresh cycles.
// The fire callback runs on the timer's goroutine, outside the scheduler's lock.
type Scheduler struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	logger *zap.Logger

	enabled     bool
	interval    time.Duration
	cycleStart  time.Time
	lastSuccess time.Time

	fire       func()
	timer      clockwork.Timer
	generation uint64
	stopped    bool
}

// NewScheduler validates the initial configuration. The timer is not armed until Start.
func NewScheduler(clock clockwork.Clock, cfg models.RefreshConfig, logger *zap.Logger) (*Scheduler, error) {
	if !models.IsAllowedInterval(cfg.Interval) {
		return nil, NewValidationError("refresh interval %dms is not one of the allowed intervals", cfg.Interval.Milliseconds())
	}
	return &Scheduler{
		clock:      clock,
		logger:     logger,
		enabled:    cfg.Enabled,
		interval:   cfg.Interval,
		cycleStart: clock.Now(),
	}, nil
}

// Start installs the callback and, if enabled, begins the first cycle now.
func (s *Scheduler) Start(fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fire = fire
	s.armAt(s.clock.Now())
}

// Stop cancels the pending timer for good.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.disarm()
}

// Config returns the current setting.
func (s *Scheduler) Config() models.RefreshConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.RefreshConfig{Enabled: s.enabled, Interval: s.interval}
}

// Toggle flips auto-refresh and returns the new value. Disabling cancels the pending
// cycle; enabling starts a fresh one.
func (s *Scheduler) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = !s.enabled
	if s.enabled {
		s.armAt(s.clock.Now())
	} else {
		s.disarm()
	}
	s.logger.Info("Auto-refresh toggled", zap.Bool("enabled", s.enabled))
	return s.enabled
}

// SetEnabled sets auto-refresh to enabled, restarting the cycle when it changes.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if enabled {
		s.armAt(s.clock.Now())
	} else {
		s.disarm()
	}
}

// SetInterval changes the cycle length. The cycle clock restarts at the change.
func (s *Scheduler) SetInterval(d time.Duration) error {
	if !models.IsAllowedInterval(d) {
		return NewValidationError("refresh interval %dms is not one of the allowed intervals", d.Milliseconds())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
	s.cycleStart = s.clock.Now()
	if s.enabled {
		s.armAt(s.cycleStart)
	}
	s.logger.Info("Auto-refresh interval changed", zap.Duration("interval", d))
	return nil
}

// MarkSuccess records when a fetch last succeeded.
func (s *Scheduler) MarkSuccess(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSuccess = t
}

// LastSuccess returns the last recorded successful fetch time.
func (s *Scheduler) LastSuccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSuccess
}

// Countdown projects the current cycle at now. It has no side effects; reaching zero
// does not trigger anything.
func (s *Scheduler) Countdown(now time.Time) Countdown {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Countdown{Enabled: s.enabled, Interval: s.interval}
	if !s.enabled {
		return c
	}
	c.Remaining = Cycle{Start: s.cycleStart, Interval: s.interval}.Remaining(now)
	c.Progress = 1 - float64(c.Remaining)/float64(s.interval)
	return c
}

// armAt starts a cycle at start and schedules its boundary. Caller holds s.mu.
func (s *Scheduler) armAt(start time.Time) {
	s.disarm()
	s.cycleStart = start
	if !s.enabled || s.stopped || s.fire == nil {
		return
	}

	s.generation++
	gen := s.generation
	delay := start.Add(s.interval).Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	s.timer = s.clock.AfterFunc(delay, func() { s.onBoundary(gen) })
}

// disarm cancels the pending timer. Caller holds s.mu.
func (s *Scheduler) disarm() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) onBoundary(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.enabled || s.stopped {
		// Cancelled after the timer already fired.
		s.mu.Unlock()
		return
	}
	fire := s.fire
	// Next boundary is computed from this one, not from when the callback ran.
	s.armAt(s.cycleStart.Add(s.interval))
	s.mu.Unlock()

	fire()
}
