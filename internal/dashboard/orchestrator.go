package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"trade-dashboard-sync/internal/config"
	"trade-dashboard-sync/internal/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// API is everything the orchestrator calls on the analytics backend.
type API interface {
	HealthChecker
	SnapshotAPI
}

// PreferenceStore persists the user's dashboard settings. Load returns nil, nil when
// nothing has been saved yet.
type PreferenceStore interface {
	Load() (*models.Preferences, error)
	Save(prefs *models.Preferences) error
}

// View is an immutable copy of the dashboard state handed to readers.
type View struct {
	Snapshot      *models.DashboardSnapshot `json:"snapshot"`
	IsLoading     bool                      `json:"is_loading"`
	LastError     *Error                    `json:"last_error"`
	Connectivity  ConnectivityState         `json:"connectivity"`
	LastUpdatedAt time.Time                 `json:"last_updated_at"`
	ReferenceDate time.Time                 `json:"reference_date"`
	Refresh       models.RefreshConfig      `json:"refresh"`
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

// WithPreferenceStore enables saving and restoring user settings.
func WithPreferenceStore(store PreferenceStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

type request struct {
	seq           uint64
	referenceDate time.Time
}

// Orchestrator keeps the dashboard state consistent across health checks, snapshot
// fetches, scheduled refreshes and user input. All state sits behind mu; network
// calls run in their own goroutines and re-enter through complete.
type Orchestrator struct {
	logger        *zap.Logger
	clock         clockwork.Clock
	store         PreferenceStore
	monitor       *Monitor
	selector      *Selector
	scheduler     *Scheduler
	healthRecheck bool

	mu            sync.Mutex
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	referenceDate time.Time
	snapshot      *models.DashboardSnapshot
	lastError     *Error
	lastUpdated   time.Time
	pending       *request
	seq           uint64
	checking      bool
	started       bool
	closed        bool
	subscribers   map[uint64]chan View
	nextSubID     uint64
}

// NewOrchestrator wires the monitor, selector and scheduler over api. The initial
// refresh setting comes from cfg.Refresh and must use an allowed interval.
func NewOrchestrator(logger *zap.Logger, cfg *config.Config, api API, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		logger:        logger,
		clock:         clockwork.NewRealClock(),
		healthRecheck: cfg.API.HealthRecheck,
		subscribers:   make(map[uint64]chan View),
	}
	for _, opt := range opts {
		opt(o)
	}

	refresh := models.RefreshConfig{
		Enabled:  cfg.Refresh.Enabled,
		Interval: time.Duration(cfg.Refresh.IntervalMs) * time.Millisecond,
	}
	scheduler, err := NewScheduler(o.clock, refresh, logger.Named("scheduler"))
	if err != nil {
		return nil, err
	}

	o.scheduler = scheduler
	o.monitor = NewMonitor(api, cfg.API.BaseURL, logger.Named("monitor"))
	o.selector = NewSelector(api, cfg.Analysis, logger.Named("selector"))
	o.referenceDate = DefaultReferenceDate(o.clock.Now())
	o.ctx, o.cancel = context.WithCancel(context.Background())
	return o, nil
}

// DefaultReferenceDate is the UTC calendar date one month before now.
func DefaultReferenceDate(now time.Time) time.Time {
	return models.DateOf(now.UTC().AddDate(0, -1, 0))
}

// Start restores saved preferences, starts the scheduler and runs the startup health
// check. A successful check loads the snapshot for the reference date. Cancelling ctx
// has the same effect as Close.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started || o.closed {
		return
	}
	o.started = true

	o.restorePreferencesLocked()
	o.scheduler.Start(o.onTick)

	go func() {
		select {
		case <-ctx.Done():
			o.Close()
		case <-o.ctx.Done():
		}
	}()

	o.logger.Info("Dashboard starting",
		zap.String("reference_date", models.FormatDate(o.referenceDate)),
		zap.Bool("auto_refresh", o.scheduler.Config().Enabled),
		zap.Duration("interval", o.scheduler.Config().Interval))
	o.checkHealthLocked()
	o.publishLocked()
}

// Close stops the scheduler, cancels in-flight requests and waits for them to return.
// Their results are discarded. Subscriber channels are closed.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.scheduler.Stop()
	o.cancel()
	for id, ch := range o.subscribers {
		close(ch)
		delete(o.subscribers, id)
	}
	o.mu.Unlock()

	o.wg.Wait()
	o.logger.Info("Dashboard stopped")
}

// State returns the current view.
func (o *Orchestrator) State() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

// Countdown projects the auto-refresh cycle at the current time.
func (o *Orchestrator) Countdown() Countdown {
	return o.scheduler.Countdown(o.clock.Now())
}

// Now is the orchestrator's clock reading.
func (o *Orchestrator) Now() time.Time {
	return o.clock.Now()
}

// Subscribe returns a channel that always holds the latest view; intermediate views
// may be dropped for slow readers. The current view is delivered immediately. Call
// the returned func to unsubscribe.
func (o *Orchestrator) Subscribe() (<-chan View, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan View, 1)
	if o.closed {
		close(ch)
		return ch, func() {}
	}

	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = ch
	ch <- o.viewLocked()

	return ch, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if sub, ok := o.subscribers[id]; ok {
			close(sub)
			delete(o.subscribers, id)
		}
	}
}

// SetReferenceDate changes the date the dashboard is anchored to. Zero and future
// dates are rejected before anything else happens. While connected the new date is
// loaded immediately and any older request is superseded.
func (o *Orchestrator) SetReferenceDate(date time.Time) error {
	if date.IsZero() {
		return NewValidationError("reference date is required")
	}
	ref := models.DateOf(date)
	if today := models.DateOf(o.clock.Now()); ref.After(today) {
		return NewValidationError("reference date %s is after today (%s)", models.FormatDate(ref), models.FormatDate(today))
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	if ref.Equal(o.referenceDate) && o.pending != nil && o.pending.referenceDate.Equal(ref) {
		o.mu.Unlock()
		return nil
	}

	o.referenceDate = ref
	o.logger.Info("Reference date changed", zap.String("reference_date", models.FormatDate(ref)))
	if o.monitor.State() == Connected {
		o.loadLocked("reference date changed")
	} else {
		// Anything in flight is for another date now.
		o.pending = nil
	}
	prefs := o.preferencesLocked()
	o.publishLocked()
	o.mu.Unlock()

	o.savePreferences(prefs)
	return nil
}

// ManualRefresh reloads the current reference date, or re-probes the API when it is
// not connected. It is a no-op while a load for the same date is in flight.
func (o *Orchestrator) ManualRefresh() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}

	if o.monitor.State() != Connected {
		o.checkHealthLocked()
		o.publishLocked()
		return
	}
	if o.pending != nil && o.pending.referenceDate.Equal(o.referenceDate) {
		o.logger.Debug("Manual refresh ignored, load already in flight")
		return
	}
	o.loadLocked("manual refresh")
	o.publishLocked()
}

// ToggleAutoRefresh flips auto-refresh and returns the new setting. An in-flight
// request is never aborted.
func (o *Orchestrator) ToggleAutoRefresh() bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	enabled := o.scheduler.Toggle()
	prefs := o.preferencesLocked()
	o.publishLocked()
	o.mu.Unlock()

	o.savePreferences(prefs)
	return enabled
}

// SetRefreshInterval changes the auto-refresh interval. Only models.RefreshIntervals
// are accepted; anything else is a validation error and changes nothing.
func (o *Orchestrator) SetRefreshInterval(d time.Duration) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	if err := o.scheduler.SetInterval(d); err != nil {
		o.mu.Unlock()
		return err
	}
	prefs := o.preferencesLocked()
	o.publishLocked()
	o.mu.Unlock()

	o.savePreferences(prefs)
	return nil
}

// onTick runs at every scheduler boundary. A boundary that finds a load in flight is
// skipped, not queued.
func (o *Orchestrator) onTick() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.pending != nil {
		o.logger.Debug("Scheduled refresh skipped, load in flight")
		return
	}

	if o.monitor.State() == Connected {
		o.loadLocked("scheduled refresh")
		o.publishLocked()
		return
	}
	if o.healthRecheck && !o.checking {
		o.checkHealthLocked()
		o.publishLocked()
	}
}

// checkHealthLocked probes the API unless a probe is already running. A healthy
// answer loads the current reference date. Caller holds o.mu.
func (o *Orchestrator) checkHealthLocked() {
	if o.checking {
		return
	}
	o.checking = true

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, err := o.monitor.Check(o.ctx)

		o.mu.Lock()
		defer o.mu.Unlock()
		o.checking = false
		if o.closed {
			return
		}
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				o.lastError = e
			}
		} else {
			o.lastError = nil
			o.loadLocked("api connected")
		}
		o.publishLocked()
	}()
}

// loadLocked issues a fetch for the current reference date and makes it the pending
// request. Caller holds o.mu.
func (o *Orchestrator) loadLocked(reason string) {
	o.seq++
	req := &request{seq: o.seq, referenceDate: o.referenceDate}
	o.pending = req
	o.lastError = nil

	o.logger.Debug("Loading snapshot",
		zap.Uint64("seq", req.seq),
		zap.String("reference_date", models.FormatDate(req.referenceDate)),
		zap.String("reason", reason))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		snap, err := o.selector.Fetch(o.ctx, req.referenceDate, o.clock.Now())
		o.complete(req, snap, err)
	}()
}

// complete applies a finished fetch if it is still the one the user is waiting for.
func (o *Orchestrator) complete(req *request, snap *models.DashboardSnapshot, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || o.pending != req || !req.referenceDate.Equal(o.referenceDate) {
		o.logger.Debug("Discarding superseded result",
			zap.Uint64("seq", req.seq),
			zap.String("reference_date", models.FormatDate(req.referenceDate)))
		return
	}
	o.pending = nil

	if err != nil {
		var e *Error
		if !errors.As(err, &e) {
			e = &Error{Kind: KindFetch, Message: err.Error(), Err: err}
		}
		o.lastError = e
		if o.snapshot == nil {
			o.snapshot = models.EmptySnapshot(req.referenceDate)
		}
	} else {
		o.snapshot = snap
		o.lastError = nil
		// FetchedAt is when the request went out; the success time is now.
		now := o.clock.Now()
		o.lastUpdated = now
		o.scheduler.MarkSuccess(now)
	}
	o.publishLocked()
}

func (o *Orchestrator) viewLocked() View {
	conn := o.monitor.State()
	if o.checking {
		conn = Checking
	}
	return View{
		Snapshot:      o.snapshot,
		IsLoading:     o.pending != nil,
		LastError:     o.lastError,
		Connectivity:  conn,
		LastUpdatedAt: o.lastUpdated,
		ReferenceDate: o.referenceDate,
		Refresh:       o.scheduler.Config(),
	}
}

// publishLocked replaces whatever view each subscriber has not read yet. o.mu is the
// only sender lock, so the send after draining never blocks.
func (o *Orchestrator) publishLocked() {
	if len(o.subscribers) == 0 {
		return
	}
	v := o.viewLocked()
	for _, ch := range o.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (o *Orchestrator) restorePreferencesLocked() {
	if o.store == nil {
		return
	}
	prefs, err := o.store.Load()
	if err != nil {
		o.logger.Warn("Failed to load preferences, using defaults", zap.Error(err))
		return
	}
	if prefs == nil {
		return
	}

	o.scheduler.SetEnabled(prefs.AutoRefreshEnabled)
	if prefs.RefreshIntervalMs > 0 {
		if err := o.scheduler.SetInterval(time.Duration(prefs.RefreshIntervalMs) * time.Millisecond); err != nil {
			o.logger.Warn("Ignoring saved refresh interval", zap.Int("interval_ms", prefs.RefreshIntervalMs), zap.Error(err))
		}
	}
	if prefs.ReferenceDate != "" {
		ref, err := models.ParseDate(prefs.ReferenceDate)
		switch {
		case err != nil:
			o.logger.Warn("Ignoring saved reference date", zap.String("reference_date", prefs.ReferenceDate), zap.Error(err))
		case models.DateOf(ref).After(models.DateOf(o.clock.Now())):
			o.logger.Warn("Ignoring saved reference date in the future", zap.String("reference_date", prefs.ReferenceDate))
		default:
			o.referenceDate = models.DateOf(ref)
		}
	}
	o.logger.Info("Preferences restored")
}

func (o *Orchestrator) preferencesLocked() *models.Preferences {
	if o.store == nil {
		return nil
	}
	refresh := o.scheduler.Config()
	return &models.Preferences{
		AutoRefreshEnabled: refresh.Enabled,
		RefreshIntervalMs:  int(refresh.IntervalMs()),
		ReferenceDate:      models.FormatDate(o.referenceDate),
	}
}

func (o *Orchestrator) savePreferences(prefs *models.Preferences) {
	if prefs == nil {
		return
	}
	if err := o.store.Save(prefs); err != nil {
		o.logger.Warn("Failed to save preferences", zap.Error(err))
	}
}
