// Package monitor runs periodic rule evaluations. Each monitor owns one
// rule, samples inputs on a fixed interval (2s by default) or a cron
// schedule, evaluates, and dispatches alerts on match. Evaluation itself is
// synchronous and pure; the only concurrency here is the tick loop.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fluxrules/ruleflow/internal/alert"
	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/metrics"
	"github.com/fluxrules/ruleflow/internal/rule"
)

// DefaultInterval is the sampling interval when none is configured.
const DefaultInterval = 2 * time.Second

// Status describes one running monitor.
type Status struct {
	RuleID    string    `json:"rule_id"`
	RuleName  string    `json:"rule_name"`
	Schedule  string    `json:"schedule,omitempty"`
	Interval  string    `json:"interval,omitempty"`
	StartedAt time.Time `json:"started_at"`
	LastMatch time.Time `json:"last_match,omitempty"`
	Ticks     int64     `json:"ticks"`
}

// Options configure one monitor. Zero values fall back to manager defaults.
type Options struct {
	Interval time.Duration
	Schedule string // cron expression; takes precedence over Interval
	Sampler  Sampler
}

type monitor struct {
	rule      atomic.Pointer[rule.Rule]
	sampler   Sampler
	interval  time.Duration
	schedule  cron.Schedule
	scheduleS string
	startedAt time.Time
	lastMatch atomic.Int64 // unix nanos, 0 = never
	ticks     atomic.Int64
	cancel    context.CancelFunc
	done      chan struct{}
}

// Manager starts and stops monitors, one per rule. Monitor loops live on
// the context passed to NewManager, not on whichever request started them.
type Manager struct {
	baseCtx    context.Context
	mu         sync.Mutex
	monitors   map[string]*monitor
	dispatcher *alert.Dispatcher
	sampler    Sampler
	interval   time.Duration
	schedule   string
	logger     *slog.Logger
}

// NewManager creates a Manager. defaultSampler and logger may be nil, in
// which case a SystemSampler and slog's default are used.
func NewManager(ctx context.Context, d *alert.Dispatcher, defaultSampler Sampler, defaultInterval time.Duration, logger *slog.Logger) *Manager {
	if defaultSampler == nil {
		defaultSampler = SystemSampler{}
	}
	if defaultInterval <= 0 {
		defaultInterval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		baseCtx:    ctx,
		monitors:   make(map[string]*monitor),
		dispatcher: d,
		sampler:    defaultSampler,
		interval:   defaultInterval,
		logger:     logger,
	}
}

// SetDefaultInterval changes the interval applied to monitors started later.
func (m *Manager) SetDefaultInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.interval = d
	m.mu.Unlock()
}

// SetDefaultSchedule sets a cron expression applied to monitors started
// without a schedule or interval of their own. Empty clears it.
func (m *Manager) SetDefaultSchedule(expr string) error {
	if expr != "" {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("monitor schedule %q: %w", expr, err)
		}
	}
	m.mu.Lock()
	m.schedule = expr
	m.mu.Unlock()
	return nil
}

// Start begins monitoring a rule. Returns an error if a monitor for the
// rule is already running or the cron expression does not parse.
func (m *Manager) Start(r *rule.Rule, opts Options) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, running := m.monitors[r.ID]; running {
		return fmt.Errorf("monitor for rule %s already running", r.ID)
	}

	schedule := opts.Schedule
	if schedule == "" && opts.Interval <= 0 {
		schedule = m.schedule
	}

	mon := &monitor{
		sampler:   opts.Sampler,
		interval:  opts.Interval,
		scheduleS: schedule,
		startedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}
	mon.rule.Store(r)
	if mon.sampler == nil {
		mon.sampler = m.sampler
	}
	if mon.interval <= 0 {
		mon.interval = m.interval
	}
	if schedule != "" {
		sched, err := cron.ParseStandard(schedule)
		if err != nil {
			return fmt.Errorf("monitor schedule %q: %w", schedule, err)
		}
		mon.schedule = sched
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	mon.cancel = cancel
	m.monitors[r.ID] = mon
	metrics.ActiveMonitors.Inc()

	go m.run(runCtx, mon)
	m.logger.Info("monitor started", "rule_id", r.ID, "rule_name", r.Name,
		"interval", mon.interval, "schedule", schedule)
	return nil
}

// Stop halts the monitor for a rule and waits for its loop to exit.
func (m *Manager) Stop(ruleID string) error {
	m.mu.Lock()
	mon, ok := m.monitors[ruleID]
	if ok {
		delete(m.monitors, ruleID)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("no monitor running for rule %s", ruleID)
	}
	mon.cancel()
	<-mon.done
	metrics.ActiveMonitors.Dec()
	m.logger.Info("monitor stopped", "rule_id", ruleID)
	return nil
}

// StopAll halts every running monitor.
func (m *Manager) StopAll() {
	m.mu.Lock()
	monitors := m.monitors
	m.monitors = make(map[string]*monitor)
	m.mu.Unlock()
	for id, mon := range monitors {
		mon.cancel()
		<-mon.done
		metrics.ActiveMonitors.Dec()
		m.logger.Info("monitor stopped", "rule_id", id)
	}
}

// UpdateRule swaps the rule snapshot of a running monitor, if any. The next
// tick evaluates the new document.
func (m *Manager) UpdateRule(r *rule.Rule) {
	m.mu.Lock()
	mon, ok := m.monitors[r.ID]
	m.mu.Unlock()
	if ok {
		mon.rule.Store(r)
	}
}

// List returns the status of all running monitors.
func (m *Manager) List() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.monitors))
	for _, mon := range m.monitors {
		r := mon.rule.Load()
		st := Status{
			RuleID:    r.ID,
			RuleName:  r.Name,
			Schedule:  mon.scheduleS,
			StartedAt: mon.startedAt,
			Ticks:     mon.ticks.Load(),
		}
		if mon.schedule == nil {
			st.Interval = mon.interval.String()
		}
		if ns := mon.lastMatch.Load(); ns != 0 {
			st.LastMatch = time.Unix(0, ns).UTC()
		}
		out = append(out, st)
	}
	return out
}

func (m *Manager) run(ctx context.Context, mon *monitor) {
	defer close(mon.done)
	for {
		if !m.wait(ctx, mon) {
			return
		}
		mon.ticks.Add(1)
		m.tick(ctx, mon)
	}
}

// wait blocks until the next tick is due. Returns false on cancellation.
func (m *Manager) wait(ctx context.Context, mon *monitor) bool {
	var delay time.Duration
	if mon.schedule != nil {
		delay = time.Until(mon.schedule.Next(time.Now()))
	} else {
		delay = mon.interval
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (m *Manager) tick(ctx context.Context, mon *monitor) {
	r := mon.rule.Load()
	inputs, err := mon.sampler.Sample(ctx)
	if err != nil {
		m.logger.Warn("sampling failed", "rule_id", r.ID, "err", err)
		return
	}

	start := time.Now()
	res := eval.EvaluateRule(r, inputs)
	metrics.EvaluationsTotal.Inc()
	metrics.EvaluationDuration.Observe(float64(time.Since(start).Microseconds()))

	if !res.Matched {
		return
	}
	mon.lastMatch.Store(time.Now().UnixNano())
	metrics.RuleMatches.WithLabelValues(r.ID).Inc()
	// Dispatch runs in the loop goroutine, so alert delivery for this rule
	// never overlaps itself.
	m.dispatcher.Dispatch(ctx, r, res)
}
