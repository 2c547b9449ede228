package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxrules/ruleflow/internal/alert"
	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/rule"
)

// captureSink records delivered alerts for assertions.
type captureSink struct {
	mu     sync.Mutex
	alerts []*alert.Alert
}

func (s *captureSink) Name() string { return "capture" }

func (s *captureSink) Send(ctx context.Context, a *alert.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func (s *captureSink) first() *alert.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.alerts) == 0 {
		return nil
	}
	return s.alerts[0]
}

func testRule() *rule.Rule {
	return &rule.Rule{
		ID:   "r1",
		Name: "hot",
		Nodes: []rule.Node{
			{ID: "c1", Kind: rule.KindCondition, Condition: &rule.ConditionPayload{Field: "temperature", Operator: ">", Value: "90"}},
			{ID: "a1", Kind: rule.KindAction, Action: &rule.ActionPayload{Type: "turn_off", Target: "heater"}},
		},
		Edges:       []rule.Edge{{ID: "e1", Source: "c1", Target: "a1"}},
		AlarmConfig: rule.AlarmConfig{NotificationEnabled: true, Severity: "critical"},
	}
}

func newTestManager(t *testing.T, sink alert.Sink) *Manager {
	t.Helper()
	reg := alert.NewRegistry()
	reg.Register(sink)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewManager(ctx, alert.NewDispatcher(reg, nil), nil, time.Hour, nil)
}

func waitFor(t *testing.T, timeout time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestMonitorDispatchesOnMatch(t *testing.T) {
	sink := &captureSink{}
	mgr := newTestManager(t, sink)

	sampler := NewStaticSampler(eval.Inputs{"temperature": 95})
	err := mgr.Start(testRule(), Options{Interval: 10 * time.Millisecond, Sampler: sampler})
	require.NoError(t, err)
	defer mgr.StopAll()

	waitFor(t, 2*time.Second, func() bool { return sink.count() > 0 })

	a := sink.first()
	assert.Equal(t, "r1", a.RuleID)
	assert.Equal(t, "critical", a.Severity)
	assert.Equal(t, []string{"notification"}, a.Channels)
	assert.Equal(t, []string{"turn off: heater"}, a.Actions)
	assert.NotEmpty(t, a.Trace)
}

func TestMonitorNoMatchNoAlert(t *testing.T) {
	sink := &captureSink{}
	mgr := newTestManager(t, sink)

	sampler := NewStaticSampler(eval.Inputs{"temperature": 20})
	require.NoError(t, mgr.Start(testRule(), Options{Interval: 10 * time.Millisecond, Sampler: sampler}))

	time.Sleep(100 * time.Millisecond)
	mgr.StopAll()
	assert.Zero(t, sink.count())
}

func TestMonitorPicksUpRuleSwap(t *testing.T) {
	sink := &captureSink{}
	mgr := newTestManager(t, sink)

	sampler := NewStaticSampler(eval.Inputs{"temperature": 20})
	require.NoError(t, mgr.Start(testRule(), Options{Interval: 10 * time.Millisecond, Sampler: sampler}))
	defer mgr.StopAll()

	// Lower the threshold so the same inputs now match.
	updated := testRule()
	updated.Nodes[0].Condition.Value = "10"
	mgr.UpdateRule(updated)

	waitFor(t, 2*time.Second, func() bool { return sink.count() > 0 })
}

func TestMonitorDuplicateStart(t *testing.T) {
	mgr := newTestManager(t, &captureSink{})
	r := testRule()
	require.NoError(t, mgr.Start(r, Options{Interval: time.Hour}))
	defer mgr.StopAll()
	assert.Error(t, mgr.Start(r, Options{Interval: time.Hour}))
}

func TestMonitorStop(t *testing.T) {
	mgr := newTestManager(t, &captureSink{})
	require.NoError(t, mgr.Start(testRule(), Options{Interval: time.Hour}))
	require.Len(t, mgr.List(), 1)
	require.NoError(t, mgr.Stop("r1"))
	assert.Empty(t, mgr.List())
	assert.Error(t, mgr.Stop("r1"))
}

func TestMonitorDefaultSchedule(t *testing.T) {
	mgr := newTestManager(t, &captureSink{})
	require.NoError(t, mgr.SetDefaultSchedule("*/5 * * * *"))
	defer mgr.StopAll()

	// No schedule or interval of its own: the manager default applies.
	require.NoError(t, mgr.Start(testRule(), Options{}))
	statuses := mgr.List()
	require.Len(t, statuses, 1)
	assert.Equal(t, "*/5 * * * *", statuses[0].Schedule)

	// An explicit interval opts out of the default schedule.
	other := testRule()
	other.ID = "r2"
	require.NoError(t, mgr.Start(other, Options{Interval: time.Hour}))
	for _, s := range mgr.List() {
		if s.RuleID == "r2" {
			assert.Empty(t, s.Schedule)
		}
	}

	assert.Error(t, mgr.SetDefaultSchedule("not a cron expr"))
}

func TestMonitorBadSchedule(t *testing.T) {
	mgr := newTestManager(t, &captureSink{})
	err := mgr.Start(testRule(), Options{Schedule: "not a cron expr"})
	assert.Error(t, err)
}

func TestStaticSampler(t *testing.T) {
	s := NewStaticSampler(eval.Inputs{"a": 1})
	got, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got["a"])

	s.Set("b", "x")
	got, err = s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", got["b"])

	// Mutating a returned snapshot must not affect the sampler.
	got["a"] = 99
	again, _ := s.Sample(context.Background())
	assert.Equal(t, 1, again["a"])
}

func TestSystemSampler(t *testing.T) {
	got, err := SystemSampler{}.Sample(context.Background())
	require.NoError(t, err)
	assert.Contains(t, got, "goroutines")
	assert.Contains(t, got, "heap_alloc_mb")
}
