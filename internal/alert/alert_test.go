package alert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/rule"
)

type fakeSink struct {
	name string
	sent []*Alert
	err  error
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Send(ctx context.Context, a *Alert) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, a)
	return nil
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeSink{name: "x"})
	assert.Panics(t, func() { reg.Register(&fakeSink{name: "x"}) })
}

func TestDispatcherBuildsAlert(t *testing.T) {
	sink := &fakeSink{name: "test"}
	reg := NewRegistry()
	reg.Register(sink)
	d := NewDispatcher(reg, nil)

	r := &rule.Rule{
		ID:   "r1",
		Name: "overheat",
		AlarmConfig: rule.AlarmConfig{
			AudioEnabled:        true,
			NotificationEnabled: true,
			Severity:            "warning",
		},
	}
	res := eval.Result{
		Matched:        true,
		Actions:        []string{"turn off: heater"},
		EvaluationPath: []string{"temperature > 90 → TRUE", "turn off: heater → EXECUTED"},
	}
	d.Dispatch(context.Background(), r, res)

	require.Len(t, sink.sent, 1)
	a := sink.sent[0]
	assert.Equal(t, "r1", a.RuleID)
	assert.Equal(t, "overheat", a.RuleName)
	assert.Equal(t, "warning", a.Severity)
	assert.Equal(t, []string{"audio", "notification"}, a.Channels)
	assert.Equal(t, res.Actions, a.Actions)
	assert.Equal(t, res.EvaluationPath, a.Trace)
	assert.False(t, a.FiredAt.IsZero())
}

func TestDispatcherDefaultSeverity(t *testing.T) {
	sink := &fakeSink{name: "test"}
	reg := NewRegistry()
	reg.Register(sink)
	d := NewDispatcher(reg, nil)

	d.Dispatch(context.Background(), &rule.Rule{ID: "r1"}, eval.Result{Matched: true})
	require.Len(t, sink.sent, 1)
	assert.Equal(t, "info", sink.sent[0].Severity)
}

func TestDispatcherSinkFailureIsolated(t *testing.T) {
	bad := &fakeSink{name: "bad", err: context.DeadlineExceeded}
	good := &fakeSink{name: "good"}
	reg := NewRegistry()
	reg.Register(bad)
	reg.Register(good)
	d := NewDispatcher(reg, nil)

	d.Dispatch(context.Background(), &rule.Rule{ID: "r1"}, eval.Result{Matched: true})
	assert.Len(t, good.sent, 1, "a failing sink must not block the others")
}

func TestWebhookSink(t *testing.T) {
	var received Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	a := &Alert{RuleID: "r1", Severity: "critical", FiredAt: time.Now().UTC()}
	require.NoError(t, sink.Send(context.Background(), a))
	assert.Equal(t, "r1", received.RuleID)
	assert.Equal(t, "critical", received.Severity)
}

func TestWebhookSinkErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	assert.Error(t, sink.Send(context.Background(), &Alert{RuleID: "r1"}))
}
