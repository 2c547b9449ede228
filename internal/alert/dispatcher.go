package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/metrics"
	"github.com/fluxrules/ruleflow/internal/rule"
)

// Dispatcher turns a matched evaluation into an Alert and fans it out to
// every registered sink. Delivery is sequential within one dispatch, so a
// monitor's tick never overlaps its own alert delivery.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil logger uses slog's default.
func NewDispatcher(reg *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: reg, logger: logger}
}

// Dispatch builds the alert record from the rule's alarm config and the
// evaluation result, then sends it to all sinks. Sink failures are logged
// and counted, never propagated; alerting must not break the monitor loop.
func (d *Dispatcher) Dispatch(ctx context.Context, r *rule.Rule, res eval.Result) {
	severity := r.AlarmConfig.Severity
	if severity == "" {
		severity = "info"
	}
	a := &Alert{
		RuleID:   r.ID,
		RuleName: r.Name,
		Severity: severity,
		Channels: r.AlarmConfig.Channels(),
		Actions:  res.Actions,
		Trace:    res.EvaluationPath,
		FiredAt:  time.Now().UTC(),
	}

	for _, sink := range d.registry.All() {
		if err := sink.Send(ctx, a); err != nil {
			d.logger.Warn("alert delivery failed", "sink", sink.Name(), "rule_id", r.ID, "err", err)
			metrics.AlertsDispatched.WithLabelValues(sink.Name(), "error").Inc()
			continue
		}
		metrics.AlertsDispatched.WithLabelValues(sink.Name(), "success").Inc()
	}
}
