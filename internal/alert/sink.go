package alert

import (
	"context"
	"time"
)

// Alert is the structured record handed to sinks when a rule matches.
// Channel rendering (audio playback, speech, visuals) belongs to downstream
// consumers; the dispatcher only describes what should happen.
type Alert struct {
	RuleID   string    `json:"rule_id"`
	RuleName string    `json:"rule_name"`
	Severity string    `json:"severity"`
	Channels []string  `json:"channels"`
	Actions  []string  `json:"actions"`
	Trace    []string  `json:"trace"`
	FiredAt  time.Time `json:"fired_at"`
}

// Sink is the interface all alert delivery backends must satisfy.
type Sink interface {
	// Name returns the string key this sink is registered under.
	Name() string
	// Send delivers one alert record.
	Send(ctx context.Context, a *Alert) error
}
