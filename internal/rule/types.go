package rule

import "time"

// Kind discriminates the three node variants in a rule graph.
type Kind string

const (
	KindCondition Kind = "condition"
	KindOperator  Kind = "operator"
	KindAction    Kind = "action"
)

// Position is the editor layout coordinate of a node. Display-only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a discriminated union: the payload pointer matching Kind is set,
// the other two are nil.
type Node struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Position  Position          `json:"position"`
	Condition *ConditionPayload `json:"condition,omitempty"`
	Operator  *OperatorPayload  `json:"operator,omitempty"`
	Action    *ActionPayload    `json:"action,omitempty"`
}

// ConditionPayload compares an input variable against a literal value.
// Operator accepts both word forms ("greaterThan") and legacy symbolic
// aliases (">", "==", "===", ...).
type ConditionPayload struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// OperatorPayload combines its incoming condition nodes with AND or OR.
type OperatorPayload struct {
	Type string `json:"operatorType"`
}

// ActionPayload describes what to do when a branch matches.
type ActionPayload struct {
	Type       string `json:"actionType"`
	Target     string `json:"target"`
	Parameters string `json:"parameters,omitempty"`
	Label      string `json:"label,omitempty"`
}

// Edge is a directed connection between two nodes. Parallel edges are
// allowed; edges referencing unknown node ids are ignored at evaluation time.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// AlarmConfig holds alert-channel toggles and tunables. The engine never
// reads it; the alert dispatcher consumes it when a rule matches.
type AlarmConfig struct {
	AudioEnabled        bool    `json:"audio_enabled"`
	AudioFrequencyHz    float64 `json:"audio_frequency_hz,omitempty"`
	AudioDurationMs     int     `json:"audio_duration_ms,omitempty"`
	AudioVolume         float64 `json:"audio_volume,omitempty"`
	VoiceEnabled        bool    `json:"voice_enabled"`
	VoiceRate           float64 `json:"voice_rate,omitempty"`
	VoicePitch          float64 `json:"voice_pitch,omitempty"`
	VisualEnabled       bool    `json:"visual_enabled"`
	VisualDurationMs    int     `json:"visual_duration_ms,omitempty"`
	NotificationEnabled bool    `json:"notification_enabled"`
	Severity            string  `json:"severity,omitempty"`
}

// Channels returns the names of the enabled alert channels.
func (c AlarmConfig) Channels() []string {
	var out []string
	if c.AudioEnabled {
		out = append(out, "audio")
	}
	if c.VoiceEnabled {
		out = append(out, "voice")
	}
	if c.VisualEnabled {
		out = append(out, "visual")
	}
	if c.NotificationEnabled {
		out = append(out, "notification")
	}
	return out
}

// Rule is the persisted rule document.
type Rule struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Nodes           []Node      `json:"nodes"`
	Edges           []Edge      `json:"edges"`
	AlarmConfig     AlarmConfig `json:"alarmConfig"`
	NaturalLanguage string      `json:"naturalLanguage"`
	IsValid         bool        `json:"isValid"`
	UserID          string      `json:"userId,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// NodeByID returns the node with the given id, or nil.
func (r *Rule) NodeByID(id string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}
