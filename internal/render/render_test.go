package render

import (
	"testing"

	"github.com/fluxrules/ruleflow/internal/rule"
)

func conditionNode(id, field, op, value string) rule.Node {
	return rule.Node{
		ID:        id,
		Kind:      rule.KindCondition,
		Condition: &rule.ConditionPayload{Field: field, Operator: op, Value: value},
	}
}

func operatorNode(id, opType string) rule.Node {
	return rule.Node{ID: id, Kind: rule.KindOperator, Operator: &rule.OperatorPayload{Type: opType}}
}

func actionNode(id, actionType, target string) rule.Node {
	return rule.Node{
		ID:     id,
		Kind:   rule.KindAction,
		Action: &rule.ActionPayload{Type: actionType, Target: target},
	}
}

func TestNaturalLanguage(t *testing.T) {
	cases := []struct {
		name  string
		nodes []rule.Node
		want  string
	}{
		{
			name:  "empty",
			nodes: nil,
			want:  EmptyRulePlaceholder,
		},
		{
			name: "single condition and action",
			nodes: []rule.Node{
				conditionNode("c1", "temperature", "greaterThan", "50"),
				actionNode("a1", "turn_on", "fan"),
			},
			want: "IF temperature is greater than 50 THEN turn_on fan",
		},
		{
			name: "two conditions default AND join",
			nodes: []rule.Node{
				conditionNode("c1", "temperature", "greaterThan", "50"),
				conditionNode("c2", "humidity", "lessThan", "30"),
				actionNode("a1", "turn_on", "fan"),
			},
			want: "IF temperature is greater than 50 AND humidity is less than 30 THEN turn_on fan",
		},
		{
			name: "join word from first operator node",
			nodes: []rule.Node{
				conditionNode("c1", "temperature", "greaterThan", "50"),
				conditionNode("c2", "humidity", "lessThan", "30"),
				operatorNode("op1", "or"),
				actionNode("a1", "turn_on", "fan"),
			},
			want: "IF temperature is greater than 50 OR humidity is less than 30 THEN turn_on fan",
		},
		{
			name: "operator phrases",
			nodes: []rule.Node{
				conditionNode("c1", "score", "notEquals", "0"),
				conditionNode("c2", "marks", "greaterOrEqual", "20"),
				conditionNode("c3", "time", "lessOrEqual", "60"),
				conditionNode("c4", "tags", "contains", "vip"),
				actionNode("a1", "notify", "user"),
			},
			want: "IF score does not equal 0 AND marks is greater than or equal to 20 AND time is less than or equal to 60 AND tags contains vip THEN notify user",
		},
		{
			name: "unknown operator falls back to equals phrase",
			nodes: []rule.Node{
				conditionNode("c1", "level", "between", "5"),
				actionNode("a1", "notify", "user"),
			},
			want: "IF level equals 5 THEN notify user",
		},
		{
			name: "symbolic alias phrased",
			nodes: []rule.Node{
				conditionNode("c1", "level", ">=", "5"),
				actionNode("a1", "notify", "user"),
			},
			want: "IF level is greater than or equal to 5 THEN notify user",
		},
		{
			name: "multiple actions comma joined",
			nodes: []rule.Node{
				conditionNode("c1", "door", "equals", "open"),
				actionNode("a1", "turn_on", "light"),
				actionNode("a2", "send_notification", "owner"),
			},
			want: "IF door equals open THEN turn_on light, send_notification owner",
		},
		{
			name: "action without target uses label",
			nodes: []rule.Node{
				conditionNode("c1", "door", "equals", "open"),
				{ID: "a1", Kind: rule.KindAction, Action: &rule.ActionPayload{Label: "ring bell"}},
			},
			want: "IF door equals open THEN ring bell",
		},
		{
			name: "actions only",
			nodes: []rule.Node{
				actionNode("a1", "turn_on", "light"),
			},
			want: "EXECUTE turn_on light",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NaturalLanguage(tc.nodes, nil)
			if got != tc.want {
				t.Errorf("NaturalLanguage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNaturalLanguage_Deterministic(t *testing.T) {
	nodes := []rule.Node{
		conditionNode("c1", "temperature", ">", "50"),
		operatorNode("op1", "OR"),
		conditionNode("c2", "humidity", "<", "30"),
		actionNode("a1", "turn_on", "fan"),
	}
	first := NaturalLanguage(nodes, nil)
	for i := 0; i < 10; i++ {
		if got := NaturalLanguage(nodes, nil); got != first {
			t.Fatalf("rendering not deterministic: %q vs %q", got, first)
		}
	}
}

func TestPseudocode(t *testing.T) {
	nodes := []rule.Node{
		conditionNode("c1", "temperature", "greaterThan", "50"),
		conditionNode("c2", "humidity", "lessThan", "30"),
		actionNode("a1", "turn_on", "fan"),
	}
	want := "IF\n" +
		"  temperature is greater than 50\n" +
		"AND\n" +
		"  humidity is less than 30\n" +
		"THEN\n" +
		"  turn on fan\n" +
		"END IF"
	if got := Pseudocode(nodes, nil); got != want {
		t.Errorf("Pseudocode =\n%s\nwant\n%s", got, want)
	}
}

func TestPseudocode_ExecuteBlock(t *testing.T) {
	nodes := []rule.Node{
		actionNode("a1", "turn_on", "light"),
		actionNode("a2", "send_notification", "owner"),
	}
	want := "EXECUTE:\n" +
		"  turn on light\n" +
		"  send notification owner\n" +
		"END"
	if got := Pseudocode(nodes, nil); got != want {
		t.Errorf("Pseudocode =\n%s\nwant\n%s", got, want)
	}
}

func TestPseudocode_Empty(t *testing.T) {
	if got := Pseudocode(nil, nil); got != EmptyRulePlaceholder {
		t.Errorf("Pseudocode(empty) = %q", got)
	}
}
