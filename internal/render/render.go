// Package render derives deterministic textual descriptions of a rule graph.
// Both renderers are pure functions of (nodes, edges), walk nodes in array
// order rather than graph order, and are stable across calls so their output
// can be snapshot-tested and persisted alongside the rule document.
package render

import (
	"fmt"
	"strings"

	"github.com/fluxrules/ruleflow/internal/eval"
	"github.com/fluxrules/ruleflow/internal/rule"
)

// EmptyRulePlaceholder is returned for a rule with no nodes.
const EmptyRulePlaceholder = "No rule defined yet"

var operatorPhrases = map[string]string{
	eval.OpEquals:         "equals",
	eval.OpNotEquals:      "does not equal",
	eval.OpGreaterThan:    "is greater than",
	eval.OpLessThan:       "is less than",
	eval.OpGreaterOrEqual: "is greater than or equal to",
	eval.OpLessOrEqual:    "is less than or equal to",
	eval.OpContains:       "contains",
}

func operatorPhrase(op string) string {
	if p, ok := operatorPhrases[eval.NormalizeOperator(op)]; ok {
		return p
	}
	return operatorPhrases[eval.OpEquals]
}

func conditionPhrase(c *rule.ConditionPayload) string {
	return fmt.Sprintf("%s %s %s", c.Field, operatorPhrase(c.Operator), c.Value)
}

// joinWord returns the combining word for the summary: the type of the first
// operator node in array order, defaulting to AND. This is a global join —
// a simplification of the real graph topology.
func joinWord(nodes []rule.Node) string {
	for i := range nodes {
		if nodes[i].Kind == rule.KindOperator && nodes[i].Operator != nil && nodes[i].Operator.Type != "" {
			return strings.ToUpper(nodes[i].Operator.Type)
		}
	}
	return "AND"
}

func actionSummary(a *rule.ActionPayload) string {
	switch {
	case a != nil && a.Type != "" && a.Target != "":
		return fmt.Sprintf("%s %s", a.Type, a.Target)
	case a != nil && a.Label != "":
		return a.Label
	default:
		return "action"
	}
}

// NaturalLanguage renders a one-line summary of the form
// "IF <cond> <AND|OR> <cond> THEN <action>, <action>".
func NaturalLanguage(nodes []rule.Node, edges []rule.Edge) string {
	if len(nodes) == 0 {
		return EmptyRulePlaceholder
	}

	var conditions, actions []string
	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case rule.KindCondition:
			if n.Condition != nil {
				conditions = append(conditions, conditionPhrase(n.Condition))
			}
		case rule.KindAction:
			actions = append(actions, actionSummary(n.Action))
		}
	}

	if len(conditions) == 0 {
		if len(actions) == 0 {
			return EmptyRulePlaceholder
		}
		return "EXECUTE " + strings.Join(actions, ", ")
	}

	var b strings.Builder
	b.WriteString("IF ")
	b.WriteString(strings.Join(conditions, " "+joinWord(nodes)+" "))
	if len(actions) > 0 {
		b.WriteString(" THEN ")
		b.WriteString(strings.Join(actions, ", "))
	}
	return b.String()
}

func actionPseudocode(a *rule.ActionPayload) string {
	switch {
	case a != nil && a.Type != "" && a.Target != "":
		return fmt.Sprintf("%s %s", strings.ReplaceAll(a.Type, "_", " "), a.Target)
	case a != nil && a.Type != "":
		return strings.ReplaceAll(a.Type, "_", " ")
	case a != nil && a.Label != "":
		return a.Label
	default:
		return "action"
	}
}

// Pseudocode renders a multi-line IF / THEN / END IF block, or an EXECUTE
// block when the rule has no conditions.
func Pseudocode(nodes []rule.Node, edges []rule.Edge) string {
	if len(nodes) == 0 {
		return EmptyRulePlaceholder
	}

	var conditions, actions []string
	for i := range nodes {
		n := &nodes[i]
		switch n.Kind {
		case rule.KindCondition:
			if n.Condition != nil {
				conditions = append(conditions, conditionPhrase(n.Condition))
			}
		case rule.KindAction:
			actions = append(actions, actionPseudocode(n.Action))
		}
	}

	var b strings.Builder
	if len(conditions) == 0 {
		if len(actions) == 0 {
			return EmptyRulePlaceholder
		}
		b.WriteString("EXECUTE:\n")
		for _, a := range actions {
			b.WriteString("  " + a + "\n")
		}
		b.WriteString("END")
		return b.String()
	}

	join := joinWord(nodes)
	b.WriteString("IF\n")
	for i, c := range conditions {
		if i > 0 {
			b.WriteString(join + "\n")
		}
		b.WriteString("  " + c + "\n")
	}
	b.WriteString("THEN\n")
	if len(actions) == 0 {
		b.WriteString("  (no action)\n")
	}
	for _, a := range actions {
		b.WriteString("  " + a + "\n")
	}
	b.WriteString("END IF")
	return b.String()
}
