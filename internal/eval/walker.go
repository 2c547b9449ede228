package eval

import (
	"fmt"
	"strings"

	"github.com/fluxrules/ruleflow/internal/rule"
)

// Result is the outcome of one rule evaluation pass.
type Result struct {
	Matched        bool     `json:"matched"`
	Actions        []string `json:"actions"`
	EvaluationPath []string `json:"evaluationPath"`
}

const actionFallback = "Action not fully defined - click to edit"

// walker carries the per-evaluation state: node/edge indexes built once from
// the rule document, plus the accumulating result. Rules are never mutated.
type walker struct {
	nodes    map[string]*rule.Node
	outgoing map[string][]string // source id → target ids, edge-array order
	incoming map[string][]string // target id → source ids, edge-array order
	inputs   Inputs
	visited  map[string]bool // per-root guard against cyclic edge sets
	result   *Result
}

// EvaluateRule traverses the rule graph depth-first from every root node
// (nodes with no incoming edge) and returns the matched actions plus a
// human-readable trace. Trace lines are emitted in traversal order, which is
// observable and stable. The function is pure: identical (rule, inputs)
// yield identical results.
func EvaluateRule(r *rule.Rule, inputs Inputs) Result {
	w := &walker{
		nodes:    make(map[string]*rule.Node, len(r.Nodes)),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		inputs:   inputs,
		result:   &Result{Actions: []string{}, EvaluationPath: []string{}},
	}
	for i := range r.Nodes {
		w.nodes[r.Nodes[i].ID] = &r.Nodes[i]
	}
	for _, e := range r.Edges {
		w.outgoing[e.Source] = append(w.outgoing[e.Source], e.Target)
		w.incoming[e.Target] = append(w.incoming[e.Target], e.Source)
	}

	for i := range r.Nodes {
		n := &r.Nodes[i]
		if len(w.incoming[n.ID]) > 0 {
			continue
		}
		w.visited = make(map[string]bool)
		w.visit(n)
	}
	return *w.result
}

func (w *walker) visit(n *rule.Node) {
	if w.visited[n.ID] {
		return
	}
	w.visited[n.ID] = true

	switch n.Kind {
	case rule.KindCondition:
		if n.Condition == nil {
			w.trace("condition %s not defined → FALSE", n.ID)
			return
		}
		ok := EvaluateCondition(n.Condition, w.inputs)
		w.trace("%s %s %s → %s", n.Condition.Field, n.Condition.Operator, n.Condition.Value, boolWord(ok))
		if ok {
			w.descend(n.ID)
		}
	case rule.KindOperator:
		ok := w.combine(n)
		w.trace("%s → %s", operatorType(n), boolWord(ok))
		if ok {
			w.descend(n.ID)
		}
	case rule.KindAction:
		desc := DescribeAction(n.Action)
		w.result.Actions = append(w.result.Actions, desc)
		w.result.Matched = true
		w.trace("%s → EXECUTED", desc)
	}
}

// descend fans out into every outgoing edge target, not just the first;
// a passing node gates all of its downstream branches. Edges pointing at
// unknown node ids are skipped silently.
func (w *walker) descend(id string) {
	for _, targetID := range w.outgoing[id] {
		if target, ok := w.nodes[targetID]; ok {
			w.visit(target)
		}
	}
}

// combine gathers the operands of an operator node: the source nodes of
// edges pointing INTO it. Operands are re-evaluated independently as
// predicates; only condition nodes count, an operand that is itself an
// operator contributes false (operand resolution is one level deep).
func (w *walker) combine(n *rule.Node) bool {
	operands := []bool{}
	for _, sourceID := range w.incoming[n.ID] {
		source, ok := w.nodes[sourceID]
		if !ok {
			continue
		}
		if source.Kind == rule.KindCondition {
			operands = append(operands, EvaluateCondition(source.Condition, w.inputs))
		} else {
			operands = append(operands, false)
		}
	}

	switch operatorType(n) {
	case "OR":
		for _, v := range operands {
			if v {
				return true
			}
		}
		return false
	case "AND":
		for _, v := range operands {
			if !v {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (w *walker) trace(format string, args ...any) {
	w.result.EvaluationPath = append(w.result.EvaluationPath, fmt.Sprintf(format, args...))
}

func operatorType(n *rule.Node) string {
	if n.Operator == nil || n.Operator.Type == "" {
		return "AND"
	}
	return strings.ToUpper(n.Operator.Type)
}

func boolWord(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// DescribeAction formats an action node for the actions list and trace.
// Priority: actionType+target, actionType alone, a meaningful label, then a
// fixed placeholder. Underscores in the action type become spaces.
func DescribeAction(a *rule.ActionPayload) string {
	if a == nil {
		return actionFallback
	}
	words := strings.ReplaceAll(a.Type, "_", " ")
	switch {
	case a.Type != "" && a.Target != "":
		desc := fmt.Sprintf("%s: %s", words, a.Target)
		if a.Parameters != "" {
			desc += fmt.Sprintf(" (%s)", a.Parameters)
		}
		return desc
	case a.Type != "":
		return fmt.Sprintf("%s (target not specified)", words)
	case a.Label != "" && a.Label != "Action" && a.Label != "New action":
		return a.Label
	default:
		return actionFallback
	}
}
