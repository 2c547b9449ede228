package rule

import "fmt"

// ValidationResult reports whether a rule is structurally complete.
type ValidationResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message"`
}

// Validate checks that a rule has the minimum structure needed to be saved
// or tested: at least one condition and at least one action. It does not
// verify connectivity; a condition and action with no connecting edge still
// validate.
func Validate(r *Rule) ValidationResult {
	if len(r.Nodes) == 0 {
		return ValidationResult{Message: "add blocks to build your rule"}
	}
	var hasCondition, hasAction bool
	for i := range r.Nodes {
		switch r.Nodes[i].Kind {
		case KindCondition:
			hasCondition = true
		case KindAction:
			hasAction = true
		}
	}
	if !hasCondition {
		return ValidationResult{Message: "a rule must have at least one condition"}
	}
	if !hasAction {
		return ValidationResult{Message: "a rule must have at least one action"}
	}
	return ValidationResult{IsValid: true, Message: "rule is valid"}
}

// CheckAcyclic rejects edge sets containing a cycle, using Kahn's algorithm.
// Edges referencing unknown node ids are skipped, matching the walker's
// behavior of ignoring them. The save path runs this so that the walker's
// per-traversal guard is a backstop, not the only line of defense.
func CheckAcyclic(nodes []Node, edges []Edge) error {
	ids := make(map[string]bool, len(nodes))
	for i := range nodes {
		ids[nodes[i].ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	outgoing := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if !ids[e.Source] || !ids[e.Target] {
			continue
		}
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
		inDegree[e.Target]++
	}

	queue := make([]string, 0, len(nodes))
	for i := range nodes {
		if inDegree[nodes[i].ID] == 0 {
			queue = append(queue, nodes[i].ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range outgoing[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != len(nodes) {
		return fmt.Errorf("rule graph contains a cycle (%d of %d nodes reachable acyclically)", visited, len(nodes))
	}
	return nil
}
