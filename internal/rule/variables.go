package rule

// InputVariables returns the distinct condition field names referenced by a
// rule, in the order they first appear in the node array. The test-input UI
// uses this to know which variables to prompt for.
func InputVariables(r *Rule) []string {
	seen := make(map[string]bool)
	out := []string{}
	for i := range r.Nodes {
		n := &r.Nodes[i]
		if n.Kind != KindCondition || n.Condition == nil {
			continue
		}
		f := n.Condition.Field
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
