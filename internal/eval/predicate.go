package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fluxrules/ruleflow/internal/rule"
)

// Inputs is a flat snapshot of variable name to current value, supplied at
// evaluation time (manual test values or sampled runtime metrics).
type Inputs map[string]any

// Canonical condition operator names. The legacy symbolic forms (">", "==",
// "===", ...) are accepted as aliases and normalized before dispatch.
const (
	OpEquals         = "equals"
	OpNotEquals      = "notEquals"
	OpStrictEquals   = "strictEquals"
	OpStrictNotEqual = "strictNotEquals"
	OpGreaterThan    = "greaterThan"
	OpLessThan       = "lessThan"
	OpGreaterOrEqual = "greaterOrEqual"
	OpLessOrEqual    = "lessOrEqual"
	OpContains       = "contains"
)

var operatorAliases = map[string]string{
	"==":  OpEquals,
	"!=":  OpNotEquals,
	"===": OpStrictEquals,
	"!==": OpStrictNotEqual,
	">":   OpGreaterThan,
	"<":   OpLessThan,
	">=":  OpGreaterOrEqual,
	"<=":  OpLessOrEqual,
}

// NormalizeOperator maps a symbolic alias to its canonical word form.
// Unknown strings pass through unchanged.
func NormalizeOperator(op string) string {
	if canonical, ok := operatorAliases[op]; ok {
		return canonical
	}
	return op
}

// EvaluateCondition evaluates one condition against the input snapshot.
// It is fail-closed: a missing field, a non-numeric operand under a numeric
// operator, or an unknown operator all yield false, never an error.
func EvaluateCondition(c *rule.ConditionPayload, inputs Inputs) bool {
	if c == nil {
		return false
	}
	val, ok := inputs[c.Field]
	if !ok {
		return false
	}

	switch NormalizeOperator(c.Operator) {
	case OpEquals:
		return looseEqual(val, c.Value)
	case OpNotEquals:
		return !looseEqual(val, c.Value)
	case OpStrictEquals:
		return strictEqual(val, c.Value)
	case OpStrictNotEqual:
		return !strictEqual(val, c.Value)
	case OpGreaterThan:
		return toFloat(val) > parseFloat(c.Value)
	case OpLessThan:
		return toFloat(val) < parseFloat(c.Value)
	case OpGreaterOrEqual:
		return toFloat(val) >= parseFloat(c.Value)
	case OpLessOrEqual:
		return toFloat(val) <= parseFloat(c.Value)
	case OpContains:
		return strings.Contains(stringify(val), c.Value)
	default:
		return false
	}
}

// looseEqual compares with type coercion: if both sides parse as numbers the
// comparison is numeric (so input 20 equals value "20"), otherwise both are
// stringified and compared.
func looseEqual(val any, literal string) bool {
	lf := toFloat(val)
	rf := parseFloat(literal)
	if !math.IsNaN(lf) && !math.IsNaN(rf) {
		return lf == rf
	}
	return stringify(val) == literal
}

// strictEqual requires matching types as well as values. Condition values
// are string literals, so only a string input can ever be strictly equal.
func strictEqual(val any, literal string) bool {
	s, ok := val.(string)
	return ok && s == literal
}

// toFloat coerces an input value to float64, returning NaN when it cannot.
// NaN comparisons are always false, which is the intended fail-closed
// behavior for non-numeric operands.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case string:
		return parseFloat(n)
	}
	return math.NaN()
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	}
	return fmt.Sprintf("%v", v)
}
