package playbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
)

// Condition variables an action may gate on
const (
	VarConfidenceScore = "confidence_score"
	VarAssetCount      = "asset_count"
	VarIndicatorCount  = "indicator_count"
)

var knownVars = map[string]bool{
	VarConfidenceScore: true,
	VarAssetCount:      true,
	VarIndicatorCount:  true,
}

// Condition is a parsed "<variable> <op> <number>" guard
type Condition struct {
	Variable string
	Op       string
	Value    float64
}

// ParseCondition parses a guard expression. A leading "if" is accepted.
func ParseCondition(expr string) (*Condition, error) {
	fields := strings.Fields(expr)
	if len(fields) > 0 && strings.EqualFold(fields[0], "if") {
		fields = fields[1:]
	}
	if len(fields) != 3 {
		return nil, fmt.Errorf("invalid condition %q: want <variable> <op> <number>", expr)
	}

	variable, op := fields[0], fields[1]
	if !knownVars[variable] {
		return nil, fmt.Errorf("invalid condition %q: unknown variable %s", expr, variable)
	}
	switch op {
	case ">", ">=", "<", "<=", "==", "!=":
	default:
		return nil, fmt.Errorf("invalid condition %q: unknown operator %s", expr, op)
	}
	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", expr, err)
	}

	return &Condition{Variable: variable, Op: op, Value: value}, nil
}

// Evaluate tests the condition against an incident
func (c *Condition) Evaluate(inc *incident.Incident) bool {
	got := Variables(inc)[c.Variable]
	switch c.Op {
	case ">":
		return got > c.Value
	case ">=":
		return got >= c.Value
	case "<":
		return got < c.Value
	case "<=":
		return got <= c.Value
	case "==":
		return got == c.Value
	case "!=":
		return got != c.Value
	}
	return false
}

func (c *Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Variable, c.Op, strconv.FormatFloat(c.Value, 'f', -1, 64))
}

// Variables exposes the incident values conditions can reference
func Variables(inc *incident.Incident) map[string]float64 {
	return map[string]float64{
		VarConfidenceScore: inc.ConfidenceScore(),
		VarAssetCount:      float64(len(inc.AffectedAssets)),
		VarIndicatorCount:  float64(len(inc.Indicators)),
	}
}

// ShouldRun reports whether an action's guard allows it to run. A malformed
// guard never runs; catalogs reject those at load time.
func (a Action) ShouldRun(inc *incident.Incident) bool {
	if a.Condition == "" {
		return true
	}
	cond, err := ParseCondition(a.Condition)
	if err != nil {
		return false
	}
	return cond.Evaluate(inc)
}
