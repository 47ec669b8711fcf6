package scoring

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Summary is the derived score projection for one answer set. It is
// recomputable from (answers, schema) at any time; persisting it is a
// cache, never a source of truth.
type Summary struct {
	TotalScore float64                   `json:"total_score"`
	MaxScore   float64                   `json:"max_score"`
	Percentage float64                   `json:"percentage"`
	Breakdown  map[string]BreakdownEntry `json:"breakdown"`
}

// BreakdownEntry explains one question's contribution. Value is nil
// when the answer was absent or non-numeric; Raw carries non-scorable
// answers for observability only.
type BreakdownEntry struct {
	Value  *float64    `json:"value"`
	Max    float64     `json:"max"`
	Weight float64     `json:"weight"`
	Raw    interface{} `json:"raw,omitempty"`
}

// ComputeSummary walks every question of the schema and accumulates the
// weighted totals. Missing or non-numeric answers to scorable questions
// still count toward the denominator: they lower the percentage, they
// never shrink it.
func ComputeSummary(answers map[string]interface{}, schema Schema) Summary {
	summary := Summary{Breakdown: make(map[string]BreakdownEntry)}

	for _, question := range schema.Questions() {
		answer, answered := answers[question.ID]

		if !question.IsScorable() {
			entry := BreakdownEntry{}
			if answered {
				entry.Raw = answer
			}
			summary.Breakdown[question.ID] = entry
			continue
		}

		qMax := question.EffectiveMax()
		weight := question.EffectiveWeight()
		summary.MaxScore += qMax * weight

		entry := BreakdownEntry{Max: qMax, Weight: weight}
		if value, ok := NumericValue(answer); answered && ok {
			clamped := math.Min(math.Max(value, 0), qMax)
			summary.TotalScore += clamped * weight
			entry.Value = &clamped
		}
		summary.Breakdown[question.ID] = entry
	}

	if summary.MaxScore > 0 {
		summary.Percentage = summary.TotalScore / summary.MaxScore * 100
	}

	return summary
}

// NumericValue coerces an answer to a number. A value is numeric when it
// is already a finite number, or a non-empty string that parses as a
// finite decimal. Booleans, arrays, objects and empty strings are not.
func NumericValue(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	case fmt.Stringer:
		return NumericValue(v.String())
	default:
		return 0, false
	}
}
