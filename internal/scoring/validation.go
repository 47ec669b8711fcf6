package scoring

import (
	"fmt"
	"strings"
)

// ValidationResult reports required-answer completeness for one form.
type ValidationResult struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing"`
}

// ValidationError carries the missing question ids when a submit is
// refused for incomplete required answers.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required answers missing: %s", strings.Join(e.Missing, ", "))
}

// ValidateRequired checks every required question for a present,
// non-empty answer. Empty strings (after trimming) and empty arrays
// count as missing; non-required questions are never reported.
func ValidateRequired(answers map[string]interface{}, schema Schema) ValidationResult {
	result := ValidationResult{OK: true, Missing: []string{}}

	for _, question := range schema.Questions() {
		if !question.Required {
			continue
		}
		if isAnswerMissing(answers[question.ID]) {
			result.OK = false
			result.Missing = append(result.Missing, question.ID)
		}
	}

	return result
}

func isAnswerMissing(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
