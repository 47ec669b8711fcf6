// Package scoring interprets a versioned feedback form schema: it
// normalizes the semi-structured JSON document into a strict question
// list, computes weighted score summaries from flat answer maps, and
// validates required-answer completeness. Everything here is pure;
// callers decide whether to cache results.
package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Question types that contribute to the weighted score.
const (
	TypeRating = "rating"
	TypeScale  = "scale"
	TypeNumber = "number"
)

// Schema is the normalized form of a feedback form document.
type Schema struct {
	Version  int       `json:"version"`
	Sections []Section `json:"sections"`
}

// Section groups related questions under a title.
type Section struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Question is a single form entry. Max, Weight and Required are
// optional in the source document; zero values trigger the engine's
// defaults (max 5, weight 1) for scorable types.
type Question struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Weight   *float64 `json:"weight,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// IsScorable reports whether the question contributes to the totals.
func (q Question) IsScorable() bool {
	switch q.Type {
	case TypeRating, TypeScale, TypeNumber:
		return true
	default:
		return false
	}
}

// EffectiveMax is the question's maximum score, defaulting to 5 when
// absent or non-positive.
func (q Question) EffectiveMax() float64 {
	if q.Max != nil && *q.Max > 0 {
		return *q.Max
	}
	return 5
}

// EffectiveWeight is the question's weight, defaulting to 1 when absent
// or non-positive.
func (q Question) EffectiveWeight() float64 {
	if q.Weight != nil && *q.Weight > 0 {
		return *q.Weight
	}
	return 1
}

// Questions flattens every section into one question list. Scoring is
// order-independent, so a flat walk is sufficient.
func (s Schema) Questions() []Question {
	var questions []Question
	for _, section := range s.Sections {
		questions = append(questions, section.Questions...)
	}
	return questions
}

// ParseSections decodes the raw sections document of a stored form
// schema into normalized sections. Questions without an id are dropped:
// they can never be matched to an answer.
func ParseSections(raw []byte) ([]Section, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var sections []Section
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("malformed form schema sections: %w", err)
	}

	for i := range sections {
		kept := sections[i].Questions[:0]
		for _, question := range sections[i].Questions {
			question.ID = strings.TrimSpace(question.ID)
			if question.ID == "" {
				continue
			}
			question.Type = strings.ToLower(strings.TrimSpace(question.Type))
			kept = append(kept, question)
		}
		sections[i].Questions = kept
	}

	return sections, nil
}

// EncodeSections renders normalized sections back to the canonical JSON
// stored with a form schema.
func EncodeSections(sections []Section) ([]byte, error) {
	encoded, err := json.Marshal(sections)
	if err != nil {
		return nil, fmt.Errorf("encode form schema sections: %w", err)
	}
	return encoded, nil
}
