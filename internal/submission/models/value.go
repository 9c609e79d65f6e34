package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ValueKind discriminates the closed set of answer value shapes.
type ValueKind int

const (
	// ValueScalar is a bare numeric rating (Likert position, number input).
	ValueScalar ValueKind = iota
	// ValueText is a free-text answer.
	ValueText
	// ValueRated pairs a numeric rating with an optional comment.
	ValueRated
)

// AnswerValue is the closed tagged union for a question's answer. Keeping the
// set closed gives the statistics consumers compile-time exhaustiveness
// instead of type-switching over raw JSON.
type AnswerValue struct {
	kind    ValueKind
	scalar  float64
	text    string
	rating  float64
	comment string
}

// ScalarValue builds a numeric answer.
func ScalarValue(v float64) AnswerValue {
	return AnswerValue{kind: ValueScalar, scalar: v}
}

// TextValue builds a free-text answer.
func TextValue(v string) AnswerValue {
	return AnswerValue{kind: ValueText, text: v}
}

// RatedValue builds a rating-with-comment answer.
func RatedValue(rating float64, comment string) AnswerValue {
	return AnswerValue{kind: ValueRated, rating: rating, comment: comment}
}

// Kind returns the discriminator.
func (v AnswerValue) Kind() ValueKind { return v.kind }

// Scalar returns the numeric value for ValueScalar answers.
func (v AnswerValue) Scalar() float64 { return v.scalar }

// Text returns the text for ValueText answers.
func (v AnswerValue) Text() string { return v.text }

// Rated returns the rating and comment for ValueRated answers.
func (v AnswerValue) Rated() (float64, string) { return v.rating, v.comment }

// Rating returns the numeric component for ValueScalar and ValueRated
// answers, and false for text answers. Statistics aggregation keys off this.
func (v AnswerValue) Rating() (float64, bool) {
	switch v.kind {
	case ValueScalar:
		return v.scalar, true
	case ValueRated:
		return v.rating, true
	default:
		return 0, false
	}
}

type ratedJSON struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment,omitempty"`
}

// MarshalJSON renders the union in its wire shape: number, string, or
// {rating, comment} object.
func (v AnswerValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueScalar:
		return json.Marshal(v.scalar)
	case ValueText:
		return json.Marshal(v.text)
	case ValueRated:
		return json.Marshal(ratedJSON{Rating: v.rating, Comment: v.comment})
	default:
		return nil, fmt.Errorf("unknown answer value kind %d", v.kind)
	}
}

// UnmarshalJSON parses the wire shape back into the union. Anything outside
// the three supported shapes is rejected here, before validation runs.
func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch t := raw.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("answer value: %w", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("answer value must be finite")
		}
		*v = ScalarValue(f)
		return nil
	case string:
		*v = TextValue(t)
		return nil
	case map[string]any:
		var rated ratedJSON
		if err := json.Unmarshal(data, &rated); err != nil {
			return fmt.Errorf("answer value object must be {rating, comment}: %w", err)
		}
		if math.IsNaN(rated.Rating) || math.IsInf(rated.Rating, 0) {
			return fmt.Errorf("answer rating must be finite")
		}
		*v = RatedValue(rated.Rating, rated.Comment)
		return nil
	default:
		return fmt.Errorf("answer value must be a number, string, or {rating, comment} object")
	}
}
