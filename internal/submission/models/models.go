// Package models defines the persisted shapes of the privacy-split survey
// data: PII-bearing Respondent records, anonymized Response envelopes, and
// the Answer rows that hang off a Response.
package models

import (
	"time"

	id "formpulse/pkg/domain"
)

// Respondent is the identity record. It is the only table that carries PII;
// everything else references it by opaque id. Created on first submission,
// removed by erasure, never updated in between.
type Respondent struct {
	ID          id.RespondentID
	Name        string
	Email       string
	Fingerprint string
	CreatedAt   time.Time
}

// Response is one anonymized submission of one form by one respondent.
// RespondentID is a lookup key, not an owning reference: after PII erasure it
// dangles, and the row stays countable in aggregates.
type Response struct {
	ID           id.ResponseID
	RespondentID id.RespondentID
	FormID       id.FormID
	Role         string
	SubmittedAt  time.Time
	Metadata     map[string]any
}

// Answer is a single question's value within a Response. Owned exclusively by
// its Response and deleted with it.
type Answer struct {
	ID         id.AnswerID
	ResponseID id.ResponseID
	QuestionID id.QuestionID
	Value      AnswerValue
	CreatedAt  time.Time
}
