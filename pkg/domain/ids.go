// Package domain holds typed identifiers shared across features.
//
// IDs are distinct types over uuid.UUID so that a ResponseID can never be
// passed where a RespondentID is expected. Construct from external input via
// the Parse functions at trust boundaries; direct casting bypasses validation.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "formpulse/pkg/domain-errors"
)

// RespondentID identifies a PII-bearing respondent record.
type RespondentID uuid.UUID

// ResponseID identifies one anonymized form submission.
type ResponseID uuid.UUID

// AnswerID identifies a single answer row within a response.
type AnswerID uuid.UUID

// FormID identifies a form. Forms are authored outside this service, so the
// ID is an opaque slug rather than a UUID.
type FormID string

// QuestionID identifies a question within a form, also authored externally.
type QuestionID string

const maxSlugLen = 64

func (id RespondentID) String() string { return uuid.UUID(id).String() }
func (id RespondentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id ResponseID) String() string { return uuid.UUID(id).String() }
func (id ResponseID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AnswerID) String() string { return uuid.UUID(id).String() }
func (id AnswerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id FormID) String() string     { return string(id) }
func (id QuestionID) String() string { return string(id) }

// NewRespondentID generates a fresh respondent identifier.
func NewRespondentID() RespondentID { return RespondentID(uuid.New()) }

// NewResponseID generates a fresh response identifier.
func NewResponseID() ResponseID { return ResponseID(uuid.New()) }

// NewAnswerID generates a fresh answer identifier.
func NewAnswerID() AnswerID { return AnswerID(uuid.New()) }

// ParseRespondentID constructs a RespondentID from external input.
func ParseRespondentID(raw string) (RespondentID, error) {
	parsed, err := parseUUID(raw, "respondent id")
	return RespondentID(parsed), err
}

// ParseResponseID constructs a ResponseID from external input.
func ParseResponseID(raw string) (ResponseID, error) {
	parsed, err := parseUUID(raw, "response id")
	return ResponseID(parsed), err
}

// ParseFormID constructs a FormID from external input.
func ParseFormID(raw string) (FormID, error) {
	if err := validateSlug(raw, "form id"); err != nil {
		return "", err
	}
	return FormID(raw), nil
}

// ParseQuestionID constructs a QuestionID from external input.
func ParseQuestionID(raw string) (QuestionID, error) {
	if err := validateSlug(raw, "question id"); err != nil {
		return "", err
	}
	return QuestionID(raw), nil
}

func parseUUID(raw, label string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, label+" must not be the nil UUID")
	}
	return parsed, nil
}

func validateSlug(raw, label string) error {
	if raw == "" {
		return dErrors.New(dErrors.CodeBadRequest, label+" is required")
	}
	if len(raw) > maxSlugLen {
		return dErrors.New(dErrors.CodeBadRequest, label+" is too long")
	}
	if strings.ContainsAny(raw, " \t\n/") {
		return dErrors.New(dErrors.CodeBadRequest, label+" contains invalid characters")
	}
	return nil
}
