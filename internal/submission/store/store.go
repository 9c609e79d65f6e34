// Package store persists the privacy-split survey data. Implementations
// return pkg/platform/sentinel errors for infrastructure facts; translation
// into domain errors happens in the services.
package store

import (
	"context"

	"formpulse/internal/submission/models"
	id "formpulse/pkg/domain"
)

// RespondentStore holds the PII records, at most one per fingerprint.
type RespondentStore interface {
	// FindByFingerprint is a unique-key point lookup.
	// Returns sentinel.ErrNotFound when no identity exists for the fingerprint.
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.Respondent, error)

	// Create inserts a new identity record. Returns sentinel.ErrConflict when
	// another record already holds the fingerprint; callers decide whether to
	// retry the lookup or fail.
	Create(ctx context.Context, respondent *models.Respondent) error

	// DeleteByID removes the identity record, reporting whether a row was
	// actually deleted. Response and answer rows are untouched.
	DeleteByID(ctx context.Context, respondentID id.RespondentID) (bool, error)

	// ListByForm returns the identities that have a response for the form.
	ListByForm(ctx context.Context, formID id.FormID) ([]*models.Respondent, error)
}

// ResponseStore holds the anonymized submission envelopes.
type ResponseStore interface {
	// CountByRespondentAndForm backs the duplicate guard. Inside a transaction
	// it must observe rows written earlier in the same transaction.
	CountByRespondentAndForm(ctx context.Context, respondentID id.RespondentID, formID id.FormID) (int, error)

	// Create inserts the envelope. Returns sentinel.ErrConflict when a
	// response already exists for the (respondent, form) pair.
	Create(ctx context.Context, response *models.Response) error

	ListByForm(ctx context.Context, formID id.FormID) ([]*models.Response, error)
}

// AnswerStore holds the per-question answers of a response.
type AnswerStore interface {
	Create(ctx context.Context, answer *models.Answer) error

	ListByResponse(ctx context.Context, responseID id.ResponseID) ([]*models.Answer, error)

	// ListByForm returns every answer attached to any response of the form,
	// for aggregate statistics.
	ListByForm(ctx context.Context, formID id.FormID) ([]*models.Answer, error)
}

// Stores bundles the three stores sharing one connection or transaction.
// A transaction runner hands a tx-scoped bundle to the submission
// coordinator; read paths use a bundle scoped to the plain connection.
type Stores struct {
	Respondents RespondentStore
	Responses   ResponseStore
	Answers     AnswerStore
}
