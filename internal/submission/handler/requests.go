package handler

import (
	"strings"

	"formpulse/internal/submission/models"
	dErrors "formpulse/pkg/domain-errors"
)

// submitBody is the raw submission payload. It deliberately carries no
// Validate method: the service owns submission validation.
type submitBody models.SubmitFormRequest

// checkSubmissionRequest is the HTTP request body for
// POST /forms/{form_id}/check-submission.
type checkSubmissionRequest struct {
	Email string `json:"email"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *checkSubmissionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	return nil
}

type submitResponse struct {
	ResponseID string `json:"response_id"`
	Status     string `json:"status"`
}

type checkSubmissionResponse struct {
	HasSubmitted bool `json:"has_submitted"`
}
