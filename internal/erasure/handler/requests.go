package handler

import (
	"strings"

	dErrors "formpulse/pkg/domain-errors"
)

// redeemTokenRequest is the HTTP request body for POST /privacy/erasure.
type redeemTokenRequest struct {
	Token string `json:"token"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *redeemTokenRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Token = strings.TrimSpace(r.Token)
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}

type eraseResponse struct {
	Status string `json:"status"`
}

type mintTokenResponse struct {
	Token string `json:"token"`
}
