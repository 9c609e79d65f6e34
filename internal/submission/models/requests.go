package models

import (
	"strings"

	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
)

const (
	maxNameLen    = 255
	maxEmailLen   = 254
	maxRoleLen    = 100
	maxTextLen    = 10000
	maxAnswerRows = 200
)

// SubmitFormRequest is the inbound submission body, decoded by the HTTP layer
// before it reaches the coordinator.
type SubmitFormRequest struct {
	RespondentName  string        `json:"respondent_name"`
	RespondentEmail string        `json:"respondent_email"`
	Role            string        `json:"role,omitempty"`
	Answers         []AnswerInput `json:"answers"`
}

// AnswerInput is one question's answer within a submission.
type AnswerInput struct {
	QuestionID string      `json:"question_id"`
	Value      AnswerValue `json:"value"`
}

// scriptMarkers are rejected in free text regardless of position or case.
var scriptMarkers = []string{"<script", "javascript:", "onerror=", "onclick="}

// Validate enforces the submission rules before any store is touched. All
// failures carry CodeValidation so the transport maps them to 400.
func (r SubmitFormRequest) Validate() error {
	if err := validateName(r.RespondentName); err != nil {
		return err
	}
	if err := ValidateEmail(r.RespondentEmail); err != nil {
		return err
	}
	if err := validateRole(r.Role); err != nil {
		return err
	}

	if len(r.Answers) == 0 {
		return dErrors.New(dErrors.CodeValidation, "no answers provided")
	}
	if len(r.Answers) > maxAnswerRows {
		return dErrors.New(dErrors.CodeValidation, "too many answers")
	}
	for _, answer := range r.Answers {
		if _, err := id.ParseQuestionID(answer.QuestionID); err != nil {
			return dErrors.New(dErrors.CodeValidation, "answer is missing a valid question id")
		}
		if err := validateValue(answer.Value); err != nil {
			return err
		}
	}
	return nil
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(trimmed) > maxNameLen {
		return dErrors.New(dErrors.CodeValidation, "name is too long (max 255 characters)")
	}
	lower := strings.ToLower(name)
	if strings.ContainsAny(name, "<>") || strings.Contains(lower, "script") || strings.Contains(lower, "javascript:") {
		return dErrors.New(dErrors.CodeValidation, "invalid characters in name")
	}
	return nil
}

// ValidateEmail checks shape only: one @, non-empty local part, dotted
// domain. Deliverability is not this service's problem. Exported because the
// check-submission path validates an email with no surrounding request.
func ValidateEmail(email string) error {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	// Length is judged on the trimmed value, matching what the fingerprint
	// hashes.
	if len(trimmed) > maxEmailLen {
		return dErrors.New(dErrors.CodeValidation, "email is too long")
	}

	normalized := strings.ToLower(trimmed)
	local, domain, found := strings.Cut(normalized, "@")
	if !found || local == "" || domain == "" || strings.Contains(domain, "@") {
		return dErrors.New(dErrors.CodeValidation, "invalid email address")
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return dErrors.New(dErrors.CodeValidation, "invalid email domain")
	}
	// Comment and escape sequences have no business in an email address.
	for _, marker := range []string{";", "--", "/*", "*/", `\`} {
		if strings.Contains(normalized, marker) {
			return dErrors.New(dErrors.CodeValidation, "invalid characters in email")
		}
	}
	return nil
}

func validateRole(role string) error {
	if role == "" {
		return nil
	}
	if len(role) > maxRoleLen {
		return dErrors.New(dErrors.CodeValidation, "role is too long (max 100 characters)")
	}
	lower := strings.ToLower(role)
	if strings.ContainsAny(role, "<>") || strings.Contains(lower, "script") {
		return dErrors.New(dErrors.CodeValidation, "invalid characters in role")
	}
	return nil
}

func validateValue(v AnswerValue) error {
	switch v.Kind() {
	case ValueScalar:
		// Finiteness is enforced at decode; nothing further to check.
		return nil
	case ValueText:
		return validateText(v.Text())
	case ValueRated:
		_, comment := v.Rated()
		return validateText(comment)
	default:
		return dErrors.New(dErrors.CodeValidation, "unsupported answer value")
	}
}

func validateText(text string) error {
	if len(text) > maxTextLen {
		return dErrors.New(dErrors.CodeValidation, "answer text is too long (max 10000 characters)")
	}
	lower := strings.ToLower(text)
	for _, marker := range scriptMarkers {
		if strings.Contains(lower, marker) {
			return dErrors.New(dErrors.CodeValidation, "invalid content in answer")
		}
	}
	return nil
}
