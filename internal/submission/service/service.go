// Package service coordinates submissions: identity resolution, the
// one-response-per-form guard, and atomic persistence of the PII and
// non-PII halves of a submission.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"formpulse/internal/audit"
	"formpulse/internal/platform/metrics"
	"formpulse/internal/submission/identity"
	"formpulse/internal/submission/models"
	"formpulse/internal/submission/store"
	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
	"formpulse/pkg/platform/sentinel"
	"formpulse/pkg/requestcontext"
)

// TxRunner provides the transactional boundary for a submission. The whole
// find-or-create plus insert sequence runs inside one transaction so a crash
// cannot leave a respondent without their response or vice versa.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(stores store.Stores) error) error
}

// SubmitResult reports the stored identifiers of an accepted submission.
type SubmitResult struct {
	ResponseID   id.ResponseID
	RespondentID id.RespondentID
}

// errFingerprintRace marks a respondent insert that lost a concurrent race
// for the same fingerprint. The loser reruns the transaction and finds the
// winner's row.
var errFingerprintRace = errors.New("fingerprint race lost")

// Service is the submission coordinator.
type Service struct {
	tx      TxRunner
	reads   store.Stores
	hasher  *identity.Hasher
	sink    audit.Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithClock sets the time source for testability.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAuditSink sets the audit event sink.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// NewService constructs the coordinator. reads is a non-transactional store
// bundle used by the read-only paths.
func NewService(tx TxRunner, reads store.Stores, hasher *identity.Hasher, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		tx:      tx,
		reads:   reads,
		hasher:  hasher,
		sink:    audit.Discard{},
		metrics: m,
		logger:  logger,
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Submit validates and stores one submission. The email never touches the
// response or answer rows: it lives only in the respondent record, linked by
// the salted fingerprint. A second submission by the same person for the same
// form fails with CodeDuplicateSubmission regardless of interleaving, because
// the store enforces the (respondent, form) pair uniquely.
func (s *Service) Submit(ctx context.Context, formID id.FormID, req models.SubmitFormRequest) (*SubmitResult, error) {
	if err := req.Validate(); err != nil {
		s.metrics.ValidationFailures.Inc()
		return nil, err
	}

	fingerprint := s.hasher.Fingerprint(req.RespondentEmail)

	result, err := s.submitOnce(ctx, fingerprint, formID, req)
	if errors.Is(err, errFingerprintRace) {
		// Another request created the respondent between our lookup and
		// insert. Their row is now visible; rerun against it.
		result, err = s.submitOnce(ctx, fingerprint, formID, req)
	}
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeDuplicateSubmission) {
			s.metrics.DuplicateSubmissions.Inc()
			s.logger.InfoContext(ctx, "duplicate submission rejected",
				"form_id", string(formID),
				"request_id", requestcontext.RequestID(ctx),
			)
			return nil, err
		}
		if errors.Is(err, errFingerprintRace) {
			return nil, dErrors.New(dErrors.CodeConflict, "submission conflicted, retry")
		}
		return nil, err
	}

	s.metrics.SubmissionsAccepted.Inc()
	s.logger.InfoContext(ctx, "submission accepted",
		"form_id", string(formID),
		"response_id", result.ResponseID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	_ = s.sink.Emit(ctx, audit.Event{
		Category:  audit.CategorySubmission,
		Action:    "response_created",
		Subject:   result.ResponseID.String(),
		RequestID: requestcontext.RequestID(ctx),
		Detail:    map[string]any{"form_id": string(formID), "answers": len(req.Answers)},
	})
	return result, nil
}

func (s *Service) submitOnce(ctx context.Context, fingerprint string, formID id.FormID, req models.SubmitFormRequest) (*SubmitResult, error) {
	var result SubmitResult

	err := s.tx.RunInTx(ctx, func(stores store.Stores) error {
		now := s.clock()

		respondent, err := stores.Respondents.FindByFingerprint(ctx, fingerprint)
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			respondent = &models.Respondent{
				ID:          id.NewRespondentID(),
				Name:        req.RespondentName,
				Email:       req.RespondentEmail,
				Fingerprint: fingerprint,
				CreatedAt:   now,
			}
			if createErr := stores.Respondents.Create(ctx, respondent); createErr != nil {
				if errors.Is(createErr, sentinel.ErrConflict) {
					return errFingerprintRace
				}
				return dErrors.Wrap(createErr, dErrors.CodeInternal, "failed to store respondent")
			}
		case err != nil:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve respondent")
		}

		count, err := stores.Responses.CountByRespondentAndForm(ctx, respondent.ID, formID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check prior submissions")
		}
		if count > 0 {
			return dErrors.New(dErrors.CodeDuplicateSubmission, "a response for this form already exists")
		}

		response := &models.Response{
			ID:           id.NewResponseID(),
			RespondentID: respondent.ID,
			FormID:       formID,
			Role:         req.Role,
			SubmittedAt:  now,
		}
		if agent := requestcontext.ClientAgent(ctx); agent != "" {
			response.Metadata = map[string]any{"client": agent}
		}
		if err := stores.Responses.Create(ctx, response); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				// The duplicate guard raced another submission; the
				// constraint is the authority.
				return dErrors.New(dErrors.CodeDuplicateSubmission, "a response for this form already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store response")
		}

		for _, input := range req.Answers {
			answer := &models.Answer{
				ID:         id.NewAnswerID(),
				ResponseID: response.ID,
				QuestionID: id.QuestionID(input.QuestionID),
				Value:      input.Value,
				CreatedAt:  now,
			}
			if err := stores.Answers.Create(ctx, answer); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store answer")
			}
		}

		result = SubmitResult{ResponseID: response.ID, RespondentID: respondent.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// CheckSubmission reports whether the holder of the email already submitted
// the form. Lookup only, nothing is written.
func (s *Service) CheckSubmission(ctx context.Context, formID id.FormID, email string) (bool, error) {
	if err := models.ValidateEmail(email); err != nil {
		return false, err
	}

	respondent, err := s.reads.Respondents.FindByFingerprint(ctx, s.hasher.Fingerprint(email))
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve respondent")
	}

	count, err := s.reads.Responses.CountByRespondentAndForm(ctx, respondent.ID, formID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check prior submissions")
	}
	return count > 0, nil
}
