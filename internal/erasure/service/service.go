// Package service implements PII erasure: removing a respondent's identity
// record while leaving their anonymized responses countable.
package service

import (
	"context"
	"log/slog"

	"formpulse/internal/audit"
	"formpulse/internal/platform/metrics"
	"formpulse/internal/submission/store"
	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
	"formpulse/pkg/requestcontext"
)

// Service erases respondent PII. Responses and answers are untouched: the
// dangling respondent reference is what keeps aggregates stable after erasure.
type Service struct {
	respondents store.RespondentStore
	sink        audit.Sink
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

func NewService(respondents store.RespondentStore, sink audit.Sink, m *metrics.Metrics, logger *slog.Logger) *Service {
	if sink == nil {
		sink = audit.Discard{}
	}
	return &Service{
		respondents: respondents,
		sink:        sink,
		metrics:     m,
		logger:      logger,
	}
}

// Erase removes the respondent's identity record. Already-erased and
// never-existed are indistinguishable by design; both surface as CodeNotFound.
// The delete is idempotent at the store level, so no transaction is needed.
func (s *Service) Erase(ctx context.Context, respondentID id.RespondentID) error {
	deleted, err := s.respondents.DeleteByID(ctx, respondentID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to erase respondent")
	}
	if !deleted {
		return dErrors.New(dErrors.CodeNotFound, "no identity record for this respondent")
	}

	s.metrics.RespondentsErased.Inc()
	s.logger.InfoContext(ctx, "respondent erased",
		"respondent_id", respondentID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	_ = s.sink.Emit(ctx, audit.Event{
		Category:  audit.CategoryPrivacy,
		Action:    "respondent_erased",
		Subject:   respondentID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}
