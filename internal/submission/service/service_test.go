package service

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"formpulse/internal/platform/metrics"
	"formpulse/internal/submission/identity"
	"formpulse/internal/submission/models"
	"formpulse/internal/submission/store"
	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
	"formpulse/pkg/platform/sentinel"
)

type SubmissionServiceSuite struct {
	suite.Suite
	db      *store.MemoryDB
	service *Service
}

func TestSubmissionServiceSuite(t *testing.T) {
	suite.Run(t, new(SubmissionServiceSuite))
}

func (s *SubmissionServiceSuite) SetupTest() {
	s.db = store.NewMemory()
	s.service = NewService(
		s.db,
		s.db.Stores(),
		identity.NewHasher("test-salt"),
		metrics.NewForTest(),
		slog.New(slog.DiscardHandler),
	)
}

func validRequest(email string) models.SubmitFormRequest {
	return models.SubmitFormRequest{
		RespondentName:  "Ada Lovelace",
		RespondentEmail: email,
		Role:            "engineer",
		Answers: []models.AnswerInput{
			{QuestionID: "q1", Value: models.ScalarValue(4)},
			{QuestionID: "q2", Value: models.TextValue("works well")},
		},
	}
}

// TestSubmit verifies the accept path and what it persists.
func (s *SubmissionServiceSuite) TestSubmit() {
	ctx := context.Background()
	formID := id.FormID("likert-2026")

	s.Run("accepts a valid submission", func() {
		result, err := s.service.Submit(ctx, formID, validRequest("ada@example.com"))
		s.Require().NoError(err)
		s.False(result.ResponseID.IsNil())
		s.False(result.RespondentID.IsNil())

		answers, err := s.db.Stores().Answers.ListByResponse(ctx, result.ResponseID)
		s.Require().NoError(err)
		s.Len(answers, 2)
	})

	s.Run("keeps the email out of the response row", func() {
		result, err := s.service.Submit(ctx, "pii-check", validRequest("grace@example.com"))
		s.Require().NoError(err)

		responses, err := s.db.Stores().Responses.ListByForm(ctx, "pii-check")
		s.Require().NoError(err)
		s.Require().Len(responses, 1)
		s.Equal(result.RespondentID, responses[0].RespondentID)
		s.Equal("engineer", responses[0].Role)

		respondent, err := s.db.Stores().Respondents.FindByFingerprint(ctx,
			identity.NewHasher("test-salt").Fingerprint("grace@example.com"))
		s.Require().NoError(err)
		s.Equal("grace@example.com", respondent.Email)
	})

	s.Run("reuses the respondent across forms", func() {
		first, err := s.service.Submit(ctx, "form-a", validRequest("alan@example.com"))
		s.Require().NoError(err)

		second, err := s.service.Submit(ctx, "form-b", validRequest("alan@example.com"))
		s.Require().NoError(err)

		s.Equal(first.RespondentID, second.RespondentID)
		s.NotEqual(first.ResponseID, second.ResponseID)
	})
}

// TestDuplicateDetection verifies the one-response-per-form rule, including
// the normalized-email variants.
func (s *SubmissionServiceSuite) TestDuplicateDetection() {
	ctx := context.Background()
	formID := id.FormID("dup-form")

	s.Run("rejects a second submission for the same form", func() {
		_, err := s.service.Submit(ctx, formID, validRequest("dup@example.com"))
		s.Require().NoError(err)

		_, err = s.service.Submit(ctx, formID, validRequest("dup@example.com"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateSubmission))
	})

	s.Run("treats case and whitespace variants as the same person", func() {
		_, err := s.service.Submit(ctx, "variant-form", validRequest("Carol@Example.com"))
		s.Require().NoError(err)

		_, err = s.service.Submit(ctx, "variant-form", validRequest("  carol@example.COM  "))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateSubmission))
	})

	s.Run("leaves no partial rows behind on rejection", func() {
		_, err := s.service.Submit(ctx, "partial-form", validRequest("dave@example.com"))
		s.Require().NoError(err)
		_, err = s.service.Submit(ctx, "partial-form", validRequest("dave@example.com"))
		s.Require().Error(err)

		responses, err := s.db.Stores().Responses.ListByForm(ctx, "partial-form")
		s.Require().NoError(err)
		s.Len(responses, 1)

		answers, err := s.db.Stores().Answers.ListByForm(ctx, "partial-form")
		s.Require().NoError(err)
		s.Len(answers, 2)
	})
}

// TestValidation verifies that invalid input never reaches the stores.
func (s *SubmissionServiceSuite) TestValidation() {
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.SubmitFormRequest
	}{
		{"empty email", models.SubmitFormRequest{
			RespondentName: "Ada",
			Answers:        []models.AnswerInput{{QuestionID: "q1", Value: models.ScalarValue(1)}},
		}},
		{"script in name", func() models.SubmitFormRequest {
			r := validRequest("eve@example.com")
			r.RespondentName = "<script>alert(1)</script>"
			return r
		}()},
		{"no answers", func() models.SubmitFormRequest {
			r := validRequest("eve@example.com")
			r.Answers = nil
			return r
		}()},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.service.Submit(ctx, "validation-form", tc.req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))

			responses, listErr := s.db.Stores().Responses.ListByForm(ctx, "validation-form")
			s.Require().NoError(listErr)
			s.Empty(responses)
		})
	}
}

// TestConcurrentSubmissions verifies that racing submissions by the same
// person yield exactly one stored response.
func (s *SubmissionServiceSuite) TestConcurrentSubmissions() {
	ctx := context.Background()
	formID := id.FormID("race-form")
	const goroutines = 10

	var wg sync.WaitGroup
	results := make([]error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, results[idx] = s.service.Submit(ctx, formID, validRequest("race@example.com"))
		}(i)
	}
	wg.Wait()

	accepted, duplicates := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			accepted++
		case dErrors.HasCode(err, dErrors.CodeDuplicateSubmission):
			duplicates++
		}
	}
	s.Equal(1, accepted, "exactly one submission should win")
	s.Equal(goroutines-1, duplicates, "all others should be duplicates")

	respondents, err := s.db.Stores().Respondents.ListByForm(ctx, formID)
	s.Require().NoError(err)
	s.Len(respondents, 1)

	responses, err := s.db.Stores().Responses.ListByForm(ctx, formID)
	s.Require().NoError(err)
	s.Len(responses, 1)
}

// TestFingerprintRaceRetry verifies that losing the respondent insert race
// reruns the transaction against the winner's row.
func (s *SubmissionServiceSuite) TestFingerprintRaceRetry() {
	ctx := context.Background()
	hasher := identity.NewHasher("test-salt")

	runner := &racingTxRunner{db: s.db, hasher: hasher}
	service := NewService(runner, s.db.Stores(), hasher, metrics.NewForTest(), slog.New(slog.DiscardHandler))

	result, err := service.Submit(ctx, "retry-form", validRequest("retry@example.com"))
	s.Require().NoError(err)
	s.Equal(2, runner.calls, "transaction should run twice")

	winner, err := s.db.Stores().Respondents.FindByFingerprint(ctx, hasher.Fingerprint("retry@example.com"))
	s.Require().NoError(err)
	s.Equal(winner.ID, result.RespondentID, "loser must attach to the winner's identity")
}

// TestCheckSubmission verifies the read-only duplicate probe.
func (s *SubmissionServiceSuite) TestCheckSubmission() {
	ctx := context.Background()

	s.Run("reports false for an unknown email", func() {
		submitted, err := s.service.CheckSubmission(ctx, "check-form", "nobody@example.com")
		s.Require().NoError(err)
		s.False(submitted)
	})

	s.Run("reports true after a submission", func() {
		_, err := s.service.Submit(ctx, "check-form", validRequest("checked@example.com"))
		s.Require().NoError(err)

		submitted, err := s.service.CheckSubmission(ctx, "check-form", "checked@example.com")
		s.Require().NoError(err)
		s.True(submitted)

		submitted, err = s.service.CheckSubmission(ctx, "other-form", "checked@example.com")
		s.Require().NoError(err)
		s.False(submitted)
	})

	s.Run("rejects an invalid email", func() {
		_, err := s.service.CheckSubmission(ctx, "check-form", "not-an-email")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// racingTxRunner makes the first transaction lose the fingerprint race: the
// lookup misses, the insert conflicts, and by the time the retry runs a
// concurrent winner's row has been committed. Later transactions run normally.
type racingTxRunner struct {
	db      *store.MemoryDB
	hasher  *identity.Hasher
	calls   int
	pending *models.Respondent
}

func (r *racingTxRunner) RunInTx(ctx context.Context, fn func(stores store.Stores) error) error {
	r.calls++
	if r.calls > 1 {
		return r.db.RunInTx(ctx, fn)
	}
	err := r.db.RunInTx(ctx, func(stores store.Stores) error {
		stores.Respondents = &racingRespondents{runner: r}
		return fn(stores)
	})
	if r.pending != nil {
		// The winner commits between the loser's failure and its retry.
		winner := &models.Respondent{
			ID:          id.NewRespondentID(),
			Name:        r.pending.Name,
			Email:       r.pending.Email,
			Fingerprint: r.pending.Fingerprint,
			CreatedAt:   time.Now(),
		}
		if createErr := r.db.Stores().Respondents.Create(context.Background(), winner); createErr != nil {
			return createErr
		}
		r.pending = nil
	}
	return err
}

type racingRespondents struct {
	store.RespondentStore
	runner *racingTxRunner
}

func (r *racingRespondents) FindByFingerprint(context.Context, string) (*models.Respondent, error) {
	return nil, sentinel.ErrNotFound
}

func (r *racingRespondents) Create(_ context.Context, respondent *models.Respondent) error {
	r.runner.pending = respondent
	return sentinel.ErrConflict
}
