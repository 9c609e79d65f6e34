package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"formpulse/internal/submission/models"
	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	db  *MemoryDB
	ctx context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.db = NewMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newRespondent(fingerprint string) *models.Respondent {
	return &models.Respondent{
		ID:          id.NewRespondentID(),
		Name:        "Ada Lovelace",
		Email:       "ada@example.com",
		Fingerprint: fingerprint,
		CreatedAt:   time.Now(),
	}
}

func (s *MemoryStoreSuite) newResponse(respondentID id.RespondentID, formID id.FormID) *models.Response {
	return &models.Response{
		ID:           id.NewResponseID(),
		RespondentID: respondentID,
		FormID:       formID,
		Role:         "engineer",
		SubmittedAt:  time.Now(),
	}
}

// TestRespondents verifies respondent creation, lookup and erasure.
func (s *MemoryStoreSuite) TestRespondents() {
	s.Run("creates and finds respondent by fingerprint", func() {
		respondent := s.newRespondent("fp-1")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		found, err := s.db.Stores().Respondents.FindByFingerprint(s.ctx, "fp-1")
		s.Require().NoError(err)
		s.Equal(respondent.ID, found.ID)
		s.Equal(respondent.Email, found.Email)
	})

	s.Run("returns ErrNotFound for unknown fingerprint", func() {
		_, err := s.db.Stores().Respondents.FindByFingerprint(s.ctx, "missing")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate fingerprint", func() {
		first := s.newRespondent("fp-dup")
		second := s.newRespondent("fp-dup")

		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, first))

		err := s.db.Stores().Respondents.Create(s.ctx, second)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("deletes respondent and frees the fingerprint", func() {
		respondent := s.newRespondent("fp-del")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		deleted, err := s.db.Stores().Respondents.DeleteByID(s.ctx, respondent.ID)
		s.Require().NoError(err)
		s.True(deleted)

		_, err = s.db.Stores().Respondents.FindByFingerprint(s.ctx, "fp-del")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("delete of unknown respondent reports false", func() {
		deleted, err := s.db.Stores().Respondents.DeleteByID(s.ctx, id.NewRespondentID())
		s.Require().NoError(err)
		s.False(deleted)
	})
}

// TestResponses verifies the one-response-per-respondent-per-form rule.
func (s *MemoryStoreSuite) TestResponses() {
	formID := id.FormID("likert-2026")

	s.Run("creates response and counts it", func() {
		respondent := s.newRespondent("fp-resp")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		response := s.newResponse(respondent.ID, formID)
		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, response))

		count, err := s.db.Stores().Responses.CountByRespondentAndForm(s.ctx, respondent.ID, formID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("rejects second response for the same respondent and form", func() {
		respondent := s.newRespondent("fp-twice")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, s.newResponse(respondent.ID, formID)))

		err := s.db.Stores().Responses.Create(s.ctx, s.newResponse(respondent.ID, formID))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("allows the same respondent on different forms", func() {
		respondent := s.newRespondent("fp-multi")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, s.newResponse(respondent.ID, "form-a")))
		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, s.newResponse(respondent.ID, "form-b")))
	})

	s.Run("responses survive respondent erasure", func() {
		respondent := s.newRespondent("fp-erased")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		response := s.newResponse(respondent.ID, "form-erased")
		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, response))

		deleted, err := s.db.Stores().Respondents.DeleteByID(s.ctx, respondent.ID)
		s.Require().NoError(err)
		s.True(deleted)

		remaining, err := s.db.Stores().Responses.ListByForm(s.ctx, "form-erased")
		s.Require().NoError(err)
		s.Require().Len(remaining, 1)
		s.Equal(response.ID, remaining[0].ID)
	})
}

// TestAnswers verifies answer listing scoped by response and form.
func (s *MemoryStoreSuite) TestAnswers() {
	s.Run("lists answers for a response in creation order", func() {
		respondent := s.newRespondent("fp-ans")
		s.Require().NoError(s.db.Stores().Respondents.Create(s.ctx, respondent))

		response := s.newResponse(respondent.ID, "form-ans")
		s.Require().NoError(s.db.Stores().Responses.Create(s.ctx, response))

		base := time.Now()
		for i, q := range []id.QuestionID{"q1", "q2", "q3"} {
			answer := &models.Answer{
				ID:         id.NewAnswerID(),
				ResponseID: response.ID,
				QuestionID: q,
				Value:      models.ScalarValue(float64(i + 1)),
				CreatedAt:  base.Add(time.Duration(i) * time.Millisecond),
			}
			s.Require().NoError(s.db.Stores().Answers.Create(s.ctx, answer))
		}

		answers, err := s.db.Stores().Answers.ListByResponse(s.ctx, response.ID)
		s.Require().NoError(err)
		s.Require().Len(answers, 3)
		s.Equal(id.QuestionID("q1"), answers[0].QuestionID)
		s.Equal(id.QuestionID("q3"), answers[2].QuestionID)
	})
}

// TestTransactions verifies commit-on-success and rollback-on-error semantics.
func (s *MemoryStoreSuite) TestTransactions() {
	s.Run("commits on success", func() {
		err := s.db.RunInTx(s.ctx, func(stores Stores) error {
			return stores.Respondents.Create(s.ctx, s.newRespondent("fp-commit"))
		})
		s.Require().NoError(err)

		_, err = s.db.Stores().Respondents.FindByFingerprint(s.ctx, "fp-commit")
		s.Require().NoError(err)
	})

	s.Run("discards writes when fn fails", func() {
		boom := errors.New("boom")
		err := s.db.RunInTx(s.ctx, func(stores Stores) error {
			if createErr := stores.Respondents.Create(s.ctx, s.newRespondent("fp-rollback")); createErr != nil {
				return createErr
			}
			return boom
		})
		s.Require().ErrorIs(err, boom)

		_, err = s.db.Stores().Respondents.FindByFingerprint(s.ctx, "fp-rollback")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("reads its own uncommitted writes", func() {
		err := s.db.RunInTx(s.ctx, func(stores Stores) error {
			respondent := s.newRespondent("fp-ryw")
			if createErr := stores.Respondents.Create(s.ctx, respondent); createErr != nil {
				return createErr
			}
			if createErr := stores.Responses.Create(s.ctx, s.newResponse(respondent.ID, "form-ryw")); createErr != nil {
				return createErr
			}
			count, countErr := stores.Responses.CountByRespondentAndForm(s.ctx, respondent.ID, "form-ryw")
			if countErr != nil {
				return countErr
			}
			s.Equal(1, count)
			return nil
		})
		s.Require().NoError(err)
	})

	s.Run("respects an already-cancelled context", func() {
		cancelled, cancel := context.WithCancel(s.ctx)
		cancel()

		err := s.db.RunInTx(cancelled, func(Stores) error { return nil })
		s.Require().ErrorIs(err, context.Canceled)
	})
}
