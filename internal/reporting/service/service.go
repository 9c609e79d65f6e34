// Package service computes the read models over stored submissions: anonymous
// aggregates for public consumption and PII-joined listings for admins.
package service

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"formpulse/internal/submission/models"
	"formpulse/internal/submission/store"
	id "formpulse/pkg/domain"
	dErrors "formpulse/pkg/domain-errors"
)

// FormStats is the anonymous aggregate for one form. It is computed from
// responses and answers only, so erased respondents stay counted.
type FormStats struct {
	FormID         string          `json:"form_id"`
	TotalResponses int             `json:"total_responses"`
	Roles          map[string]int  `json:"roles"`
	Questions      []QuestionStats `json:"questions"`
}

// QuestionStats aggregates one question across all responses of a form.
type QuestionStats struct {
	QuestionID   string         `json:"question_id"`
	Count        int            `json:"count"`
	Average      *float64       `json:"average,omitempty"`
	Distribution map[string]int `json:"distribution,omitempty"`
}

// ResponseWithPII is the admin view of one response. Name and Email are nil
// when the respondent's identity record has been erased.
type ResponseWithPII struct {
	ResponseID  string      `json:"response_id"`
	Name        *string     `json:"name"`
	Email       *string     `json:"email"`
	Role        string      `json:"role,omitempty"`
	SubmittedAt time.Time   `json:"submitted_at"`
	Answers     []AnswerOut `json:"answers"`
}

// AnswerOut is one answer in an admin response listing.
type AnswerOut struct {
	QuestionID string             `json:"question_id"`
	Value      models.AnswerValue `json:"value"`
}

// RespondentSummary is one row of the admin roster.
type RespondentSummary struct {
	RespondentID string    `json:"respondent_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// Service reads stored submissions into report shapes.
type Service struct {
	stores store.Stores
	logger *slog.Logger
}

func NewService(stores store.Stores, logger *slog.Logger) *Service {
	return &Service{stores: stores, logger: logger}
}

// Stats aggregates the form's responses without touching any PII table.
func (s *Service) Stats(ctx context.Context, formID id.FormID) (*FormStats, error) {
	responses, err := s.stores.Responses.ListByForm(ctx, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses")
	}
	answers, err := s.stores.Answers.ListByForm(ctx, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load answers")
	}

	stats := &FormStats{
		FormID:         string(formID),
		TotalResponses: len(responses),
		Roles:          make(map[string]int),
	}
	for _, response := range responses {
		if response.Role != "" {
			stats.Roles[response.Role]++
		}
	}

	perQuestion := make(map[id.QuestionID]*questionAccumulator)
	for _, answer := range answers {
		acc := perQuestion[answer.QuestionID]
		if acc == nil {
			acc = &questionAccumulator{}
			perQuestion[answer.QuestionID] = acc
		}
		acc.add(answer.Value)
	}

	for questionID, acc := range perQuestion {
		stats.Questions = append(stats.Questions, acc.stats(string(questionID)))
	}
	sort.Slice(stats.Questions, func(i, j int) bool {
		return stats.Questions[i].QuestionID < stats.Questions[j].QuestionID
	})
	return stats, nil
}

// questionAccumulator folds answer values into count, mean and a rating
// histogram. Text answers contribute to the count only.
type questionAccumulator struct {
	count        int
	numericCount int
	sum          float64
	distribution map[string]int
}

func (a *questionAccumulator) add(value models.AnswerValue) {
	a.count++

	rating, ok := value.Rating()
	if !ok {
		return
	}
	a.numericCount++
	a.sum += rating
	if a.distribution == nil {
		a.distribution = make(map[string]int)
	}
	a.distribution[strconv.FormatFloat(rating, 'f', -1, 64)]++
}

func (a *questionAccumulator) stats(questionID string) QuestionStats {
	out := QuestionStats{
		QuestionID:   questionID,
		Count:        a.count,
		Distribution: a.distribution,
	}
	if a.numericCount > 0 {
		avg := a.sum / float64(a.numericCount)
		out.Average = &avg
	}
	return out
}

// ResponsesWithPII joins each response with its respondent's identity. Erased
// respondents appear with nil name and email; their responses are never
// filtered out.
func (s *Service) ResponsesWithPII(ctx context.Context, formID id.FormID) ([]ResponseWithPII, error) {
	responses, err := s.stores.Responses.ListByForm(ctx, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load responses")
	}
	respondents, err := s.stores.Respondents.ListByForm(ctx, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load respondents")
	}

	identities := make(map[id.RespondentID]*models.Respondent, len(respondents))
	for _, respondent := range respondents {
		identities[respondent.ID] = respondent
	}

	out := make([]ResponseWithPII, 0, len(responses))
	for _, response := range responses {
		row := ResponseWithPII{
			ResponseID:  response.ID.String(),
			Role:        response.Role,
			SubmittedAt: response.SubmittedAt,
			Answers:     []AnswerOut{},
		}
		if identity, ok := identities[response.RespondentID]; ok {
			row.Name = &identity.Name
			row.Email = &identity.Email
		}

		answers, err := s.stores.Answers.ListByResponse(ctx, response.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load answers")
		}
		for _, answer := range answers {
			row.Answers = append(row.Answers, AnswerOut{
				QuestionID: string(answer.QuestionID),
				Value:      answer.Value,
			})
		}
		out = append(out, row)
	}
	return out, nil
}

// Respondents lists the identity records that still exist for a form.
func (s *Service) Respondents(ctx context.Context, formID id.FormID) ([]RespondentSummary, error) {
	respondents, err := s.stores.Respondents.ListByForm(ctx, formID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load respondents")
	}

	out := make([]RespondentSummary, 0, len(respondents))
	for _, respondent := range respondents {
		out = append(out, RespondentSummary{
			RespondentID: respondent.ID.String(),
			Name:         respondent.Name,
			Email:        respondent.Email,
			CreatedAt:    respondent.CreatedAt,
		})
	}
	return out, nil
}
