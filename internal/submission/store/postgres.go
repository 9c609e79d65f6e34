package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"formpulse/internal/submission/models"
	id "formpulse/pkg/domain"
	"formpulse/pkg/platform/sentinel"
)

// querier is satisfied by both *sql.DB and *sql.Tx, so the same store code
// serves autocommit reads and transactional writes.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewPostgres builds a store bundle running each call directly on db.
func NewPostgres(db *sql.DB) Stores {
	return postgresStores(db)
}

// NewPostgresTx builds a store bundle scoped to an open transaction.
func NewPostgresTx(tx *sql.Tx) Stores {
	return postgresStores(tx)
}

func postgresStores(q querier) Stores {
	return Stores{
		Respondents: &pgRespondents{q: q},
		Responses:   &pgResponses{q: q},
		Answers:     &pgAnswers{q: q},
	}
}

const pgUniqueViolation = "23505"

// mapPgError translates driver errors into store sentinels.
func mapPgError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return sentinel.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

type pgRespondents struct {
	q querier
}

func (p *pgRespondents) FindByFingerprint(ctx context.Context, fingerprint string) (*models.Respondent, error) {
	var (
		respondent models.Respondent
		rawID      uuid.UUID
	)
	err := p.q.QueryRowContext(ctx, `
		SELECT id, name, email, fingerprint, created_at
		FROM respondents
		WHERE fingerprint = $1
	`, fingerprint).Scan(&rawID, &respondent.Name, &respondent.Email, &respondent.Fingerprint, &respondent.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find respondent by fingerprint: %w", err)
	}
	respondent.ID = id.RespondentID(rawID)
	return &respondent, nil
}

func (p *pgRespondents) Create(ctx context.Context, respondent *models.Respondent) error {
	_, err := p.q.ExecContext(ctx, `
		INSERT INTO respondents (id, name, email, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(respondent.ID), respondent.Name, respondent.Email, respondent.Fingerprint, respondent.CreatedAt)
	if err != nil {
		return mapPgError("create respondent", err)
	}
	return nil
}

func (p *pgRespondents) DeleteByID(ctx context.Context, respondentID id.RespondentID) (bool, error) {
	result, err := p.q.ExecContext(ctx, `DELETE FROM respondents WHERE id = $1`, uuid.UUID(respondentID))
	if err != nil {
		return false, fmt.Errorf("delete respondent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete respondent rows affected: %w", err)
	}
	return affected > 0, nil
}

func (p *pgRespondents) ListByForm(ctx context.Context, formID id.FormID) ([]*models.Respondent, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT r.id, r.name, r.email, r.fingerprint, r.created_at
		FROM respondents r
		JOIN responses resp ON resp.respondent_id = r.id
		WHERE resp.form_id = $1
		ORDER BY r.created_at
	`, string(formID))
	if err != nil {
		return nil, fmt.Errorf("list respondents by form: %w", err)
	}
	defer rows.Close()

	var out []*models.Respondent
	for rows.Next() {
		var (
			respondent models.Respondent
			rawID      uuid.UUID
		)
		if err := rows.Scan(&rawID, &respondent.Name, &respondent.Email, &respondent.Fingerprint, &respondent.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan respondent: %w", err)
		}
		respondent.ID = id.RespondentID(rawID)
		out = append(out, &respondent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list respondents by form: %w", err)
	}
	return out, nil
}

type pgResponses struct {
	q querier
}

func (p *pgResponses) CountByRespondentAndForm(ctx context.Context, respondentID id.RespondentID, formID id.FormID) (int, error) {
	var count int
	err := p.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM responses
		WHERE respondent_id = $1 AND form_id = $2
	`, uuid.UUID(respondentID), string(formID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return count, nil
}

func (p *pgResponses) Create(ctx context.Context, response *models.Response) error {
	var metadata []byte
	if response.Metadata != nil {
		var err error
		metadata, err = json.Marshal(response.Metadata)
		if err != nil {
			return fmt.Errorf("marshal response metadata: %w", err)
		}
	}
	_, err := p.q.ExecContext(ctx, `
		INSERT INTO responses (id, respondent_id, form_id, role, submitted_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(response.ID), uuid.UUID(response.RespondentID), string(response.FormID),
		response.Role, response.SubmittedAt, metadata)
	if err != nil {
		return mapPgError("create response", err)
	}
	return nil
}

func (p *pgResponses) ListByForm(ctx context.Context, formID id.FormID) ([]*models.Response, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT id, respondent_id, form_id, role, submitted_at, metadata
		FROM responses
		WHERE form_id = $1
		ORDER BY submitted_at
	`, string(formID))
	if err != nil {
		return nil, fmt.Errorf("list responses by form: %w", err)
	}
	defer rows.Close()

	var out []*models.Response
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, response)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list responses by form: %w", err)
	}
	return out, nil
}

func scanResponse(rows *sql.Rows) (*models.Response, error) {
	var (
		response    models.Response
		rawID       uuid.UUID
		rawRespID   uuid.UUID
		rawForm     string
		rawMetadata []byte
	)
	if err := rows.Scan(&rawID, &rawRespID, &rawForm, &response.Role, &response.SubmittedAt, &rawMetadata); err != nil {
		return nil, fmt.Errorf("scan response: %w", err)
	}
	response.ID = id.ResponseID(rawID)
	response.RespondentID = id.RespondentID(rawRespID)
	response.FormID = id.FormID(rawForm)
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &response.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal response metadata: %w", err)
		}
	}
	return &response, nil
}

type pgAnswers struct {
	q querier
}

func (p *pgAnswers) Create(ctx context.Context, answer *models.Answer) error {
	value, err := json.Marshal(answer.Value)
	if err != nil {
		return fmt.Errorf("marshal answer value: %w", err)
	}
	_, err = p.q.ExecContext(ctx, `
		INSERT INTO answers (id, response_id, question_id, value, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(answer.ID), uuid.UUID(answer.ResponseID), string(answer.QuestionID), value, answer.CreatedAt)
	if err != nil {
		return mapPgError("create answer", err)
	}
	return nil
}

func (p *pgAnswers) ListByResponse(ctx context.Context, responseID id.ResponseID) ([]*models.Answer, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT id, response_id, question_id, value, created_at
		FROM answers
		WHERE response_id = $1
		ORDER BY created_at
	`, uuid.UUID(responseID))
	if err != nil {
		return nil, fmt.Errorf("list answers by response: %w", err)
	}
	return collectAnswers(rows, "list answers by response")
}

func (p *pgAnswers) ListByForm(ctx context.Context, formID id.FormID) ([]*models.Answer, error) {
	rows, err := p.q.QueryContext(ctx, `
		SELECT a.id, a.response_id, a.question_id, a.value, a.created_at
		FROM answers a
		JOIN responses r ON r.id = a.response_id
		WHERE r.form_id = $1
	`, string(formID))
	if err != nil {
		return nil, fmt.Errorf("list answers by form: %w", err)
	}
	return collectAnswers(rows, "list answers by form")
}

func collectAnswers(rows *sql.Rows, op string) ([]*models.Answer, error) {
	defer rows.Close()

	var out []*models.Answer
	for rows.Next() {
		var (
			answer    models.Answer
			rawID     uuid.UUID
			rawRespID uuid.UUID
			rawQ      string
			rawValue  []byte
		)
		if err := rows.Scan(&rawID, &rawRespID, &rawQ, &rawValue, &answer.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answer.ID = id.AnswerID(rawID)
		answer.ResponseID = id.ResponseID(rawRespID)
		answer.QuestionID = id.QuestionID(rawQ)
		if err := json.Unmarshal(rawValue, &answer.Value); err != nil {
			return nil, fmt.Errorf("unmarshal answer value: %w", err)
		}
		out = append(out, &answer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
