package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema keeps PII and response content in separate tables. responses carries
// respondent_id as a plain column, not a foreign key: erasing a respondent row
// must leave their responses behind, so the reference is allowed to dangle.
const schema = `
CREATE TABLE IF NOT EXISTS respondents (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS responses (
	id UUID PRIMARY KEY,
	respondent_id UUID NOT NULL,
	form_id TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	submitted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	metadata JSONB,
	UNIQUE (respondent_id, form_id)
);

CREATE INDEX IF NOT EXISTS idx_responses_form ON responses (form_id);

CREATE TABLE IF NOT EXISTS answers (
	id UUID PRIMARY KEY,
	response_id UUID NOT NULL REFERENCES responses(id) ON DELETE CASCADE,
	question_id TEXT NOT NULL,
	value JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_answers_response ON answers (response_id);

CREATE TABLE IF NOT EXISTS audit_events (
	id BIGSERIAL PRIMARY KEY,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	category TEXT NOT NULL,
	action TEXT NOT NULL,
	subject TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT '',
	detail JSONB
);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
// Statements are idempotent, so repeated startup runs are safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
