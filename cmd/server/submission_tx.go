package main

import (
	"context"
	"database/sql"
	"time"

	"formpulse/internal/submission/store"
	dErrors "formpulse/pkg/domain-errors"
)

const defaultSubmissionTxTimeout = 5 * time.Second

// submissionPostgresTx runs the submission coordinator's closure inside one
// database transaction, handing it tx-scoped stores.
type submissionPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newSubmissionPostgresTx(db *sql.DB) *submissionPostgresTx {
	return &submissionPostgresTx{db: db}
}

func (t *submissionPostgresTx) RunInTx(ctx context.Context, fn func(stores store.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultSubmissionTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
