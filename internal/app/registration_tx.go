package app

import (
	"context"
	"database/sql"
	"time"

	regstore "catapult/internal/registration/store"
	dErrors "catapult/pkg/domain-errors"
)

const defaultRegistrationTxTimeout = 5 * time.Second

// registrationPostgresTx runs one waive/complete workflow in a database
// transaction. The deadline covers the LRS calls made while row locks are held:
// fn receives the deadline-bound context and must use it for every call.
type registrationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRegistrationPostgresTx(db *sql.DB, timeout time.Duration) *registrationPostgresTx {
	return &registrationPostgresTx{db: db, timeout: timeout}
}

func (t *registrationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, tx regstore.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistrationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, regstore.NewPostgresTx(tx)); err != nil {
		if ctx.Err() != nil && !dErrors.HasCode(err, dErrors.CodeTimeout) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction deadline exceeded")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		if ctx.Err() != nil {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction deadline exceeded")
		}
		return dErrors.Wrap(err, dErrors.CodeInternalStoreFailure, "failed to commit transaction")
	}
	return nil
}
