package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// WithTransaction handles a database transaction and executes the given
// operation. The named return is load-bearing: the deferred closure assigns
// the commit error into it, so a failed commit reaches the caller instead of
// being reported as success.
func WithTransaction(db *sql.DB, ctx context.Context, operation func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p) // re-throw panic after Rollback
		} else if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("error while rolling back transaction")
			}
		} else {
			err = tx.Commit()
		}
	}()

	err = operation(tx)
	return err
}

// MapPQError translates Postgres constraint violations into sentinel errors.
// Unique violations are the storage-level signal for every idempotent path
// in this core (duplicate member, duplicate direct chat, invite collision).
func MapPQError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", ErrDuplicateKey, pqErr.Constraint)
		}
	}
	return err
}
