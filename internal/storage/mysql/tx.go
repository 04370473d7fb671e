package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"orderbook-engine/internal/storage"
)

// Tx runs fn inside a serializable transaction. If fn returns an error, or
// panics, the transaction is rolled back; no partial state is ever visible
// to other callers.
func (s *Store) Tx(ctx context.Context, fn func(storage.Store) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{db: s.db, q: tx}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
