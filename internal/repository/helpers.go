package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"zonuko/internal/database"
)

// inTx runs fn in a new transaction when db is a plain connection, and
// directly when db is already a transaction.
func inTx(ctx context.Context, db database.DBTX, fn func(database.DBTX) error) error {
	if d, ok := db.(*database.DB); ok {
		return d.WithTx(ctx, func(tx *database.Tx) error { return fn(tx) })
	}
	return fn(db)
}

// inClause returns "?, ?, ?" for n placeholders and the ids as args.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func rowsAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
