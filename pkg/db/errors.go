package db

import (
	"errors"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation   = "23505"
	sqliteUniquePrefix  = "UNIQUE constraint failed: "
	pgDuplicateKeyTitle = "duplicate key value"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided the constraint must match as well.
//
// SQLite errors carry no constraint name, only the table.column list of the
// index, so callers naming a constraint pass its columns for SQLite to match.
func IsUniqueViolation(err error, constraintName string, sqliteColumns ...string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return constraintName == "" || pgErr.ConstraintName == constraintName
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return constraintName == "" || pqErr.Constraint == constraintName
	}

	msg := err.Error()
	if idx := strings.Index(msg, sqliteUniquePrefix); idx >= 0 {
		if constraintName == "" || strings.Contains(msg, "index '"+constraintName+"'") {
			return true
		}
		return sameColumns(msg[idx+len(sqliteUniquePrefix):], sqliteColumns)
	}
	if strings.Contains(msg, pgDuplicateKeyTitle) {
		return constraintName == "" || strings.Contains(msg, `"`+constraintName+`"`)
	}
	return false
}

func sameColumns(failed string, want []string) bool {
	if len(want) == 0 {
		return false
	}
	got := strings.Split(strings.TrimSpace(failed), ", ")
	if len(got) != len(want) {
		return false
	}
	for _, col := range want {
		if !slices.Contains(got, col) {
			return false
		}
	}
	return true
}
