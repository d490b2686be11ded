package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgDetail is the subset of a Postgres server error worth logging. Both the
// pgx and lib/pq drivers are in use, so either error type can surface.
type pgDetail struct {
	code, constraint, table, column, detail, message string
}

func postgresDetail(err error) (pgDetail, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgDetail{
			code:       pgxErr.Code,
			constraint: pgxErr.ConstraintName,
			table:      pgxErr.TableName,
			column:     pgxErr.ColumnName,
			detail:     pgxErr.Detail,
			message:    pgxErr.Message,
		}, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgDetail{
			code:       string(pqErr.Code),
			constraint: pqErr.Constraint,
			table:      pqErr.Table,
			column:     pqErr.Column,
			detail:     pqErr.Detail,
			message:    pqErr.Message,
		}, true
	}
	return pgDetail{}, false
}

// Chain lists every error in err's unwrap chain, outermost first.
func Chain(err error) []string {
	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T: %v", e, e))
	}
	return chain
}

// LogFields flattens err into structured log fields. Postgres fields are
// only present when the chain carries a driver error, and empty ones are
// left out.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": Chain(err),
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
		if step := stepOf(typed.Details()); step != nil {
			fields["step"] = step
		}
	}
	if pg, ok := postgresDetail(err); ok {
		for key, value := range map[string]string{
			"pg_code":       pg.code,
			"pg_constraint": pg.constraint,
			"pg_table":      pg.table,
			"pg_column":     pg.column,
			"pg_detail":     pg.detail,
			"pg_message":    pg.message,
		} {
			if value != "" {
				fields[key] = value
			}
		}
	}
	return fields
}

func stepOf(details any) any {
	switch d := details.(type) {
	case map[string]any:
		return d["step"]
	case map[string]string:
		if step, ok := d["step"]; ok {
			return step
		}
	}
	return nil
}
