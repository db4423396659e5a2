package postgres

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"

	teamBudgetConstraint = "fantasy_teams_budget_check"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// uniqueViolation reports the violated constraint name when err is a
// unique_violation raised by Postgres.
func uniqueViolation(err error) (string, bool) {
	return constraintViolation(err, uniqueViolationCode)
}

func checkViolation(err error) (string, bool) {
	return constraintViolation(err, checkViolationCode)
}

func constraintViolation(err error, code string) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	if string(pqErr.Code) != code {
		return "", false
	}
	return pqErr.Constraint, true
}

func stringSliceToAny(items []string) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	return out
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

func orderDirection(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
