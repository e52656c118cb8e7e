// Package query builds typed filter expressions and runs paginated,
// searchable list queries on top of gorm.
package query

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Expr is a composable SQL predicate. An empty SQL string means "no
// restriction". Column names are always supplied by code, never by callers.
type Expr interface {
	SQL() (string, []any)
}

type eqExpr struct {
	column string
	value  any
}

// Eq matches rows where column equals value.
func Eq(column string, value any) Expr { return eqExpr{column, value} }

func (e eqExpr) SQL() (string, []any) {
	return e.column + " = ?", []any{e.value}
}

type inExpr[T any] struct {
	column string
	values []T
}

// In matches rows whose column is one of values. An empty set matches nothing.
func In[T any](column string, values []T) Expr { return inExpr[T]{column, values} }

func (e inExpr[T]) SQL() (string, []any) {
	if len(e.values) == 0 {
		return falseSQL, nil
	}
	return e.column + " IN ?", []any{e.values}
}

type containsExpr struct {
	column string
	term   string
}

// Contains is a case-insensitive substring match.
func Contains(column, term string) Expr { return containsExpr{column, term} }

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (e containsExpr) SQL() (string, []any) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(e.term)) + "%"
	return "LOWER(" + e.column + `) LIKE ? ESCAPE '\'`, []any{pattern}
}

type dateRangeExpr struct {
	column   string
	from, to time.Time
}

// DateRange matches from <= column < to.
func DateRange(column string, from, to time.Time) Expr { return dateRangeExpr{column, from, to} }

func (e dateRangeExpr) SQL() (string, []any) {
	return e.column + " >= ? AND " + e.column + " < ?", []any{e.from, e.to}
}

type isNullExpr struct{ column string }

func IsNull(column string) Expr { return isNullExpr{column} }

func (e isNullExpr) SQL() (string, []any) {
	return e.column + " IS NULL", nil
}

type existsExpr struct {
	subquery string
	args     []any
}

// Exists wraps a correlated subquery.
func Exists(subquery string, args ...any) Expr { return existsExpr{subquery, args} }

func (e existsExpr) SQL() (string, []any) {
	return "EXISTS (" + e.subquery + ")", e.args
}

const falseSQL = "1 = 0"

type noneExpr struct{}

// None matches nothing.
func None() Expr { return noneExpr{} }

func (noneExpr) SQL() (string, []any) { return falseSQL, nil }

type andExpr []Expr

// And requires every operand. With no restricting operands it is unrestricted.
func And(exprs ...Expr) Expr { return andExpr(exprs) }

func (a andExpr) SQL() (string, []any) {
	var parts []string
	var args []any
	for _, e := range a {
		if e == nil {
			continue
		}
		sql, eargs := e.SQL()
		if sql == "" {
			continue
		}
		parts = append(parts, "("+sql+")")
		args = append(args, eargs...)
	}
	return strings.Join(parts, " AND "), args
}

type orExpr []Expr

// Or requires at least one operand. With no operands it matches nothing;
// an unrestricted operand makes the whole expression unrestricted.
func Or(exprs ...Expr) Expr { return orExpr(exprs) }

func (o orExpr) SQL() (string, []any) {
	var parts []string
	var args []any
	for _, e := range o {
		if e == nil {
			continue
		}
		sql, eargs := e.SQL()
		if sql == "" {
			return "", nil
		}
		parts = append(parts, "("+sql+")")
		args = append(args, eargs...)
	}
	if len(parts) == 0 {
		return falseSQL, nil
	}
	return strings.Join(parts, " OR "), args
}

// Apply adds expr as a WHERE condition.
func Apply(db *gorm.DB, expr Expr) *gorm.DB {
	if expr == nil {
		return db
	}
	sql, args := expr.SQL()
	if sql == "" {
		return db
	}
	return db.Where(sql, args...)
}
