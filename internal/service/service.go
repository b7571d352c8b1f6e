// Package service implements the application operations on top of gorm.
//
// Every operation that writes more than one row (an edge plus a counter, a
// password plus a reset token) runs inside a single transaction, and
// counters are adjusted with relative SQL expressions so concurrent
// writers on the same row serialize in the database instead of racing in
// Go.
package service

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page limits used when a caller passes zero.
const (
	DefaultPageSize = 20
	DefaultSuggest  = 10
)

// normalizePage clamps limit to [1, max] (zero means def) and offset to >= 0.
func normalizePage(limit, offset, def, max int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// page applies limit+1 lookahead pagination; trimPage cuts the extra row
// back off and reports whether it existed.
func page(q *gorm.DB, limit, offset int) *gorm.DB {
	return q.Limit(limit + 1).Offset(offset)
}

func trimPage[T any](rows []T, limit int) ([]T, bool) {
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// adjustCounter adds delta to column on the row of model identified by id.
// Decrements are guarded so the counter never drops below zero.
func adjustCounter(tx *gorm.DB, model any, id uuid.UUID, column string, delta int) error {
	q := tx.Model(model).Where("id = ?", id)
	if delta < 0 {
		q = q.Where(column+" >= ?", -delta)
	}
	return q.UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
}
