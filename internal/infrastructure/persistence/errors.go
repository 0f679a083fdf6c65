package persistence

import (
	"errors"
	"strings"

	"github.com/dropship/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// isUniqueViolation reports whether err was caused by a unique constraint.
// Databases opened with TranslateError surface gorm.ErrDuplicatedKey; the
// message check covers connections opened without it.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// pageBounds clamps a 1-based page and its size into a usable range
func pageBounds(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// paginate applies limit and offset for a 1-based page
func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	page, pageSize = pageBounds(page, pageSize)
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}
