package models

import "gorm.io/gorm"

// ActiveOnly is the shared soft-delete read policy for flowers and customers.
// Every read path applies it; only an explicit includeInactive widens the result.
func ActiveOnly(includeInactive bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeInactive {
			return db
		}
		return db.Where("active = ?", true)
	}
}

// DefaultPageSize is used when a caller passes no positive limit
const DefaultPageSize = 20

// Paginate applies offset/limit paging
func Paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			limit = DefaultPageSize
		}
		if offset < 0 {
			offset = 0
		}
		return db.Offset(offset).Limit(limit)
	}
}

// AllModels lists every persisted model in migration order
func AllModels() []any {
	return []any{&Flower{}, &CustomerProfile{}, &Order{}, &OrderItem{}}
}
