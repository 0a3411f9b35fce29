package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Repository bundles every repository over one database handle. Inside WithTx the
// handle is the transaction, so every call made through the bundle joins it.
type Repository struct {
	DB        *gorm.DB
	Flowers   FlowerRepo
	Customers CustomerRepo
	Orders    OrderRepo
}

// New builds a Repository over db
func New(db *gorm.DB) *Repository {
	return &Repository{
		DB:        db,
		Flowers:   NewFlowerRepo(db),
		Customers: NewCustomerRepo(db),
		Orders:    NewOrderRepo(db),
	}
}

// WithTx runs fn inside one database transaction. Returning an error (or panicking)
// rolls back every write made through the tx repository; returning nil commits.
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
