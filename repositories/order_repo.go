package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderListFilter struct {
	CustomerID *uint
	Status     string
	Limit      int
	Offset     int
}

type OrderRepo interface {
	Create(ctx context.Context, shell *models.Order) error
	AttachItem(ctx context.Context, orderID uint, item *models.OrderItem) error
	FinalizeTotal(ctx context.Context, orderID uint, total decimal.Decimal) error
	FindByID(ctx context.Context, id uint, withItems bool) (*models.Order, error)
	FindByCustomer(ctx context.Context, customerID uint) ([]models.Order, error)
	List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	Delete(ctx context.Context, id uint) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) OrderRepo { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, shell *models.Order) error {
	if shell.Status == "" {
		shell.Status = models.OrderStatusPending
	}
	shell.Total = decimal.Zero
	shell.Items = nil
	shell.Customer = nil
	return r.db.WithContext(ctx).Create(shell).Error
}

func (r *orderRepo) AttachItem(ctx context.Context, orderID uint, item *models.OrderItem) error {
	item.OrderID = orderID
	item.Flower = nil
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *orderRepo) FinalizeTotal(ctx context.Context, orderID uint, total decimal.Decimal) error {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("total", total)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperrors.NewNotFound("order", orderID)
	}
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, id uint, withItems bool) (*models.Order, error) {
	q := r.db.WithContext(ctx)
	if withItems {
		q = withHydration(q)
	}

	var order models.Order
	err := q.First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := withHydration(r.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) List(ctx context.Context, f OrderListFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := withHydration(q).
		Scopes(models.Paginate(f.Limit, f.Offset)).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	if !models.ValidOrderStatus(status) {
		return apperrors.NewValidationError("status",
			fmt.Sprintf("must be one of %s, %s, %s, %s, %s",
				models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusShipped,
				models.OrderStatusDelivered, models.OrderStatusCancelled))
	}

	tx := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperrors.NewNotFound("order", id)
	}
	return nil
}

// Delete hard-deletes the order and its items. Items go first so the delete does not
// depend on the database enforcing the cascade (SQLite leaves foreign keys off by default).
func (r *orderRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.NewNotFound("order", id)
		}
		return nil
	})
}

func withHydration(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Customer").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("flower_id ASC") }).
		Preload("Items.Flower")
}
