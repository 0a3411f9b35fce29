package repositories

import (
	"context"
	"errors"

	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FlowerFilter narrows catalog listings. Zero values mean "no constraint".
type FlowerFilter struct {
	Name            string           // case-insensitive substring
	Category        string           // exact match
	MinPrice        *decimal.Decimal // inclusive
	MaxPrice        *decimal.Decimal // inclusive
	IncludeInactive bool
	Limit           int
	Offset          int
}

type FlowerRepo interface {
	FindActiveByID(ctx context.Context, id uint) (*models.Flower, error)
	FindByID(ctx context.Context, id uint, includeInactive bool) (*models.Flower, error)
	List(ctx context.Context, f FlowerFilter) ([]models.Flower, int64, error)
	Create(ctx context.Context, flower *models.Flower) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Deactivate(ctx context.Context, id uint) error
	SetImageKey(ctx context.Context, id uint, key string) error

	// Reserve atomically takes qty units from an active flower:
	// stock_quantity -= qty only if stock_quantity >= qty.
	Reserve(ctx context.Context, id uint, qty int) (*models.Flower, error)
	// AdjustStock applies delta (restock or correction) only if the result stays >= 0.
	AdjustStock(ctx context.Context, id uint, delta int) (*models.Flower, error)
}

type flowerRepo struct{ db *gorm.DB }

func NewFlowerRepo(db *gorm.DB) FlowerRepo { return &flowerRepo{db: db} }

func (r *flowerRepo) FindActiveByID(ctx context.Context, id uint) (*models.Flower, error) {
	return r.FindByID(ctx, id, false)
}

func (r *flowerRepo) FindByID(ctx context.Context, id uint, includeInactive bool) (*models.Flower, error) {
	var flower models.Flower
	err := r.db.WithContext(ctx).
		Scopes(models.ActiveOnly(includeInactive)).
		First(&flower, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flower, nil
}

func (r *flowerRepo) List(ctx context.Context, f FlowerFilter) ([]models.Flower, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Flower{}).Scopes(models.ActiveOnly(f.IncludeInactive))

	if f.Name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+escapeLike(lower(f.Name))+"%")
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("unit_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("unit_price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var flowers []models.Flower
	if err := q.Scopes(models.Paginate(f.Limit, f.Offset)).Order("name ASC, id ASC").Find(&flowers).Error; err != nil {
		return nil, 0, err
	}
	return flowers, total, nil
}

func (r *flowerRepo) Create(ctx context.Context, flower *models.Flower) error {
	return r.db.WithContext(ctx).Create(flower).Error
}

func (r *flowerRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&models.Flower{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperrors.NewNotFound("flower", id)
	}
	return nil
}

func (r *flowerRepo) Deactivate(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]any{"active": false})
}

func (r *flowerRepo) SetImageKey(ctx context.Context, id uint, key string) error {
	return r.UpdateFields(ctx, id, map[string]any{"image_s3_key": key})
}

func (r *flowerRepo) Reserve(ctx context.Context, id uint, qty int) (*models.Flower, error) {
	// The conditional update is the check and the decrement in one statement, so two
	// concurrent reservations can never both pass the check on the same units.
	tx := r.db.WithContext(ctx).
		Model(&models.Flower{}).
		Where("id = ? AND active = ? AND stock_quantity >= ?", id, true, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if tx.Error != nil {
		return nil, tx.Error
	}

	flower, err := r.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if tx.RowsAffected == 0 {
		if !flower.Purchasable() {
			return nil, &apperrors.ItemUnavailableError{FlowerID: id}
		}
		return nil, &apperrors.InsufficientStockError{
			FlowerID:  id,
			Available: flower.StockQuantity,
			Requested: qty,
		}
	}
	return flower, nil
}

func (r *flowerRepo) AdjustStock(ctx context.Context, id uint, delta int) (*models.Flower, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Flower{}).
		Where("id = ? AND stock_quantity + ? >= 0", id, delta).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if tx.Error != nil {
		return nil, tx.Error
	}

	flower, err := r.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if flower == nil {
		return nil, apperrors.NewNotFound("flower", id)
	}
	if tx.RowsAffected == 0 {
		return nil, &apperrors.NegativeStockError{FlowerID: id, Current: flower.StockQuantity, Delta: delta}
	}
	return flower, nil
}
