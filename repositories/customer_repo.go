package repositories

import (
	"context"
	"errors"

	"github.com/kendall-kelly/bloomhouse-api/apperrors"
	"github.com/kendall-kelly/bloomhouse-api/models"
	"gorm.io/gorm"
)

// CustomerDefaults are the attributes used when FindOrCreateByEmail has to create a profile
type CustomerDefaults struct {
	Name    string
	Address string
	Phone   string
}

type CustomerRepo interface {
	FindByEmail(ctx context.Context, email string, includeInactive bool) (*models.CustomerProfile, error)
	FindByID(ctx context.Context, id uint, includeInactive bool) (*models.CustomerProfile, error)
	// FindOrCreateByEmail returns the profile for email (active or not), creating it
	// from defaults when none exists. created reports whether a row was inserted.
	FindOrCreateByEmail(ctx context.Context, email string, defaults CustomerDefaults) (profile *models.CustomerProfile, created bool, err error)
	Reactivate(ctx context.Context, profile *models.CustomerProfile) error
	List(ctx context.Context, limit, offset int, includeInactive bool) ([]models.CustomerProfile, int64, error)
	Create(ctx context.Context, profile *models.CustomerProfile) error
	UpdateFields(ctx context.Context, id uint, fields map[string]any) error
	Deactivate(ctx context.Context, id uint) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepo(db *gorm.DB) CustomerRepo { return &customerRepo{db: db} }

func (r *customerRepo) FindByEmail(ctx context.Context, email string, includeInactive bool) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.WithContext(ctx).
		Scopes(models.ActiveOnly(includeInactive)).
		First(&profile, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *customerRepo) FindByID(ctx context.Context, id uint, includeInactive bool) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.WithContext(ctx).
		Scopes(models.ActiveOnly(includeInactive)).
		First(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *customerRepo) FindOrCreateByEmail(ctx context.Context, email string, defaults CustomerDefaults) (*models.CustomerProfile, bool, error) {
	existing, err := r.FindByEmail(ctx, email, true)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	name := defaults.Name
	if name == "" {
		name = models.DefaultNameForEmail(email)
	}
	profile := &models.CustomerProfile{
		Email:   email,
		Name:    name,
		Address: defaults.Address,
		Phone:   defaults.Phone,
		Active:  true,
	}
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if apperrors.IsUniqueViolation(err) {
			// A concurrent request created the same email first; a retry will find it.
			return nil, false, &apperrors.TransientError{Err: err}
		}
		return nil, false, err
	}
	return profile, true, nil
}

func (r *customerRepo) Reactivate(ctx context.Context, profile *models.CustomerProfile) error {
	if err := r.UpdateFields(ctx, profile.ID, map[string]any{"active": true}); err != nil {
		return err
	}
	profile.Active = true
	return nil
}

func (r *customerRepo) List(ctx context.Context, limit, offset int, includeInactive bool) ([]models.CustomerProfile, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.CustomerProfile{}).Scopes(models.ActiveOnly(includeInactive))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []models.CustomerProfile
	if err := q.Scopes(models.Paginate(limit, offset)).Order("id ASC").Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *customerRepo) Create(ctx context.Context, profile *models.CustomerProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *customerRepo) UpdateFields(ctx context.Context, id uint, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&models.CustomerProfile{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return apperrors.NewNotFound("customer", id)
	}
	return nil
}

func (r *customerRepo) Deactivate(ctx context.Context, id uint) error {
	return r.UpdateFields(ctx, id, map[string]any{"active": false})
}
