package sellers

import (
	"context"

	"gorm.io/gorm"

	"github.com/devsergyo/sales-commissions/internal/repo"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

// Repository is the persistence surface for sellers. Finders return (nil, nil) when absent.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context) ([]models.Seller, error)
	FindByID(ctx context.Context, id int64) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByEmailIncludingDeleted(ctx context.Context, email string) (*models.Seller, error)
	Create(ctx context.Context, seller *models.Seller) error
	Update(ctx context.Context, seller *models.Seller) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListWithSalesInPeriod(ctx context.Context, start, end types.Date) ([]models.Seller, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a sellers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Tx(tx)}
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Seller, error) {
	var sellers []models.Seller
	if err := r.DB(ctx).Order("id ASC").Find(&sellers).Error; err != nil {
		return nil, err
	}
	return sellers, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.Seller, error) {
	return repo.FindOne[models.Seller](r.DB(ctx), "id = ?", id)
}

func (r *repositoryImpl) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	return repo.FindOne[models.Seller](r.DB(ctx), "email = ?", email)
}

func (r *repositoryImpl) FindByEmailIncludingDeleted(ctx context.Context, email string) (*models.Seller, error) {
	return repo.FindOne[models.Seller](r.DB(ctx).Unscoped(), "email = ?", email)
}

func (r *repositoryImpl) Create(ctx context.Context, seller *models.Seller) error {
	return r.DB(ctx).Create(seller).Error
}

func (r *repositoryImpl) Update(ctx context.Context, seller *models.Seller) error {
	return r.DB(ctx).
		Model(&models.Seller{}).
		Where("id = ?", seller.ID).
		Updates(map[string]any{
			"first_name": seller.FirstName,
			"last_name":  seller.LastName,
			"email":      seller.Email,
		}).Error
}

// Delete soft deletes the seller; sales keep their seller_id.
func (r *repositoryImpl) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.Seller{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) ListWithSalesInPeriod(ctx context.Context, start, end types.Date) ([]models.Seller, error) {
	var sellers []models.Seller
	sub := r.DB(ctx).
		Model(&models.Sale{}).
		Select("seller_id").
		Where("sale_date BETWEEN ? AND ?", start, end)
	err := r.DB(ctx).
		Where("id IN (?)", sub).
		Order("id ASC").
		Find(&sellers).Error
	if err != nil {
		return nil, err
	}
	return sellers, nil
}
