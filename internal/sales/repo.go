package sales

import (
	"context"

	"gorm.io/gorm"

	"github.com/devsergyo/sales-commissions/internal/repo"
	"github.com/devsergyo/sales-commissions/pkg/db/models"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

// Repository persists sales and answers the date/seller filtered reads reporting relies on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.Sale) error
	List(ctx context.Context) ([]models.Sale, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]models.Sale, error)
	ListByDate(ctx context.Context, date types.Date) ([]models.Sale, error)
	ListBySellerAndDate(ctx context.Context, sellerID int64, date types.Date) ([]models.Sale, error)
	ListBySellerAndPeriod(ctx context.Context, sellerID int64, start, end types.Date) ([]models.Sale, error)
}

type repositoryImpl struct {
	repo.Base
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{Base: repo.NewBase(db)}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{Base: r.Tx(tx)}
}

func (r *repositoryImpl) Create(ctx context.Context, sale *models.Sale) error {
	return r.DB(ctx).Omit("Seller").Create(sale).Error
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Preload("Seller").
		Order("sale_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListBySeller(ctx context.Context, sellerID int64) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Where("seller_id = ?", sellerID).
		Order("sale_date DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ListByDate returns every sale on date ordered by id, which keeps per-seller grouping deterministic.
func (r *repositoryImpl) ListByDate(ctx context.Context, date types.Date) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Where("sale_date = ?", date).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListBySellerAndDate(ctx context.Context, sellerID int64, date types.Date) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Where("seller_id = ? AND sale_date = ?", sellerID, date).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListBySellerAndPeriod(ctx context.Context, sellerID int64, start, end types.Date) ([]models.Sale, error) {
	var rows []models.Sale
	err := r.DB(ctx).
		Where("seller_id = ? AND sale_date BETWEEN ? AND ?", sellerID, start, end).
		Order("sale_date ASC, id ASC").
		Find(&rows).Error
	return rows, err
}
