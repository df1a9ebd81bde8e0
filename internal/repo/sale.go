package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oreoinsight/backoffice/internal/models"
)

func (r *GormRepo) CreateSale(ctx context.Context, s *models.Sale) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

func (r *GormRepo) SaleByID(ctx context.Context, id string) (*models.Sale, error) {
	var sale models.Sale
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func (r *GormRepo) SaveSale(ctx context.Context, s *models.Sale) error {
	return r.DB.WithContext(ctx).Save(s).Error
}

func (r *GormRepo) DeleteSale(ctx context.Context, id string) error {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Sale{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindSales returns one page of sales plus the total count. Zero start/end
// skips the time filter, empty branch skips the branch filter.
func (r *GormRepo) FindSales(ctx context.Context, start, end time.Time, branch string, offset, limit int) ([]models.Sale, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Sale{})
	if !start.IsZero() && !end.IsZero() {
		q = q.Where("sold_at BETWEEN ? AND ?", start, end)
	}
	if branch != "" {
		q = q.Where("branch = ?", branch)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sales []models.Sale
	if err := q.Order("sold_at DESC").Offset(offset).Limit(limit).Find(&sales).Error; err != nil {
		return nil, 0, err
	}
	return sales, total, nil
}

// SalesBetween returns the full unpaged slice for aggregation.
func (r *GormRepo) SalesBetween(ctx context.Context, start, end time.Time, branch string) ([]models.Sale, error) {
	q := r.DB.WithContext(ctx).Where("sold_at BETWEEN ? AND ?", start, end)
	if branch != "" {
		q = q.Where("branch = ?", branch)
	}
	var sales []models.Sale
	if err := q.Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}
