package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oreoinsight/backoffice/internal/models"
)

func (r *GormRepo) CreateReport(ctx context.Context, rr *models.ReportRequest) error {
	return r.DB.WithContext(ctx).Create(rr).Error
}

func (r *GormRepo) ReportByID(ctx context.Context, id string) (*models.ReportRequest, error) {
	var rr models.ReportRequest
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&rr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rr, nil
}

// Reports lists report requests, newest first; empty branch means all.
func (r *GormRepo) Reports(ctx context.Context, branch string) ([]models.ReportRequest, error) {
	q := r.DB.WithContext(ctx).Model(&models.ReportRequest{})
	if branch != "" {
		q = q.Where("branch = ?", branch)
	}
	var reports []models.ReportRequest
	if err := q.Order("requested_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *GormRepo) SaveReport(ctx context.Context, rr *models.ReportRequest) error {
	return r.DB.WithContext(ctx).Save(rr).Error
}

func (r *GormRepo) DeleteReport(ctx context.Context, id string) error {
	tx := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.ReportRequest{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetReportOutcome records the terminal state of an async summary run.
func (r *GormRepo) SetReportOutcome(ctx context.Context, id string, status models.ReportStatus, message string) error {
	return r.DB.WithContext(ctx).Model(&models.ReportRequest{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "message": message}).Error
}
