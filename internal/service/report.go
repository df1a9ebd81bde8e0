package service

import (
	"context"
	"errors"

	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/repo"
)

type ReportService struct {
	Repo *repo.GormRepo
}

func (r *ReportService) Create(ctx context.Context, rr *models.ReportRequest) error {
	if rr.Status == "" {
		rr.Status = models.ReportProcessing
	}
	return r.Repo.CreateReport(ctx, rr)
}

func (r *ReportService) ByID(ctx context.Context, id string) (*models.ReportRequest, error) {
	rr, err := r.Repo.ReportByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rr, nil
}

func (r *ReportService) List(ctx context.Context, branch string) ([]models.ReportRequest, error) {
	return r.Repo.Reports(ctx, branch)
}

func (r *ReportService) Update(ctx context.Context, existing *models.ReportRequest, updates models.ReportRequest) (*models.ReportRequest, error) {
	existing.Branch = updates.Branch
	existing.FromDate = updates.FromDate
	existing.ToDate = updates.ToDate
	existing.EmailTo = updates.EmailTo
	if updates.Status != "" {
		existing.Status = updates.Status
	}
	existing.Message = updates.Message
	if err := r.Repo.SaveReport(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *ReportService) Delete(ctx context.Context, id string) error {
	if err := r.Repo.DeleteReport(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}
