package service

import (
	"context"
	"errors"
	"time"

	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/repo"
)

const saleTopic = "sale_events"

// SaleIndexer is the slice of the search backend the sale service needs.
// Nil disables indexing.
type SaleIndexer interface {
	IndexSale(ctx context.Context, sale models.Sale) error
	Search(ctx context.Context, query, branch string, from, size int) (int64, []models.Sale, error)
}

type SaleService struct {
	Repo     *repo.GormRepo
	Producer EventPublisher
	Indexer  SaleIndexer
}

func (s *SaleService) Create(ctx context.Context, sale *models.Sale) error {
	l := logging.FromContext(ctx).With("svc", "sale.create")

	if err := s.Repo.CreateSale(ctx, sale); err != nil {
		l.Error("create_sale_error", "error", err)
		return err
	}

	if s.Producer != nil {
		event := map[string]any{
			"type":   "sale_created",
			"id":     sale.ID,
			"sku":    sale.SKU,
			"units":  sale.Units,
			"branch": sale.Branch,
		}
		if err := s.Producer.PublishEvent(ctx, saleTopic, sale.ID, event); err != nil {
			l.Error("kafka_publish_error", "error", err)
		}
	}
	if s.Indexer != nil {
		if err := s.Indexer.IndexSale(ctx, *sale); err != nil {
			l.Error("es_index_error", "sale_id", sale.ID, "error", err)
		}
	}
	return nil
}

func (s *SaleService) ByID(ctx context.Context, id string) (*models.Sale, error) {
	sale, err := s.Repo.SaleByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *SaleService) Update(ctx context.Context, existing *models.Sale, updates models.Sale) (*models.Sale, error) {
	existing.SKU = updates.SKU
	existing.Units = updates.Units
	existing.Price = updates.Price
	existing.Branch = updates.Branch
	existing.SoldAt = updates.SoldAt
	if err := s.Repo.SaveSale(ctx, existing); err != nil {
		return nil, err
	}
	if s.Indexer != nil {
		if err := s.Indexer.IndexSale(ctx, *existing); err != nil {
			logging.FromContext(ctx).Error("es_index_error", "sale_id", existing.ID, "error", err)
		}
	}
	return existing, nil
}

func (s *SaleService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteSale(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *SaleService) Find(ctx context.Context, start, end time.Time, branch string, offset, limit int) ([]models.Sale, int64, error) {
	return s.Repo.FindSales(ctx, start, end, branch, offset, limit)
}

func (s *SaleService) Search(ctx context.Context, query, branch string, from, size int) (int64, []models.Sale, error) {
	if s.Indexer == nil {
		return 0, nil, errors.New("search backend not configured")
	}
	return s.Indexer.Search(ctx, query, branch, from, size)
}
