// Package search indexes sales into Elasticsearch and backs the
// /api/sales/search endpoint.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/oreoinsight/backoffice/internal/models"
)

const SaleIndex = "sales"

func NewClient(url, user, password string) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error: %s: %s", res.Status(), body)
	}
	return client, nil
}

type SaleIndexer struct {
	ES *elasticsearch.Client
}

func (s *SaleIndexer) IndexSale(ctx context.Context, sale models.Sale) error {
	data, err := json.Marshal(sale)
	if err != nil {
		return fmt.Errorf("index sale: %w", err)
	}
	res, err := s.ES.Index(
		SaleIndex,
		bytes.NewReader(data),
		s.ES.Index.WithDocumentID(sale.ID),
		s.ES.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index sale: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index sale: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy multi_match over sku and branch. A non-empty branch
// narrows the result to that branch with a filter clause, which is how
// BRANCH-role callers are scoped.
func (s *SaleIndexer) Search(ctx context.Context, query, branch string, from, size int) (int64, []models.Sale, error) {
	must := map[string]any{
		"multi_match": map[string]any{
			"query":     query,
			"fields":    []string{"sku^2", "branch"},
			"fuzziness": "AUTO",
		},
	}
	boolQuery := map[string]any{"must": must}
	if branch != "" {
		boolQuery["filter"] = map[string]any{
			"term": map[string]any{"branch": branch},
		}
	}
	body := map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"from":  from,
		"size":  size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search sales: %w", err)
	}

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ctx),
		s.ES.Search.WithIndex(SaleIndex),
		s.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search sales: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search sales: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Sale `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search sales: decode: %w", err)
	}

	sales := make([]models.Sale, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		sales[i] = hit.Source
	}
	return r.Hits.Total.Value, sales, nil
}
