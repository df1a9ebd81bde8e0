// Package summarize produces the narrative paragraph for the weekly
// summary email, preferring a hosted model and falling back to a local
// template when the call fails.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oreoinsight/backoffice/internal/models"
)

type Summarizer interface {
	Summarize(ctx context.Context, agg models.SalesAggregates) (string, error)
}

// Fallback renders the summary locally. Used directly in dev and as the
// degradation path when the model endpoint is down.
func Fallback(agg models.SalesAggregates) string {
	if agg.TotalUnits == 0 {
		return "No sales were recorded in this period."
	}
	return fmt.Sprintf(
		"This period moved %d units for $%.2f in revenue. The best-selling SKU was %s and the strongest branch was %s.",
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)
}

type Static struct{}

func (Static) Summarize(ctx context.Context, agg models.SalesAggregates) (string, error) {
	return Fallback(agg), nil
}

// ModelsClient calls a GitHub Models chat-completion endpoint.
type ModelsClient struct {
	URL   string
	Model string
	Token string
	HTTP  *http.Client
}

func NewModelsClient(url, model, token string) *ModelsClient {
	return &ModelsClient{
		URL:   url,
		Model: model,
		Token: token,
		HTTP:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *ModelsClient) Summarize(ctx context.Context, agg models.SalesAggregates) (string, error) {
	prompt := fmt.Sprintf(
		"With this data: totalUnits=%d, totalRevenue=%.2f, topSku=%s, topBranch=%s. Write a summary of at most 120 words suitable for a corporate email.",
		agg.TotalUnits, agg.TotalRevenue, agg.TopSKU, agg.TopBranch,
	)

	body := map[string]any{
		"model": c.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are an analyst who writes short, clear summaries for corporate emails."},
			{"role": "user", "content": prompt},
		},
		"max_tokens": 200,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("summarize: %s: %s", res.Status, raw)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("summarize: decode: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("summarize: empty model response")
	}
	return parsed.Choices[0].Message.Content, nil
}
