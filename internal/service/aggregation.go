package service

import (
	"context"
	"fmt"
	"time"

	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/repo"
)

type AggregationService struct {
	Repo *repo.GormRepo
}

// Calculate sums units and revenue over [from, to] (whole days) and picks
// the top SKU and branch by units. Ties resolve to the lexicographically
// smallest key so the result is deterministic. Zero from AND to default
// to the trailing 7 days; exactly one zero is an error.
func (a *AggregationService) Calculate(ctx context.Context, from, to time.Time, branch string) (models.SalesAggregates, error) {
	if from.IsZero() && to.IsZero() {
		today := time.Now().Truncate(24 * time.Hour)
		to = today
		from = today.AddDate(0, 0, -6)
	}
	if from.IsZero() || to.IsZero() {
		return models.SalesAggregates{}, fmt.Errorf("%w: both from and to must be provided when one is set", ErrInvalidArgument)
	}
	if to.Before(from) {
		return models.SalesAggregates{}, fmt.Errorf("%w: invalid date range: to < from", ErrInvalidArgument)
	}

	start := from
	end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)

	sales, err := a.Repo.SalesBetween(ctx, start, end, branch)
	if err != nil {
		return models.SalesAggregates{}, err
	}
	if len(sales) == 0 {
		return models.SalesAggregates{}, nil
	}

	var agg models.SalesAggregates
	unitsBySKU := make(map[string]int)
	unitsByBranch := make(map[string]int)
	for _, s := range sales {
		agg.TotalUnits += s.Units
		agg.TotalRevenue += float64(s.Units) * s.Price
		unitsBySKU[s.SKU] += s.Units
		unitsByBranch[s.Branch] += s.Units
	}
	agg.TopSKU = topKey(unitsBySKU)
	agg.TopBranch = topKey(unitsByBranch)
	return agg, nil
}

func topKey(units map[string]int) string {
	var best string
	bestUnits := -1
	for k, u := range units {
		if u > bestUnits || (u == bestUnits && k < best) {
			best, bestUnits = k, u
		}
	}
	return best
}
