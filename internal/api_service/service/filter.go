package service

import (
	"context"
	"log/slog"

	"github.com/langowen/posratio/internal/entities"
)

// ExactFilter keeps ratios whose installment and currency equal the criteria,
// and whose card type and brand equal them when those are given.
type ExactFilter struct{}

func NewFilter() ExactFilter {
	return ExactFilter{}
}

func (ExactFilter) Filter(ctx context.Context, ratios []entities.PosRatio, c entities.Criteria) []entities.PosRatio {
	const op = "service.Filter"

	if c.Installment <= 0 {
		slog.WarnContext(ctx, "Invalid installment value", "op", op, "installment", c.Installment)
		return []entities.PosRatio{}
	}

	if c.Currency == "" {
		slog.WarnContext(ctx, "Invalid currency value", "op", op)
		return []entities.PosRatio{}
	}

	filtered := make([]entities.PosRatio, 0, len(ratios))
	for _, r := range ratios {
		if r.Installment != c.Installment || r.Currency != c.Currency {
			continue
		}

		if c.CardType != "" && r.CardType != c.CardType {
			continue
		}

		if c.CardBrand != "" && r.CardBrand != c.CardBrand {
			continue
		}

		filtered = append(filtered, r)
	}

	slog.InfoContext(ctx, "Filtered POS ratios", "op", op, "total", len(ratios), "filtered", len(filtered))

	return filtered
}
