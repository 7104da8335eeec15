package service

import (
	"context"
	"log/slog"

	"github.com/langowen/posratio/internal/entities"
	"github.com/langowen/posratio/internal/metrics"
	"github.com/pkg/errors"
)

type Service struct {
	store    RatioStore
	filter   Filter
	selector Selector
	metrics  *metrics.Metrics
}

func NewService(store RatioStore, filter Filter, selector Selector, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		filter:   filter,
		selector: selector,
		metrics:  m,
	}
}

// SelectBest finds the cheapest POS for the criteria. No match is not an
// error: the returned Selection simply has no Best quote.
func (s *Service) SelectBest(ctx context.Context, c entities.Criteria) (entities.Selection, error) {
	const op = "service.SelectBest"

	slog.InfoContext(ctx, "Selecting POS",
		"amount", c.Amount,
		"installment", c.Installment,
		"currency", c.Currency,
		"card_type", c.CardType,
		"card_brand", c.CardBrand,
	)

	candidates := s.filter.Filter(ctx, s.store.GetAll(ctx), c)

	best, err := s.selector.SelectBest(candidates, c.Amount)
	if err != nil {
		if errors.Is(err, entities.ErrNoMatch) {
			s.metrics.RecordSelection(metrics.SelectionNoMatch)
			return entities.Selection{Criteria: c}, nil
		}

		s.metrics.RecordSelection(metrics.SelectionError)
		return entities.Selection{}, errors.Wrap(err, op)
	}

	s.metrics.RecordSelection(metrics.SelectionMatch)

	return entities.Selection{Criteria: c, Best: best}, nil
}
