package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/langowen/posratio/internal/entities"
)

type CostSelector struct {
	calc *CostCalculator
}

func NewSelector(calc *CostCalculator) *CostSelector {
	return &CostSelector{calc: calc}
}

// SelectBest prices every candidate and returns the cheapest one. Ties go to
// the higher priority, then the lower commission rate, then the POS name.
func (s *CostSelector) SelectBest(candidates []entities.PosRatio, amount float64) (*entities.Quote, error) {
	if len(candidates) == 0 {
		return nil, entities.ErrNoMatch
	}

	quotes := make([]entities.Quote, 0, len(candidates))
	for _, r := range candidates {
		price, err := s.calc.Cost(r, amount)
		if err != nil {
			return nil, err
		}

		quotes = append(quotes, entities.Quote{
			PosRatio:     r,
			Price:        price,
			PayableTotal: s.calc.PayableTotal(amount, price),
		})
	}

	slices.SortStableFunc(quotes, compareQuotes)

	best := quotes[0]

	return &best, nil
}

func compareQuotes(a, b entities.Quote) int {
	if c := cmp.Compare(a.Price, b.Price); c != 0 {
		return c
	}

	if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
		return c
	}

	if c := cmp.Compare(a.CommissionRate, b.CommissionRate); c != 0 {
		return c
	}

	return strings.Compare(a.PosName, b.PosName)
}
