package service

import (
	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

type CostCalculator struct {
	multipliers map[string]decimal.Decimal
}

func NewCostCalculator(multipliers map[string]float64) *CostCalculator {
	m := make(map[string]decimal.Decimal, len(multipliers))
	for currency, v := range multipliers {
		m[currency] = decimal.NewFromFloat(v)
	}

	return &CostCalculator{multipliers: m}
}

// Cost is max(amount * commission_rate * multiplier, min_fee) rounded to
// cents, half away from zero.
func (c *CostCalculator) Cost(rate entities.PosRatio, amount float64) (float64, error) {
	multiplier, ok := c.multipliers[rate.Currency]
	if !ok {
		return 0, errors.Wrapf(entities.ErrUnknownCurrency, "currency %q", rate.Currency)
	}

	cost := decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(rate.CommissionRate)).
		Mul(multiplier)

	if minFee := decimal.NewFromFloat(rate.MinFee); cost.LessThan(minFee) {
		cost = minFee
	}

	price, _ := cost.Round(moneyPlaces).Float64()

	return price, nil
}

func (c *CostCalculator) PayableTotal(amount, price float64) float64 {
	total, _ := decimal.NewFromFloat(amount).
		Add(decimal.NewFromFloat(price)).
		Round(moneyPlaces).
		Float64()

	return total
}
