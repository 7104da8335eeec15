package entities

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	CardTypeCredit = "credit"
	CardTypeDebit  = "debit"
)

// PosRatio is one processor rate for a card type, brand, installment count and currency.
type PosRatio struct {
	PosName        string  `json:"pos_name"`
	CardType       string  `json:"card_type"`
	CardBrand      string  `json:"card_brand"`
	Installment    int     `json:"installment"`
	Currency       string  `json:"currency"`
	CommissionRate float64 `json:"commission_rate"`
	MinFee         float64 `json:"min_fee"`
	Priority       int     `json:"priority"`
}

// UnmarshalJSON accepts numbers encoded either as JSON numbers or numeric strings.
// Missing fields keep their zero value.
func (r *PosRatio) UnmarshalJSON(data []byte) error {
	var raw struct {
		PosName        string `json:"pos_name"`
		CardType       string `json:"card_type"`
		CardBrand      string `json:"card_brand"`
		Installment    number `json:"installment"`
		Currency       string `json:"currency"`
		CommissionRate number `json:"commission_rate"`
		MinFee         number `json:"min_fee"`
		Priority       number `json:"priority"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	installment, err := raw.Installment.int("installment")
	if err != nil {
		return err
	}

	priority, err := raw.Priority.int("priority")
	if err != nil {
		return err
	}

	*r = PosRatio{
		PosName:        raw.PosName,
		CardType:       raw.CardType,
		CardBrand:      raw.CardBrand,
		Installment:    installment,
		Currency:       raw.Currency,
		CommissionRate: float64(raw.CommissionRate),
		MinFee:         float64(raw.MinFee),
		Priority:       priority,
	}

	return nil
}

func (r PosRatio) Validate() error {
	switch {
	case r.Installment <= 0:
		return fmt.Errorf("installment must be positive, got %d", r.Installment)
	case r.Currency == "":
		return fmt.Errorf("currency is empty")
	case r.CardType != CardTypeCredit && r.CardType != CardTypeDebit:
		return fmt.Errorf("unknown card type %q", r.CardType)
	case r.CommissionRate < 0 || r.CommissionRate > 1:
		return fmt.Errorf("commission rate %v out of range [0,1]", r.CommissionRate)
	case r.MinFee < 0:
		return fmt.Errorf("min fee %v is negative", r.MinFee)
	}

	return nil
}

type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*n = 0
		return nil
	}

	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}

	if s == "" {
		*n = 0
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %s is not a number", ErrInvalidPayload, data)
	}

	*n = number(f)

	return nil
}

func (n number) int(field string) (int, error) {
	f := float64(n)
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidPayload, field, f)
	}

	if f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s out of range, got %v", ErrInvalidPayload, field, f)
	}

	return int(f), nil
}
