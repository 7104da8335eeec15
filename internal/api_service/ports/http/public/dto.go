package public

import (
	"github.com/langowen/posratio/internal/entities"
	"github.com/shopspring/decimal"
)

const noMatchMessage = "No matching POS found for the given criteria"

type ErrorResponse struct {
	Error string `json:"error"`
}

type Filters struct {
	Amount      float64 `json:"amount"`
	Installment int     `json:"installment"`
	Currency    string  `json:"currency"`
	CardType    *string `json:"card_type"`
	CardBrand   *string `json:"card_brand"`
}

type QuoteResponse struct {
	PosName        string  `json:"pos_name"`
	CardType       string  `json:"card_type"`
	CardBrand      string  `json:"card_brand"`
	Installment    int     `json:"installment"`
	Currency       string  `json:"currency"`
	CommissionRate string  `json:"commission_rate"`
	Price          float64 `json:"price"`
	PayableTotal   float64 `json:"payable_total"`
}

type SelectResponse struct {
	Filters    Filters        `json:"filters"`
	OverallMin *QuoteResponse `json:"overall_min,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type RefreshResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func NewSelectResponse(sel entities.Selection) SelectResponse {
	resp := SelectResponse{
		Filters: Filters{
			Amount:      sel.Criteria.Amount,
			Installment: sel.Criteria.Installment,
			Currency:    sel.Criteria.Currency,
			CardType:    optional(sel.Criteria.CardType),
			CardBrand:   optional(sel.Criteria.CardBrand),
		},
	}

	if !sel.Matched() {
		resp.Error = noMatchMessage
		return resp
	}

	best := sel.Best
	resp.OverallMin = &QuoteResponse{
		PosName:        best.PosName,
		CardType:       best.CardType,
		CardBrand:      best.CardBrand,
		Installment:    best.Installment,
		Currency:       best.Currency,
		CommissionRate: decimal.NewFromFloat(best.CommissionRate).StringFixed(4),
		Price:          best.Price,
		PayableTotal:   best.PayableTotal,
	}

	return resp
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
