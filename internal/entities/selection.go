package entities

import "time"

// Criteria describes a transaction to find a POS for. Empty CardType and
// CardBrand mean "any".
type Criteria struct {
	Amount      float64
	Installment int
	Currency    string
	CardType    string
	CardBrand   string
}

// Quote is a PosRatio priced for a single selection request.
type Quote struct {
	PosRatio
	Price        float64
	PayableTotal float64
}

// Selection is the outcome of a selection request. Best is nil when nothing matched.
type Selection struct {
	Criteria Criteria
	Best     *Quote
}

func (s Selection) Matched() bool {
	return s.Best != nil
}

const (
	OriginHTTP     = "http"
	OriginCLI      = "cli"
	OriginSchedule = "schedule"
)

// RefreshMessage asks a worker to refresh the ratio catalog once.
type RefreshMessage struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	RequestedAt time.Time `json:"requested_at"`
}
