package public

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/langowen/posratio/internal/entities"
)

const (
	maxRequestBody = 1 << 20

	internalErrorMessage = "An error occurred while processing the request"
)

func (s *Server) SelectPos(w http.ResponseWriter, r *http.Request) {
	const op = "public.SelectPos"

	criteria, msg := s.parseCriteria(w, r)
	if msg != "" {
		RespondWithError(w, http.StatusBadRequest, msg)
		return
	}

	sel, err := s.service.SelectBest(r.Context(), criteria)
	if err != nil {
		slog.Error("Error selecting POS", "op", op, "error", err)
		RespondWithError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	if !sel.Matched() {
		slog.Warn("No matching POS ratios found for the given criteria", "op", op, "currency", criteria.Currency, "installment", criteria.Installment)
	}

	RespondWithJSON(w, http.StatusOK, NewSelectResponse(sel))
}

func (s *Server) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "public.TriggerRefresh"

	msg, err := s.refresh.Trigger(r.Context(), entities.OriginHTTP)
	if err != nil {
		slog.Error("Failed to dispatch refresh message", "op", op, "error", err)
		RespondWithError(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	RespondWithJSON(w, http.StatusAccepted, RefreshResponse{Status: "queued", ID: msg.ID})
}

func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseCriteria validates the request body and returns either the criteria
// or a client-facing error message.
func (s *Server) parseCriteria(w http.ResponseWriter, r *http.Request) (entities.Criteria, string) {
	var params map[string]json.RawMessage

	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&params); err != nil || len(params) == 0 {
		return entities.Criteria{}, "Invalid request format"
	}

	for _, field := range []string{"amount", "installment", "currency"} {
		if isNull(params[field]) {
			return entities.Criteria{}, "Missing required field: " + field
		}
	}

	amount, ok := numeric(params["amount"])
	if !ok || amount <= 0 {
		return entities.Criteria{}, "Invalid amount value"
	}

	installment, ok := numeric(params["installment"])
	if !ok || installment <= 0 || installment != math.Trunc(installment) || installment > math.MaxInt32 {
		return entities.Criteria{}, "Invalid installment value"
	}

	var currency string
	if err := json.Unmarshal(params["currency"], &currency); err != nil || !s.selection.IsSupportedCurrency(strings.ToUpper(currency)) {
		return entities.Criteria{}, fmt.Sprintf("Invalid currency value. Supported: %s", s.selection.CurrencyList())
	}

	criteria := entities.Criteria{
		Amount:      amount,
		Installment: int(installment),
		Currency:    strings.ToUpper(currency),
	}

	if raw := params["card_type"]; !isNull(raw) {
		var cardType string
		if err := json.Unmarshal(raw, &cardType); err != nil || !s.selection.IsCardType(cardType) {
			return entities.Criteria{}, fmt.Sprintf("Invalid card type. Supported: %s", s.selection.CardTypeList())
		}
		criteria.CardType = cardType
	}

	if raw := params["card_brand"]; !isNull(raw) {
		if err := json.Unmarshal(raw, &criteria.CardBrand); err != nil {
			return entities.Criteria{}, "Invalid request format"
		}
	}

	return criteria, ""
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// numeric accepts a JSON number or a string holding one.
func numeric(raw json.RawMessage) (float64, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		n = json.Number(strings.TrimSpace(s))
	}

	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}
