package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/langowen/posratio/deploy/config"
	"github.com/langowen/posratio/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	got entities.Criteria
	sel entities.Selection
	err error
}

func (f *fakeService) SelectBest(_ context.Context, c entities.Criteria) (entities.Selection, error) {
	f.got = c
	if f.err != nil {
		return entities.Selection{}, f.err
	}
	f.sel.Criteria = c
	return f.sel, nil
}

type fakeTrigger struct {
	origin string
	err    error
}

func (f *fakeTrigger) Trigger(_ context.Context, origin string) (entities.RefreshMessage, error) {
	f.origin = origin
	if f.err != nil {
		return entities.RefreshMessage{}, f.err
	}
	return entities.RefreshMessage{ID: "3f1c9a1e-0000-4000-8000-000000000001", Origin: origin}, nil
}

var testSelection = config.Selection{
	SupportedCurrencies: []string{"TRY", "USD"},
	CardTypes:           []string{"credit", "debit"},
	CurrencyMultipliers: map[string]float64{"TRY": 1.00, "USD": 1.01},
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestSelectPos_Match(t *testing.T) {
	svc := &fakeService{sel: entities.Selection{Best: &entities.Quote{
		PosRatio: entities.PosRatio{
			PosName:        "B",
			CardType:       "credit",
			CardBrand:      "bonus",
			Installment:    3,
			Currency:       "TRY",
			CommissionRate: 0.015,
			MinFee:         8,
		},
		Price:        15,
		PayableTotal: 1015,
	}}}
	h := NewServer(svc, &fakeTrigger{}, testSelection).Router()

	rec := do(t, h, http.MethodPost, "/api/pos/select", `{"amount":1000,"installment":3,"currency":"try"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, entities.Criteria{Amount: 1000, Installment: 3, Currency: "TRY"}, svc.got)
	assert.JSONEq(t, `{
		"filters": {"amount":1000,"installment":3,"currency":"TRY","card_type":null,"card_brand":null},
		"overall_min": {
			"pos_name":"B","card_type":"credit","card_brand":"bonus","installment":3,
			"currency":"TRY","commission_rate":"0.0150","price":15,"payable_total":1015
		}
	}`, rec.Body.String())
}

func TestSelectPos_NoMatch(t *testing.T) {
	h := NewServer(&fakeService{}, &fakeTrigger{}, testSelection).Router()

	rec := do(t, h, http.MethodPost, "/api/pos/select",
		`{"amount":"250.5","installment":"6","currency":"USD","card_type":"debit","card_brand":"world"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"filters": {"amount":250.5,"installment":6,"currency":"USD","card_type":"debit","card_brand":"world"},
		"error": "No matching POS found for the given criteria"
	}`, rec.Body.String())
}

func TestSelectPos_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"not json", `amount=1`, "Invalid request format"},
		{"empty object", `{}`, "Invalid request format"},
		{"array", `[1,2]`, "Invalid request format"},
		{"missing amount", `{"installment":3,"currency":"TRY"}`, "Missing required field: amount"},
		{"null installment", `{"amount":10,"installment":null,"currency":"TRY"}`, "Missing required field: installment"},
		{"missing currency", `{"amount":10,"installment":3}`, "Missing required field: currency"},
		{"negative amount", `{"amount":-5,"installment":3,"currency":"TRY"}`, "Invalid amount value"},
		{"text amount", `{"amount":"ten","installment":3,"currency":"TRY"}`, "Invalid amount value"},
		{"zero installment", `{"amount":10,"installment":0,"currency":"TRY"}`, "Invalid installment value"},
		{"fractional installment", `{"amount":10,"installment":2.5,"currency":"TRY"}`, "Invalid installment value"},
		{"unsupported currency", `{"amount":10,"installment":3,"currency":"EUR"}`, "Invalid currency value. Supported: TRY, USD"},
		{"numeric currency", `{"amount":10,"installment":3,"currency":5}`, "Invalid currency value. Supported: TRY, USD"},
		{"bad card type", `{"amount":10,"installment":3,"currency":"TRY","card_type":"prepaid"}`, "Invalid card type. Supported: credit, debit"},
		{"empty card type", `{"amount":10,"installment":3,"currency":"TRY","card_type":""}`, "Invalid card type. Supported: credit, debit"},
	}

	svc := &fakeService{}
	h := NewServer(svc, &fakeTrigger{}, testSelection).Router()

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/pos/select", tc.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.want, decode(t, rec)["error"])
		})
	}
}

func TestSelectPos_InternalError(t *testing.T) {
	svc := &fakeService{err: errors.Wrap(entities.ErrUnknownCurrency, "service.SelectBest")}
	h := NewServer(svc, &fakeTrigger{}, testSelection).Router()

	rec := do(t, h, http.MethodPost, "/api/pos/select", `{"amount":10,"installment":3,"currency":"TRY"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "An error occurred while processing the request", decode(t, rec)["error"])
}

func TestTriggerRefresh(t *testing.T) {
	trigger := &fakeTrigger{}
	h := NewServer(&fakeService{}, trigger, testSelection).Router()

	rec := do(t, h, http.MethodPost, "/api/pos/refresh", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, entities.OriginHTTP, trigger.origin)
	assert.JSONEq(t, `{"status":"queued","id":"3f1c9a1e-0000-4000-8000-000000000001"}`, rec.Body.String())
}

func TestTriggerRefresh_Error(t *testing.T) {
	h := NewServer(&fakeService{}, &fakeTrigger{err: errors.New("queue down")}, testSelection).Router()

	rec := do(t, h, http.MethodPost, "/api/pos/refresh", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewServer(&fakeService{}, &fakeTrigger{}, testSelection).Router()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSelectPos_MethodNotAllowed(t *testing.T) {
	h := NewServer(&fakeService{}, &fakeTrigger{}, testSelection).Router()

	rec := do(t, h, http.MethodGet, "/api/pos/select", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
