package checkout_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/checkout"
)

type quoteEnvelope struct {
	Data checkout.Quote `json:"data"`
}

type validationEnvelope struct {
	Data struct {
		Valid     bool   `json:"valid"`
		Code      string `json:"code"`
		ProductID string `json:"productId"`
		Reason    string `json:"reason"`
	} `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestQuoteEndpoint(t *testing.T) {
	store := seedStore(t, product("1", "PUMA", "1000", "800", 10))
	h := &checkout.Handler{Svc: newQuoteService(t, store, premiumTable())}

	rec := postJSON(t, h.Quote, "/api/v1/cart/quote", map[string]any{
		"items":    []map[string]any{{"productId": "1", "quantity": 2}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp quoteEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.OriginalPrice.Equal(dec("2000")))
	require.True(t, resp.Data.FinalPrice.Equal(dec("1710")))
	require.True(t, resp.Data.AppliedDiscounts["1"]["brand"].Equal(dec("95")))
}

func TestQuoteEndpointInvalidPayload(t *testing.T) {
	h := &checkout.Handler{Svc: newQuoteService(t, seedStore(t), premiumTable())}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.Quote(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestQuoteEndpointUnknownProduct(t *testing.T) {
	h := &checkout.Handler{Svc: newQuoteService(t, seedStore(t), premiumTable())}

	rec := postJSON(t, h.Quote, "/api/v1/cart/quote", map[string]any{
		"items":    []map[string]any{{"productId": "ghost", "quantity": 1}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
	require.Equal(t, "ghost", resp.Error.Details["productId"])
}

func TestQuoteEndpointInsufficientStock(t *testing.T) {
	store := seedStore(t, product("1", "PUMA", "1000", "800", 3))
	h := &checkout.Handler{Svc: newQuoteService(t, store, premiumTable())}

	rec := postJSON(t, h.Quote, "/api/v1/cart/quote", map[string]any{
		"items":    []map[string]any{{"productId": "1", "quantity": 4}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
		"reserve":  true,
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var resp errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "INSUFFICIENT_INVENTORY", resp.Error.Code)
	require.EqualValues(t, 4, resp.Error.Details["requested"])
	require.EqualValues(t, 3, resp.Error.Details["available"])
}

func TestValidateCodeEndpoint(t *testing.T) {
	store := seedStore(t, product("1", "PUMA", "1000", "800", 10))
	h := &checkout.Handler{Svc: newQuoteService(t, store, premiumTable())}

	rec := postJSON(t, h.ValidateCode, "/api/v1/cart/validate-code", map[string]any{
		"code":     "PUMA10",
		"items":    []map[string]any{{"productId": "1", "quantity": 1}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp validationEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Data.Valid)
	require.Equal(t, "PUMA10", resp.Data.Code)
}

func TestValidateCodeEndpointRejection(t *testing.T) {
	store := seedStore(t, product("1", "PUMA", "1000", "800", 10))
	h := &checkout.Handler{Svc: newQuoteService(t, store, premiumTable())}

	rec := postJSON(t, h.ValidateCode, "/api/v1/cart/validate-code", map[string]any{
		"code":     "BOGUS",
		"items":    []map[string]any{{"productId": "1", "quantity": 1}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "a rejected code is a result, not an error")
	var resp validationEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Data.Valid)
	require.Equal(t, "BOGUS", resp.Data.Code)
	require.Equal(t, "1", resp.Data.ProductID)
	require.Contains(t, resp.Data.Reason, "not valid")
}

func TestValidateCodeEndpointMissingCode(t *testing.T) {
	h := &checkout.Handler{Svc: newQuoteService(t, seedStore(t), premiumTable())}

	rec := postJSON(t, h.ValidateCode, "/api/v1/cart/validate-code", map[string]any{
		"items":    []map[string]any{{"productId": "1", "quantity": 1}},
		"customer": map[string]any{"id": "u1", "tier": "PREMIUM"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlersUnconfigured(t *testing.T) {
	h := &checkout.Handler{}
	rec := postJSON(t, h.Quote, "/api/v1/cart/quote", map[string]any{})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
