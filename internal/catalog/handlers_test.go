package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
)

type productsResponse struct {
	Data       []catalog.Product `json:"data"`
	Pagination common.Pagination `json:"pagination"`
}

type productResponse struct {
	Data catalog.Product `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCatalogHandlers(t *testing.T) {
	svc, _ := newTestService(t, sampleProduct("1"), sampleProduct("2"))
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	t.Run("products list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		require.Equal(t, "1", resp.Data[0].ID)
		require.Equal(t, 2, resp.Pagination.TotalItems)
	})

	t.Run("products list paginated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page=2&limit=1", nil)
		rec := httptest.NewRecorder()
		handler.Products(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "2", resp.Data[0].ID)
		require.Equal(t, 2, resp.Pagination.Page)
		require.Equal(t, 1, resp.Pagination.PerPage)
		require.Equal(t, 2, resp.Pagination.TotalItems)
	})

	t.Run("product detail", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/1", nil), "id", "1")
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PUMA", resp.Data.Brand)
		require.True(t, resp.Data.FloorPrice.Equal(dec("800")))
	})

	t.Run("product detail not found", func(t *testing.T) {
		req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/ghost", nil), "id", "ghost")
		rec := httptest.NewRecorder()
		handler.ProductDetail(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
		require.Equal(t, "ghost", resp.Error.Details["productId"])
	})

	t.Run("set floor", func(t *testing.T) {
		body := strings.NewReader(`{"minPricePossible":"900"}`)
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/products/1/floor", body), "id", "1")
		rec := httptest.NewRecorder()
		handler.SetFloor(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Data.FloorPrice.Equal(dec("900")))
	})

	t.Run("set floor out of range", func(t *testing.T) {
		body := strings.NewReader(`{"minPricePossible":"5000"}`)
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/products/1/floor", body), "id", "1")
		rec := httptest.NewRecorder()
		handler.SetFloor(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "FLOOR_OUT_OF_RANGE", resp.Error.Code)
	})

	t.Run("set floor invalid payload", func(t *testing.T) {
		body := strings.NewReader(`{"minPricePossible":`)
		req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/products/1/floor", body), "id", "1")
		rec := httptest.NewRecorder()
		handler.SetFloor(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCatalogHandlersUnconfigured(t *testing.T) {
	handler := catalog.NewHandler(catalog.HandlerConfig{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.Products(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
