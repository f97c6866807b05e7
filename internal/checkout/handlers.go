package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/common"
	"github.com/noah-isme/backend-kasir/internal/discount"
)

// Handler exposes the pricing endpoints.
type Handler struct {
	Svc *Service
}

type lineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quoteRequest struct {
	Items    []lineItem        `json:"items"`
	Customer Customer          `json:"customer"`
	Payment  *discount.Payment `json:"payment,omitempty"`
	Code     string            `json:"code,omitempty"`
	Reserve  bool              `json:"reserve,omitempty"`
}

type validateCodeRequest struct {
	Code     string     `json:"code"`
	Items    []lineItem `json:"items"`
	Customer Customer   `json:"customer"`
}

// Quote handles POST /api/v1/cart/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	quote, err := h.Svc.CalculateCartDiscounts(r.Context(), toCartItems(payload.Items), payload.Customer, payload.Payment, payload.Code, payload.Reserve)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// ValidateCode handles POST /api/v1/cart/validate-code.
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload validateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	valid, err := h.Svc.ValidateDiscountCode(r.Context(), payload.Code, toCartItems(payload.Items), payload.Customer)
	if err != nil {
		var invalid InvalidCodeError
		if errors.As(err, &invalid) {
			common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{
				"valid":     false,
				"code":      invalid.Code,
				"productId": invalid.ProductID,
				"reason":    invalid.Error(),
			}})
			return
		}
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]any{"valid": valid, "code": payload.Code}})
}

func toCartItems(lines []lineItem) []CartItem {
	items := make([]CartItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, CartItem{Product: catalog.Product{ID: l.ProductID}, Quantity: l.Quantity})
	}
	return items
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var notFound catalog.NotFoundError
	if errors.As(err, &notFound) {
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", notFound.Error(), map[string]any{"productId": notFound.ID})
		return
	}
	var stock catalog.InsufficientStockError
	if errors.As(err, &stock) {
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_INVENTORY", stock.Error(), map[string]any{
			"productId": stock.ProductID,
			"requested": stock.Requested,
			"available": stock.Available,
		})
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
}
