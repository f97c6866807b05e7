package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the catalog endpoints.
type Handler struct {
	service *Service
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service}
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	rows, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	total := len(rows)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       rows[start:end],
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: total},
	})
}

// ProductDetail handles GET /api/v1/products/{id}.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

type setFloorRequest struct {
	Floor decimal.Decimal `json:"minPricePossible"`
}

// SetFloor handles PUT /api/v1/products/{id}/floor.
func (h *Handler) SetFloor(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	var req setFloorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	product, err := h.service.SetFloor(r.Context(), id, req.Floor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": product})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var notFound NotFoundError
	if errors.As(err, &notFound) {
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", notFound.Error(), map[string]any{"productId": notFound.ID})
		return
	}
	var stock InsufficientStockError
	if errors.As(err, &stock) {
		common.JSONError(w, http.StatusConflict, "INSUFFICIENT_INVENTORY", stock.Error(), map[string]any{
			"productId": stock.ProductID,
			"requested": stock.Requested,
			"available": stock.Available,
		})
		return
	}
	if errors.Is(err, ErrFloorOutOfRange) {
		common.JSONError(w, http.StatusUnprocessableEntity, "FLOOR_OUT_OF_RANGE", err.Error(), nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		message := appErr.Message
		if message == "" {
			message = "internal error"
		}
		common.JSONError(w, status, code, message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
