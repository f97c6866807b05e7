package discount

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Handler exposes the discount rule admin endpoints.
type Handler struct {
	registry *Registry
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Registry *Registry
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{registry: cfg.Registry}
}

// Rules handles GET /api/v1/discounts.
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount registry not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.registry.List()})
}

// RuleDetail handles GET /api/v1/discounts/{name}.
func (h *Handler) RuleDetail(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount registry not configured", nil)
		return
	}
	name := chi.URLParam(r, "name")
	rule, err := h.registry.Get(name)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			common.JSONError(w, http.StatusNotFound, "RULE_NOT_FOUND", err.Error(), map[string]any{"name": name})
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rule})
}

// UpsertRule handles POST /api/v1/discounts.
func (h *Handler) UpsertRule(w http.ResponseWriter, r *http.Request) {
	if h.registry == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "discount registry not configured", nil)
		return
	}
	var rule Discount
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.registry.Upsert(rule); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}
