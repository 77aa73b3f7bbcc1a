package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/inventory/model"
	"textbook-backend/internal/domains/inventory/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/response"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(service service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// List handles GET /api/v1/inventories
func (h *InventoryHandler) List(c *gin.Context) {
	params := pagination.FromQuery(c.Query("page"), c.Query("size"))
	filter := model.ListFilter{
		Keyword: c.Query("keyword"),
		Warning: c.Query("warning"),
	}

	inventories, total, err := h.service.List(c.Request.Context(), params, filter)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, inventories, &response.Meta{
		Page:  params.Page,
		Limit: params.Size,
		Total: total,
	})
}

// GetByTextbook handles GET /api/v1/inventories/textbook/:textbook_id
func (h *InventoryHandler) GetByTextbook(c *gin.Context) {
	textbookID, err := uuid.Parse(c.Param("textbook_id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook id")
		return
	}

	inv, err := h.service.GetByTextbook(c.Request.Context(), textbookID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, inv)
}

// UpdateThresholds handles PUT /api/v1/inventories/textbook/:textbook_id/thresholds
func (h *InventoryHandler) UpdateThresholds(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	textbookID, err := uuid.Parse(c.Param("textbook_id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook id")
		return
	}

	var req model.UpdateThresholdsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	inv, err := h.service.UpdateThresholds(c.Request.Context(), actor, textbookID, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, inv)
}
