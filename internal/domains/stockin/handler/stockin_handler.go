package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/stockin/model"
	"textbook-backend/internal/domains/stockin/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/response"
)

type StockInHandler struct {
	service service.StockInService
}

func NewStockInHandler(service service.StockInService) *StockInHandler {
	return &StockInHandler{service: service}
}

// Create handles POST /api/v1/stock-ins
func (h *StockInHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateStockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	record, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// DirectStockIn handles POST /api/v1/stock-ins/direct
func (h *StockInHandler) DirectStockIn(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.DirectStockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	record, err := h.service.DirectStockIn(c.Request.Context(), actor, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, record)
}

// List handles GET /api/v1/stock-ins
func (h *StockInHandler) List(c *gin.Context) {
	params := pagination.FromQuery(c.Query("page"), c.Query("size"))

	filter := model.ListFilter{Keyword: c.Query("keyword")}
	if v := c.Query("order_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.OrderID = &id
		}
	}
	if v := c.Query("textbook_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.TextbookID = &id
		}
	}

	records, total, err := h.service.List(c.Request.Context(), params, filter)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, records, &response.Meta{
		Page:  params.Page,
		Limit: params.Size,
		Total: total,
	})
}

// Get handles GET /api/v1/stock-ins/:id
func (h *StockInHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid stock-in id")
		return
	}

	record, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, record)
}

// Delete handles DELETE /api/v1/stock-ins/:id
func (h *StockInHandler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid stock-in id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "stock-in reversed"})
}
