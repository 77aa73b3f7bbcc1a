package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/order/model"
	"textbook-backend/internal/domains/order/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/internal/shared/response"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(service service.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	o, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, o)
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)
	params := pagination.FromQuery(c.Query("page"), c.Query("size"))
	filter := model.ListFilter{
		Status:      c.Query("status"),
		Keyword:     c.Query("keyword"),
		OrderPerson: c.Query("order_person"),
	}

	orders, total, err := h.service.List(c.Request.Context(), actor, params, filter)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  params.Page,
		Limit: params.Size,
		Total: total,
	})
}

// Get handles GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, o)
}

// Update handles PUT /api/v1/orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req model.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	o, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, o)
}

// Approve handles POST /api/v1/orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	h.statusAction(c, h.service.Approve)
}

// MarkOrdered handles POST /api/v1/orders/:id/ordered
func (h *OrderHandler) MarkOrdered(c *gin.Context) {
	h.statusAction(c, h.service.MarkOrdered)
}

// Cancel handles POST /api/v1/orders/:id/cancel. The body is optional;
// when present it may carry a cancellation reason.
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	var req model.CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body")
			return
		}
	}

	o, err := h.service.Cancel(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, o)
}

// Deliver handles POST /api/v1/orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.statusAction(c, h.service.Deliver)
}

func (h *OrderHandler) statusAction(c *gin.Context, action func(context.Context, rbac.Actor, uuid.UUID) (*model.Order, error)) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	o, err := action(c.Request.Context(), actor, id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, o)
}
