package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbooktype/model"
	"textbook-backend/internal/domains/textbooktype/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/response"
)

type TextbookTypeHandler struct {
	service service.TextbookTypeService
}

func NewTextbookTypeHandler(service service.TextbookTypeService) *TextbookTypeHandler {
	return &TextbookTypeHandler{service: service}
}

// Create handles POST /api/v1/textbook-types
func (h *TextbookTypeHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateTextbookTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	t, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, t)
}

// List handles GET /api/v1/textbook-types
func (h *TextbookTypeHandler) List(c *gin.Context) {
	types, err := h.service.List(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, types)
}

// Get handles GET /api/v1/textbook-types/:id
func (h *TextbookTypeHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook type id")
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// Update handles PUT /api/v1/textbook-types/:id
func (h *TextbookTypeHandler) Update(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook type id")
		return
	}

	var req model.UpdateTextbookTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	t, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/textbook-types/:id
func (h *TextbookTypeHandler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook type id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "textbook type deleted"})
}
