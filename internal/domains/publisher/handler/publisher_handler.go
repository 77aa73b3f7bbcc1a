package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/publisher/model"
	"textbook-backend/internal/domains/publisher/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/response"
)

type PublisherHandler struct {
	service service.PublisherService
}

func NewPublisherHandler(service service.PublisherService) *PublisherHandler {
	return &PublisherHandler{service: service}
}

// Create handles POST /api/v1/publishers
func (h *PublisherHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	p, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, p)
}

// List handles GET /api/v1/publishers
func (h *PublisherHandler) List(c *gin.Context) {
	params := pagination.FromQuery(c.Query("page"), c.Query("size"))

	publishers, total, err := h.service.List(c.Request.Context(), params, c.Query("keyword"))
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, publishers, &response.Meta{
		Page:  params.Page,
		Limit: params.Size,
		Total: total,
	})
}

// Get handles GET /api/v1/publishers/:id
func (h *PublisherHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid publisher id")
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Update handles PUT /api/v1/publishers/:id
func (h *PublisherHandler) Update(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid publisher id")
		return
	}

	var req model.UpdatePublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	p, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/publishers/:id
func (h *PublisherHandler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid publisher id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "publisher deleted"})
}
