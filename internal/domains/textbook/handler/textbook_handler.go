package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"textbook-backend/internal/domains/textbook/model"
	"textbook-backend/internal/domains/textbook/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/pagination"
	"textbook-backend/internal/shared/response"
)

type TextbookHandler struct {
	service service.TextbookService
}

func NewTextbookHandler(service service.TextbookService) *TextbookHandler {
	return &TextbookHandler{service: service}
}

// Create handles POST /api/v1/textbooks
func (h *TextbookHandler) Create(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.CreateTextbookRequest
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

// List handles GET /api/v1/textbooks
func (h *TextbookHandler) List(c *gin.Context) {
	params := pagination.FromQuery(c.Query("page"), c.Query("size"))

	filter := model.ListFilter{Keyword: c.Query("keyword")}
	if v := c.Query("type_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.TypeID = &id
		}
	}
	if v := c.Query("publisher_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.PublisherID = &id
		}
	}

	textbooks, total, err := h.service.List(c.Request.Context(), params, filter)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, textbooks, &response.Meta{
		Page:  params.Page,
		Limit: params.Size,
		Total: total,
	})
}

// Get handles GET /api/v1/textbooks/:id
func (h *TextbookHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook id")
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// GetByISBN handles GET /api/v1/textbooks/isbn/:isbn
func (h *TextbookHandler) GetByISBN(c *gin.Context) {
	t, err := h.service.GetByISBN(c.Request.Context(), c.Param("isbn"))
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, t)
}

// Update handles PUT /api/v1/textbooks/:id
func (h *TextbookHandler) Update(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook id")
		return
	}

	var req model.UpdateTextbookRequest
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

// Delete handles DELETE /api/v1/textbooks/:id
func (h *TextbookHandler) Delete(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid textbook id")
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "textbook deleted"})
}
