package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"textbook-backend/internal/domains/statistics/model"
	"textbook-backend/internal/domains/statistics/service"
	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/response"
)

type StatisticsHandler struct {
	service service.StatisticsService
}

func NewStatisticsHandler(service service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{service: service}
}

func dateRange(c *gin.Context) model.DateRange {
	return model.DateRange{
		From: c.Query("from"),
		To:   c.Query("to"),
	}
}

// ByType handles GET /api/v1/statistics/orders/by-type
func (h *StatisticsHandler) ByType(c *gin.Context) {
	stats, err := h.service.OrdersByType(c.Request.Context(), dateRange(c))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ByPublisher handles GET /api/v1/statistics/orders/by-publisher
func (h *StatisticsHandler) ByPublisher(c *gin.Context) {
	stats, err := h.service.OrdersByPublisher(c.Request.Context(), dateRange(c))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ByTextbook handles GET /api/v1/statistics/orders/by-textbook
func (h *StatisticsHandler) ByTextbook(c *gin.Context) {
	stats, err := h.service.OrdersByTextbook(c.Request.Context(), dateRange(c))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// ByMonth handles GET /api/v1/statistics/orders/by-month
func (h *StatisticsHandler) ByMonth(c *gin.Context) {
	stats, err := h.service.OrdersByMonth(c.Request.Context(), dateRange(c))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// Dashboard handles GET /api/v1/statistics/dashboard
func (h *StatisticsHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

// Export handles GET /api/v1/statistics/orders/export and streams an
// xlsx workbook.
func (h *StatisticsHandler) Export(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	f, err := h.service.ExportOrderReport(c.Request.Context(), actor, dateRange(c))
	if err != nil {
		response.AppError(c, err)
		return
	}

	filename := fmt.Sprintf("order-report-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		response.InternalServerError(c, "failed to write report")
	}
}
