package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"textbook-backend/internal/shared/middleware"
	"textbook-backend/internal/shared/rbac"
	"textbook-backend/internal/shared/response"
	"textbook-backend/pkg/container"
)

// SetupRouter wires every route. Route-level role gates cover the
// warehouse/admin endpoints; row-level visibility stays in the services.
func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())

	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		if err := c.HealthCheck(ctx.Request.Context()); err != nil {
			response.ErrorResponse(ctx, http.StatusServiceUnavailable, "UNHEALTHY", err.Error())
			return
		}
		response.Success(ctx, http.StatusOK, gin.H{
			"status":  "ok",
			"version": c.Config.App.Version,
		})
	})

	// Public auth endpoints
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
	}

	// Everything below requires a valid token.
	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(c.JWTManager))

	authed.GET("/auth/me", c.UserHandler.Me)

	users := authed.Group("/users")
	{
		users.GET("", middleware.RequireRoles(rbac.RoleAdmin), c.UserHandler.List)
		users.GET("/:id", c.UserHandler.Get)
		users.PUT("/:id", c.UserHandler.Update)
		users.POST("/password", c.UserHandler.ChangePassword)
		users.DELETE("/:id", middleware.RequireRoles(rbac.RoleAdmin), c.UserHandler.Delete)
	}

	publishers := authed.Group("/publishers")
	{
		publishers.GET("", c.PublisherHandler.List)
		publishers.GET("/:id", c.PublisherHandler.Get)
		publishers.POST("", c.PublisherHandler.Create)
		publishers.PUT("/:id", c.PublisherHandler.Update)
		publishers.DELETE("/:id", c.PublisherHandler.Delete)
	}

	types := authed.Group("/textbook-types")
	{
		types.GET("", c.TextbookTypeHandler.List)
		types.GET("/:id", c.TextbookTypeHandler.Get)
		types.POST("", c.TextbookTypeHandler.Create)
		types.PUT("/:id", c.TextbookTypeHandler.Update)
		types.DELETE("/:id", c.TextbookTypeHandler.Delete)
	}

	textbooks := authed.Group("/textbooks")
	{
		textbooks.GET("", c.TextbookHandler.List)
		textbooks.GET("/:id", c.TextbookHandler.Get)
		textbooks.GET("/isbn/:isbn", c.TextbookHandler.GetByISBN)
		textbooks.POST("", c.TextbookHandler.Create)
		textbooks.PUT("/:id", c.TextbookHandler.Update)
		textbooks.DELETE("/:id", c.TextbookHandler.Delete)
	}

	orders := authed.Group("/orders")
	{
		orders.GET("", c.OrderHandler.List)
		orders.GET("/:id", c.OrderHandler.Get)
		orders.POST("", c.OrderHandler.Create)
		orders.PUT("/:id", c.OrderHandler.Update)
		orders.POST("/:id/approve", c.OrderHandler.Approve)
		orders.POST("/:id/ordered", c.OrderHandler.MarkOrdered)
		orders.POST("/:id/cancel", c.OrderHandler.Cancel)
		orders.POST("/:id/deliver", c.OrderHandler.Deliver)
	}

	warehouse := middleware.RequireRoles(rbac.RoleAdmin, rbac.RoleWarehouseManager)

	stockIns := authed.Group("/stock-ins")
	{
		stockIns.GET("", warehouse, c.StockInHandler.List)
		stockIns.GET("/:id", warehouse, c.StockInHandler.Get)
		stockIns.POST("", warehouse, c.StockInHandler.Create)
		stockIns.POST("/direct", warehouse, c.StockInHandler.DirectStockIn)
		stockIns.DELETE("/:id", middleware.RequireRoles(rbac.RoleAdmin), c.StockInHandler.Delete)
	}

	inventories := authed.Group("/inventories")
	{
		inventories.GET("", warehouse, c.InventoryHandler.List)
		inventories.GET("/textbook/:textbook_id", warehouse, c.InventoryHandler.GetByTextbook)
		inventories.PUT("/textbook/:textbook_id/thresholds", warehouse, c.InventoryHandler.UpdateThresholds)
	}

	statistics := authed.Group("/statistics")
	statistics.Use(warehouse)
	{
		statistics.GET("/dashboard", c.StatisticsHandler.Dashboard)
		statistics.GET("/orders/by-type", c.StatisticsHandler.ByType)
		statistics.GET("/orders/by-publisher", c.StatisticsHandler.ByPublisher)
		statistics.GET("/orders/by-textbook", c.StatisticsHandler.ByTextbook)
		statistics.GET("/orders/by-month", c.StatisticsHandler.ByMonth)
		statistics.GET("/orders/export", c.StatisticsHandler.Export)
	}

	return router
}
