package router

import (
	"adaptiveCreative/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupPerformanceRoutes(api *echo.Group, handler *rest.PerformanceHandler) {
	api.POST("/performance", handler.Ingest)
	api.GET("/brands/:brand_id/rewards/:ad_id", handler.GetReward)
}

func SetupTemplateRoutes(api *echo.Group, handler *rest.TemplateHandler) {
	api.POST("/brands/:brand_id/templates/rank", handler.Rank)
}

func SetupInsightRoutes(api *echo.Group, handler *rest.InsightHandler) {
	brands := api.Group("/brands/:brand_id")

	brands.GET("/elements", handler.ListElements)
	brands.GET("/elements/:dimension/:value", handler.GetElement)
	brands.GET("/scorer-weights", handler.ScorerWeights)
	brands.GET("/interactions", handler.Interactions)
	brands.GET("/whitespace", handler.Whitespace)
}

func SetupTransferRoutes(api *echo.Group, handler *rest.TransferHandler) {
	api.POST("/brands/:brand_id/transfer", handler.Transfer)
}

func SetupAdminRoutes(api *echo.Group, handler *rest.AdminHandler, performance *rest.PerformanceHandler) {
	admin := api.Group("/admin")

	admin.POST("/maturation/sweep", performance.Sweep)
	admin.POST("/batch/:brand_id/run", handler.RunBatch)
	admin.GET("/brands/:brand_id/settings", handler.GetSettings)
	admin.PUT("/brands/:brand_id/settings", handler.UpsertSettings)
}
