package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"glasshouse/server/internal/importer"
	"glasshouse/server/internal/report"
)

func SetupRoutes(router *gin.Engine, reports *report.Service, imp *importer.Importer, logger *logrus.Logger) {
	handler := NewHandler(reports, imp, logger)

	api := router.Group("/api")
	{
		api.GET("/report", handler.GetReport)
		api.GET("/report/errors", handler.GetReportErrors)
		api.GET("/sales", handler.GetSales)
		api.GET("/listings", handler.GetListings)
		api.GET("/markets", handler.GetMarkets)
		api.POST("/import", handler.ImportCSV)
		api.POST("/regenerate", handler.Regenerate)
	}
}
