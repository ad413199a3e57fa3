package api

import (
	"net/http"

	authDelivery "report-intake/internal/auth/delivery"
	extractionDelivery "report-intake/internal/extraction/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, extractionHandler *extractionDelivery.ExtractionHandler, status StatusProvider, jwtSecret string) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Mail fetcher is running")
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if status != nil {
			s := status.Status()
			body["state"] = s.State
			body["cycles"] = s.Cycles
			if !s.LastCycle.IsZero() {
				body["last_cycle"] = s.LastCycle
			}
		}
		c.JSON(http.StatusOK, body)
	})

	// Extraction is open unless a secret is configured
	if jwtSecret != "" {
		r.POST("/extract-name/", authDelivery.AuthMiddleware(jwtSecret), extractionHandler.ExtractName)
	} else {
		r.POST("/extract-name/", extractionHandler.ExtractName)
	}
}
