package router

import (
	"net/http"

	"github.com/argentavis/qr-service/internal/api/handler"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "qr-api-service",
					"error":   err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "qr-api-service",
		})
	})

	qrHandler := handler.NewQRHandler(deps)
	activationHandler := handler.NewActivationHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		qrCodes := v1.Group("/qr-codes")
		{
			// POST /api/v1/qr-codes/provision - Enqueue a batch of QR provisioning jobs
			qrCodes.POST("/provision", qrHandler.Provision)

			// GET /api/v1/qr-codes - List QR records with filtering and pagination
			qrCodes.GET("", qrHandler.ListQRCodes)

			// GET /api/v1/qr-codes/:uuid - Get a single QR record
			qrCodes.GET("/:uuid", qrHandler.GetQRCode)
		}

		activations := v1.Group("/activations")
		{
			// POST /api/v1/activations/resolve - Resolve the bank account for a QR code
			activations.POST("/resolve", activationHandler.Resolve)

			// POST /api/v1/activations/verify - Confirm the one-time code
			activations.POST("/verify", activationHandler.Verify)
		}
	}

	return r
}
