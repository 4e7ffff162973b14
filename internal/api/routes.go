package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewEngine builds a gin engine with recovery, request logging and the
// promo routes.
func NewEngine(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(logger))
	RegisterRoutes(r, h)
	return r
}

func RegisterRoutes(r *gin.Engine, h *Handler) {
	api := r.Group("/api")
	{
		api.GET("/health", health)
		api.GET("/qr", qrHandler)
		api.POST("/compose", h.composeHandler)
		api.POST("/compose/url", h.composeURLHandler)
		api.POST("/action", h.actionHandler)
	}
}
