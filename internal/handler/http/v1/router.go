package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shenikar/securewatch_sims/internal/broadcast"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, hub *broadcast.Hub) {
	// Публичные маршруты: обращение и отслеживание без аутентификации
	api.POST("/incidents/public", h.reportPublicIncident)
	api.GET("/incidents/track/:id", h.trackIncident)

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)

	// Защищенные маршруты
	auth := api.Group("", JWTAuthMiddleware(h.cfg, h.logger))
	{
		incidents := auth.Group("/incidents")
		{
			incidents.POST("", h.createIncident)
			incidents.GET("", h.listIncidents)
			incidents.GET("/:id", h.getIncident)
			incidents.PUT("/:id", h.updateIncident)
			incidents.PATCH("/:id/status", h.updateIncidentStatus)
			incidents.DELETE("/:id", RequireRole(h.logger, "admin"), h.deleteIncident)
			incidents.GET("/live", hub.Handler)
		}

		auth.GET("/analytics/dashboard", h.getDashboardStats)
	}
}
