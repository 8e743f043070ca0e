// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes registers all API routes with the Echo instance. Every
// uplink path the network server can be pointed at lands on the same
// handler.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/", h.HandleHealth)
	e.GET("/health", h.HandleHealth)

	e.POST("/uplink", h.HandleUplink)
	e.POST("/ttn-data", h.HandleUplink)
	e.POST("/ttn-data/uplink", h.HandleUplink)
}
