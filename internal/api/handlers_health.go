// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HandleHealth returns server health status. The dashboard base URL is
// reported for operator sanity checks; tokens never appear here.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":      true,
		"service": "iot_ganaderia",
		"version": h.version,
		"tb_base": h.publisher.BaseURL(),
	})
}
