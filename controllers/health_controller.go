package controllers

import (
	"net/http"

	"pantrytrack/config"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and whether demo data is being served.
func Health(source config.DataSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok", "data_source": source}
		if source == config.SourceDemo {
			body["banner"] = config.DemoBanner
		}
		c.JSON(http.StatusOK, body)
	}
}
