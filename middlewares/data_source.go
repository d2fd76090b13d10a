package middlewares

import (
	"pantrytrack/config"

	"github.com/gin-gonic/gin"
)

const DataSourceHeader = "X-Data-Source"

// DataSource tells clients whether responses come from the live database or
// the bundled demo data, so they can show the demo banner.
func DataSource(source config.DataSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(DataSourceHeader, string(source))
		c.Next()
	}
}
