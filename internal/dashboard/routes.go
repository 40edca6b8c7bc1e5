package dashboard

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	t "github.com/rawblock/autotune-core/pkg/tuning"
)

// StatusProvider exposes just enough Controller state for the /status
// endpoint, kept as a narrow interface so this package never imports
// internal/tuning/controller directly.
type StatusProvider interface {
	Phase() t.PhaseNumber
	SearchSpaceIsTrivial() bool
	SearchSpaceIsEmpty() bool
}

// SetupRouter builds the dashboard's gin engine: a health check, a
// status snapshot, and the websocket event stream, as a single local
// diagnostic surface.
func SetupRouter(hub *Hub, status StatusProvider) *gin.Engine {
	r := gin.Default()

	allowedOrigins := os.Getenv("DASHBOARD_ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	group := r.Group("/api/v1")
	{
		group.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "operational", "service": "autotune-core dashboard"})
		})
		group.GET("/status", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"phase":                uint64(status.Phase()),
				"searchSpaceTrivial":   status.SearchSpaceIsTrivial(),
				"searchSpaceEmpty":     status.SearchSpaceIsEmpty(),
			})
		})
		group.GET("/stream", hub.Subscribe)
	}

	return r
}
