package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupCORS configures CORS middleware. An empty origin list allows every origin.
func SetupCORS(allowedOrigins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowAllOrigins:  len(allowedOrigins) == 0,
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", ACTING_USER_HEADER},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           time.Hour,
	}
	return cors.New(config)
}
