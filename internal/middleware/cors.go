package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// CORS returns a Gin middleware applying the allowed origins. Preflight
// requests are answered directly with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	handler := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			APIKeyHeader,
		},
		ExposedHeaders: []string{
			requestIDHeader,
		},
		MaxAge: 300, // 5 minutes
	})

	return func(c *gin.Context) {
		passed := false
		handler.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			passed = true
		})).ServeHTTP(c.Writer, c.Request)

		// Preflights are answered by cors without calling through.
		if !passed {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
