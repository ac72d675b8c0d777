package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OriginPolicy decides which browser origins may call the API.
type OriginPolicy struct {
	AllowedOrigins []string
	AllowAll       bool
}

func (p OriginPolicy) Allowed(origin string) bool {
	// Empty origin means a same-origin or non-browser request.
	if origin == "" || p.AllowAll {
		return true
	}
	for _, allowedOrigin := range p.AllowedOrigins {
		if origin == allowedOrigin {
			return true
		}
	}
	return false
}

// CheckOrigin adapts the policy for the websocket upgrader.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	return p.Allowed(r.Header.Get("Origin"))
}

func CORSMiddleware(policy OriginPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if !policy.Allowed(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version, Sec-WebSocket-Protocol")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
			c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Disposition, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
