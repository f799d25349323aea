package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// principalIDKey is the gin context key under which the middleware stores
// the authenticated principal's id.
const principalIDKey = "principal_id"

// requireAccessToken validates the Bearer access token and injects the
// principal id into the request context. It never consults the store: an
// access token is good until it expires.
func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims, err := s.issuer.ParseAccess(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalIDKey, claims.Subject)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("authorization header is required")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) || len(header) == len(prefix) {
		return "", errors.New("invalid authorization header format")
	}
	return header[len(prefix):], nil
}

func principalID(c *gin.Context) string {
	return c.GetString(principalIDKey)
}
