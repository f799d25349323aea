// Package httpapi exposes the auth workflow over HTTP. It owns request
// binding, the Bearer-token middleware, and the mapping from workflow errors
// to status codes; all semantics live in the auth service.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/dpavlenko/authd/internal/logging"
	"github.com/dpavlenko/authd/internal/server/auth"
)

// Server carries the handler dependencies.
type Server struct {
	service *auth.Service
	issuer  *auth.Issuer
	logger  logging.Logger
}

// NewRouter builds the gin engine with all routes attached.
func NewRouter(service *auth.Service, issuer *auth.Issuer, logger logging.Logger) *gin.Engine {
	s := &Server{service: service, issuer: issuer, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/signin", s.signin)
	authGroup.POST("/refresh", s.refresh)
	authGroup.POST("/logout", s.requireAccessToken(), s.logout)

	profile := api.Group("/profile", s.requireAccessToken())
	profile.GET("", s.getProfile)
	profile.PATCH("", s.updateProfile)
	profile.DELETE("", s.deleteProfile)

	return r
}
