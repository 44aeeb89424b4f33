package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/HasnaMouflih/chatbot-educatif-intelligent/service"
)

// AuthController resolves bearer tokens into authenticated identities for
// the protected routes.
type AuthController struct {
	users  *service.UserService
	tokens *service.TokenService
	logger *logrus.Logger
}

func NewAuthController(users *service.UserService, tokens *service.TokenService, logger *logrus.Logger) *AuthController {
	return &AuthController{users: users, tokens: tokens, logger: logger}
}

// TokenRequired re-verifies the token and re-checks the subject against
// the store on every call. A store outage is 503, never 401: the two must
// stay distinguishable for callers.
func (a *AuthController) TokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := a.tokens.ExtractToken(c.Request)
		username, err := a.users.Resolve(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrStoreUnavailable) {
				a.logger.Warnf("[%s] identity lookup failed: store unavailable", c.GetString("requestId"))
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
				return
			}
			c.Header("WWW-Authenticate", "Bearer")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("username", username)
		c.Next()
	}
}
