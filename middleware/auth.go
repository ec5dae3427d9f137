package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yashrajoria/storefront-service/common/auth"
	"github.com/yashrajoria/storefront-service/models"
)

const (
	CurrentUserKey = "currentUser"

	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	tokenCookie     = "token"
)

// AuthMiddleware resolves the CurrentUser for a request from a bearer token
// or the token cookie. Identity headers are honoured only when
// trustGatewayHeaders is set, i.e. when the service is reachable solely
// through a gateway that strips and rewrites them. A forged header never
// falls through to a token check, and a nil parser accepts no tokens.
func AuthMiddleware(parser *auth.TokenParser, trustGatewayHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user models.CurrentUser
		ok := false
		if trustGatewayHeaders {
			user, ok = userFromHeaders(c)
		}
		if !ok && parser != nil {
			user, ok = userFromToken(c, parser)
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: missing user"})
			return
		}
		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

func userFromHeaders(c *gin.Context) (models.CurrentUser, bool) {
	raw := c.GetHeader(HeaderUserID)
	if raw == "" {
		return models.CurrentUser{}, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return models.CurrentUser{}, false
	}
	return models.CurrentUser{ID: id, Email: c.GetHeader(HeaderUserEmail)}, true
}

func userFromToken(c *gin.Context, parser *auth.TokenParser) (models.CurrentUser, bool) {
	token := ""
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	} else if cookie, err := c.Cookie(tokenCookie); err == nil {
		token = cookie
	}
	if token == "" {
		return models.CurrentUser{}, false
	}

	claims, err := parser.ParseAccessToken(token)
	if err != nil {
		return models.CurrentUser{}, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.CurrentUser{}, false
	}
	return models.CurrentUser{ID: id, Email: claims.Email}, true
}

// GetCurrentUser returns the user set by AuthMiddleware.
func GetCurrentUser(c *gin.Context) (models.CurrentUser, bool) {
	val, ok := c.Get(CurrentUserKey)
	if !ok {
		return models.CurrentUser{}, false
	}
	user, ok := val.(models.CurrentUser)
	return user, ok && user.ID != uuid.Nil
}
