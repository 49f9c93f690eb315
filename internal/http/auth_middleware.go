package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobhub/internal/domain"
	"jobhub/internal/service"
)

const authClaimsKey = "auth_claims"

// RequireAuth extrae el bearer token, lo valida contra el TokenService y deja
// los claims en el contexto. Corta con 401 antes de ejecutar el handler.
func RequireAuth(tokenServ *service.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenServ == nil {
			abort(c, http.StatusInternalServerError, "token service not configured")
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			abort(c, http.StatusUnauthorized, "Missing or malformed authorization header")
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := tokenServ.ValidateAccess(c.Request.Context(), token)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// RequireRoles corta con 403 cuando el rol de los claims no está en el
// conjunto permitido. Debe encadenarse después de RequireAuth.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Invalid or expired access token")
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "Insufficient role")
	}
}

// GetAuthClaims obtiene los claims validados desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}
