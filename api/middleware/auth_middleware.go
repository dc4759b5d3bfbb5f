package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	ContextSubjectKey    = "subject"
	ContextTokenBuilding = "token_building_id"
)

// BearerAuth 校验 Bearer JWT；服务未启用时直接放行
func BearerAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwtService.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "No Authorization request header")
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || token == "" {
			common.RespondErrorAbort(c, http.StatusBadRequest, "Authorization field format error")
			return
		}
		if !strings.EqualFold(scheme, "Bearer") {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "Unsupported authentication scheme")
			return
		}

		claims, err := jwtService.ExtractClaims(strings.TrimSpace(token))
		if err != nil {
			common.RespondErrorAbort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(ContextSubjectKey, claims.Subject)
		if claims.BuildingID != "" {
			c.Set(ContextTokenBuilding, claims.BuildingID)
		}
		c.Next()
	}
}
