package middleware

import (
	"net/http"
	"strings"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/gin-gonic/gin"
)

const (
	// BuildingHeader 外壳传递当前楼宇的请求头
	BuildingHeader = "X-Building-Id"
	// BuildingQuery 请求头缺失时的查询参数
	BuildingQuery = "buildingId"
)

// RequireBuilding 把楼宇放入请求 ctx，缺失时返回 428。
// 令牌带有楼宇时以令牌为准，请求头或查询参数与之不一致返回 403。
func RequireBuilding() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(BuildingHeader))
		if id == "" {
			id = strings.TrimSpace(c.Query(BuildingQuery))
		}
		if claimed := c.GetString(ContextTokenBuilding); claimed != "" {
			if id != "" && id != claimed {
				common.RespondErrorAbort(c, http.StatusForbidden, "building does not match token")
				return
			}
			id = claimed
		}
		if id == "" {
			common.RespondErrorAbort(c, http.StatusPreconditionRequired, building.ErrNoBuildingSelected.Error())
			return
		}

		ctx := building.WithBuilding(c.Request.Context(), building.Building{ID: id})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
