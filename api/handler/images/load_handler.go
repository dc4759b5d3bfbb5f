package images

import (
	"net/http"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/gin-gonic/gin"
)

// LoadImage 返回可显示的 URL
func (h *Handler) LoadImage(c *gin.Context) {
	res := h.service.Load(c.Request.Context(), c.Query("path"))
	switch res.Status {
	case imagestore.StatusFound:
		common.RespondSuccess(c, gin.H{"url": res.URL})
	case imagestore.StatusReadError:
		common.Respond(c, http.StatusNotFound, common.StatusError, "Failed to read image", gin.H{"reason": res.Status.String()})
	default:
		common.Respond(c, http.StatusNotFound, common.StatusError, "Image not found", gin.H{"reason": res.Status.String()})
	}
}

// ImageExists 检查图片是否存在
func (h *Handler) ImageExists(c *gin.Context) {
	common.RespondSuccess(c, gin.H{"exists": h.service.Exists(c.Request.Context(), c.Query("path"))})
}
