package images

import (
	"github.com/anoixa/facility-image-store/api/common"
	"github.com/gin-gonic/gin"
)

// DeleteImage 删除图片，总是返回成功
func (h *Handler) DeleteImage(c *gin.Context) {
	h.service.Delete(c.Request.Context(), c.Query("path"))
	common.RespondSuccessMessage(c, "Image deleted", nil)
}
