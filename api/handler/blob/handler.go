package blob

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/internal/bloburl"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

type payload struct {
	data        []byte
	contentType string
}

// Handler blob URL 载荷服务
type Handler struct {
	registry *bloburl.Registry
	group    singleflight.Group
}

// NewHandler 创建处理器
func NewHandler(registry *bloburl.Registry) *Handler {
	return &Handler{registry: registry}
}

// ServeBlob 按 id 返回载荷，同一 id 的并发请求合并为一次缓存读取
func (h *Handler) ServeBlob(c *gin.Context) {
	id, err := bloburl.ParseID(c.Param("id"))
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid blob id")
		return
	}

	v, err, _ := h.group.Do(id, func() (interface{}, error) {
		data, contentType, err := h.registry.Resolve(c.Request.Context(), id)
		if err != nil {
			return nil, err
		}
		return payload{data: data, contentType: contentType}, nil
	})
	if err != nil {
		if errors.Is(err, bloburl.ErrUnknownBlobURL) {
			common.RespondError(c, http.StatusNotFound, err.Error())
			return
		}
		log.Error().Err(err).Str("id", id).Msg("Failed to resolve blob url")
		common.RespondError(c, http.StatusInternalServerError, "Failed to resolve blob url")
		return
	}

	p := v.(payload)
	c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", int(h.registry.TTL().Seconds())))
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, p.contentType, p.data)
}

// RevokeBlob 撤销 blob URL
func (h *Handler) RevokeBlob(c *gin.Context) {
	id := c.Param("id")
	if err := h.registry.Revoke(c.Request.Context(), id); err != nil {
		if errors.Is(err, bloburl.ErrUnknownBlobURL) {
			common.RespondError(c, http.StatusBadRequest, "Invalid blob id")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	common.RespondSuccessMessage(c, "Blob url revoked", nil)
}
