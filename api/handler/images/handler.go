package images

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/compress"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/anoixa/facility-image-store/utils"
	"github.com/anoixa/facility-image-store/utils/pool"
	"github.com/anoixa/facility-image-store/utils/validator"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MaxBatchFiles 批量上传的文件数量上限
const MaxBatchFiles = 10

// Handler 图片处理器
type Handler struct {
	service       *imagestore.Service
	maxFileSize   int64
	maxBatchTotal int64
}

// NewHandler 图片处理器
func NewHandler(service *imagestore.Service, maxFileSize, maxBatchTotal int64) *Handler {
	if maxFileSize <= 0 {
		maxFileSize = validator.DefaultMaxFileSize
	}
	if maxBatchTotal <= 0 {
		maxBatchTotal = MaxBatchFiles * maxFileSize
	}
	return &Handler{
		service:       service,
		maxFileSize:   maxFileSize,
		maxBatchTotal: maxBatchTotal,
	}
}

// readUpload 读取上传文件；未声明类型时按内容嗅探
func (h *Handler) readUpload(fh *multipart.FileHeader) (imagestore.File, error) {
	contentType := fh.Header.Get("Content-Type")

	// 超限文件不读取内容
	if fh.Size > h.maxFileSize {
		return imagestore.File{}, validator.ValidateImageFile(contentType, fh.Size, h.maxFileSize)
	}

	file, err := fh.Open()
	if err != nil {
		return imagestore.File{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := pool.SharedBufferPool.Get().(*[]byte)
	defer pool.SharedBufferPool.Put(buf)

	var data bytes.Buffer
	data.Grow(int(fh.Size))
	if _, err := io.CopyBuffer(&data, io.LimitReader(file, h.maxFileSize+1), *buf); err != nil {
		return imagestore.File{}, fmt.Errorf("failed to read file: %w", err)
	}

	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data.Bytes()).String()
	}
	return imagestore.File{Name: fh.Filename, ContentType: contentType, Data: data.Bytes()}, nil
}

// compressFlag compress 默认为 true
func compressFlag(c *gin.Context) bool {
	v := c.PostForm("compress")
	if v == "" {
		v = c.Query("compress")
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	var (
		ve *validator.ValidationError
		ie *compress.InvalidInputError
		de *compress.DecodeError
		se *imagestore.StorageError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &ie):
		return http.StatusBadRequest
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity
	case errors.Is(err, building.ErrNoBuildingSelected):
		return http.StatusPreconditionRequired
	case errors.As(err, &se):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func respondSaveError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", utils.SanitizeLogField(c.Request.URL.Path)).Msg("Image request failed")
	}
	common.RespondError(c, status, err.Error())
}
