package images

import (
	"fmt"
	"net/http"

	"github.com/anoixa/facility-image-store/api/common"
	"github.com/anoixa/facility-image-store/internal/imagestore"
	"github.com/gin-gonic/gin"
)

// UploadImage 处理单图片上传
func (h *Handler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "A file is required under the 'file' key")
		return
	}

	file, err := h.readUpload(fileHeader)
	if err != nil {
		respondSaveError(c, err)
		return
	}

	path, err := h.service.Save(c.Request.Context(), file, c.PostForm("category"), compressFlag(c))
	if err != nil {
		respondSaveError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{"path": path})
}

// UploadImages 处理多图片上传
func (h *Handler) UploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid form data")
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		common.RespondError(c, http.StatusBadRequest, "At least one file is required under the 'files' key")
		return
	}
	if len(headers) > MaxBatchFiles {
		common.RespondError(c, http.StatusBadRequest, fmt.Sprintf("Maximum %d files allowed per upload", MaxBatchFiles))
		return
	}

	var totalSize int64
	for _, fh := range headers {
		totalSize += fh.Size
	}
	if totalSize > h.maxBatchTotal {
		common.RespondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Total size of all files (%.2f MB) exceeds maximum allowed (%d MB)", float64(totalSize)/1024/1024, h.maxBatchTotal>>20))
		return
	}

	files := make([]imagestore.File, 0, len(headers))
	var readErrors []gin.H
	for _, fh := range headers {
		file, err := h.readUpload(fh)
		if err != nil {
			readErrors = append(readErrors, gin.H{"filename": fh.Filename, "error": err.Error()})
			continue
		}
		files = append(files, file)
	}

	results, err := h.service.SaveBatch(c.Request.Context(), files, c.PostForm("category"), compressFlag(c))
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to process uploads")
		return
	}

	success := make([]gin.H, 0, len(results))
	failed := readErrors
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, gin.H{"filename": r.FileName, "error": r.Error})
			continue
		}
		success = append(success, gin.H{"filename": r.FileName, "path": r.Path})
	}

	common.RespondSuccess(c, gin.H{
		"total_files":   len(headers),
		"success_count": len(success),
		"error_count":   len(failed),
		"success":       success,
		"errors":        failed,
	})
}
