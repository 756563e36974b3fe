package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxUploadSize = 5 << 20 // 5 MiB

var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// uploadImage handles POST /api/upload. The stored filename is a fresh
// UUID so uploads can never collide or traverse out of the upload
// directory.
func (h *Handler) uploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		util.UploadsTotal.WithLabelValues("rejected").Inc()
		respondError(c, http.StatusBadRequest, "No file provided")
		return
	}

	if file.Size > maxUploadSize {
		util.UploadsTotal.WithLabelValues("rejected").Inc()
		respondError(c, http.StatusBadRequest, "File too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExtensions[ext] {
		util.UploadsTotal.WithLabelValues("rejected").Inc()
		respondError(c, http.StatusBadRequest, "Unsupported file type")
		return
	}

	filename := uuid.New().String() + ext
	dst := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		util.UploadsTotal.WithLabelValues("error").Inc()
		util.GetLogger().Error("Error saving upload", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to save file")
		return
	}

	util.UploadsTotal.WithLabelValues("success").Inc()
	respondData(c, http.StatusCreated, gin.H{
		"filename": filename,
		"url":      fmt.Sprintf("%s/%s", strings.TrimSuffix(h.uploadBaseURL, "/"), filename),
	}, "File uploaded")
}
