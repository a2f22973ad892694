package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/storage"
	"github.com/reelhub/reelhub/utils"
)

const maxUploadBytes = 200 << 20

var allowedVideoExts = map[string]bool{
	".mp4": true, ".mov": true, ".webm": true, ".mkv": true,
}

// UploadController accepts raw reel uploads and hands back the storage URL
// the client then posts with. Uploaded files keep their extension but get a
// random object key so names never collide.
type UploadController struct {
	storage storage.Storage
	cfg     config.AppConfig
}

// NewUploadController creates a new UploadController instance.
func NewUploadController(st storage.Storage, cfg config.AppConfig) *UploadController {
	return &UploadController{storage: st, cfg: cfg}
}

// UploadReel stores a video file and returns its public URL.
func (u *UploadController) UploadReel(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	header, err := ctx.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "missing file field")
		return
	}
	if header.Size > maxUploadBytes {
		utils.Error(ctx, http.StatusRequestEntityTooLarge, 40041, "file too large")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedVideoExts[ext] {
		utils.Error(ctx, http.StatusBadRequest, 40042, "unsupported video format")
		return
	}

	f, err := header.Open()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to read upload")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil || int64(len(data)) > maxUploadBytes {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := objectKey(userID, ext)
	url, err := u.storage.Upload(ctx.Request.Context(), u.cfg.StorageBucket, key, data, contentType)
	if err != nil {
		utils.Sugar.Errorw("reel upload failed", "user_id", userID, "key", key, "err", err)
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to store upload")
		return
	}

	utils.Success(ctx, gin.H{"url": url, "key": key})
}

func objectKey(userID uint, ext string) string {
	return fmt.Sprintf("uploads/u%d/%s%s", userID, uuid.NewString(), ext)
}
