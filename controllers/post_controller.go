package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reelhub/reelhub/linkmeta"
	"github.com/reelhub/reelhub/middleware"
	"github.com/reelhub/reelhub/models"
	"github.com/reelhub/reelhub/utils"
)

const reelsListCacheTTL = 2 * time.Minute

// PostController manages the create/read surface for feed posts. Link posts
// resolve preview metadata synchronously; reel posts are queued for the
// transcode worker.
type PostController struct {
	db       *gorm.DB
	resolver *linkmeta.Resolver
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, resolver *linkmeta.Resolver) *PostController {
	return &PostController{db: db, resolver: resolver}
}

// CreatePost allows authenticated users to create text, link and reel posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Type     string `json:"type" binding:"required,oneof=text link reel"`
		Title    string `json:"title"`
		Content  string `json:"content"`
		LinkURL  string `json:"link_url"`
		VideoURL string `json:"video_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	post := models.Post{
		UserID:  userID,
		Type:    req.Type,
		Title:   utils.SanitizeTitle(strings.TrimSpace(req.Title)),
		Content: utils.Sanitize(req.Content),
	}

	switch req.Type {
	case models.PostTypeLink:
		link := strings.TrimSpace(req.LinkURL)
		if link == "" {
			utils.Error(ctx, http.StatusBadRequest, 40021, "link posts require link_url")
			return
		}
		post.LinkURL = link
		// Metadata resolution never fails the post: a failed preview
		// publishes with the raw URL and no rich card.
		meta := p.resolver.Resolve(ctx.Request.Context(), link)
		if b, err := json.Marshal(meta); err == nil {
			post.LinkMetadata = string(b)
		}
	case models.PostTypeReel:
		video := strings.TrimSpace(req.VideoURL)
		if video == "" {
			utils.Error(ctx, http.StatusBadRequest, 40022, "reel posts require video_url")
			return
		}
		post.VideoURL = video
		post.OriginalURL = video
		post.ProcessingStatus = models.ProcessingPending
	default:
		if post.Content == "" {
			utils.Error(ctx, http.StatusBadRequest, 40023, "text posts require content")
			return
		}
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:reels:list:")

	utils.Success(ctx, gin.H{"post": post})
}

// ListReels returns the paginated reels feed, newest first. Failed reels stay
// listed so owners can see and requeue them.
func (p *PostController) ListReels(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	cacheKey := fmt.Sprintf("cache:reels:list:page=%d:size=%d", page, pageSize)
	if b, ok := utils.CacheGetBytes(cacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var reels []models.Post
	var total int64

	query := p.db.Model(&models.Post{}).Where("type = ?", models.PostTypeReel)
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count reels")
		return
	}
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reels).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list reels")
		return
	}

	resp := utils.JSONResponse{
		Code:    0,
		Message: "success",
		Data: gin.H{
			"reels":     reels,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
			"has_more":  int64(page*pageSize) < total,
		},
	}
	if b, err := json.Marshal(resp); err == nil {
		utils.CacheSetBytes(cacheKey, b, reelsListCacheTTL)
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetPost returns a single post by id.
func (p *PostController) GetPost(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return
	}

	var post models.Post
	if err := p.db.Preload("User").First(&post, id).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
		return
	}

	utils.Success(ctx, gin.H{"post": post})
}

// RequeuePost resets a FAILED reel back to PENDING so a worker picks it up
// again. Retry is an operator decision, not something the pipeline does on
// its own.
func (p *PostController) RequeuePost(ctx *gin.Context) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid post id")
		return
	}

	res := p.db.Model(&models.Post{}).
		Where("id = ? AND type = ? AND processing_status = ?", id, models.PostTypeReel, models.ProcessingFailed).
		Update("processing_status", models.ProcessingPending)
	if res.Error != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to requeue post")
		return
	}
	if res.RowsAffected == 0 {
		utils.Error(ctx, http.StatusConflict, 40920, "post is not a failed reel")
		return
	}

	utils.InvalidateByPrefix("cache:reels:list:")
	utils.Success(ctx, nil)
}

func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func parsePagination(pageStr, sizeStr string) (int, int) {
	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 || size > 50 {
		size = 10
	}
	return page, size
}
