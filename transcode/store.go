package transcode

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/reelhub/reelhub/models"
)

// Store is the persistence surface the worker needs: claiming pending reels
// and writing terminal status.
type Store interface {
	// ClaimNextPending atomically flips the oldest PENDING reel to
	// PROCESSING and returns it. Returns (nil, nil) when there is no
	// pending work; that is not an error condition.
	ClaimNextPending(ctx context.Context) (*models.Post, error)
	// MarkReady records a successful transcode.
	MarkReady(ctx context.Context, id uint, res ReadyResult) error
	// MarkFailed records a failed transcode.
	MarkFailed(ctx context.Context, id uint) error
}

// ReadyResult carries the fields written when a reel becomes READY.
type ReadyResult struct {
	ProcessedURL string
	OriginalURL  string
	Resolution   string
}

// GormStore implements Store against the posts table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm DB handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// claimAttempts bounds how many candidate rows one call inspects when racing
// other workers. Each lost race means another worker claimed that row.
const claimAttempts = 3

// ClaimNextPending picks a candidate and claims it with a conditional update
// keyed on the previous status. The RowsAffected check is what makes the claim
// safe across processes: two workers may select the same candidate, but only
// one conditional update can flip PENDING to PROCESSING.
func (s *GormStore) ClaimNextPending(ctx context.Context) (*models.Post, error) {
	for attempt := 0; attempt < claimAttempts; attempt++ {
		var candidate models.Post
		err := s.db.WithContext(ctx).
			Where("type = ? AND processing_status = ?", models.PostTypeReel, models.ProcessingPending).
			Order("created_at ASC").
			First(&candidate).Error
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("select pending reel: %w", err)
		}

		res := s.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("id = ? AND processing_status = ?", candidate.ID, models.ProcessingPending).
			Update("processing_status", models.ProcessingInProgress)
		if res.Error != nil {
			return nil, fmt.Errorf("claim reel %d: %w", candidate.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race; try the next candidate.
			continue
		}

		candidate.ProcessingStatus = models.ProcessingInProgress
		return &candidate, nil
	}
	return nil, nil
}

// MarkReady writes the terminal READY state. The processed URL becomes the
// canonical delivery URL while the original upload URL is preserved separately.
func (s *GormStore) MarkReady(ctx context.Context, id uint, res ReadyResult) error {
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processing_status": models.ProcessingReady,
			"processed_url":     res.ProcessedURL,
			"video_url":         res.ProcessedURL,
			"original_url":      res.OriginalURL,
			"resolution":        res.Resolution,
			"watermark_applied": true,
		}).Error
	if err != nil {
		return fmt.Errorf("mark reel %d ready: %w", id, err)
	}
	return nil
}

// MarkFailed writes the terminal FAILED state. The post stays visible to its
// owner; requeueing back to PENDING is an operator decision.
func (s *GormStore) MarkFailed(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Update("processing_status", models.ProcessingFailed).Error
	if err != nil {
		return fmt.Errorf("mark reel %d failed: %w", id, err)
	}
	return nil
}
