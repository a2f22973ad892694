// Package transcode turns raw uploaded reels into watermarked, delivery-ready
// videos. Workers poll the posts table, claim one PENDING item at a time and
// run download -> encode -> upload -> status update strictly in sequence.
// Scaling out means running more workers; the claim is the only
// synchronization point between them.
package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/reelhub/reelhub/config"
	"github.com/reelhub/reelhub/encoder"
	"github.com/reelhub/reelhub/models"
	"github.com/reelhub/reelhub/storage"
	"github.com/reelhub/reelhub/utils"
)

var (
	// ErrMalformedSource marks a source URL that does not match the
	// expected storage layout.
	ErrMalformedSource = errors.New("malformed source url")
	// ErrNotClaimed reports a caller bug: Process was handed an item that
	// was not claimed first.
	ErrNotClaimed = errors.New("item is not in PROCESSING state")
)

// Worker runs the media processing pipeline for one claimed item at a time.
type Worker struct {
	store   Store
	storage storage.Storage
	enc     encoder.Encoder
	cfg     config.AppConfig
}

// NewWorker wires the pipeline's collaborators explicitly; no hidden globals.
func NewWorker(store Store, st storage.Storage, enc encoder.Encoder, cfg config.AppConfig) *Worker {
	return &Worker{store: store, storage: st, enc: enc, cfg: cfg}
}

// Run polls for pending work until ctx is cancelled. The cadence comes from
// PollIntervalSec, which config defaulting guarantees to be positive. One item
// per tick keeps a single worker from monopolizing the queue.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(w.cfg.PollIntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			utils.Sugar.Info("transcode worker stopping")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	item, err := w.store.ClaimNextPending(ctx)
	if err != nil {
		utils.Sugar.Errorw("claim pending reel failed", "err", err)
		return
	}
	if item == nil {
		utils.Sugar.Debug("no pending reels")
		return
	}

	utils.Sugar.Infow("starting transcode job", "reel_id", item.ID)
	if err := w.Process(ctx, item); err != nil {
		utils.Sugar.Errorw("transcode job failed", "reel_id", item.ID, "err", err)
		return
	}
	utils.Sugar.Infow("transcode job done", "reel_id", item.ID)

	// Feed caches hold the pre-processing URLs; drop them.
	utils.InvalidateByPrefix("cache:reels:list:")
}

// Process runs the full pipeline for one claimed item. Operational failures
// are contained: the item is marked FAILED and the error is returned for
// logging only. A precondition violation (item not PROCESSING) is returned
// without touching the row, since it indicates a scheduling bug.
func (w *Worker) Process(ctx context.Context, item *models.Post) error {
	if item.ProcessingStatus != models.ProcessingInProgress {
		return fmt.Errorf("reel %d: %w (status %q)", item.ID, ErrNotClaimed, item.ProcessingStatus)
	}

	if err := w.process(ctx, item); err != nil {
		// FAILED write is the last action of the failure path so an item
		// can never be left stuck in PROCESSING after an error.
		if markErr := w.store.MarkFailed(context.WithoutCancel(ctx), item.ID); markErr != nil {
			utils.Sugar.Errorw("mark failed status write failed", "reel_id", item.ID, "err", markErr)
		}
		return err
	}
	return nil
}

func (w *Worker) process(ctx context.Context, item *models.Post) error {
	sourceURL := item.OriginalURL
	if sourceURL == "" {
		sourceURL = item.VideoURL
	}
	if sourceURL == "" {
		return fmt.Errorf("reel %d: %w: no source url", item.ID, ErrMalformedSource)
	}

	storagePath, err := storagePathFromURL(sourceURL, w.cfg.StorageBucket)
	if err != nil {
		return fmt.Errorf("reel %d: %w", item.ID, err)
	}

	// Scratch files live in a per-job directory released on every exit path.
	scratch, err := os.MkdirTemp(w.cfg.ScratchDir, fmt.Sprintf("reel-%d-", item.ID))
	if err != nil {
		return fmt.Errorf("reel %d: create scratch dir: %w", item.ID, err)
	}
	defer os.RemoveAll(scratch)

	raw, err := w.storage.Download(ctx, w.cfg.StorageBucket, storagePath)
	if err != nil {
		return fmt.Errorf("reel %d: download source: %w", item.ID, err)
	}

	inputPath := filepath.Join(scratch, "input.mp4")
	outputPath := filepath.Join(scratch, "output.mp4")
	if err := os.WriteFile(inputPath, raw, 0o600); err != nil {
		return fmt.Errorf("reel %d: write scratch input: %w", item.ID, err)
	}

	if err := w.enc.Transcode(ctx, encoder.Job{
		InputPath:      inputPath,
		OutputPath:     outputPath,
		WatermarkPath:  w.cfg.WatermarkPath,
		WatermarkScale: w.cfg.WatermarkScale,
		MarginPx:       w.cfg.WatermarkMarginPx,
	}); err != nil {
		return fmt.Errorf("reel %d: encode: %w", item.ID, err)
	}

	encoded, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("reel %d: read scratch output: %w", item.ID, err)
	}

	processedPath := derivedPath(storagePath, w.cfg.TargetResolution)
	processedURL, err := w.storage.Upload(ctx, w.cfg.StorageBucket, processedPath, encoded, "video/mp4")
	if err != nil {
		return fmt.Errorf("reel %d: upload processed: %w", item.ID, err)
	}

	if err := w.store.MarkReady(ctx, item.ID, ReadyResult{
		ProcessedURL: processedURL,
		OriginalURL:  sourceURL,
		Resolution:   w.cfg.TargetResolution,
	}); err != nil {
		return fmt.Errorf("reel %d: %w", item.ID, err)
	}
	return nil
}

// storagePathFromURL extracts the object key from a public URL following the
// "<anything>/<bucket>/<key>" layout.
func storagePathFromURL(rawURL, bucket string) (string, error) {
	marker := "/" + bucket + "/"
	idx := strings.Index(rawURL, marker)
	if idx < 0 {
		return "", fmt.Errorf("%w: no %q segment in %q", ErrMalformedSource, bucket, rawURL)
	}
	path := rawURL[idx+len(marker):]
	if path == "" {
		return "", fmt.Errorf("%w: empty object key in %q", ErrMalformedSource, rawURL)
	}
	return path, nil
}

// derivedPath suffixes the base name with the target resolution, replacing the
// original extension: u1/video.mp4 -> u1/video_720p.mp4.
func derivedPath(storagePath, resolution string) string {
	ext := filepath.Ext(storagePath)
	base := strings.TrimSuffix(storagePath, ext)
	return base + "_" + resolution + ".mp4"
}
