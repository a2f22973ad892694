package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const (
	defaultWatermarkScale = 0.15
	defaultMarginPx       = 10
)

// FFmpeg invokes the ffmpeg binary as a subprocess.
type FFmpeg struct {
	binPath string
}

// NewFFmpeg creates an encoder using the given ffmpeg binary path.
func NewFFmpeg(binPath string) *FFmpeg {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &FFmpeg{binPath: binPath}
}

// Transcode overlays the watermark at the top-right corner and re-encodes to
// H.264/AAC with faststart enabled for progressive playback.
func (f *FFmpeg) Transcode(ctx context.Context, job Job) error {
	cmd := exec.CommandContext(ctx, f.binPath, buildArgs(job)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 512))
	}
	return nil
}

// buildArgs assembles the ffmpeg invocation. scale2ref sizes the watermark
// relative to the source video width while keeping the watermark's own aspect
// ratio, then the overlay pins it at a fixed offset from the top-right corner.
func buildArgs(job Job) []string {
	scale := job.WatermarkScale
	if scale <= 0 {
		scale = defaultWatermarkScale
	}
	margin := job.MarginPx
	if margin <= 0 {
		margin = defaultMarginPx
	}

	filter := fmt.Sprintf(
		"[1:v][0:v]scale2ref=w=iw*%.2f:h=ow/mdar[wm][base];[base][wm]overlay=main_w-overlay_w-%d:%d",
		scale, margin, margin,
	)

	return []string{
		"-y",
		"-i", job.InputPath,
		"-i", job.WatermarkPath,
		"-filter_complex", filter,
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "veryfast",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		job.OutputPath,
	}
}

// tail returns at most n trailing bytes of s; ffmpeg reports the actual
// failure at the end of its stderr output.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
