// Package encoder wraps the external ffmpeg binary used to watermark and
// re-encode reel videos for delivery.
package encoder

import "context"

// Job describes one transcode invocation. Paths are local scratch files.
type Job struct {
	InputPath     string
	OutputPath    string
	WatermarkPath string
	// WatermarkScale is the watermark width as a fraction of the source
	// video width. Zero means the default 0.15.
	WatermarkScale float64
	// MarginPx is the offset from the top-right corner. Zero means 10.
	MarginPx int
}

// Encoder produces the delivery rendition of a video.
type Encoder interface {
	Transcode(ctx context.Context, job Job) error
}
