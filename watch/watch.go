// Package watch runs the capture loop: poll a Source on a fixed interval,
// skip unchanged frames via a content hash, quantize the rest against the
// palette grid and hand the encoded string to a Sink. The quantization core
// stays pure; all loop state lives here.
package watch

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"log/slog"
	"time"

	"flaggrid/palette"
	"flaggrid/uvgrid"
)

// ErrInvalidImage marks a capture whose pixel buffer does not match its
// declared dimensions.
var ErrInvalidImage = errors.New("invalid capture image")

// Source produces one captured frame per call as a raw RGBA buffer.
type Source interface {
	Capture() (*image.RGBA, error)
}

// Sink persists one encoded grid. Each call replaces the previous value.
type Sink interface {
	Store(data []byte) error
}

type Watcher struct {
	source   Source
	sink     Sink
	grid     *palette.Grid
	width    int
	height   int
	interval time.Duration
	logger   *slog.Logger

	// lastSum is the hash of the last capture that was successfully stored.
	// Single writer: Run/Poll must not be called concurrently.
	lastSum uint64
	stored  bool
}

func New(source Source, sink Sink, grid *palette.Grid, width, height int, interval time.Duration, logger *slog.Logger) (*Watcher, error) {
	switch {
	case source == nil:
		return nil, errors.New("nil capture source")
	case sink == nil:
		return nil, errors.New("nil sink")
	case grid == nil || grid.Len() == 0:
		return nil, palette.ErrEmpty
	case width < 1 || height < 1:
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	case interval <= 0:
		return nil, fmt.Errorf("invalid poll interval %s", interval)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		source:   source,
		sink:     sink,
		grid:     grid,
		width:    width,
		height:   height,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run polls until ctx is cancelled. Cycle errors are logged and the loop
// keeps going; a failed store is retried implicitly since the hash is only
// advanced after a successful one.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watching", "interval", w.interval, "width", w.width, "height", w.height,
		"cols", w.grid.Cols(), "rows", w.grid.Rows())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.Poll(); err != nil {
			w.logger.Error("capture cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll runs a single capture-encode-store cycle.
func (w *Watcher) Poll() error {
	img, err := w.source.Capture()
	if err != nil {
		return fmt.Errorf("could not capture image: %w", err)
	}

	if err := validate(img); err != nil {
		return err
	}

	sum := hashPix(img.Pix)
	if w.stored && sum == w.lastSum {
		return nil
	}

	encoded, err := uvgrid.Encode(img, w.grid, w.width, w.height)
	if err != nil {
		return fmt.Errorf("could not encode capture: %w", err)
	}

	if err := w.sink.Store([]byte(encoded)); err != nil {
		return fmt.Errorf("could not persist encoded grid: %w", err)
	}

	w.lastSum = sum
	w.stored = true
	w.logger.Info("stored capture", "width", img.Rect.Dx(), "height", img.Rect.Dy(),
		"tokens", w.width*w.height)

	return nil
}

func validate(img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidImage)
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w < 1 || h < 1 {
		return fmt.Errorf("%w: empty bounds %v", ErrInvalidImage, img.Rect)
	}
	if img.Stride < 4*w || len(img.Pix) < img.Stride*(h-1)+4*w {
		return fmt.Errorf("%w: %d pixel bytes for %dx%d", ErrInvalidImage, len(img.Pix), w, h)
	}

	return nil
}

func hashPix(pix []uint8) uint64 {
	h := fnv.New64a()
	h.Write(pix)
	return h.Sum64()
}
