package watch

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"os"

	"github.com/kbinani/screenshot"
)

// ScreenSource captures one display per call.
type ScreenSource struct {
	display int
}

func NewScreenSource(display int) (*ScreenSource, error) {
	if n := screenshot.NumActiveDisplays(); display < 0 || display >= n {
		return nil, fmt.Errorf("display %d out of range, %d active", display, n)
	}
	return &ScreenSource{display: display}, nil
}

func (s *ScreenSource) Capture() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(screenshot.GetDisplayBounds(s.display))
	if err != nil {
		return nil, fmt.Errorf("could not capture display %d: %w", s.display, err)
	}
	return img, nil
}

// FileSource re-reads an image file on every poll, standing in for any
// external mechanism that drops captures at a known path.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Capture() (*image.RGBA, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("could not open capture %q: %w", s.path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close capture file", "name", s.path, "error", closeErr)
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode capture %q: %w", s.path, err)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}
