package watch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flaggrid/palette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	img *image.RGBA
	err error
}

func (s *stubSource) Capture() (*image.RGBA, error) {
	return s.img, s.err
}

type recordSink struct {
	stores [][]byte
	err    error
}

func (s *recordSink) Store(data []byte) error {
	if s.err != nil {
		return s.err
	}
	s.stores = append(s.stores, append([]byte(nil), data...))
	return nil
}

func blackWhiteGrid(t *testing.T) *palette.Grid {
	t.Helper()
	g, err := palette.FromColors(color.Palette{
		color.NRGBA{A: 0xFF},
		color.NRGBA{R: 255, G: 255, B: 255, A: 0xFF},
	}, 2, 1)
	require.NoError(t, err)
	return g
}

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{A: 0xFF})
	img.SetRGBA(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 0xFF})
	return img
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestWatcher(t *testing.T, source Source, sink Sink) *Watcher {
	t.Helper()
	w, err := New(source, sink, blackWhiteGrid(t), 2, 1, time.Second, discard())
	require.NoError(t, err)
	return w
}

func TestNewArguments(t *testing.T) {
	source := &stubSource{img: testImage()}
	sink := &recordSink{}
	grid := blackWhiteGrid(t)

	_, err := New(nil, sink, grid, 2, 1, time.Second, nil)
	assert.Error(t, err)
	_, err = New(source, nil, grid, 2, 1, time.Second, nil)
	assert.Error(t, err)
	_, err = New(source, sink, nil, 2, 1, time.Second, nil)
	assert.ErrorIs(t, err, palette.ErrEmpty)
	_, err = New(source, sink, grid, 0, 1, time.Second, nil)
	assert.Error(t, err)
	_, err = New(source, sink, grid, 2, 1, 0, nil)
	assert.Error(t, err)
}

func TestPollStoresOnlyOnChange(t *testing.T) {
	source := &stubSource{img: testImage()}
	sink := &recordSink{}
	w := newTestWatcher(t, source, sink)

	require.NoError(t, w.Poll())
	require.Len(t, sink.stores, 1)
	assert.Equal(t, "0.25:0.50,0.75:0.50", string(sink.stores[0]))

	// identical frame: nothing new stored
	require.NoError(t, w.Poll())
	assert.Len(t, sink.stores, 1)

	// frame changed: stored again
	source.img.SetRGBA(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 0xFF})
	require.NoError(t, w.Poll())
	require.Len(t, sink.stores, 2)
	assert.Equal(t, "0.75:0.50,0.75:0.50", string(sink.stores[1]))
}

func TestPollRetriesAfterStoreFailure(t *testing.T) {
	source := &stubSource{img: testImage()}
	sink := &recordSink{err: errors.New("sink down")}
	w := newTestWatcher(t, source, sink)

	require.Error(t, w.Poll())
	assert.Empty(t, sink.stores)

	// the hash only advances on success, so the same frame is retried
	sink.err = nil
	require.NoError(t, w.Poll())
	assert.Len(t, sink.stores, 1)
}

func TestPollCaptureError(t *testing.T) {
	source := &stubSource{err: errors.New("no display")}
	sink := &recordSink{}
	w := newTestWatcher(t, source, sink)

	err := w.Poll()
	require.Error(t, err)
	assert.Empty(t, sink.stores)
}

func TestPollRejectsMismatchedBuffer(t *testing.T) {
	img := testImage()
	img.Pix = img.Pix[:4] // claims 2x1 but holds one pixel
	source := &stubSource{img: img}
	w := newTestWatcher(t, source, &recordSink{})

	assert.ErrorIs(t, w.Poll(), ErrInvalidImage)

	source.img = nil
	assert.ErrorIs(t, w.Poll(), ErrInvalidImage)
}

func TestRunStopsOnCancel(t *testing.T) {
	source := &stubSource{img: testImage()}
	sink := &recordSink{}
	w := newTestWatcher(t, source, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, sink.stores, 1, "polls once before noticing cancellation")
}

func TestFileSinkAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.txt")
	sink := NewFileSink(path)

	require.NoError(t, sink.Store([]byte("first")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	require.NoError(t, sink.Store([]byte("second")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no stray temp files")
}

func TestWriterSinkAppendsLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.Store([]byte("a")))
	require.NoError(t, sink.Store([]byte("b")))
	assert.Equal(t, "a\nb\n", buf.String())
}
