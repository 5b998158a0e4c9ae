package watch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSink replaces the target file atomically on every store: consumers
// polling the path never observe a partially written grid.
type FileSink struct {
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Store(data []byte) (err error) {
	dir, name := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	outFile, err := os.CreateTemp(dir, name)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", s.path, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", s.path, defErr)
		}
		if defErr := outFile.Close(); defErr != nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", s.path, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), s.path); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", s.path, defErr)
			}
		} else if err != nil {
			os.Remove(outFile.Name())
		}
	}()

	if _, err = outFile.Write(data); err != nil {
		return fmt.Errorf("could not write destination %q: %w", s.path, err)
	}

	canRename = true
	return err
}

// WriterSink appends each encoded grid as one line, for piping to stdout or
// any other stream consumer.
type WriterSink struct {
	w io.Writer
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) Store(data []byte) error {
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("could not write encoded grid: %w", err)
	}
	return nil
}
