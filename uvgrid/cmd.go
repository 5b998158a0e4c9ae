package uvgrid

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"flaggrid/palette"
	"flaggrid/parallel"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Scan    string `help:"Source folder of captured images to encode" default:"."`
	Dest    string `help:"Destination folder for encoded .uv files. Relative to scan dir if not absolute." default:"encoded"`
	File    string `help:"Encode a single image to stdout instead of scanning a folder" type:"existingfile"`
	Palette string `help:"Reference palette, grid image or RIFF PAL file" required:""`
	Cols    int    `help:"Palette grid columns" default:"7"`
	Rows    int    `help:"Palette grid rows" default:"6"`
	Width   int    `help:"Output grid width in pixels" default:"100"`
	Height  int    `help:"Output grid height in pixels" default:"66"`

	grid *palette.Grid `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	switch {
	case c.Cols < 1 || c.Rows < 1:
		return fmt.Errorf("invalid grid geometry %dx%d", c.Cols, c.Rows)
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("invalid output size %dx%d", c.Width, c.Height)
	}

	if c.File == "" {
		scanDir, err := filepath.Abs(c.Scan)
		var info os.FileInfo
		if err == nil {
			if info, err = os.Stat(scanDir); err == nil && !info.IsDir() {
				err = fmt.Errorf("not a directory")
			}
		}
		if err != nil {
			return fmt.Errorf("invalid scan path %q: %w", c.Scan, err)
		}
		c.Scan = scanDir

		if !filepath.IsAbs(c.Dest) {
			c.Dest = filepath.Join(scanDir, c.Dest)
		}
	}

	// No palette, no pipeline.
	grid, err := palette.Load(c.Palette, c.Cols, c.Rows)
	if err != nil {
		return err
	}
	c.grid = grid

	return nil
}

func (c *CLICmd) Run(worker parallel.WorkerFunc, wait parallel.WaitFunc) error {
	if c.File != "" {
		return c.encodeOne(c.File)
	}

	if err := os.MkdirAll(c.Dest, os.ModeDir); err != nil {
		return fmt.Errorf("unable to create destination folder %q: %w", c.Dest, err)
	}

	files, err := os.ReadDir(c.Scan)
	if err != nil {
		return fmt.Errorf("unable to read folder %q: %w", c.Scan, err)
	}

	var processedCount, errCount atomic.Uint64
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		worker(func(fileName string) func() {
			return func() {
				filePath := filepath.Join(c.Scan, fileName)
				logger := slog.Default().With("file", filePath)

				encoded, err := c.encodeFile(filePath)
				if err != nil {
					errCount.Add(1)
					logger.Error("could not encode image", "error", err)
					return
				}

				if err = save(c.Dest, destName(fileName), encoded); err != nil {
					errCount.Add(1)
					logger.Error("could not save encoded grid", "dir", c.Dest, "error", err)
					return
				}
				processedCount.Add(1)
			}
		}(file.Name()))
	}

	wait(true)

	processed := processedCount.Load()
	errors := errCount.Load()
	slog.Info("stats", "processed", processed, "errors", errors,
		"total", processed+errors)

	if errors > 0 {
		return fmt.Errorf("error processing %d files", errors)
	}
	return nil
}

func (c *CLICmd) encodeOne(path string) error {
	encoded, err := c.encodeFile(path)
	if err != nil {
		return err
	}

	_, err = fmt.Println(encoded)
	return err
}

func (c *CLICmd) encodeFile(path string) (string, error) {
	imgFile, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("could not open image: %w", err)
	}
	defer func() {
		if closeErr := imgFile.Close(); closeErr != nil {
			slog.Error("could not close image", "name", path, "error", closeErr)
		}
	}()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		return "", fmt.Errorf("could not decode image: %w", err)
	}

	return Encode(img, c.grid, c.Width, c.Height)
}

func destName(srcName string) string {
	oldExt := filepath.Ext(srcName)
	return fmt.Sprintf("%s.uv", srcName[:len(srcName)-len(oldExt)])
}

func save(destDir, destName, encoded string) (err error) {
	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), filepath.Join(destDir, destName)); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
	}()

	if _, err = outFile.WriteString(encoded); err != nil {
		return fmt.Errorf("could not write destination %q: %w", destName, err)
	}

	canRename = true
	return err
}
