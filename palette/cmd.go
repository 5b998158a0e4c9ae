package palette

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type CLICmd struct {
	Derive  DeriveCmd  `cmd:"" help:"Derive a palette grid from an arbitrary image via median-cut quantization"`
	Convert ConvertCmd `cmd:"" help:"Convert a reference palette between grid image and RIFF PAL formats"`
}

type gridGeometry struct {
	Cols int `help:"Palette grid columns" default:"7"`
	Rows int `help:"Palette grid rows" default:"6"`
}

func (g gridGeometry) validate() error {
	if g.Cols < 1 || g.Rows < 1 {
		return fmt.Errorf("invalid grid geometry %dx%d", g.Cols, g.Rows)
	}
	return nil
}

type DeriveCmd struct {
	Source   string `arg:"" help:"Image to derive the palette from" type:"existingfile"`
	Out      string `help:"Destination file, .pal for RIFF, anything else for PNG" default:"palette.png"`
	CellSize int    `help:"Cell size in pixels for image output" default:"32"`
	gridGeometry
}

func (c *DeriveCmd) Validate() error {
	return c.validate()
}

func (c *DeriveCmd) Run() error {
	img, err := decodeImage(c.Source)
	if err != nil {
		return err
	}

	grid, err := Derive(img, c.Cols, c.Rows)
	if err != nil {
		return fmt.Errorf("could not derive palette from %q: %w", c.Source, err)
	}

	slog.Info("derived palette", "source", c.Source, "cells", grid.Len())
	return writeGrid(grid, c.Out, c.CellSize)
}

type ConvertCmd struct {
	Source   string `arg:"" help:"Reference palette, grid image or RIFF PAL file" type:"existingfile"`
	Out      string `arg:"" help:"Destination file, .pal for RIFF, anything else for PNG"`
	CellSize int    `help:"Cell size in pixels for image output" default:"32"`
	gridGeometry
}

func (c *ConvertCmd) Validate() error {
	return c.validate()
}

func (c *ConvertCmd) Run() error {
	grid, err := Load(c.Source, c.Cols, c.Rows)
	if err != nil {
		return err
	}

	return writeGrid(grid, c.Out, c.CellSize)
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close image", "name", path, "error", closeErr)
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image %q: %w", path, err)
	}

	return img, nil
}

func writeGrid(g *Grid, path string, cellSize int) (err error) {
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create destination %q: %w", path, err)
	}
	defer func() {
		if syncErr := outFile.Sync(); syncErr != nil && err == nil {
			err = fmt.Errorf("could not flush destination %q: %w", path, syncErr)
		}
		if closeErr := outFile.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("could not close destination %q: %w", path, closeErr)
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".pal") {
		if err = g.WriteRIFF(outFile); err != nil {
			return fmt.Errorf("could not write palette %q: %w", path, err)
		}
	} else if err = png.Encode(outFile, g.Image(cellSize)); err != nil {
		return fmt.Errorf("could not encode PNG destination %q: %w", path, err)
	}

	slog.Info("wrote palette grid", "file", path, "cols", g.Cols(), "rows", g.Rows())
	return nil
}
