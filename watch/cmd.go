package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"flaggrid/palette"

	"github.com/alecthomas/kong"
)

type CLICmd struct {
	Palette  string        `help:"Reference palette, grid image or RIFF PAL file" required:""`
	Cols     int           `help:"Palette grid columns" default:"7"`
	Rows     int           `help:"Palette grid rows" default:"6"`
	Width    int           `help:"Output grid width in pixels" default:"100"`
	Height   int           `help:"Output grid height in pixels" default:"66"`
	Interval time.Duration `help:"Poll interval" default:"1s"`
	Display  int           `help:"Display number to capture" default:"0"`
	FromFile string        `help:"Poll an image file instead of capturing a display" type:"existingfile"`
	Out      string        `help:"Destination file for the encoded grid, '-' for stdout" default:"-"`

	grid *palette.Grid `kong:"-"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	switch {
	case c.Cols < 1 || c.Rows < 1:
		return fmt.Errorf("invalid grid geometry %dx%d", c.Cols, c.Rows)
	case c.Width < 1 || c.Height < 1:
		return fmt.Errorf("invalid output size %dx%d", c.Width, c.Height)
	case c.Interval <= 0:
		return fmt.Errorf("invalid poll interval %s", c.Interval)
	}

	grid, err := palette.Load(c.Palette, c.Cols, c.Rows)
	if err != nil {
		return err
	}
	c.grid = grid

	return nil
}

func (c *CLICmd) Run(ctx context.Context) error {
	var source Source
	if c.FromFile != "" {
		source = NewFileSource(c.FromFile)
	} else {
		var err error
		if source, err = NewScreenSource(c.Display); err != nil {
			return err
		}
	}

	var sink Sink
	if c.Out == "-" {
		sink = NewWriterSink(os.Stdout)
	} else {
		sink = NewFileSink(c.Out)
	}

	w, err := New(source, sink, c.grid, c.Width, c.Height, c.Interval, slog.Default())
	if err != nil {
		return err
	}

	if err := w.Run(ctx); !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("stopped")
	return nil
}
