package main

import (
	"context"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"

	"flaggrid/palette"
	"flaggrid/parallel"
	"flaggrid/uvgrid"
	"flaggrid/watch"
)

var cli struct {
	Encode  uvgrid.CLICmd  `cmd:"" help:"Quantize captured images against a palette grid and emit UV coordinate text"`
	Watch   watch.CLICmd   `cmd:"" help:"Poll a capture source and persist the encoded grid whenever it changes"`
	Palette palette.CLICmd `cmd:"" help:"Build and convert reference palette grids"`
	Workers int            `help:"Number of parallel workers, 0 for one per CPU" default:"0"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("flaggrid"),
		kong.Description("Quantizes captured images into palette-grid UV coordinate text."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	pool := parallel.Start(cli.Workers)
	kctx.FatalIfErrorf(kctx.Run(pool.Do, pool.Wait))
}
