package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cshum/vipsgen/vips"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"svgaux/internal/cache"
	"svgaux/internal/geometry"
	"svgaux/internal/image_renderer"
	"svgaux/internal/logger"
	"svgaux/internal/preview"
)

type options struct {
	output   string
	format   string
	width    uint32
	height   uint32
	color    string
	stretch  bool
	clip     geometry.Insets
	quality  int
	logLevel string
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "svgrender SOURCE",
		Short:         "Render an SVG file into an RGBA buffer",
		Long:          "Render an SVG file through the same pipeline as the server and write the result as raw RGBA, PNG or WebP.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "-", "output file (- for stdout)")
	flags.StringVarP(&opts.format, "format", "f", "", "output format: raw, png or webp (default from output extension, else raw)")
	flags.Uint32VarP(&opts.width, "width", "W", 100, "target width in pixels")
	flags.Uint32VarP(&opts.height, "height", "H", 100, "target height in pixels")
	flags.StringVarP(&opts.color, "color", "c", "ffffff", "currentColor as hex")
	flags.BoolVar(&opts.stretch, "stretch", false, "fill the target instead of keeping the aspect ratio")
	flags.Uint32Var(&opts.clip.Top, "clip-top", 0, "source units to clip from the top")
	flags.Uint32Var(&opts.clip.Bottom, "clip-bottom", 0, "source units to clip from the bottom")
	flags.Uint32Var(&opts.clip.Left, "clip-left", 0, "source units to clip from the left")
	flags.Uint32Var(&opts.clip.Right, "clip-right", 0, "source units to clip from the right")
	flags.IntVarP(&opts.quality, "quality", "q", 90, "WebP quality")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level")

	return cmd
}

func run(cmd *cobra.Command, source string, opts options) error {
	log, err := logger.NewTo(opts.logLevel, "console", "stderr")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	format, err := outputFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	c, err := image_renderer.ParseColor(opts.color)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", opts.color, err)
	}

	req := image_renderer.Request{
		Path:           source,
		Width:          opts.width,
		Height:         opts.height,
		MaintainAspect: !opts.stretch,
		Clip:           opts.clip,
		Color:          c,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	renderer := image_renderer.New(cache.NewNoopCache(), log)
	result, err := renderer.Render(req)
	if err != nil {
		return err
	}

	if format != preview.FormatRaw {
		vips.Startup(nil)
		defer vips.Shutdown()
	}

	data, err := preview.NewVipsEncoder(opts.quality, log).Encode(result.Pixmap, format)
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), opts.output, data); err != nil {
		return err
	}

	log.Info("Wrote output",
		zap.String("output", opts.output),
		zap.String("format", string(format)),
		zap.Int("width", result.Width),
		zap.Int("height", result.Height),
		zap.String("size", humanize.Bytes(uint64(len(data)))),
	)
	return nil
}

func outputFormat(flag, output string) (preview.Format, error) {
	if flag == "" && output != "-" {
		switch filepath.Ext(output) {
		case ".png":
			return preview.FormatPNG, nil
		case ".webp":
			return preview.FormatWebP, nil
		}
	}
	return preview.ParseFormat(flag)
}

func writeOutput(stdout io.Writer, output string, data []byte) error {
	if output == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
