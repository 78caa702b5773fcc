package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"thaitanloi365/go-face-train/display"
	"thaitanloi365/go-face-train/facetrain"
	"thaitanloi365/go-face-train/source"
)

const (
	// Flags.
	flagConfig       = "config"
	flagDebug        = "debug"
	flagCascade      = "cascade"
	flagCascadeKind  = "cascade-kind"
	flagNested       = "nested"
	flagNestedKind   = "nested-kind"
	flagName         = "name"
	flagScale        = "scale"
	flagTryFlip      = "try-flip"
	flagMinSize      = "min-size"
	flagMaxSize      = "max-size"
	flagScaleFactor  = "scale-factor"
	flagMinNeighbors = "min-neighbors"
	flagShiftFactor  = "shift-factor"
	flagIou          = "iou"
	flagMinQuality   = "min-quality"
	flagAngle        = "angle"
	flagOutputDir    = "output-dir"
	flagOutputFormat = "output-format"
	flagHTTP         = "http"
	flagWindow       = "window"
	flagKeyWait      = "key-wait"
	flagMaxFrames    = "max-frames"

	windowTitle = "result"
)

// openSource is replaced in tests.
var openSource = source.Open

func newApp(stdout, stderr io.Writer) *cli.App {
	defaults := facetrain.DefaultConfig()
	params := defaults.Params()

	return &cli.App{
		Name:  "face_train",
		Usage: "outline faces and eyes on frames from a camera or a file",
		UsageText: "face_train [options] [filename|camera_index]\n\n" +
			"   Reads frames from the camera with the given index (0 when omitted), a video,\n" +
			"   an image, an animated GIF or a directory of images. Press any key to stop.",
		ArgsUsage: "[filename|camera_index]",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load settings from YAML `FILE`; flags override it",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagCascade,
				Value: facetrain.DefaultCascade,
				Usage: "primary classifier `PATH`",
			},
			&cli.StringFlag{
				Name:  flagCascadeKind,
				Value: defaults.CascadeKind,
				Usage: "primary classifier kind: auto, pigo, puploc or haar",
			},
			&cli.StringFlag{
				Name:  flagNested,
				Value: facetrain.DefaultNested,
				Usage: "nested classifier `PATH`, searched inside every primary region",
			},
			&cli.StringFlag{
				Name:  flagNestedKind,
				Value: defaults.NestedKind,
				Usage: "nested classifier kind: auto, pigo, puploc or haar",
			},
			&cli.StringFlag{
				Name:  flagName,
				Value: facetrain.DefaultName,
				Usage: "subject `LABEL` recorded with every frame",
			},
			&cli.Float64Flag{
				Name:  flagScale,
				Value: defaults.Scale,
				Usage: "shrink frames by this factor before detection",
			},
			&cli.BoolFlag{
				Name:  flagTryFlip,
				Usage: "also detect on the mirrored frame",
			},
			&cli.IntFlag{
				Name:  flagMinSize,
				Value: params.MinSize,
				Usage: "smallest region side in working pixels",
			},
			&cli.IntFlag{
				Name:  flagMaxSize,
				Value: params.MaxSize,
				Usage: "largest region side in working pixels",
			},
			&cli.Float64Flag{
				Name:  flagScaleFactor,
				Value: params.ScaleFactor,
				Usage: "window growth between detection scales",
			},
			&cli.IntFlag{
				Name:  flagMinNeighbors,
				Value: params.MinNeighbors,
				Usage: "overlapping hits needed to keep a haar region",
			},
			&cli.Float64Flag{
				Name:  flagShiftFactor,
				Value: params.ShiftFactor,
				Usage: "sliding window step as a fraction of its size",
			},
			&cli.Float64Flag{
				Name:  flagIou,
				Value: params.IouThreshold,
				Usage: "overlap above which detections are merged",
			},
			&cli.Float64Flag{
				Name:  flagMinQuality,
				Value: float64(params.MinQuality),
				Usage: "lowest detection score kept",
			},
			&cli.Float64Flag{
				Name:  flagAngle,
				Usage: "in-plane rotation to search, as a fraction of a turn",
			},
			&cli.StringFlag{
				Name:  flagOutputDir,
				Usage: "write annotated frames to `DIR`",
			},
			&cli.StringFlag{
				Name:  flagOutputFormat,
				Usage: "annotated frame format: jpg or png",
			},
			&cli.StringFlag{
				Name:  flagHTTP,
				Usage: "stream annotated frames as MJPEG on `ADDR`",
			},
			&cli.BoolFlag{
				Name:  flagWindow,
				Usage: "show annotated frames in a window (OpenCV builds)",
			},
			&cli.DurationFlag{
				Name:  flagKeyWait,
				Value: defaults.KeyWait,
				Usage: "how long to wait for a key after every frame",
			},
			&cli.IntFlag{
				Name:  flagMaxFrames,
				Usage: "stop after this many frames, 0 for no limit",
			},
		},
		Action: run,
	}
}

// loadConfig layers defaults, the config file, explicit flags and the
// positional argument.
func loadConfig(c *cli.Context) (facetrain.Config, error) {
	cfg := facetrain.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		if err := facetrain.LoadConfigFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	strs := map[string]*string{
		flagCascade:      &cfg.Cascade,
		flagCascadeKind:  &cfg.CascadeKind,
		flagNested:       &cfg.Nested,
		flagNestedKind:   &cfg.NestedKind,
		flagName:         &cfg.Name,
		flagOutputDir:    &cfg.OutputDir,
		flagOutputFormat: &cfg.OutputFormat,
		flagHTTP:         &cfg.HTTPAddr,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	floats := map[string]*float64{
		flagScale:       &cfg.Scale,
		flagScaleFactor: &cfg.ScaleFactor,
		flagShiftFactor: &cfg.ShiftFactor,
		flagIou:         &cfg.IouThreshold,
		flagMinQuality:  &cfg.MinQuality,
		flagAngle:       &cfg.Angle,
	}
	for name, dst := range floats {
		if c.IsSet(name) {
			*dst = c.Float64(name)
		}
	}
	ints := map[string]*int{
		flagMinSize:      &cfg.MinSize,
		flagMaxSize:      &cfg.MaxSize,
		flagMinNeighbors: &cfg.MinNeighbors,
		flagMaxFrames:    &cfg.MaxFrames,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	if c.IsSet(flagTryFlip) {
		cfg.TryFlip = c.Bool(flagTryFlip)
	}
	if c.IsSet(flagWindow) {
		cfg.Window = c.Bool(flagWindow)
	}
	if c.IsSet(flagKeyWait) {
		cfg.KeyWait = c.Duration(flagKeyWait)
	}
	if c.NArg() > 0 {
		cfg.Input = c.Args().First()
	}
	return cfg, cfg.Validate()
}

func run(c *cli.Context) error {
	interactive := display.IsTerminal(os.Stdin)
	logger := newLogger(c.App.ErrWriter, c.Bool(flagDebug), interactive)
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	cfg, err := loadConfig(c)
	if err != nil {
		logger.Errorw("invalid configuration", "error", err)
		return cli.Exit("", 1)
	}

	detector, err := facetrain.LoadDetector(cfg, logger)
	if err != nil {
		logger.Errorw("could not start detection", "cascade", cfg.Cascade, "error", err)
		if helpErr := cli.ShowAppHelp(c); helpErr != nil {
			logger.Debugw("could not print usage", "error", helpErr)
		}
		return cli.Exit("", -1)
	}
	defer func() {
		if err := detector.Close(); err != nil {
			logger.Warnw("could not release classifiers", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := openSource(ctx, cfg.Input, source.Options{Logger: logger})
	if err != nil {
		logger.Errorw("could not open frame source", "input", cfg.Input, "error", err)
		return cli.Exit("", 1)
	}

	sink, keys, err := openOutputs(ctx, cfg, interactive, logger)
	if err != nil {
		logger.Errorw("could not open output", "error", multierr.Append(err, src.Close()))
		return cli.Exit("", 1)
	}

	logger.Infow("video capturing has been started", "input", cfg.Input, "subject", cfg.Name, "nested", detector.HasNested())
	runErr := facetrain.NewLoop(cfg, detector, src, sink, keys, logger).Run(ctx)

	if closeErr := multierr.Combine(keys.Close(), sink.Close(), src.Close()); closeErr != nil {
		logger.Warnw("teardown failed", "error", closeErr)
	}
	if runErr != nil {
		logger.Errorw("stopped on error", "error", runErr)
		return cli.Exit("", 1)
	}
	return nil
}

// openOutputs builds the sinks and key pollers cfg asks for. Whatever was
// opened is closed again when a later one fails.
func openOutputs(ctx context.Context, cfg facetrain.Config, interactive bool, logger *zap.SugaredLogger) (display.Sink, display.KeyPoller, error) {
	var (
		sinks   []display.Sink
		pollers []display.KeyPoller
	)
	fail := func(err error) (display.Sink, display.KeyPoller, error) {
		closeErr := multierr.Combine(display.Multi(sinks...).Close(), display.AnyKey(pollers...).Close())
		return nil, nil, multierr.Append(err, closeErr)
	}

	if cfg.Window {
		w, err := display.NewWindow(windowTitle)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, w)
		pollers = append(pollers, w)
	}
	if cfg.OutputDir != "" {
		d, err := display.NewDirSink(cfg.OutputDir, cfg.OutputFormat, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, d)
	}
	if cfg.HTTPAddr != "" {
		m, err := display.NewMJPEG(ctx, cfg.HTTPAddr, logger)
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, m)
	}
	if interactive {
		t, err := display.NewTerminal(os.Stdin)
		if err != nil {
			return fail(errors.Wrap(err, "watch keyboard"))
		}
		pollers = append(pollers, t)
	}

	if len(sinks) == 0 {
		logger.Warnw("no output selected, annotated frames are dropped")
	}
	return display.Multi(sinks...), display.AnyKey(pollers...), nil
}
