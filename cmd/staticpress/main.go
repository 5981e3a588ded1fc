package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/eringen/staticpress"
)

// version is set at build time via ldflags.
var version = "dev"

// cacheFileName is the incremental build cache, kept alongside the source.
const cacheFileName = ".staticpress-cache.db"

var cli struct {
	Source  string `short:"s" help:"Site source directory" default:"."`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Output        string `short:"o" help:"Output directory for the generated site" default:"_site"`
		Incremental   bool   `short:"i" help:"Skip unchanged documents using the build cache"`
		KeepGoing     bool   `short:"k" help:"Continue past per-document errors and report them all at the end"`
		ImageMaxWidth int    `help:"Downscale static JPEGs wider than this many pixels (0 disables)"`
	} `cmd:"" help:"Build the static site into the output directory"`

	Serve struct {
		Output  string `short:"o" help:"Output directory for the generated site" default:"_site"`
		Addr    string `help:"Preview server listen address" default:":4000"`
		NoWatch bool   `help:"Disable watch-and-rebuild"`
	} `cmd:"" help:"Build the site and serve a local preview"`

	Clean struct {
		Output string `short:"o" help:"Output directory to remove" default:"_site"`
	} `cmd:"" help:"Remove the output directory"`

	New struct {
		Dir string `arg:"" help:"Directory to create the site skeleton in"`
	} `cmd:"" help:"Scaffold a new site"`

	Version struct{} `cmd:"" help:"Print the staticpress version"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("staticpress"),
		kong.Description("A Jekyll-style static site generator."))

	logLevel := slog.LevelInfo
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx.Command(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, logger *slog.Logger) error {
	switch command {
	case "build":
		engine, err := newEngine(logger, cli.Build.Output, buildOptions()...)
		if err != nil {
			return err
		}
		_, err = engine.Build(ctx)
		return err

	case "serve":
		engine, err := newEngine(logger, cli.Serve.Output)
		if err != nil {
			return err
		}
		return engine.Serve(ctx, cli.Serve.Addr, !cli.Serve.NoWatch)

	case "clean":
		// Clean needs no valid configuration; a site with a broken
		// _config.yml must still be cleanable.
		engine := staticpress.New(staticpress.SiteConfig{Name: "-"},
			staticpress.WithOutputDir(filepath.Join(cli.Source, cli.Clean.Output)),
			staticpress.WithLogger(logger))
		return engine.Clean()

	case "new <dir>":
		return runNew(cli.New.Dir)

	case "version":
		fmt.Printf("staticpress %s\n", version)
		return nil

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func newEngine(logger *slog.Logger, output string, extra ...staticpress.Option) (*staticpress.Engine, error) {
	cfg, err := staticpress.LoadConfig(filepath.Join(cli.Source, staticpress.ConfigFileName))
	if err != nil {
		return nil, err
	}
	opts := []staticpress.Option{
		staticpress.WithSourceDir(cli.Source),
		staticpress.WithOutputDir(filepath.Join(cli.Source, output)),
		staticpress.WithLogger(logger),
	}
	opts = append(opts, extra...)
	return staticpress.New(cfg, opts...), nil
}

func buildOptions() []staticpress.Option {
	var opts []staticpress.Option
	if cli.Build.Incremental {
		opts = append(opts, staticpress.WithIncremental(filepath.Join(cli.Source, cacheFileName)))
	}
	if cli.Build.KeepGoing {
		opts = append(opts, staticpress.WithKeepGoing())
	}
	if cli.Build.ImageMaxWidth > 0 {
		opts = append(opts, staticpress.WithImageMaxWidth(cli.Build.ImageMaxWidth))
	}
	return opts
}
