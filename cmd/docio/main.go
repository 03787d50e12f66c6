// Command docio loads and saves text files through the docio pipeline.
//
//	docio cat [--encoding NAME] LOCATION
//	docio convert [--to NAME] [--newline STYLE] [--compress CODEC] SRC DST
//	docio detect [--candidates LIST] LOCATION...
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dshills/docio/internal/config"
	"github.com/dshills/docio/internal/document"
	"github.com/dshills/docio/internal/logging"
	"github.com/dshills/docio/internal/metadata"
	"github.com/dshills/docio/internal/vfs"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

// exitError carries a process exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "docio: %v\n", err)
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

// globals are the flags accepted before the subcommand.
type globals struct {
	configPath string
	logLevel   string
	noMetadata bool
}

// env is what every subcommand needs.
type env struct {
	cfg    *config.Config
	log    *slog.Logger
	mgr    *document.Manager
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var g globals
	var showVersion bool

	fs := pflag.NewFlagSet("docio", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	fs.StringVarP(&g.configPath, "config", "c", config.DefaultPath(), "configuration file")
	fs.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.BoolVar(&g.noMetadata, "no-metadata", false, "do not read or write remembered encodings and positions")
	fs.BoolVar(&showVersion, "version", false, "show version information")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return &exitError{code: 2, err: err}
	}
	if showVersion {
		fmt.Fprintf(stdout, "docio %s (%s)\n", version, commit)
		return nil
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return &exitError{code: 2, err: errors.New("missing command")}
	}

	cfg := config.New(config.WithFile(g.configPath))
	if err := cfg.Load(ctx); err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if g.logLevel != "" {
		if err := cfg.Set("logging.level", g.logLevel); err != nil {
			return &exitError{code: 2, err: err}
		}
		if err := cfg.Validate(); err != nil {
			return &exitError{code: 2, err: fmt.Errorf("--log-level: %w", err)}
		}
	}
	log := logging.New(cfg.Logging(), stderr)

	e := &env{cfg: cfg, log: log, stdout: stdout, stderr: stderr}
	opts := []document.Option{
		document.WithConfig(cfg),
		document.WithLogger(logging.WithComponent(log, "document")),
		document.WithMountOperation(newTerminalMount(stderr)),
	}
	if !g.noMetadata {
		if store := openMetadata(ctx, cfg, log); store != nil {
			opts = append(opts, document.WithMetadata(store))
		}
	}
	e.mgr = document.NewManager(opts...)
	defer e.mgr.CloseAll(context.WithoutCancel(ctx))

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "cat":
		return runCat(ctx, e, rest)
	case "convert":
		return runConvert(ctx, e, rest)
	case "detect":
		return runDetect(ctx, e, rest)
	default:
		usage(stderr, fs)
		return &exitError{code: 2, err: fmt.Errorf("unknown command %q", cmd)}
	}
}

// openMetadata opens the metadata store. Failures are logged and disable
// the store rather than the command.
func openMetadata(ctx context.Context, cfg *config.Config, log *slog.Logger) *metadata.Store {
	path := cfg.Metadata().Path
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn("metadata disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	store, err := metadata.Open(ctx, vfs.NewOSBackend(), vfs.FileLocation(path),
		metadata.WithLogger(logging.WithComponent(log, "metadata")))
	if err != nil {
		log.Warn("metadata disabled", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	return store
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "docio - encoding-aware text file loading and saving\n\n")
	fmt.Fprintf(w, "Usage: docio [options] <command> [command options] [args]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  cat       print a file as UTF-8\n")
	fmt.Fprintf(w, "  convert   re-encode a file\n")
	fmt.Fprintf(w, "  detect    report encoding, newline style and compression\n\n")
	fmt.Fprintf(w, "Options:\n")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
