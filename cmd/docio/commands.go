package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dshills/docio/internal/charset"
	"github.com/dshills/docio/internal/docio"
	"github.com/dshills/docio/internal/document"
	"github.com/dshills/docio/internal/textstream"
	"github.com/dshills/docio/internal/vfs"
)

func commandFlags(name string, e *env) *pflag.FlagSet {
	fs := pflag.NewFlagSet("docio "+name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	return fs
}

func parseCommand(fs *pflag.FlagSet, args []string, minArgs int) error {
	if err := fs.Parse(args); err != nil {
		return &exitError{code: 2, err: err}
	}
	if fs.NArg() < minArgs {
		return &exitError{code: 2, err: fmt.Errorf("%s: expected at least %d argument(s)", fs.Name(), minArgs)}
	}
	return nil
}

func lookupOptional(name string) (*charset.Encoding, error) {
	if name == "" || strings.EqualFold(name, "auto") {
		return nil, nil
	}
	return charset.Lookup(name)
}

// open loads a location, reporting a conversion fallback as a warning.
func open(ctx context.Context, e *env, arg string, opts document.LoadOptions) (*document.Document, error) {
	loc, err := vfs.ParseLocation(arg)
	if err != nil {
		return nil, err
	}
	opts.Progress = progressReporter(e.stderr, "loading "+loc.Base())
	d, err := e.mgr.Open(ctx, loc, opts)
	endProgress(e.stderr)
	if err != nil {
		if docio.IsSoft(err) {
			fmt.Fprintf(e.stderr, "docio: warning: %s: %v\n", arg, err)
			return d, nil
		}
		return nil, err
	}
	return d, nil
}

// runCat writes a file to stdout as UTF-8 with LF terminators.
func runCat(ctx context.Context, e *env, args []string) error {
	fs := commandFlags("cat", e)
	encName := fs.StringP("encoding", "e", "", "source encoding (default: auto-detect)")
	if err := parseCommand(fs, args, 1); err != nil {
		return err
	}
	enc, err := lookupOptional(*encName)
	if err != nil {
		return err
	}

	for _, arg := range fs.Args() {
		d, err := open(ctx, e, arg, document.LoadOptions{Encoding: enc})
		if err != nil {
			return err
		}
		src := textstream.NewSource(d.Buffer(), textstream.NewlineLF)
		_, err = io.Copy(e.stdout, src)
		src.Close()
		if err != nil {
			return err
		}
		if err := e.mgr.Close(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// runConvert re-encodes SRC into DST.
func runConvert(ctx context.Context, e *env, args []string) error {
	fs := commandFlags("convert", e)
	from := fs.StringP("from", "f", "", "source encoding (default: auto-detect)")
	to := fs.StringP("to", "t", "", "target encoding (default: keep)")
	newline := fs.String("newline", "", "line terminator: lf, cr or crlf (default: keep)")
	compress := fs.String("compress", "", "compression: none, gzip, zstd or lz4 (default: keep)")
	noBackup := fs.Bool("no-backup", false, "do not keep a backup of DST")
	if err := parseCommand(fs, args, 2); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return &exitError{code: 2, err: errors.New("convert: expected SRC and DST")}
	}

	fromEnc, err := lookupOptional(*from)
	if err != nil {
		return err
	}
	var opts document.SaveAsOptions
	if opts.Encoding, err = lookupOptional(*to); err != nil {
		return err
	}
	if *newline != "" {
		nl, err := textstream.ParseNewline(*newline)
		if err != nil {
			return err
		}
		opts.Newline = &nl
	}
	if *compress != "" {
		c, err := vfs.ParseCompression(*compress)
		if err != nil {
			return err
		}
		opts.Compression = &c
	}
	if *noBackup {
		opts.Flags |= docio.SaveIgnoreBackup
	}

	d, err := open(ctx, e, fs.Arg(0), document.LoadOptions{Encoding: fromEnc})
	if err != nil {
		return err
	}
	dst, err := vfs.ParseLocation(fs.Arg(1))
	if err != nil {
		return err
	}
	opts.Progress = progressReporter(e.stderr, "saving "+dst.Base())
	err = d.SaveAs(ctx, dst, opts)
	endProgress(e.stderr)
	if err != nil {
		return err
	}
	e.log.Info("converted",
		slog.String("source", fs.Arg(0)),
		slog.String("destination", dst.String()),
		slog.String("encoding", d.Encoding().Charset()),
		slog.String("newline", d.Newline().String()),
		slog.String("compression", d.Compression().String()))
	return nil
}

// runDetect prints what a load finds out about each file.
func runDetect(ctx context.Context, e *env, args []string) error {
	fs := commandFlags("detect", e)
	candidates := fs.StringSlice("candidates", nil, "encodings to try, in order (default: encodings.auto_detected)")
	if err := parseCommand(fs, args, 1); err != nil {
		return err
	}

	var forced *charset.Encoding
	mgr := e.mgr
	if len(*candidates) > 0 {
		encs, err := charset.LookupAll(*candidates)
		if err != nil {
			return err
		}
		if len(encs) == 1 {
			forced = encs[0]
		} else if err := e.cfg.Set("encodings.auto_detected", *candidates); err != nil {
			return err
		}
		mgr = document.NewManager(
			document.WithConfig(e.cfg),
			document.WithLogger(e.log),
			document.WithMountOperation(newTerminalMount(e.stderr)),
		)
		defer mgr.CloseAll(context.WithoutCancel(ctx))
	}

	var failed int
	for _, arg := range fs.Args() {
		loc, err := vfs.ParseLocation(arg)
		if err != nil {
			return err
		}
		d, err := mgr.Open(ctx, loc, document.LoadOptions{Encoding: forced})
		if err != nil && !docio.IsSoft(err) {
			fmt.Fprintf(e.stdout, "%s: error: %v\n", arg, err)
			failed++
			continue
		}
		note := ""
		if err != nil {
			note = " (lossy)"
		}
		fmt.Fprintf(e.stdout, "%s: %s%s newline=%s compression=%s blake3=%s\n",
			arg, d.Encoding().Charset(), note, d.Newline(), d.Compression(), d.Digest())
		_ = mgr.Close(ctx, d)
	}
	if failed > 0 {
		return &exitError{code: 1, err: fmt.Errorf("%d of %d file(s) failed", failed, fs.NArg())}
	}
	return nil
}
