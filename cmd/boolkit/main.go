// Command boolkit evaluates a scene file with the B-Rep Boolean engine and
// prints a JSON report of the resulting parts.
//
//	boolkit [flags] scene.lisp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "boolkit:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("boolkit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: boolkit [flags] scene.lisp\n\nflags:\n")
		fs.PrintDefaults()
	}

	fuzzy := fs.Float64("fuzzy", 0, "extra tolerance for every comparison")
	workers := fs.Int("workers", 0, "parallelism of the Boolean engine (0 = GOMAXPROCS)")
	budget := fs.Duration("budget", 0, "time limit per Boolean operation (0 = none)")
	check := fs.Bool("check", false, "compare every part against the distance field kernel")
	samples := fs.Int("samples", DefaultSamples, "reference check samples per axis")
	mesh := fs.Bool("mesh", false, "report the triangle count of the preview mesh")
	verbose := fs.Bool("v", false, "log engine progress to stderr")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, "boolkit", version)
		return nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one scene file")
	}
	if *fuzzy < 0 {
		return fmt.Errorf("fuzzy must not be negative, got %g", *fuzzy)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading scene: %w", err)
	}

	app := NewApp(Config{
		Fuzzy:   *fuzzy,
		Workers: *workers,
		Budget:  *budget,
		Check:   *check,
		Samples: *samples,
		Mesh:    *mesh,
		Logger:  logger,
	})
	result := app.Evaluate(context.Background(), string(src))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, string(out))

	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Message
			if e.Line > 0 {
				msgs[i] = fmt.Sprintf("%s:%d: %s", path, e.Line, e.Message)
			}
		}
		return fmt.Errorf("%d error(s) in scene:\n%s", len(msgs), strings.Join(msgs, "\n"))
	}
	return nil
}
