package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"source-annotator/internal/app"
	"source-annotator/internal/config"
	"source-annotator/internal/usecase"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr))
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "source file to be commented (rewritten in place)")
	fs.StringVar(&file, "f", "", "shorthand for -file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: annotate -file <path>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(file) == "" || fs.NArg() > 0 {
		fs.Usage()
		return exitUsage
	}

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	logger, err := app.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	slog.SetDefault(logger)

	svc, err := app.NewService(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create annotate service", "err", err)
		return exitError
	}

	out, err := svc.Annotate(ctx, usecase.AnnotateInput{Path: file})
	if err != nil {
		var ue *usecase.Error
		if errors.As(err, &ue) {
			logger.Error("annotation failed", "code", ue.Code, "reason", ue.Reason, "err", ue.Err)
		} else {
			logger.Error("annotation failed", "err", err)
		}
		return exitError
	}
	logger.Debug("annotation complete", "run_id", out.RunID, "file", out.Path, "language", out.Language)
	return exitOK
}
