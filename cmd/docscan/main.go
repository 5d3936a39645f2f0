package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrianliechti/docscan/config"
	"github.com/adrianliechti/docscan/pkg/merge"
	"github.com/adrianliechti/docscan/pkg/otel"
	"github.com/adrianliechti/docscan/pkg/pipeline"
	"github.com/adrianliechti/docscan/pkg/source"
)

var version = "dev"

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "", "config file (default $DOCSCAN_CONFIG, config.yaml or config.json)")
	dirFlag := flag.String("dir", "", "directory for the result and the page cache (default current directory)")
	strictFlag := flag.Bool("strict", false, "fail instead of writing a document with unrecognized pages")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <image|pdf|folder>\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}

	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return exitFailure
	}

	input := flag.Arg(0)

	level := slog.LevelInfo

	if otel.EnableDebug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "docscan", version)

	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
		return exitFailure
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(ctx); err != nil {
			slog.Warn("failed to flush telemetry", "error", err)
		}
	}()

	path, err := findConfig(*configFlag)

	if err != nil {
		slog.Error("no configuration found", "error", err)
		return exitFailure
	}

	cfg, err := config.Parse(path)

	if err != nil {
		slog.Error("failed to load configuration", "config", path, "error", err)
		return exitFailure
	}

	if *strictFlag {
		cfg.Strict = true
	}

	root := *dirFlag

	if root == "" {
		if root, err = os.Getwd(); err != nil {
			slog.Error("failed to determine working directory", "error", err)
			return exitFailure
		}
	}

	if err := checkWritable(root); err != nil {
		slog.Error("output directory is not writable", "dir", root, "error", err)
		return exitFailure
	}

	provider, err := cfg.Recognizer()

	if err != nil {
		slog.Error("failed to create recognizer", "error", err)
		return exitFailure
	}

	p := pipeline.New(provider, cfg.PipelineOptions(root, slog.Default())...)

	outcome, err := p.Run(ctx, input)

	if outcome != nil && outcome.Report != nil && outcome.Report.Unsaved > 0 {
		slog.Warn("some results could not be cached and will be recognized again next run", "pages", outcome.Report.Unsaved)
	}

	if err != nil {
		return report(ctx, outcome, err)
	}

	printSummary(outcome)

	return exitOK
}

func report(ctx context.Context, outcome *pipeline.Outcome, err error) int {
	var inputErr *source.InputError
	var gapErr *merge.GapError

	switch {
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		fmt.Fprintln(os.Stderr, "interrupted: finished pages are cached, run again to resume")
		return exitInterrupted

	case errors.As(err, &inputErr):
		slog.Error("invalid input", "input", inputErr.Path, "error", inputErr.Err)

	case errors.As(err, &gapErr):
		fmt.Fprintf(os.Stderr, "incomplete: pages %s were not recognized, no document written (strict mode)\n", pageList(gapErr.Pages))

	case errors.Is(err, merge.ErrNoContent):
		fmt.Fprintln(os.Stderr, "no page could be recognized, no document written")

	default:
		slog.Error("run failed", "error", err)
	}

	if outcome != nil && outcome.Report != nil {
		for _, r := range outcome.Report.Results {
			if r.Error != "" {
				slog.Debug("page failure", "page", r.Index+1, "error", r.Error)
			}
		}
	}

	return exitFailure
}

func printSummary(outcome *pipeline.Outcome) {
	r := outcome.Report

	fmt.Printf("Output: %s\n", outcome.Output)
	fmt.Printf("Pages:  %d (cached %d, recognized %d, failed %d)\n", r.Total, r.Cached, r.Recognized, r.Failed)

	if r.Usage.TotalTokens > 0 {
		fmt.Printf("Tokens: %d (prompt %d, completion %d)\n", r.Usage.TotalTokens, r.Usage.PromptTokens, r.Usage.CompletionTokens)
	}

	if outcome.Incomplete {
		fmt.Fprintf(os.Stderr, "incomplete: pages %s were not recognized and are marked in the document, run again to retry\n", pageList(outcome.Document.Missing))
	}

	if !outcome.Resumable {
		fmt.Fprintf(os.Stderr, "warning: %d pages could not be cached and will be recognized again on the next run\n", r.Unsaved)
	}
}

func pageList(pages []int) string {
	numbers := make([]string, len(pages))

	for i, p := range pages {
		numbers[i] = strconv.Itoa(p + 1)
	}

	return strings.Join(numbers, ", ")
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".docscan-*")

	if err != nil {
		return err
	}

	name := f.Name()

	f.Close()

	return os.Remove(name)
}
