package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	"github.com/anime-shed/stego-inspector-go/internal/config"
	"github.com/anime-shed/stego-inspector-go/internal/container"
	"github.com/anime-shed/stego-inspector-go/internal/logger"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

type options struct {
	configPath string
	outputDir  string
	threshold  float64
	verbose    bool
	jsonOutput bool
	input      string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("stegscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&opts.outputDir, "output", "", "directory for JSON reports (enables saving)")
	fs.Float64Var(&opts.threshold, "threshold", -1, "detection threshold in [0,1]")
	fs.BoolVar(&opts.verbose, "verbose", false, "debug logging and per-feature anomaly output")
	fs.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: stegscan [flags] <image file or directory>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, fmt.Errorf("expected exactly one input, got %d", fs.NArg())
	}
	opts.input = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
		cfg.Output.SaveReports = true
	}
	if opts.threshold >= 0 {
		cfg.Detection.Threshold = opts.threshold
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger.SetOutput(os.Stderr)
	logger.UseTextFormatter()
	if opts.verbose {
		logger.SetLevel("debug")
	} else {
		logger.SetLevel("warn")
	}

	gin.SetMode(gin.ReleaseMode)
	c, err := container.NewContainer(cfg)
	if err != nil {
		return err
	}
	svc := c.AnalysisService()
	detection := cfg.DetectionConfig()

	info, err := os.Stat(opts.input)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", opts.input, err)
	}

	if info.IsDir() {
		summary, err := svc.AnalyzeDirectory(ctx, opts.input, detection)
		if summary == nil {
			return err
		}
		if opts.jsonOutput {
			if jerr := writeJSON(stdout, summary); jerr != nil {
				return jerr
			}
		} else {
			printSummary(stdout, summary, opts.verbose)
		}
		return err
	}

	response, err := svc.AnalyzeImage(ctx, opts.input, detection)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return writeJSON(stdout, response)
	}
	printResponse(stdout, response, opts.verbose)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func labelColor(summary string) *color.Color {
	switch summary {
	case analyzer.SummaryHigh:
		return color.New(color.FgRed, color.Bold)
	case analyzer.SummaryModerate:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func printResponse(w io.Writer, r *models.AnalysisResponse, verbose bool) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s\n", r.Source)
	fmt.Fprintf(w, "  Detection probability: %.4f (threshold %.2f)\n", r.Result.DetectionProbability, r.Threshold)
	fmt.Fprint(w, "  ")
	labelColor(r.Result.AnalysisSummary).Fprintln(w, r.Result.AnalysisSummary)

	if !verbose {
		return
	}
	for _, key := range models.FeatureKeys {
		record, _ := r.Result.Record(key)
		for _, m := range record.Metrics() {
			if m.IsSequence() {
				fmt.Fprintf(w, "    %s.%s = %v\n", key, m.Name, m.Values)
				continue
			}
			fmt.Fprintf(w, "    %s.%s = %.6g\n", key, m.Name, m.Value)
		}
	}
	for _, msg := range validation.AnomalyMessages(r.Anomalies) {
		color.New(color.FgYellow).Fprintf(w, "  ! %s\n", msg)
	}
}

func printSummary(w io.Writer, s *models.BatchSummary, verbose bool) {
	for _, item := range s.Items {
		if item.Response == nil {
			color.New(color.FgRed).Fprintf(w, "%s\n  failed: %s\n", item.Source, item.Error)
			continue
		}
		printResponse(w, item.Response, verbose)
	}

	fmt.Fprintf(w, "\nAnalyzed %d of %d images (%d failed) in %.2fs; ",
		s.Analyzed, s.Total, s.Failed, s.ProcessingTimeSec)
	detected := color.New(color.FgGreen)
	if s.Detected > 0 {
		detected = color.New(color.FgRed, color.Bold)
	}
	detected.Fprintf(w, "%d flagged\n", s.Detected)
}
