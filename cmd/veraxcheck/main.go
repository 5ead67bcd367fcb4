// main is the entry point for the verax verification tool
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/verax-io/verax/pkg/verax/config"
	"github.com/verax-io/verax/pkg/verax/dispatch"
	"github.com/verax-io/verax/pkg/verax/report"
	"github.com/verax-io/verax/pkg/verax/telemetry"
)

var (
	input       = flag.String("input", "", "Text, transcript or file path to verify")
	batchFile   = flag.String("batch", "", "File with one input per line, verified concurrently")
	mode        = flag.String("mode", "auto", "Analysis mode (auto, text, video)")
	detail      = flag.String("detail", "detailed", "Detail level (summary, detailed, full)")
	format      = flag.String("format", "json", "Output format (json, markdown, pdf)")
	outFile     = flag.String("out", "", "Write rendered output to a file instead of stdout")
	configPath  = flag.String("config", "", "Path to verax.json (default: discovery chain)")
	environment = flag.String("env", "", "Configuration environment overlay")
	logLevel    = flag.String("log-level", "", "Log level override (debug, info, warn, error)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath, *environment)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := config.SetupLogging(&cfg.Logging); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logging")
	}

	metrics, err := telemetry.NewManager(cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}
	if err := metrics.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start telemetry")
	}
	defer func() {
		_ = metrics.Stop(context.Background())
	}()

	dispatcher := dispatch.NewDispatcher(cfg, dispatch.WithRecorder(metrics))

	if *batchFile != "" {
		os.Exit(runBatch(dispatcher))
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "either -input or -batch is required")
		flag.Usage()
		os.Exit(2)
	}

	resp := dispatcher.Execute(context.Background(), dispatch.Request{
		Input:        *input,
		Mode:         *mode,
		DetailLevel:  report.DetailLevel(*detail),
		OutputFormat: report.Format(*format),
	})

	if resp.Status != "success" {
		log.Error().
			Str("kind", string(resp.Error.Kind)).
			Str("message", resp.Error.Message).
			Msg("Verification failed")
		os.Exit(1)
	}

	log.Info().
		Str("mode", string(resp.Mode)).
		Str("agent", resp.Agent).
		Bool("cached", resp.Cached).
		Int64("processing_time_ms", resp.ProcessingTimeMS).
		Msg(resp.Summary)

	if err := writeOutput(resp.Rendered); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

// runBatch verifies every line of the batch file concurrently and prints
// one summary line per input in input order.
func runBatch(dispatcher *dispatch.Dispatcher) int {
	file, err := os.Open(*batchFile)
	if err != nil {
		log.Error().Err(err).Str("file", *batchFile).Msg("Failed to open batch file")
		return 1
	}
	defer file.Close()

	var inputs []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			inputs = append(inputs, line)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("Failed to read batch file")
		return 1
	}

	results := dispatcher.ExecuteAll(context.Background(), inputs)

	exitCode := 0
	for i, resp := range results {
		if resp.Status != "success" {
			fmt.Printf("%d\terror\t%s: %s\n", i, resp.Error.Kind, resp.Error.Message)
			exitCode = 1
			continue
		}
		fmt.Printf("%d\t%s\t%s\n", i, resp.Mode, resp.Summary)
	}
	return exitCode
}

func writeOutput(rendered []byte) error {
	if *outFile != "" {
		return os.WriteFile(*outFile, rendered, 0644)
	}
	_, err := os.Stdout.Write(rendered)
	if err == nil && len(rendered) > 0 && rendered[len(rendered)-1] != '\n' {
		fmt.Println()
	}
	return err
}
