package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/gesturelab/distill/internal/adapters/clipstore"
	"github.com/gesturelab/distill/internal/adapters/registry"
	"github.com/gesturelab/distill/internal/adapters/teacher"
	"github.com/gesturelab/distill/internal/config"
	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/internal/pipeline/calibration"
	"github.com/gesturelab/distill/internal/pipeline/distill"
	"github.com/gesturelab/distill/internal/pipeline/harness"
	"github.com/gesturelab/distill/internal/pipeline/train"
	"github.com/gesturelab/distill/pkg/logger"
	"github.com/gesturelab/distill/pkg/metrics"
)

const usage = `Usage: pipeline <command> [options]

Commands:
  eval       Run labeled clips through the teacher and persist the results
  calibrate  Build the frozen calibration set from evaluation results
  train      Distill production logs, fit a student model, and publish it

Run "pipeline <command> -h" for command options.
`

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if len(os.Args) < 2 {
		os.Stderr.WriteString(usage)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "eval":
		err = runEval(ctx, cfg, os.Args[2:])
	case "calibrate":
		err = runCalibrate(ctx, cfg, os.Args[2:])
	case "train":
		err = runTrain(ctx, cfg, os.Args[2:])
	case "-h", "-help", "--help", "help":
		os.Stdout.WriteString(usage)
		return
	default:
		os.Stderr.WriteString("unknown command: " + os.Args[1] + "\n" + usage)
		os.Exit(2)
	}

	if err != nil {
		os.Stderr.WriteString(os.Args[1] + " failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// runEval loads labeled clips, replays them against the teacher endpoint,
// persists the raw results, and prints the agreement tables.
func runEval(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	clipsDir := fs.String("clips", cfg.ClipsDir, "directory of recorded clip_*.json files")
	sessionsDir := fs.String("sessions", cfg.SessionsDir, "directory of eval_session_*.json bundles")
	resultsPath := fs.String("results", cfg.ResultsPath, "output path for evaluation results")
	teacherURL := fs.String("teacher-url", cfg.TeacherURL, "base URL of the teacher verify endpoint")
	delayMS := fs.Int("delay-ms", cfg.TeacherDelayMS, "pause between successive teacher calls")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := clipstore.New(
		clipstore.WithClipsDir(*clipsDir),
		clipstore.WithSessionsDir(*sessionsDir),
	)
	clips, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading clips: %w", err)
	}

	client := teacher.New(
		teacher.WithBaseURL(*teacherURL),
		teacher.WithTimeout(time.Duration(cfg.TeacherTimeoutSec)*time.Second),
	)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("teacher not reachable at %s: %w", *teacherURL, err)
	}

	h := harness.New(
		harness.WithVerifier(client),
		harness.WithCallDelay(time.Duration(*delayMS)*time.Millisecond),
		harness.WithProgress(os.Stdout),
	)
	results, err := h.Run(ctx, clips)
	if err != nil {
		return fmt.Errorf("evaluation run: %w", err)
	}

	if err := harness.WriteResults(*resultsPath, results); err != nil {
		return fmt.Errorf("persisting results: %w", err)
	}

	fmt.Println()
	fmt.Println(harness.FormatMetrics(harness.ComputeMetrics(results.Results), results.Results))
	fmt.Println(harness.ConfusionMatrix(results.Results).String())
	fmt.Printf("results written to %s\n", *resultsPath)
	return nil
}

// runCalibrate pairs persisted evaluation results with clip features and
// rewrites the frozen calibration snapshot.
func runCalibrate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("calibrate", flag.ExitOnError)
	clipsDir := fs.String("clips", cfg.ClipsDir, "directory of recorded clip_*.json files")
	sessionsDir := fs.String("sessions", cfg.SessionsDir, "directory of eval_session_*.json bundles")
	resultsPath := fs.String("results", cfg.ResultsPath, "evaluation results to calibrate from")
	outPath := fs.String("out", cfg.CalibrationPath, "output path for the calibration snapshot")
	if err := fs.Parse(args); err != nil {
		return err
	}

	results, err := harness.LoadResults(*resultsPath)
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	store := clipstore.New(
		clipstore.WithClipsDir(*clipsDir),
		clipstore.WithSessionsDir(*sessionsDir),
	)
	clips, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading clips: %w", err)
	}

	builder := calibration.New(calibration.WithMinSamples(cfg.MinCalibrationSamples))
	events, summary := builder.Build(ctx, results.Results, clipstore.MapByID(clips))

	if err := calibration.Write(*outPath, events); err != nil {
		return fmt.Errorf("writing calibration snapshot: %w", err)
	}

	fmt.Printf("calibration snapshot written to %s\n", *outPath)
	fmt.Printf("  accepted:         %d (%d intentional, %d not)\n",
		summary.Accepted, summary.Intentional, summary.NotIntentional)
	fmt.Printf("  disagreements:    %d\n", summary.Disagreements)
	fmt.Printf("  missing features: %d\n", summary.MissingFeatures)
	fmt.Printf("  teacher errors:   %d\n", summary.TeacherErrors)
	return nil
}

// runTrain distills production logs into labeled events, fits candidate
// models, gates the winner against the calibration set, and publishes it.
// Thin data and a gate block are normal outcomes, not failures.
func runTrain(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	logsDir := fs.String("logs", cfg.LogsDir, "root directory walked for verifier event logs")
	modelDir := fs.String("models", cfg.ModelDir, "model registry directory")
	calibPath := fs.String("calibration", cfg.CalibrationPath, "calibration snapshot for the regression gate")
	minSamples := fs.Int("min-samples", cfg.MinTrainSamples, "minimum labeled events required to train")
	threshold := fs.Float64("confidence-threshold", cfg.ConfidenceThreshold, "minimum teacher confidence to distill")
	tolerance := fs.Float64("tolerance", cfg.RegressionTolerance, "calibration accuracy drop that blocks publishing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	scanner := distill.New(
		distill.WithRoot(*logsDir),
		distill.WithConfidenceThreshold(*threshold),
	)
	events, summary, err := scanner.Scan(ctx)
	if err != nil {
		if errors.Is(err, distill.ErrNoLogs) {
			fmt.Printf("no verifier logs under %s, nothing to train on\n", *logsDir)
			metrics.RecordTrainingRun("no_data")
			return nil
		}
		return fmt.Errorf("scanning logs: %w", err)
	}
	fmt.Printf("distilled %d labeled events from %d files (%d lines, %d skipped)\n",
		summary.Accepted, summary.Files, summary.Lines, summary.Lines-summary.Accepted)
	for reason, n := range summary.Skipped {
		fmt.Printf("  skipped %-16s %d\n", reason+":", n)
	}

	trainer := train.New(train.WithMinSamples(*minSamples))
	outcome, err := trainer.Train(ctx, events)
	if err != nil {
		if errors.Is(err, train.ErrNotEnoughSamples) {
			fmt.Printf("not enough labeled events to train: %v\n", err)
			metrics.RecordTrainingRun("not_enough_samples")
			return nil
		}
		return fmt.Errorf("training: %w", err)
	}

	fmt.Printf("selected %s model, test accuracy %.3f (%d samples: %d pos, %d neg)\n",
		outcome.ModelType, outcome.TestAccuracy,
		outcome.NumSamples, outcome.PosSamples, outcome.NegSamples)
	for _, cand := range outcome.Candidates {
		fmt.Printf("  candidate %-18s %.3f\n", string(cand.Family)+":", cand.TestAccuracy)
	}
	fmt.Println(outcome.Report.String())

	calib, err := calibration.Load(*calibPath)
	if err != nil {
		return fmt.Errorf("loading calibration snapshot: %w", err)
	}

	store := registry.New(registry.WithDir(*modelDir))
	var current *registry.Bundle
	currentBundle, _, err := store.LoadCurrent(ctx)
	switch {
	case err == nil:
		current = currentBundle
	case errors.Is(err, registry.ErrNoModel):
		// First run publishes unconditionally.
	default:
		return fmt.Errorf("loading current model: %w", err)
	}

	gate := train.NewGate(train.WithTolerance(*tolerance))
	decision := gate.Check(ctx, outcome.Model, modelOf(current), calib)
	if !decision.Accepted {
		fmt.Printf("candidate blocked by regression gate: %s\n", decision.Reason)
		fmt.Printf("  candidate calibration accuracy: %s\n", formatAccuracy(decision.CandidateAccuracy))
		fmt.Printf("  current calibration accuracy:   %s\n", formatAccuracy(decision.CurrentAccuracy))
		metrics.RecordTrainingRun("gate_blocked")
		return nil
	}

	bundle := &registry.Bundle{
		Model:         outcome.Model,
		ModelType:     outcome.ModelType,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		NumSamples:    outcome.NumSamples,
		TestAccuracy:  outcome.TestAccuracy,
		CalibAccuracy: decision.CandidateAccuracy,
		FeatureNames:  outcome.FeatureNames,
	}
	record := auditRecord(outcome, decision, uuid.New().String(), bundle.Timestamp)

	version, err := store.Publish(ctx, bundle, record)
	if err != nil {
		return fmt.Errorf("publishing model: %w", err)
	}

	metrics.RecordTrainingRun("published")
	fmt.Printf("published %s to %s (gate: %s)\n", version, store.Dir(), decision.Reason)
	return nil
}

// auditRecord assembles the training-log entry for a gate-approved run. The
// previous accuracy comes from the gate's evaluation of the outgoing model on
// the same calibration set, not from the stored bundle.
func auditRecord(outcome *train.Outcome, decision train.Decision, runID, timestamp string) registry.RunRecord {
	return registry.RunRecord{
		RunID:             runID,
		Timestamp:         timestamp,
		NumSamples:        outcome.NumSamples,
		PosSamples:        outcome.PosSamples,
		NegSamples:        outcome.NegSamples,
		ModelType:         outcome.ModelType,
		TestAccuracy:      outcome.TestAccuracy,
		CalibAccuracy:     decision.CandidateAccuracy,
		CalibAccuracyPrev: decision.CurrentAccuracy,
		FeatureNames:      outcome.FeatureNames,
	}
}

// modelOf extracts the model from an optional bundle.
func modelOf(bundle *registry.Bundle) *classifier.Model {
	if bundle == nil {
		return nil
	}
	return bundle.Model
}

// formatAccuracy renders an optional accuracy value.
func formatAccuracy(acc *float64) string {
	if acc == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *acc)
}
