package testclips

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gesturelab/distill/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete prediction load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting prediction load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("clips", config.NumClips),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	client := newHTTPClient(config.Timeout)

	// Step 2: Snapshot status before the run
	before, err := fetchStatus(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("status snapshot failed: %w", err)
	}
	stats.StatusBefore = before

	// Step 3: Generate clips
	clips, err := generateClips(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("clip generation failed: %w", err)
	}

	// Step 4: Submit clips concurrently
	if err := submitClips(ctx, config, clips, stats); err != nil {
		return fmt.Errorf("clip submission failed: %w", err)
	}

	// Step 5: Snapshot status after the run
	time.Sleep(StatusSettleDelay)
	after, err := fetchStatus(ctx, client, config.BaseURL)
	if err != nil {
		return fmt.Errorf("status snapshot failed: %w", err)
	}
	stats.StatusAfter = after

	// Step 6: Verify results
	if err := verifyOutcome(ctx, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save clips to file
	if err := saveClipsToFile(ctx, config, clips); err != nil {
		logger.Get().Warn(ctx, "failed to save clips to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/health"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveClipsToFile saves the generated clips to a JSON file.
func saveClipsToFile(ctx context.Context, config *Config, clips []Clip) error {
	if len(clips) == 0 {
		return fmt.Errorf("no clips to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_clips_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write clips to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, clip := range clips {
		jsonData, err := marshalJSON(clip)
		if err != nil {
			return fmt.Errorf("failed to marshal clip %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write clip %d: %w", i, err)
		}

		// Add comma except for last clip
		if i < len(clips)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "clips saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, clipsPerSecond float64

	if stats.ClipsSubmitted > 0 {
		successRate = float64(stats.ClipsSuccessful) / float64(stats.ClipsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		clipsPerSecond = float64(stats.ClipsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("clipsGenerated", stats.ClipsGenerated),
		logger.Int("clipsSubmitted", stats.ClipsSubmitted),
		logger.Int("clipsSuccessful", stats.ClipsSuccessful),
		logger.Int("clipsFailed", stats.ClipsFailed),
		logger.Int("executed", stats.Executed),
		logger.Int("suppressed", stats.Suppressed),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("clipsPerSecond", clipsPerSecond))
}
