package testclips

import (
	"context"
	"fmt"
	"log"

	"github.com/gesturelab/distill/internal/domain/types"
)

// verifyOutcome checks the service's responses against its serving contract.
func verifyOutcome(ctx context.Context, stats *Stats) error {
	log.Println("🔍 Verifying results...")

	if stats.ClipsSuccessful == 0 {
		return fmt.Errorf("no successful predictions to verify")
	}

	after := stats.StatusAfter

	// In shadow mode every prediction must carry execute=true.
	if after.Mode == types.ModeShadow && stats.Suppressed > 0 {
		return fmt.Errorf("shadow mode suppressed %d predictions", stats.Suppressed)
	}

	// A service with no model loaded serves degraded responses, which always
	// carry execute=true regardless of mode.
	if !after.ModelLoaded && stats.Suppressed > 0 {
		return fmt.Errorf("degraded service suppressed %d predictions", stats.Suppressed)
	}

	if err := verifyPredictionCounter(stats); err != nil {
		log.Printf("⚠️  Prediction counter warning: %v", err)
	} else {
		log.Println("✅ Prediction counter verified")
	}

	displayStatusDelta(stats)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyPredictionCounter checks that the service counted the scored
// predictions this run produced. Degraded responses are not scored, so the
// counter only has to move when a model was loaded.
func verifyPredictionCounter(stats *Stats) error {
	before, after := stats.StatusBefore, stats.StatusAfter

	if !after.ModelLoaded {
		return nil
	}

	delta := after.TotalPredictions - before.TotalPredictions
	if delta <= 0 {
		return fmt.Errorf("total_predictions did not advance (before: %d, after: %d)",
			before.TotalPredictions, after.TotalPredictions)
	}
	if delta > int64(stats.ClipsSuccessful) {
		return fmt.Errorf("total_predictions advanced by %d but only %d clips succeeded; another client may be running",
			delta, stats.ClipsSuccessful)
	}

	return nil
}

// displayStatusDelta shows the service status before and after the run.
func displayStatusDelta(stats *Stats) {
	before, after := stats.StatusBefore, stats.StatusAfter

	log.Printf("📊 Service status: mode=%s modelLoaded=%v modelVersion=%s",
		after.Mode, after.ModelLoaded, versionString(after))
	log.Printf("📊 Total predictions: %d before, %d after (+%d)",
		before.TotalPredictions, after.TotalPredictions,
		after.TotalPredictions-before.TotalPredictions)
}

// versionString renders the optional model version.
func versionString(status *types.Status) string {
	if status.ModelVersion == nil {
		return "none"
	}
	return *status.ModelVersion
}
