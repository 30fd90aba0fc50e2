package testclips

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	scenarioDivisor    = 8
)

// Constants for deliberate-swipe feature ranges.
const (
	swipeDisplacementMin   = 0.22
	swipeDisplacementRange = 0.2
	swipeDurationMin       = 0.16
	swipeDurationRange     = 0.2
	swipeVelocityMin       = 2.4
	swipeVelocityRange     = 1.8
	flickVelocityMin       = 3.0
	flickVelocityRange     = 2.0
)

// Constants for accidental-motion feature ranges.
const (
	driftDisplacementRange  = 0.05
	driftDurationMin        = 0.4
	driftDurationRange      = 1.2
	driftVelocityRange      = 0.3
	repositionVelocityMin   = 0.6
	repositionVelocityRange = 0.8
	twitchDurationRange     = 0.08
	twitchVelocityMin       = 1.0
	twitchVelocityRange     = 1.2
)

// Constants for shared hand geometry ranges.
const (
	handSpanMin         = 0.12
	handSpanRange       = 0.1
	wristRange          = 1.0
	confidentStateMin   = 0.6
	confidentStateRange = 0.4
	noisyStateMin       = 0.2
	noisyStateRange     = 0.5
	fullFingerCount     = 5
)

// Constants for scenario cases.
const (
	caseOpenMenuSwipe    = 0
	caseCloseMenuSwipe   = 1
	caseSwitchRightFlick = 2
	caseSwitchLeftFlick  = 3
	caseIdleDrift        = 4
	caseHandReposition   = 5
	caseGrabTwitch       = 6
	caseNoisyClip        = 7
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int in [0, max) using crypto/rand.
func getRandomInt(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// generateClips creates the specified number of synthetic clips.
func generateClips(ctx context.Context, config *Config, stats *Stats) ([]Clip, error) {
	logger.Get().Info(ctx, "generating synthetic clips", logger.Int("numClips", config.NumClips))

	clips := make([]Clip, config.NumClips)

	// Pre-allocate clip IDs to ensure uniqueness
	clipIDs := make([]string, config.NumClips)
	for i := 0; i < config.NumClips; i++ {
		clipIDs[i] = uuid.New().String()
	}

	// Generate clips concurrently
	type clipResult struct {
		index int
		clip  Clip
		err   error
	}

	resultChan := make(chan clipResult, config.NumClips)

	// Use worker pool for clip generation
	workerCount := minInt(config.Workers, config.NumClips)
	clipsPerWorker := config.NumClips / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * clipsPerWorker
		end := start + clipsPerWorker
		if worker == workerCount-1 {
			end = config.NumClips // Last worker gets remaining clips
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- clipResult{index: i, err: ctx.Err()}
					return
				default:
					clip := generateSingleClip(clipIDs[i])
					resultChan <- clipResult{index: i, clip: clip, err: nil}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumClips; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during clip generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate clip %d: %w", result.index, result.err)
			}
			clips[result.index] = result.clip
		}
	}

	stats.ClipsGenerated = len(clips)
	logger.Get().Info(ctx, "generated clips successfully", logger.Int("count", len(clips)))

	return clips, nil
}

// generateSingleClip creates one clip from a randomly chosen motion scenario.
func generateSingleClip(clipID string) Clip {
	switch getRandomInt(scenarioDivisor) {
	case caseOpenMenuSwipe:
		// Deliberate upward swipe with fingers extended
		return deliberateClip(clipID, "open_menu_swipe", gesture.IntentOpenMenu, 0, -1)
	case caseCloseMenuSwipe:
		// Deliberate downward swipe
		return deliberateClip(clipID, "close_menu_swipe", gesture.IntentCloseMenu, 0, 1)
	case caseSwitchRightFlick:
		// Fast lateral flick to the right
		return flickClip(clipID, "switch_right_flick", gesture.IntentSwitchRight, 1)
	case caseSwitchLeftFlick:
		// Fast lateral flick to the left
		return flickClip(clipID, "switch_left_flick", gesture.IntentSwitchLeft, -1)
	case caseIdleDrift:
		// Hand hovering with slow drift, no intent behind it
		return driftClip(clipID)
	case caseHandReposition:
		// Moving the hand to rest somewhere else
		return repositionClip(clipID)
	case caseGrabTwitch:
		// Short involuntary jerk while gripping something
		return twitchClip(clipID)
	case caseNoisyClip:
		// Degenerate tracking with unreliable landmarks
		return noisyClip(clipID)
	default:
		return noisyClip(clipID)
	}
}

// deliberateClip builds a clean vertical menu swipe.
func deliberateClip(clipID, scenario string, intent gesture.Intent, vx, vy float64) Clip {
	velocity := swipeVelocityMin + getRandomFloat()*swipeVelocityRange
	return Clip{
		ClipID:   clipID,
		Scenario: scenario,
		Type:     intent,
		Features: gesture.FeatureBag{
			"swipeDisplacement": swipeDisplacementMin + getRandomFloat()*swipeDisplacementRange,
			"swipeDuration":     swipeDurationMin + getRandomFloat()*swipeDurationRange,
			"peakVelocity":      velocity,
			"fingersExtended":   float64(fullFingerCount),
			"handSide":          float64(getRandomInt(2)),
			"handSpan":          handSpanMin + getRandomFloat()*handSpanRange,
			"wristX":            getRandomFloat() * wristRange,
			"wristY":            getRandomFloat() * wristRange,
			"palmFacing":        true,
			"wristVelocityX":    vx * velocity,
			"wristVelocityY":    vy * velocity,
			"stateConfidence":   confidentStateMin + getRandomFloat()*confidentStateRange,
		},
	}
}

// flickClip builds a fast lateral workspace-switch flick.
func flickClip(clipID, scenario string, intent gesture.Intent, vx float64) Clip {
	velocity := flickVelocityMin + getRandomFloat()*flickVelocityRange
	return Clip{
		ClipID:   clipID,
		Scenario: scenario,
		Type:     intent,
		Features: gesture.FeatureBag{
			"swipeDisplacement": swipeDisplacementMin + getRandomFloat()*swipeDisplacementRange,
			"swipeDuration":     swipeDurationMin + getRandomFloat()*swipeDurationRange,
			"peakVelocity":      velocity,
			"fingersExtended":   float64(2 + getRandomInt(4)),
			"handSide":          float64(getRandomInt(2)),
			"handSpan":          handSpanMin + getRandomFloat()*handSpanRange,
			"wristX":            getRandomFloat() * wristRange,
			"wristY":            getRandomFloat() * wristRange,
			"palmFacing":        getRandomInt(2) == 1,
			"wristVelocityX":    vx * velocity,
			"wristVelocityY":    (getRandomFloat() - 0.5) * velocity * 0.2,
			"stateConfidence":   confidentStateMin + getRandomFloat()*confidentStateRange,
		},
	}
}

// driftClip builds a slow hover that a naive detector can mistake for a swipe.
func driftClip(clipID string) Clip {
	return accidentalClip(clipID, "idle_drift",
		getRandomFloat()*driftDisplacementRange,
		driftDurationMin+getRandomFloat()*driftDurationRange,
		getRandomFloat()*driftVelocityRange)
}

// repositionClip builds a medium-speed hand move with no gesture intent.
func repositionClip(clipID string) Clip {
	return accidentalClip(clipID, "hand_reposition",
		swipeDisplacementMin+getRandomFloat()*swipeDisplacementRange,
		driftDurationMin+getRandomFloat()*driftDurationRange,
		repositionVelocityMin+getRandomFloat()*repositionVelocityRange)
}

// twitchClip builds a short involuntary jerk.
func twitchClip(clipID string) Clip {
	return accidentalClip(clipID, "grab_twitch",
		getRandomFloat()*driftDisplacementRange,
		getRandomFloat()*twitchDurationRange,
		twitchVelocityMin+getRandomFloat()*twitchVelocityRange)
}

// noisyClip builds a clip with unreliable tracking across the full range.
func noisyClip(clipID string) Clip {
	clip := accidentalClip(clipID, "noisy_tracking",
		getRandomFloat()*swipeDisplacementRange,
		getRandomFloat()*driftDurationRange,
		getRandomFloat()*flickVelocityRange)
	clip.Features["stateConfidence"] = noisyStateMin + getRandomFloat()*noisyStateRange
	return clip
}

// accidentalClip builds a non-gesture motion that the detector nevertheless
// flagged, with a random proposed intent.
func accidentalClip(clipID, scenario string, displacement, duration, velocity float64) Clip {
	angle := getRandomFloat()
	return Clip{
		ClipID:   clipID,
		Scenario: scenario,
		Type:     gesture.Intents[getRandomInt(int64(len(gesture.Intents)))],
		Features: gesture.FeatureBag{
			"swipeDisplacement": displacement,
			"swipeDuration":     duration,
			"peakVelocity":      velocity,
			"fingersExtended":   float64(getRandomInt(fullFingerCount + 1)),
			"handSide":          float64(getRandomInt(2)),
			"handSpan":          handSpanMin + getRandomFloat()*handSpanRange,
			"wristX":            getRandomFloat() * wristRange,
			"wristY":            getRandomFloat() * wristRange,
			"palmFacing":        getRandomInt(2) == 1,
			"wristVelocityX":    (angle - 0.5) * 2 * velocity,
			"wristVelocityY":    (getRandomFloat() - 0.5) * 2 * velocity,
			"stateConfidence":   confidentStateMin + getRandomFloat()*confidentStateRange,
		},
	}
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
