// Package harness drives labeled clips through the teacher endpoint and
// scores its verdicts against the human labels. Its persisted output feeds
// the calibration builder.
package harness

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gesturelab/distill/internal/adapters/teacher"
	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
)

// defaultCallDelay spaces out teacher calls; the endpoint shares one GPU.
const defaultCallDelay = 1 * time.Second

// Verifier is the teacher call surface the harness needs.
type Verifier interface {
	Verify(ctx context.Context, req teacher.VerifyRequest) (*gesture.Verdict, error)
	BaseURL() string
}

// Harness runs evaluation batches against a teacher endpoint.
type Harness struct {
	client   Verifier
	delay    time.Duration
	progress io.Writer
	logger   logger.Logger
}

// Option applies a configuration option to the Harness.
type Option func(*Harness)

// WithVerifier sets the teacher client.
func WithVerifier(v Verifier) Option {
	return func(h *Harness) {
		if v != nil {
			h.client = v
		}
	}
}

// WithCallDelay sets the pause inserted after each successful teacher call.
func WithCallDelay(d time.Duration) Option {
	return func(h *Harness) {
		if d >= 0 {
			h.delay = d
		}
	}
}

// WithProgress sets the writer batch progress lines are printed to.
func WithProgress(w io.Writer) Option {
	return func(h *Harness) {
		if w != nil {
			h.progress = w
		}
	}
}

// WithLogger sets a custom logger for the harness.
func WithLogger(l logger.Logger) Option {
	return func(h *Harness) {
		if l != nil {
			h.logger = l
		}
	}
}

// New creates an evaluation harness with configuration options.
func New(opts ...Option) *Harness {
	h := &Harness{
		delay:    defaultCallDelay,
		progress: io.Discard,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.client == nil {
		h.client = teacher.New()
	}
	if h.logger == nil {
		h.logger = logger.Get().Named("harness")
	}
	return h
}

// Run sends every labeled clip to the teacher and collects its verdicts.
// Unlabeled clips are skipped. A failed teacher call marks that sample with
// an error flag and the batch continues; only context cancellation aborts.
func (h *Harness) Run(ctx context.Context, clips []model.Clip) (*model.EvalResults, error) {
	labeled := make([]model.Clip, 0, len(clips))
	for _, c := range clips {
		if c.Label.IsLabeled() {
			labeled = append(labeled, c)
		}
	}
	if len(labeled) == 0 {
		return nil, ErrNoLabeledClips
	}

	h.logger.Info(ctx, "starting evaluation batch",
		logger.Int("clips", len(clips)),
		logger.Int("labeled", len(labeled)),
		logger.String("teacherURL", h.client.BaseURL()),
	)

	results := make([]model.EvalResult, 0, len(labeled))
	for i, clip := range labeled {
		fmt.Fprintf(h.progress, "[%d/%d] %s  label=%s  frames=%d ...  ",
			i+1, len(labeled), clip.ClipID, clip.Label, clip.NumFrames)

		result := h.evaluate(ctx, clip)
		results = append(results, result)

		if result.TeacherError {
			fmt.Fprintf(h.progress, "ERROR: %s\n", result.TeacherErrorMsg)
			continue
		}
		fmt.Fprintf(h.progress, "intentional=%t  intent=%s  conf=%.2f\n",
			result.Intentional(), result.TeacherIntent, result.TeacherConfidence)

		// Pace successful calls only; a failed call already cost nothing
		// on the inference side.
		if i < len(labeled)-1 && h.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(h.delay):
			}
		}
	}

	return &model.EvalResults{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		TeacherURL:  h.client.BaseURL(),
		TotalClips:  len(labeled),
		Results:     results,
	}, nil
}

// evaluate sends one clip and folds any call failure into the result row.
func (h *Harness) evaluate(ctx context.Context, clip model.Clip) model.EvalResult {
	result := model.EvalResult{
		ClipID:          clip.ClipID,
		UserLabel:       clip.Label,
		UserCategory:    clip.Category,
		GestureDetected: clip.GestureDetected,
	}

	req := teacher.VerifyRequest{
		EventID:         clip.ClipID,
		ProposedIntent:  ProposedIntent(clip),
		LocalConfidence: clip.Confidence,
		Frames:          clip.Frames,
	}
	if req.LocalConfidence == 0 {
		req.LocalConfidence = teacher.DefaultLocalConfidence
	}
	if len(clip.Features) > 0 {
		req.LandmarkSummary = clip.Metadata
	}

	verdict, err := h.client.Verify(ctx, req)
	if err != nil {
		h.logger.Warn(ctx, "teacher call failed",
			logger.String("clipID", clip.ClipID),
			logger.Error(err),
		)
		result.TeacherError = true
		result.TeacherErrorMsg = err.Error()
		return result
	}

	result.TeacherIntentional = verdict.Intentional
	result.TeacherIntent = verdict.FinalIntent
	result.TeacherConfidence = verdict.Confidence
	result.TeacherReason = verdict.ReasonCategory
	return result
}

// ProposedIntent derives the intent sent to the teacher: the clip's own
// detection when present, else a label-driven default, else the neutral
// fallback.
func ProposedIntent(clip model.Clip) gesture.Intent {
	if clip.GestureDetected != "" {
		return clip.GestureDetected
	}
	if intent, ok := gesture.DefaultProposedIntent[clip.Label]; ok {
		return intent
	}
	return gesture.FallbackIntent
}
