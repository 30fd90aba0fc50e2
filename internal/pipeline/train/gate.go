package train

import (
	"context"

	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
)

// RegressionTolerance is how far calibration accuracy may drop before a
// candidate is blocked from publication.
const RegressionTolerance = 0.02

// Decision is the regression gate's verdict on one candidate.
type Decision struct {
	Accepted bool `json:"accepted"`
	// CandidateAccuracy and CurrentAccuracy are nil when no calibration
	// set or no current model exists, respectively.
	CandidateAccuracy *float64 `json:"candidate_accuracy"`
	CurrentAccuracy   *float64 `json:"current_accuracy"`
	Tolerance         float64  `json:"tolerance"`
	Reason            string   `json:"reason"`
}

// Gate holds the regression tolerance and evaluates candidates against the
// frozen calibration set.
type Gate struct {
	tolerance float64
	logger    logger.Logger
}

// GateOption applies a configuration option to the Gate.
type GateOption func(*Gate)

// WithTolerance sets the allowed calibration-accuracy drop.
func WithTolerance(t float64) GateOption {
	return func(g *Gate) {
		if t >= 0 {
			g.tolerance = t
		}
	}
}

// WithGateLogger sets a custom logger for the gate.
func WithGateLogger(l logger.Logger) GateOption {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGate creates a regression gate with configuration options.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{
		tolerance: RegressionTolerance,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logger.Get().Named("gate")
	}
	return g
}

// Check scores the candidate on the calibration set and blocks it only when
// it regresses beyond the tolerance versus the current model. With no
// calibration set the candidate passes unconditionally (first-run
// bootstrap); with no current model there is nothing to regress against.
func (g *Gate) Check(ctx context.Context, candidate *classifier.Model, current *classifier.Model, calib []model.LabeledEvent) Decision {
	decision := Decision{Tolerance: g.tolerance}

	if len(calib) == 0 {
		decision.Accepted = true
		decision.Reason = "no calibration set, bootstrap accept"
		return decision
	}

	X, y := BuildMatrix(calib)
	candAcc := classifier.Accuracy(candidate, X, y)
	decision.CandidateAccuracy = &candAcc

	if current == nil {
		decision.Accepted = true
		decision.Reason = "no current model to regress against"
		return decision
	}

	currAcc := classifier.Accuracy(current, X, y)
	decision.CurrentAccuracy = &currAcc

	if candAcc < currAcc-g.tolerance {
		decision.Reason = "candidate regresses on calibration set"
		g.logger.Warn(ctx, "regression gate blocked candidate",
			logger.Float64("candidateAccuracy", candAcc),
			logger.Float64("currentAccuracy", currAcc),
			logger.Float64("tolerance", g.tolerance),
		)
		return decision
	}

	decision.Accepted = true
	decision.Reason = "within tolerance"
	g.logger.Info(ctx, "regression gate passed",
		logger.Float64("candidateAccuracy", candAcc),
		logger.Float64("currentAccuracy", currAcc),
	)
	return decision
}
