// Package train fits candidate student classifiers on distilled events,
// selects the best by held-out accuracy, and gates publication on the frozen
// calibration set.
package train

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/gesturelab/distill/internal/domain/classifier"
	"github.com/gesturelab/distill/internal/domain/feature"
	"github.com/gesturelab/distill/internal/domain/model"
	"github.com/gesturelab/distill/pkg/logger"
)

const (
	// MinTrainSamples is the floor below which training aborts cleanly.
	MinTrainSamples = 20

	testFraction = 0.2
	splitSeed    = 42
)

// Candidate records one fitted family's held-out score.
type Candidate struct {
	Family       classifier.Family `json:"family"`
	TestAccuracy float64           `json:"test_accuracy"`
}

// Outcome is the result of one training run: the selected model, its scores,
// and the sample accounting needed for the audit log.
type Outcome struct {
	Model        *classifier.Model
	ModelType    classifier.Family
	TestAccuracy float64

	NumSamples int
	PosSamples int
	NegSamples int
	TrainSize  int
	TestSize   int

	Candidates   []Candidate
	Report       classifier.Report
	FeatureNames []string
}

// Trainer fits and selects student models.
type Trainer struct {
	minSamples int
	logger     logger.Logger
}

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithMinSamples sets the minimum event count required to train.
func WithMinSamples(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.minSamples = n
		}
	}
}

// WithLogger sets a custom logger for the trainer.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a trainer with configuration options.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		minSamples: MinTrainSamples,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("train")
	}
	return t
}

// Train fits a logistic regression and a small random forest on an 80/20
// split of the events, stratified by label when both classes have at least
// two samples, and returns the family with the higher held-out accuracy.
// Ties go to the logistic model. Below the sample floor it returns
// ErrNotEnoughSamples so callers can exit cleanly rather than fail.
func (t *Trainer) Train(ctx context.Context, events []model.LabeledEvent) (*Outcome, error) {
	if len(events) < t.minSamples {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSamples, len(events), t.minSamples)
	}

	var pos int
	for _, e := range events {
		if e.Label == 1 {
			pos++
		}
	}
	neg := len(events) - pos

	X, y := BuildMatrix(events)
	trainIdx, testIdx := split(y, testFraction, splitSeed, pos > 1 && neg > 1)
	XTrain, yTrain := subset(X, y, trainIdx)
	XTest, yTest := subset(X, y, testIdx)

	t.logger.Info(ctx, "training candidates",
		logger.Int("samples", len(events)),
		logger.Int("intentional", pos),
		logger.Int("notIntentional", neg),
		logger.Int("train", len(trainIdx)),
		logger.Int("test", len(testIdx)),
	)

	candidates := []*classifier.Model{
		{
			Family:   classifier.FamilyLogistic,
			Logistic: classifier.FitLogistic(XTrain, yTrain),
		},
		{
			Family: classifier.FamilyForest,
			Forest: classifier.FitForest(XTrain, yTrain),
		},
	}

	outcome := &Outcome{
		NumSamples:   len(events),
		PosSamples:   pos,
		NegSamples:   neg,
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
		FeatureNames: feature.ColumnNames(),
	}
	for _, cand := range candidates {
		acc := classifier.Accuracy(cand, XTest, yTest)
		outcome.Candidates = append(outcome.Candidates, Candidate{Family: cand.Family, TestAccuracy: acc})
		t.logger.Info(ctx, "candidate scored",
			logger.String("family", string(cand.Family)),
			logger.Float64("testAccuracy", acc),
		)
		// Strict comparison keeps the first-listed family on ties.
		if outcome.Model == nil || acc > outcome.TestAccuracy {
			outcome.Model = cand
			outcome.ModelType = cand.Family
			outcome.TestAccuracy = acc
		}
	}
	outcome.Report = classifier.Evaluate(outcome.Model, XTest, yTest)

	t.logger.Info(ctx, "selected model",
		logger.String("family", string(outcome.ModelType)),
		logger.Float64("testAccuracy", outcome.TestAccuracy),
	)
	return outcome, nil
}

// split partitions label indices into train and test sets with a seeded
// shuffle. Stratified splits sample each class separately so the test set
// preserves the label ratio.
func split(y []int, fraction float64, seed int64, stratify bool) (trainIdx, testIdx []int) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic split, not crypto

	groups := [][]int{make([]int, 0, len(y))}
	if stratify {
		groups = [][]int{{}, {}}
		for i, label := range y {
			groups[label] = append(groups[label], i)
		}
	} else {
		for i := range y {
			groups[0] = append(groups[0], i)
		}
	}

	for _, group := range groups {
		rng.Shuffle(len(group), func(i, j int) {
			group[i], group[j] = group[j], group[i]
		})
		nTest := int(math.Ceil(fraction * float64(len(group))))
		if nTest >= len(group) {
			nTest = len(group) - 1
		}
		testIdx = append(testIdx, group[:nTest]...)
		trainIdx = append(trainIdx, group[nTest:]...)
	}
	return trainIdx, testIdx
}

// subset extracts the given rows into a new matrix and label vector.
func subset(X *mat.Dense, y []int, idx []int) (*mat.Dense, []int) {
	_, cols := X.Dims()
	sub := mat.NewDense(len(idx), cols, nil)
	labels := make([]int, len(idx))
	for i, row := range idx {
		sub.SetRow(i, X.RawRowView(row))
		labels[i] = y[row]
	}
	return sub, labels
}
