// Package classifier implements the student model families: a binary
// logistic regression and a small random-forest ensemble, plus the tagged
// model wrapper the trainer selects between.
package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Logistic regression training constants.
const (
	defaultLogisticIterations = 500
	defaultLogisticRate       = 0.1
)

// LogisticRegression is a binary logistic regression classifier.
type LogisticRegression struct {
	Bias  float64   `json:"bias"`
	Coefs []float64 `json:"coefs"`
}

// EvaluateProba returns the probability of the feature vector belonging to
// class 1.
func (l *LogisticRegression) EvaluateProba(x []float64) float64 {
	score := l.Bias
	n := len(l.Coefs)
	if len(x) < n {
		n = len(x)
	}
	for i := 0; i < n; i++ {
		score += x[i] * l.Coefs[i]
	}
	return sigmoid(score)
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// LogisticOption configures FitLogistic.
type LogisticOption func(*logisticFit)

type logisticFit struct {
	iterations int
	rate       float64
}

// WithLogisticIterations sets the number of gradient steps.
func WithLogisticIterations(n int) LogisticOption {
	return func(f *logisticFit) {
		if n > 0 {
			f.iterations = n
		}
	}
}

// WithLogisticRate sets the learning rate.
func WithLogisticRate(rate float64) LogisticOption {
	return func(f *logisticFit) {
		if rate > 0 {
			f.rate = rate
		}
	}
}

// FitLogistic trains a class-weighted logistic regression with batch
// gradient descent. Class weights are balanced: each class contributes half
// of the total gradient mass regardless of its sample count.
func FitLogistic(X *mat.Dense, y []int, opts ...LogisticOption) *LogisticRegression {
	fit := &logisticFit{
		iterations: defaultLogisticIterations,
		rate:       defaultLogisticRate,
	}
	for _, opt := range opts {
		opt(fit)
	}

	n, d := X.Dims()
	weights := balancedWeights(y)

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = mat.Row(nil, i, X)
	}

	var sumW float64
	for i := range y {
		sumW += weights[i]
	}
	if sumW == 0 {
		sumW = 1
	}

	coefs := make([]float64, d)
	grad := make([]float64, d)
	var bias float64

	for iter := 0; iter < fit.iterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64

		for i, row := range rows {
			p := sigmoid(floats.Dot(coefs, row) + bias)
			residual := (p - float64(y[i])) * weights[i]
			floats.AddScaled(grad, residual, row)
			gradBias += residual
		}

		floats.AddScaled(coefs, -fit.rate/sumW, grad)
		bias -= fit.rate / sumW * gradBias
	}

	return &LogisticRegression{Bias: bias, Coefs: coefs}
}

// balancedWeights returns per-sample weights so each class carries equal
// total weight, mirroring class_weight="balanced".
func balancedWeights(y []int) []float64 {
	var pos, neg int
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}

	n := float64(len(y))
	wPos, wNeg := 1.0, 1.0
	if pos > 0 {
		wPos = n / (2 * float64(pos))
	}
	if neg > 0 {
		wNeg = n / (2 * float64(neg))
	}

	weights := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			weights[i] = wPos
		} else {
			weights[i] = wNeg
		}
	}
	return weights
}
