package classifier

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ClassMetrics holds precision/recall/F1 for one binary class.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the full classification breakdown on an evaluation split. It is
// informational output for auditing a training run, not a selection input.
type Report struct {
	Accuracy float64 `json:"accuracy"`
	// PerClass is keyed 0 (not intentional) and 1 (intentional).
	PerClass map[int]ClassMetrics `json:"per_class"`
	// Confusion is [actual][predicted].
	Confusion [2][2]int `json:"confusion"`
}

// Accuracy returns the fraction of rows of X the model classifies as y.
func Accuracy(m *Model, X *mat.Dense, y []int) float64 {
	n, _ := X.Dims()
	if n == 0 {
		return 0
	}
	var correct int
	row := make([]float64, 0)
	for i := 0; i < n; i++ {
		row = mat.Row(row[:0], i, X)
		if m.Predict(row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

// Evaluate computes the full classification report for the model on X, y.
func Evaluate(m *Model, X *mat.Dense, y []int) Report {
	n, _ := X.Dims()
	report := Report{PerClass: make(map[int]ClassMetrics)}

	preds := make([]int, n)
	row := make([]float64, 0)
	var correct int
	for i := 0; i < n; i++ {
		row = mat.Row(row[:0], i, X)
		preds[i] = m.Predict(row)
		if preds[i] == y[i] {
			correct++
		}
		report.Confusion[y[i]][preds[i]]++
	}
	if n > 0 {
		report.Accuracy = float64(correct) / float64(n)
	}

	for class := 0; class <= 1; class++ {
		var tp, fp, fn, support int
		for i := 0; i < n; i++ {
			switch {
			case y[i] == class && preds[i] == class:
				tp++
			case y[i] != class && preds[i] == class:
				fp++
			case y[i] == class && preds[i] != class:
				fn++
			}
			if y[i] == class {
				support++
			}
		}
		report.PerClass[class] = ClassMetrics{
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			F1:        f1(ratio(tp, tp+fp), ratio(tp, tp+fn)),
			Support:   support,
		}
	}
	return report
}

// String renders the report as a text table for the pipeline CLI.
func (r Report) String() string {
	var b strings.Builder
	names := map[int]string{0: "not_intentional", 1: "intentional"}
	fmt.Fprintf(&b, "%-18s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support")
	for class := 0; class <= 1; class++ {
		m := r.PerClass[class]
		fmt.Fprintf(&b, "%-18s %9.3f %9.3f %9.3f %9d\n", names[class], m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "accuracy: %.3f\n", r.Accuracy)
	fmt.Fprintf(&b, "confusion [actual x predicted]:\n")
	fmt.Fprintf(&b, "  [%4d %4d]\n", r.Confusion[0][0], r.Confusion[0][1])
	fmt.Fprintf(&b, "  [%4d %4d]\n", r.Confusion[1][0], r.Confusion[1][1])
	return b.String()
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func f1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
