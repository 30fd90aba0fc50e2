package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gesturelab/distill/internal/domain/gesture"
	"github.com/gesturelab/distill/internal/domain/model"
)

// rejectColumn is the confusion-matrix column for verdicts that asserted no
// positive intent.
const rejectColumn = "NONE/reject"

// ClassCounts holds the agreement counts and derived scores for one intent.
type ClassCounts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// ComputeMetrics scores teacher verdicts against human labels, one entry per
// positive intent. For intent X: TP when the human said X and the teacher
// fired X; FN when the human said X and the teacher did not; FP when the
// teacher fired X against any other label; TN when a negative label met a
// not-intentional verdict. Failed teacher calls are excluded. Zero
// denominators score 0, not a fault.
func ComputeMetrics(results []model.EvalResult) map[gesture.Intent]ClassCounts {
	metrics := make(map[gesture.Intent]ClassCounts, len(gesture.Intents))
	for _, intent := range gesture.Intents {
		var c ClassCounts
		for _, r := range results {
			if r.TeacherError {
				continue
			}
			userIsThis := r.UserLabel == gesture.Label("TP_"+string(intent))
			teacherFired := r.Intentional() && r.TeacherIntent == intent

			switch {
			case userIsThis && teacherFired:
				c.TP++
			case userIsThis:
				c.FN++
			case teacherFired:
				c.FP++
			case r.UserLabel.IsNegative() && !r.Intentional():
				c.TN++
			}
		}
		c.Precision = ratio(c.TP, c.TP+c.FP)
		c.Recall = ratio(c.TP, c.TP+c.FN)
		if c.Precision+c.Recall > 0 {
			c.F1 = 2 * c.Precision * c.Recall / (c.Precision + c.Recall)
		}
		metrics[intent] = c
	}
	return metrics
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0.0
	}
	return float64(num) / float64(den)
}

// FormatMetrics renders the per-intent score table in fixed intent order.
func FormatMetrics(metrics map[gesture.Intent]ClassCounts, results []model.EvalResult) string {
	errors := 0
	for _, r := range results {
		if r.TeacherError {
			errors++
		}
	}

	var b strings.Builder
	b.WriteString("Precision / Recall / F1\n")
	fmt.Fprintf(&b, "%-16s %6s %6s %6s %4s %4s %4s %4s\n", "Gesture", "P", "R", "F1", "TP", "FP", "FN", "TN")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, intent := range gesture.Intents {
		m := metrics[intent]
		fmt.Fprintf(&b, "%-16s %6.3f %6.3f %6.3f %4d %4d %4d %4d\n",
			intent, m.Precision, m.Recall, m.F1, m.TP, m.FP, m.FN, m.TN)
	}
	fmt.Fprintf(&b, "\nTotal clips: %d  |  Valid: %d  |  Errors: %d\n",
		len(results), len(results)-errors, errors)
	return b.String()
}

// Confusion is a human-label-by-teacher-verdict contingency table.
type Confusion struct {
	Rows   []gesture.Label
	Cols   []string
	Counts map[gesture.Label]map[string]int
}

// ConfusionMatrix tallies human labels (rows) against teacher verdicts
// (columns: each positive intent plus a reject column). Failed calls are
// excluded; rows appear sorted.
func ConfusionMatrix(results []model.EvalResult) Confusion {
	cols := make([]string, 0, len(gesture.Intents)+1)
	for _, intent := range gesture.Intents {
		cols = append(cols, string(intent))
	}
	cols = append(cols, rejectColumn)

	counts := make(map[gesture.Label]map[string]int)
	for _, r := range results {
		if r.TeacherError {
			continue
		}
		col := rejectColumn
		if r.Intentional() && r.TeacherIntent.IsPositive() {
			col = string(r.TeacherIntent)
		}
		if counts[r.UserLabel] == nil {
			counts[r.UserLabel] = make(map[string]int)
		}
		counts[r.UserLabel][col]++
	}

	rows := make([]gesture.Label, 0, len(counts))
	for label := range counts {
		rows = append(rows, label)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })

	return Confusion{Rows: rows, Cols: cols, Counts: counts}
}

// String renders the table with labels down the side and verdict columns
// across the top.
func (c Confusion) String() string {
	const colWidth = 14

	var b strings.Builder
	b.WriteString("Confusion Matrix (rows=user label, cols=teacher)\n")
	fmt.Fprintf(&b, "%-20s", "User \\ Teacher")
	for _, col := range c.Cols {
		fmt.Fprintf(&b, "%*s", colWidth, col)
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 20+colWidth*len(c.Cols)) + "\n")
	for _, row := range c.Rows {
		fmt.Fprintf(&b, "%-20s", row)
		for _, col := range c.Cols {
			fmt.Fprintf(&b, "%*d", colWidth, c.Counts[row][col])
		}
		b.WriteString("\n")
	}
	return b.String()
}
