package classifier

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Forest training constants.
const (
	defaultForestTrees = 10
	defaultForestDepth = 3
	defaultForestSeed  = 42
)

// A Node represents a splitting decision of the form
// "x[FeatureIndex] < Threshold ?" in a decision tree.
type Node struct {
	FeatureIndex int     `json:"feature_index"`
	Threshold    float64 `json:"threshold"`
	// LeftChild is a node index, or an output index when LeftIsLeaf.
	LeftChild   int  `json:"left_child"`
	LeftIsLeaf  bool `json:"left_is_leaf"`
	RightChild  int  `json:"right_child"`
	RightIsLeaf bool `json:"right_is_leaf"`
}

// A Tree maps a feature vector to a positive-class probability stored in the
// output bin it lands in. Nodes are stored flat; Depth bounds traversal.
type Tree struct {
	Nodes   []Node    `json:"nodes"`
	Outputs []float64 `json:"outputs"`
	Depth   int       `json:"depth"`
}

// EvaluateProba drops a feature vector down the tree and returns the
// probability stored in its bin.
func (t *Tree) EvaluateProba(x []float64) float64 {
	if len(t.Nodes) == 0 {
		// Degenerate tree: the root itself is a leaf.
		if len(t.Outputs) > 0 {
			return t.Outputs[0]
		}
		return 0.5
	}
	cur := t.Nodes[0]
	for i := 0; i <= t.Depth; i++ {
		// An artifact trained against a wider column set may reference a
		// feature past the end of the vector; read it as zero rather than
		// crash the request.
		v := 0.0
		if cur.FeatureIndex < len(x) {
			v = x[cur.FeatureIndex]
		}
		if v < cur.Threshold {
			if cur.LeftIsLeaf {
				return t.Outputs[cur.LeftChild]
			}
			cur = t.Nodes[cur.LeftChild]
		} else {
			if cur.RightIsLeaf {
				return t.Outputs[cur.RightChild]
			}
			cur = t.Nodes[cur.RightChild]
		}
	}
	return 0.5
}

// An Ensemble averages the probabilities of its component trees.
type Ensemble struct {
	Trees []Tree `json:"trees"`
}

// EvaluateProba returns the mean positive-class probability over all trees.
func (e *Ensemble) EvaluateProba(x []float64) float64 {
	if len(e.Trees) == 0 {
		return 0.5
	}
	var sum float64
	for i := range e.Trees {
		sum += e.Trees[i].EvaluateProba(x)
	}
	return sum / float64(len(e.Trees))
}

// ForestOption configures FitForest.
type ForestOption func(*forestFit)

type forestFit struct {
	trees    int
	maxDepth int
	seed     int64
}

// WithForestTrees sets the number of trees in the ensemble.
func WithForestTrees(n int) ForestOption {
	return func(f *forestFit) {
		if n > 0 {
			f.trees = n
		}
	}
}

// WithForestDepth sets the maximum tree depth.
func WithForestDepth(depth int) ForestOption {
	return func(f *forestFit) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// WithForestSeed sets the rng seed for reproducible training.
func WithForestSeed(seed int64) ForestOption {
	return func(f *forestFit) {
		f.seed = seed
	}
}

// FitForest trains a small random forest: bootstrap-sampled, class-weighted
// Gini splits, sqrt(d) feature subsampling per node.
func FitForest(X *mat.Dense, y []int, opts ...ForestOption) *Ensemble {
	fit := &forestFit{
		trees:    defaultForestTrees,
		maxDepth: defaultForestDepth,
		seed:     defaultForestSeed,
	}
	for _, opt := range opts {
		opt(fit)
	}

	n, d := X.Dims()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = mat.Row(nil, i, X)
	}
	weights := balancedWeights(y)

	rng := rand.New(rand.NewSource(fit.seed)) //nolint:gosec // deterministic seed for reproducible training
	mtry := int(math.Ceil(math.Sqrt(float64(d))))

	ensemble := &Ensemble{Trees: make([]Tree, 0, fit.trees)}
	for t := 0; t < fit.trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}

		grower := &treeGrower{
			rows:     rows,
			y:        y,
			weights:  weights,
			rng:      rng,
			maxDepth: fit.maxDepth,
			mtry:     mtry,
			features: d,
			tree:     Tree{Depth: fit.maxDepth},
		}
		grower.grow(sample, 0)
		ensemble.Trees = append(ensemble.Trees, grower.tree)
	}
	return ensemble
}

// treeGrower builds one flat-node tree over a bootstrap sample.
type treeGrower struct {
	rows     [][]float64
	y        []int
	weights  []float64
	rng      *rand.Rand
	maxDepth int
	mtry     int
	features int
	tree     Tree
}

// grow returns the index of the subtree built over idx and whether that
// index points at an output bin (leaf) or a node.
func (g *treeGrower) grow(idx []int, depth int) (int, bool) {
	if depth >= g.maxDepth || g.pure(idx) {
		return g.leaf(idx), true
	}

	featIdx, threshold, ok := g.bestSplit(idx)
	if !ok {
		return g.leaf(idx), true
	}

	var left, right []int
	for _, i := range idx {
		if g.rows[i][featIdx] < threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return g.leaf(idx), true
	}

	nodeIdx := len(g.tree.Nodes)
	g.tree.Nodes = append(g.tree.Nodes, Node{FeatureIndex: featIdx, Threshold: threshold})

	leftChild, leftIsLeaf := g.grow(left, depth+1)
	rightChild, rightIsLeaf := g.grow(right, depth+1)

	g.tree.Nodes[nodeIdx].LeftChild = leftChild
	g.tree.Nodes[nodeIdx].LeftIsLeaf = leftIsLeaf
	g.tree.Nodes[nodeIdx].RightChild = rightChild
	g.tree.Nodes[nodeIdx].RightIsLeaf = rightIsLeaf
	return nodeIdx, false
}

// leaf appends the weighted positive fraction of idx as an output bin.
func (g *treeGrower) leaf(idx []int) int {
	var pos, total float64
	for _, i := range idx {
		total += g.weights[i]
		if g.y[i] == 1 {
			pos += g.weights[i]
		}
	}
	out := 0.5
	if total > 0 {
		out = pos / total
	}
	g.tree.Outputs = append(g.tree.Outputs, out)
	return len(g.tree.Outputs) - 1
}

func (g *treeGrower) pure(idx []int) bool {
	if len(idx) == 0 {
		return true
	}
	first := g.y[idx[0]]
	for _, i := range idx[1:] {
		if g.y[i] != first {
			return false
		}
	}
	return true
}

// bestSplit searches mtry random features for the threshold with the lowest
// weighted Gini impurity.
func (g *treeGrower) bestSplit(idx []int) (int, float64, bool) {
	candidates := g.rng.Perm(g.features)
	if len(candidates) > g.mtry {
		candidates = candidates[:g.mtry]
	}

	bestGini := math.Inf(1)
	bestFeat, bestThreshold := -1, 0.0

	for _, feat := range candidates {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, g.rows[i][feat])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2
			gini := g.splitGini(idx, feat, threshold)
			if gini < bestGini {
				bestGini = gini
				bestFeat = feat
				bestThreshold = threshold
			}
		}
	}

	if bestFeat < 0 {
		return 0, 0, false
	}
	return bestFeat, bestThreshold, true
}

// splitGini computes the weight-averaged Gini impurity of the two partitions.
func (g *treeGrower) splitGini(idx []int, feat int, threshold float64) float64 {
	var lPos, lTot, rPos, rTot float64
	for _, i := range idx {
		if g.rows[i][feat] < threshold {
			lTot += g.weights[i]
			if g.y[i] == 1 {
				lPos += g.weights[i]
			}
		} else {
			rTot += g.weights[i]
			if g.y[i] == 1 {
				rPos += g.weights[i]
			}
		}
	}

	gini := func(pos, tot float64) float64 {
		if tot == 0 {
			return 0
		}
		p := pos / tot
		return 2 * p * (1 - p)
	}

	total := lTot + rTot
	if total == 0 {
		return math.Inf(1)
	}
	return (lTot*gini(lPos, lTot) + rTot*gini(rPos, rTot)) / total
}
