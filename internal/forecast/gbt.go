package forecast

import (
	"errors"
	"sort"
)

// GBTParams configures the gradient-boosted regression trees.
type GBTParams struct {
	Trees          int
	LearningRate   float64
	MaxDepth       int
	Lambda         float64 // L2 penalty on leaf weights
	MinChildWeight float64
}

// DefaultGBTParams mirrors a small squared-error boosting setup.
func DefaultGBTParams() GBTParams {
	return GBTParams{Trees: 100, LearningRate: 0.1, MaxDepth: 3, Lambda: 1, MinChildWeight: 1}
}

var errNoSamples = errors.New("no training samples")

// GBT is a fitted ensemble.
type GBT struct {
	base  float64
	rate  float64
	trees []*treeNode
}

type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
}

func (n *treeNode) leaf() bool { return n.left == nil }

// FitGBT trains on rows x with targets y using second-order greedy splits.
// For squared error every hessian is 1, so a node's hessian sum is its size.
func FitGBT(x [][]float64, y []float64, p GBTParams) (*GBT, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, errNoSamples
	}
	var sum float64
	for _, v := range y {
		sum += v
	}
	m := &GBT{base: sum / float64(len(y)), rate: p.LearningRate}

	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = m.base
	}
	grad := make([]float64, len(y))
	idx := make([]int, len(y))
	for t := 0; t < p.Trees; t++ {
		for i := range y {
			grad[i] = pred[i] - y[i]
			idx[i] = i
		}
		tree := buildNode(x, grad, idx, 0, p)
		for i := range y {
			pred[i] += p.LearningRate * tree.eval(x[i])
		}
		m.trees = append(m.trees, tree)
	}
	return m, nil
}

// Predict evaluates one feature row.
func (m *GBT) Predict(row []float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += m.rate * t.eval(row)
	}
	return out
}

func (n *treeNode) eval(row []float64) float64 {
	for !n.leaf() {
		if row[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func buildNode(x [][]float64, grad []float64, idx []int, depth int, p GBTParams) *treeNode {
	var g float64
	for _, i := range idx {
		g += grad[i]
	}
	h := float64(len(idx))
	node := &treeNode{value: -g / (h + p.Lambda)}
	if depth >= p.MaxDepth || len(idx) < 2 {
		return node
	}

	parent := g * g / (h + p.Lambda)
	bestGain := 0.0
	bestFeature := -1
	var bestThreshold float64

	sorted := make([]int, len(idx))
	for f := range x[idx[0]] {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return x[sorted[a]][f] < x[sorted[b]][f] })

		var gl float64
		for k := 0; k < len(sorted)-1; k++ {
			gl += grad[sorted[k]]
			hl := float64(k + 1)
			cur, next := x[sorted[k]][f], x[sorted[k+1]][f]
			if cur == next {
				continue
			}
			hr := h - hl
			if hl < p.MinChildWeight || hr < p.MinChildWeight {
				continue
			}
			gr := g - gl
			gain := gl*gl/(hl+p.Lambda) + gr*gr/(hr+p.Lambda) - parent
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}
	if bestFeature < 0 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if x[i][bestFeature] < bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.left = buildNode(x, grad, left, depth+1, p)
	node.right = buildNode(x, grad, right, depth+1, p)
	return node
}
