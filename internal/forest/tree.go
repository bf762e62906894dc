package forest

import "sort"

// TreeNode is one node of a regression tree. Exported fields so gob can
// round-trip a fitted model.
type TreeNode struct {
	Leaf      bool
	Value     float64 // leaf prediction: mean of training targets in the node
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// Tree is a CART regression tree grown by greedy variance reduction.
type Tree struct {
	Root *TreeNode
}

// Predict walks the tree for one feature vector.
func (t *Tree) Predict(x []float64) float64 {
	n := t.Root
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

type treeBuilder struct {
	x           [][]float64
	y           []float64
	minLeaf     int
	importances []float64 // accumulated SSE reduction per feature
}

func (b *treeBuilder) build(idx []int) *TreeNode {
	mean, sse := meanSSE(b.y, idx)

	if len(idx) < 2*b.minLeaf || sse == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, reduction, leftIdx, rightIdx := b.bestSplit(idx, sse)
	if feature < 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	b.importances[feature] += reduction

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(leftIdx),
		Right:     b.build(rightIdx),
	}
}

// bestSplit scans every feature for the threshold with the largest SSE
// reduction. Returns feature -1 when no split separates the samples.
func (b *treeBuilder) bestSplit(idx []int, nodeSSE float64) (feature int, threshold, reduction float64, leftIdx, rightIdx []int) {
	feature = -1

	order := make([]int, len(idx))
	for f := 0; f < len(b.x[0]); f++ {
		copy(order, idx)
		sort.Slice(order, func(i, j int) bool {
			return b.x[order[i]][f] < b.x[order[j]][f]
		})

		var sumL, sumSqL float64
		sumR, sumSqR := sums(b.y, order)

		for i := 1; i < len(order); i++ {
			yv := b.y[order[i-1]]
			sumL += yv
			sumSqL += yv * yv
			sumR -= yv
			sumSqR -= yv * yv

			// Can't split between equal feature values.
			if b.x[order[i-1]][f] == b.x[order[i]][f] {
				continue
			}
			if i < b.minLeaf || len(order)-i < b.minLeaf {
				continue
			}

			nL, nR := float64(i), float64(len(order)-i)
			sseL := sumSqL - sumL*sumL/nL
			sseR := sumSqR - sumR*sumR/nR
			if red := nodeSSE - sseL - sseR; red > reduction {
				reduction = red
				feature = f
				threshold = (b.x[order[i-1]][f] + b.x[order[i]][f]) / 2
				leftIdx = append(leftIdx[:0], order[:i]...)
				rightIdx = append(rightIdx[:0], order[i:]...)
			}
		}
	}

	if feature >= 0 {
		leftIdx = append([]int(nil), leftIdx...)
		rightIdx = append([]int(nil), rightIdx...)
	}
	return feature, threshold, reduction, leftIdx, rightIdx
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	var sum, sumSq float64
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sumSq - sum*sum/n
	if sse < 0 {
		sse = 0 // numerical noise
	}
	return mean, sse
}

func sums(y []float64, idx []int) (sum, sumSq float64) {
	for _, i := range idx {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	return sum, sumSq
}
