// Package forest implements the bagged regression-tree model used to
// predict transit delays, along with data preparation and the standard
// regression metrics.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// Options controls forest training.
type Options struct {
	// Estimators is the number of trees. Zero means DefaultEstimators.
	Estimators int

	// Seed feeds the per-tree bootstrap generators. Training with the same
	// seed and data reproduces the exact forest regardless of parallelism.
	Seed int64

	// Workers caps training parallelism. Zero means runtime.NumCPU().
	Workers int

	// MinLeaf is the minimum samples per leaf. Zero means 1.
	MinLeaf int
}

// DefaultEstimators matches the pipeline's fixed hyperparameter set.
const DefaultEstimators = 100

// Forest is a fitted ensemble of regression trees.
type Forest struct {
	Trees        []*Tree
	FeatureNames []string
	Importances  []float64 // normalized mean impurity decrease per feature
	Seed         int64
}

// Fit trains a forest on X (rows of feature vectors) and y. Each tree is
// grown on a bootstrap sample; trees are trained across a worker pool but
// tree i always sees the bootstrap drawn from seed+i, so results do not
// depend on scheduling.
func Fit(x [][]float64, y []float64, featureNames []string, opts Options) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature rows %d != target rows %d", len(x), len(y))
	}
	if len(featureNames) != len(x[0]) {
		return nil, fmt.Errorf("%d feature names for %d features", len(featureNames), len(x[0]))
	}

	estimators := opts.Estimators
	if estimators <= 0 {
		estimators = DefaultEstimators
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	minLeaf := opts.MinLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}

	f := &Forest{
		Trees:        make([]*Tree, estimators),
		FeatureNames: append([]string(nil), featureNames...),
		Seed:         opts.Seed,
	}

	perTree := make([][]float64, estimators)

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
				idx := bootstrap(len(x), rng)

				b := &treeBuilder{
					x:           x,
					y:           y,
					minLeaf:     minLeaf,
					importances: make([]float64, len(featureNames)),
				}
				f.Trees[i] = &Tree{Root: b.build(idx)}
				perTree[i] = b.importances
			}
		}()
	}
	for i := 0; i < estimators; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	f.Importances = averageImportances(perTree, len(featureNames))
	return f, nil
}

// Predict returns the forest prediction (mean over trees) for each row.
func (f *Forest) Predict(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, t := range f.Trees {
			sum += t.Predict(row)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out
}

// HasImportances reports whether the model carries per-feature importance
// scores. A forest always does once fitted on at least one feature.
func (f *Forest) HasImportances() bool {
	return len(f.Importances) > 0 && floats.Sum(f.Importances) > 0
}

// TopFeatures returns up to n (name, importance) pairs ranked descending.
func (f *Forest) TopFeatures(n int) ([]string, []float64) {
	type pair struct {
		name  string
		score float64
	}
	pairs := make([]pair, len(f.FeatureNames))
	for i, name := range f.FeatureNames {
		pairs[i] = pair{name, f.Importances[i]}
	}
	// Insertion sort: the feature count is tiny.
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].score > pairs[j-1].score; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	if n > len(pairs) {
		n = len(pairs)
	}
	names := make([]string, n)
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		names[i] = pairs[i].name
		scores[i] = pairs[i].score
	}
	return names, scores
}

func bootstrap(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// averageImportances normalizes each tree's raw SSE reductions to sum to 1,
// averages across trees, and renormalizes. Trees that never split are
// skipped.
func averageImportances(perTree [][]float64, features int) []float64 {
	out := make([]float64, features)
	contributing := 0
	for _, imp := range perTree {
		total := floats.Sum(imp)
		if total <= 0 {
			continue
		}
		contributing++
		for i, v := range imp {
			out[i] += v / total
		}
	}
	if contributing == 0 {
		return out
	}
	for i := range out {
		out[i] /= float64(contributing)
	}
	if total := floats.Sum(out); total > 0 {
		floats.Scale(1/total, out)
	}
	return out
}
