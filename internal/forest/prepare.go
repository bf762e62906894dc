package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/banshee-data/delay.report/internal/table"
)

// TargetColumn is the regression target in the processed table.
const TargetColumn = "delay_minutes"

// Dataset is a prepared feature/target split.
type Dataset struct {
	X            [][]float64
	Y            []float64
	FeatureNames []string

	// SynthesizedTarget is true when the target column was absent and a
	// uniform [0, 10) placeholder was generated. Placeholder targets keep
	// the pipeline runnable but carry no signal; callers must surface this.
	SynthesizedTarget bool
}

// Prepare derives the feature matrix and target vector from a processed
// table. Features are every numeric column except the target, zero-filled
// where missing. When the target column is absent a placeholder is drawn
// from rng; the flag on the returned Dataset makes that observable.
func Prepare(t *table.Table, rng *rand.Rand) (*Dataset, error) {
	if t.NumRows() == 0 {
		return nil, errors.New("processed table has no rows")
	}

	ds := &Dataset{}

	if !t.HasColumn(TargetColumn) {
		values := make([]string, t.NumRows())
		ds.Y = make([]float64, t.NumRows())
		for i := range values {
			v := rng.Float64() * 10
			ds.Y[i] = v
			values[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := t.AddColumn(TargetColumn, values); err != nil {
			return nil, fmt.Errorf("synthesize target: %w", err)
		}
		ds.SynthesizedTarget = true
	} else {
		ds.Y = t.FloatColumn(TargetColumn)
	}

	for _, name := range t.NumericColumns() {
		if name == TargetColumn {
			continue
		}
		ds.FeatureNames = append(ds.FeatureNames, name)
	}
	if len(ds.FeatureNames) == 0 {
		return nil, errors.New("processed table has no numeric feature columns")
	}

	ds.X = FeatureMatrix(t, ds.FeatureNames)
	return ds, nil
}

// FeatureMatrix extracts the named columns as rows of float64, zero-filling
// missing or unparseable cells. Used at evaluation time to rebuild the
// matrix with the feature set the model was trained on.
func FeatureMatrix(t *table.Table, featureNames []string) [][]float64 {
	cols := make([][]float64, len(featureNames))
	for j, name := range featureNames {
		cols[j] = t.FloatColumn(name)
	}
	x := make([][]float64, t.NumRows())
	for i := range x {
		row := make([]float64, len(featureNames))
		for j := range featureNames {
			row[j] = cols[j][i]
		}
		x[i] = row
	}
	return x
}

// Split partitions a dataset into train and test halves with a single
// shuffled split. The same rng state always produces the same partition.
func Split(ds *Dataset, testFraction float64, rng *rand.Rand) (trainX, testX [][]float64, trainY, testY []float64, err error) {
	n := len(ds.X)
	if n < 2 {
		return nil, nil, nil, nil, fmt.Errorf("need at least 2 rows to split, have %d", n)
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("test fraction %f out of range", testFraction)
	}

	idx := rng.Perm(n)
	testN := int(float64(n) * testFraction)
	if testN < 1 {
		testN = 1
	}
	if testN >= n {
		testN = n - 1
	}

	for i, p := range idx {
		if i < testN {
			testX = append(testX, ds.X[p])
			testY = append(testY, ds.Y[p])
			continue
		}
		trainX = append(trainX, ds.X[p])
		trainY = append(trainY, ds.Y[p])
	}
	return trainX, testX, trainY, testY, nil
}
