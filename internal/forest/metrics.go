package forest

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics holds the three regression accuracy measures the pipeline tracks.
type Metrics struct {
	MAE  float64
	RMSE float64
	R2   float64
}

// Evaluate computes MAE, RMSE and R² for predictions against truth.
// MAE = mean(|y − ŷ|); RMSE = sqrt(mean((y − ŷ)²)); R² = 1 − SSres/SStot.
// R² is NaN for a constant target (SStot = 0).
func Evaluate(yTrue, yPred []float64) (Metrics, error) {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return Metrics{}, fmt.Errorf("mismatched metric inputs: %d vs %d", len(yTrue), len(yPred))
	}

	var absSum, sqSum, ssTot float64
	mean := stat.Mean(yTrue, nil)
	for i := range yTrue {
		diff := yTrue[i] - yPred[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		d := yTrue[i] - mean
		ssTot += d * d
	}

	n := float64(len(yTrue))
	m := Metrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
	}
	if ssTot == 0 {
		m.R2 = math.NaN()
	} else {
		m.R2 = 1 - sqSum/ssTot
	}
	return m, nil
}

func (m Metrics) String() string {
	return fmt.Sprintf("MAE=%.3f RMSE=%.3f R2=%.3f", m.MAE, m.RMSE, m.R2)
}
