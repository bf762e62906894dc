package forest

import (
	"math"
	"math/rand"
	"testing"
)

func TestEvaluateKnownValues(t *testing.T) {
	yTrue := []float64{1, 2, 3, 4}
	yPred := []float64{1, 2, 3, 4}

	m, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if m.MAE != 0 || m.RMSE != 0 || m.R2 != 1 {
		t.Errorf("perfect prediction metrics = %+v", m)
	}
}

func TestEvaluateHandComputed(t *testing.T) {
	yTrue := []float64{0, 2}
	yPred := []float64{1, 1}

	m, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	// |0-1| and |2-1| average to 1; RMSE is also 1.
	if m.MAE != 1 || m.RMSE != 1 {
		t.Errorf("got MAE=%v RMSE=%v, want 1 and 1", m.MAE, m.RMSE)
	}
	// SSres = 2, SStot = 2 => R2 = 0.
	if m.R2 != 0 {
		t.Errorf("got R2=%v, want 0", m.R2)
	}
}

func TestEvaluateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	yTrue := make([]float64, 100)
	yPred := make([]float64, 100)
	for i := range yTrue {
		yTrue[i] = rng.Float64() * 50
		yPred[i] = yTrue[i] + rng.NormFloat64()*5
	}

	m, err := Evaluate(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}

	if m.MAE < 0 {
		t.Errorf("MAE = %v, want >= 0", m.MAE)
	}
	if m.RMSE < 0 {
		t.Errorf("RMSE = %v, want >= 0", m.RMSE)
	}
	if m.MAE > m.RMSE {
		t.Errorf("MAE %v > RMSE %v", m.MAE, m.RMSE)
	}
	if m.R2 > 1 {
		t.Errorf("R2 = %v, want <= 1", m.R2)
	}
}

func TestEvaluateConstantTargetR2NaN(t *testing.T) {
	m, err := Evaluate([]float64{3, 3, 3}, []float64{3, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(m.R2) {
		t.Errorf("R2 = %v, want NaN for constant target", m.R2)
	}
}

func TestEvaluateMismatchedLengths(t *testing.T) {
	if _, err := Evaluate([]float64{1}, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
	if _, err := Evaluate(nil, nil); err == nil {
		t.Error("expected error for empty input")
	}
}
