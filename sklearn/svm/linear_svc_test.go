package svm

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

// makeBlobs returns two Gaussian clouds centred at ±sep on every feature.
func makeBlobs(n, d int, sep float64, seed uint64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(seed, seed))
	X := mat.NewDense(n, d, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		centre := -sep
		if label == 1 {
			centre = sep
		}
		for j := 0; j < d; j++ {
			X.Set(i, j, centre+rng.NormFloat64())
		}
		y.Set(i, 0, label)
	}
	return X, y
}

func accuracy(t *testing.T, y, pred mat.Matrix) float64 {
	t.Helper()
	n, _ := y.Dims()
	correct := 0
	for i := 0; i < n; i++ {
		if y.At(i, 0) == pred.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n)
}

func TestLinearSVC(t *testing.T) {
	t.Run("separable data", func(t *testing.T) {
		X, y := makeBlobs(200, 3, 4, 7)

		for _, loss := range []Loss{Hinge, SquaredHinge} {
			clf := NewLinearSVC(WithLoss(loss), WithRandomState(1))
			require.NoError(t, clf.Fit(X, y), loss)
			assert.True(t, clf.Converged(), loss)

			pred, err := clf.Predict(X)
			require.NoError(t, err)
			assert.Equal(t, 1.0, accuracy(t, y, pred), loss)

			for _, w := range clf.Weights() {
				assert.Greater(t, w, 0.0, "every feature points towards class 1")
			}
		}
	})

	t.Run("decision function sign matches predict", func(t *testing.T) {
		X, y := makeBlobs(60, 2, 1, 3)
		clf := NewLinearSVC(WithRandomState(1))
		require.NoError(t, clf.Fit(X, y))

		scores, err := clf.DecisionFunction(X)
		require.NoError(t, err)
		pred, err := clf.Predict(X)
		require.NoError(t, err)

		w, b := clf.Weights(), clf.Intercept()
		for i := 0; i < 60; i++ {
			want := w[0]*X.At(i, 0) + w[1]*X.At(i, 1) + b
			assert.InDelta(t, want, scores.At(i, 0), 1e-9)
			if scores.At(i, 0) > 0 {
				assert.Equal(t, 1.0, pred.At(i, 0))
			} else {
				assert.Equal(t, 0.0, pred.At(i, 0))
			}
		}
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		X, y := makeBlobs(80, 4, 0.5, 11)

		a := NewLinearSVC(WithRandomState(1))
		b := NewLinearSVC(WithRandomState(1))
		require.NoError(t, a.Fit(X, y))
		require.NoError(t, b.Fit(X, y))

		assert.Equal(t, a.Weights(), b.Weights())
		assert.Equal(t, a.Intercept(), b.Intercept())
		assert.Equal(t, a.NIter(), b.NIter())
	})

	t.Run("hinge solution satisfies margin on separable points", func(t *testing.T) {
		X := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
		y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

		clf := NewLinearSVC(WithC(10), WithRandomState(1), WithTol(1e-8), WithMaxIter(10000))
		require.NoError(t, clf.Fit(X, y))

		scores, err := clf.DecisionFunction(X)
		require.NoError(t, err)
		for i, label := range []float64{-1, -1, 1, 1} {
			assert.GreaterOrEqual(t, label*scores.At(i, 0), 1-1e-4, "sample %d", i)
		}
	})

	t.Run("no intercept", func(t *testing.T) {
		X, y := makeBlobs(40, 2, 3, 5)
		clf := NewLinearSVC(WithFitIntercept(false))
		require.NoError(t, clf.Fit(X, y))
		assert.Equal(t, 0.0, clf.Intercept())
	})
}

func TestLinearSVCConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	X, y := makeBlobs(100, 5, 0.1, 2)
	clf := NewLinearSVC(WithMaxIter(1), WithTol(1e-12), WithRandomState(1))
	require.NoError(t, clf.Fit(X, y))

	assert.False(t, clf.Converged())
	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, 1, cw.Iterations)
}

func TestLinearSVCErrors(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	tests := []struct {
		name   string
		clf    *LinearSVC
		y      mat.Matrix
		target interface{}
	}{
		{"single class", NewLinearSVC(), mat.NewDense(4, 1, []float64{1, 1, 1, 1}), new(*errors.ValueError)},
		{"length mismatch", NewLinearSVC(), mat.NewDense(3, 1, []float64{0, 1, 1}), new(*errors.DimensionError)},
		{"bad C", NewLinearSVC(WithC(0)), mat.NewDense(4, 1, []float64{0, 1, 0, 1}), new(*errors.ValidationError)},
		{"bad loss", NewLinearSVC(WithLoss("log")), mat.NewDense(4, 1, []float64{0, 1, 0, 1}), new(*errors.ValidationError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.clf.Fit(X, tt.y)
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.target), "got %v", err)
		})
	}

	err := NewLinearSVC().Fit(X, mat.NewDense(4, 1, []float64{0, 1, 2, 1}))
	assert.True(t, errors.Is(err, errors.ErrNonBinaryLabel))

	_, err = NewLinearSVC().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	clf := NewLinearSVC()
	require.NoError(t, clf.Fit(X, mat.NewDense(4, 1, []float64{0, 0, 1, 1})))
	_, err = clf.Predict(mat.NewDense(1, 3, nil))
	var dim *errors.DimensionError
	assert.True(t, errors.As(err, &dim))
}

func TestLinearSVCExportWeights(t *testing.T) {
	X, y := makeBlobs(30, 2, 3, 9)
	clf := NewLinearSVC(WithRandomState(1))
	require.NoError(t, clf.Fit(X, y))

	w, err := clf.ExportWeights()
	require.NoError(t, err)
	require.NoError(t, w.Validate())
	assert.Equal(t, clf.Weights(), w.Coefficients)
	assert.Equal(t, "hinge", w.Hyperparameters["loss"])
	assert.False(t, math.IsNaN(w.Intercept))
}

func BenchmarkLinearSVCFit(b *testing.B) {
	X, y := makeBlobs(500, 20, 0.5, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewLinearSVC(WithRandomState(1)).Fit(X, y)
	}
}
