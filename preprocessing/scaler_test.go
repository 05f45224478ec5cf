package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

func TestStandardScaler(t *testing.T) {
	t.Run("population statistics", func(t *testing.T) {
		X := mat.NewDense(4, 2, []float64{
			1, 10,
			2, 20,
			3, 30,
			4, 40,
		})

		scaler := NewStandardScalerDefault()
		XT, err := scaler.FitTransform(X)
		require.NoError(t, err)

		assert.InDelta(t, 2.5, scaler.Mean[0], 1e-12)
		assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
		assert.InDelta(t, math.Sqrt(125), scaler.Scale[1], 1e-12)

		for j := 0; j < 2; j++ {
			col := mat.Col(nil, j, XT)
			mean, sq := 0.0, 0.0
			for _, v := range col {
				mean += v
			}
			mean /= float64(len(col))
			for _, v := range col {
				sq += (v - mean) * (v - mean)
			}
			assert.InDelta(t, 0.0, mean, 1e-12, "feature %d mean", j)
			assert.InDelta(t, 1.0, sq/float64(len(col)), 1e-12, "feature %d variance", j)
		}
	})

	t.Run("zero variance feature normalizes to 0", func(t *testing.T) {
		warnings := captureWarnings(t)

		XTrain := mat.NewDense(3, 2, []float64{
			1, 5,
			2, 5,
			3, 5,
		})
		XTest := mat.NewDense(2, 2, []float64{
			10, 5,
			-4, 8,
		})

		scaler := NewStandardScalerDefault()
		XT, err := scaler.FitTransform(XTrain)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, scaler.ZeroVarianceFeatures)

		for i := 0; i < 3; i++ {
			assert.Equal(t, 0.0, XT.At(i, 1))
		}

		XS, err := scaler.Transform(XTest)
		require.NoError(t, err)
		assert.Equal(t, 0.0, XS.At(0, 1))
		assert.Equal(t, 0.0, XS.At(1, 1))
		assert.False(t, math.IsNaN(XS.At(1, 0)))

		require.Len(t, *warnings, 1)
		var zv *errors.ZeroVarianceWarning
		require.True(t, errors.As((*warnings)[0], &zv))
		assert.Equal(t, []int{1}, zv.Features)
	})

	t.Run("test data never changes fitted parameters", func(t *testing.T) {
		XTrain := mat.NewDense(3, 1, []float64{1, 2, 3})
		scaler := NewStandardScalerDefault()
		require.NoError(t, scaler.Fit(XTrain))

		mean, scale := scaler.Mean[0], scaler.Scale[0]
		for _, v := range []float64{-1e6, 0, 42, 1e9} {
			_, err := scaler.Transform(mat.NewDense(1, 1, []float64{v}))
			require.NoError(t, err)
		}
		assert.Equal(t, mean, scaler.Mean[0])
		assert.Equal(t, scale, scaler.Scale[0])
	})

	t.Run("errors", func(t *testing.T) {
		scaler := NewStandardScalerDefault()

		_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf))

		require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
		_, err = scaler.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
		var dim *errors.DimensionError
		assert.True(t, errors.As(err, &dim))

		err = scaler.Fit(mat.NewDense(2, 1, []float64{1, math.NaN()}))
		var num *errors.NumericalInstabilityError
		assert.True(t, errors.As(err, &num))
	})

	t.Run("inverse transform", func(t *testing.T) {
		X := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 6, 9})
		scaler := NewStandardScalerDefault()
		XT, err := scaler.FitTransform(X)
		require.NoError(t, err)

		back, err := scaler.InverseTransform(XT)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(X, back, 1e-12))
	})
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 7,
		5, 7,
		10, 7,
	})

	warnings := captureWarnings(t)
	scaler := NewMinMaxScalerDefault()
	XT, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, XT))
	assert.Equal(t, []int{1}, scaler.ZeroVarianceFeatures)
	assert.Len(t, *warnings, 1)

	back, err := scaler.InverseTransform(XT)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))

	bad := NewMinMaxScaler([2]float64{1, 0})
	var ve *errors.ValidationError
	assert.True(t, errors.As(bad.Fit(X), &ve))
}
