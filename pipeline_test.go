package mlcv

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrinference/mlcv/config"
	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/preprocessing"
	"github.com/mrinference/mlcv/sklearn/model_selection"
	"github.com/mrinference/mlcv/sklearn/svm"
)

// separable returns 50 controls and 50 patients whose 20 features are all
// -1 and +1 respectively.
func separable() *dataset.Dataset {
	ds := &dataset.Dataset{}
	for j := 0; j < 20; j++ {
		ds.FeatureNames = append(ds.FeatureNames, fmt.Sprintf("region_%02d", j))
	}
	for i := 0; i < 100; i++ {
		label, v := 0, -1.0
		if i%2 == 1 {
			label, v = 1, 1.0
		}
		features := make([]float64, 20)
		for j := range features {
			features[j] = v
		}
		ds.Samples = append(ds.Samples, dataset.Sample{ID: fmt.Sprintf("sub-%03d", i), Features: features, Label: label})
	}
	return ds
}

func quiet(t *testing.T) {
	t.Helper()
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
}

func TestEvaluateSeparable(t *testing.T) {
	quiet(t)
	result, err := Evaluate(context.Background(), separable(), config.Default())
	require.NoError(t, err)

	require.Len(t, result.Folds, 10)
	for _, name := range []metrics.MetricName{metrics.MetricAccuracy, metrics.MetricBalancedAccuracy} {
		s := result.Summary[name]
		assert.Equal(t, 1.0, s.Mean, name)
		assert.Equal(t, 0.0, s.Std, name)
	}
	w := result.Weights()
	require.Len(t, w, 10)
	assert.Equal(t, "region_00", w[0].Features[0])
}

func TestEvaluateRejectsInvalidInput(t *testing.T) {
	quiet(t)

	cfg := config.Default()
	cfg.CV.Folds = 1
	_, err := Evaluate(context.Background(), separable(), cfg)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "cv.folds", ve.ParamName)

	ds := separable()
	ds.Samples[3].Label = 2
	_, err = Evaluate(context.Background(), ds, config.Default())
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "label", ve.ParamName)

	cfg = config.Default()
	cfg.CV.Folds = 51
	_, err = Evaluate(context.Background(), separable(), cfg)
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "n_splits", ve.ParamName)
}

func TestFactories(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &model_selection.StratifiedKFold{}, NewSplitter(cfg))
	cfg.CV.Stratify = false
	assert.IsType(t, &model_selection.KFold{}, NewSplitter(cfg))

	cfg.Model.Loss = "squared_hinge"
	cfg.Model.C = 0.1
	clf := ClassifierFactory(cfg)()
	params := clf.(*svm.LinearSVC).GetParams()
	assert.Equal(t, "squared_hinge", fmt.Sprint(params["loss"]))
	assert.Equal(t, 0.1, params["C"])

	tests := []struct {
		scaler string
		want   any
	}{
		{"standard", &preprocessing.StandardScaler{}},
		{"minmax", &preprocessing.MinMaxScaler{}},
	}
	for _, tt := range tests {
		cfg.Model.Scaler = tt.scaler
		f, err := ScalerFactory(cfg)
		require.NoError(t, err)
		assert.IsType(t, tt.want, f())
	}

	cfg.Model.Scaler = "none"
	f, err := ScalerFactory(cfg)
	require.NoError(t, err)
	assert.Nil(t, f)

	cfg.Model.Scaler = "robust"
	_, err = ScalerFactory(cfg)
	assert.Error(t, err)
}
