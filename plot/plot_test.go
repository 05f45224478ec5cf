package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/sklearn/model_selection"
)

func groupedDataset() *dataset.Dataset {
	sexes := []string{"M", "F", "F", "M", "F", "M"}
	ds := &dataset.Dataset{FeatureNames: []string{"f"}, GroupNames: []string{"Sex"}}
	for i, sex := range sexes {
		ds.Samples = append(ds.Samples, dataset.Sample{
			ID:       string(rune('a' + i)),
			Features: []float64{float64(i)},
			Label:    i % 2,
			Groups:   map[string]string{"Sex": sex},
		})
	}
	return ds
}

func TestClassCounts(t *testing.T) {
	p, err := ClassCounts(groupedDataset(), "Sex", "Diagnosis")
	require.NoError(t, err)
	assert.Equal(t, "Diagnosis by Sex", p.Title.Text)

	for _, name := range []string{"counts.png", "counts.svg"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, Save(p, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = ClassCounts(groupedDataset(), "Site", "Diagnosis")
	assert.Error(t, err)
}

func TestFoldMetrics(t *testing.T) {
	result := &model_selection.CVResult{}
	for i, cm := range []metrics.ConfusionMatrix{
		{TN: 3, FP: 1, FN: 1, TP: 3},
		{TN: 4},
	} {
		result.Folds = append(result.Folds, model_selection.FoldResult{Fold: i, Confusion: cm, Metrics: cm.Metrics()})
	}

	p, err := FoldMetrics(result)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "folds.png")
	require.NoError(t, Save(p, path))
	_, err = os.Stat(path)
	assert.NoError(t, err)

	assert.Error(t, Save(p, filepath.Join(t.TempDir(), "noext")))
}
