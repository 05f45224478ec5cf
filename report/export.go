package report

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mrinference/mlcv/core/model"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/sklearn/model_selection"
)

// foldJSON adds the failure message, which FoldResult omits.
type foldJSON struct {
	model_selection.FoldResult
	Error string `json:"error,omitempty"`
}

type resultJSON struct {
	RunID   string          `json:"run_id"`
	NSplits int             `json:"n_splits"`
	Folds   []foldJSON      `json:"folds"`
	Summary metrics.Summary `json:"summary"`
}

// WriteJSON writes the full result, including per-fold metrics and the
// summary, as indented JSON. Undefined scores have a null value.
func WriteJSON(w io.Writer, result *model_selection.CVResult) error {
	out := resultJSON{
		RunID:   result.RunID,
		NSplits: result.NSplits,
		Folds:   make([]foldJSON, len(result.Folds)),
		Summary: result.Summary,
	}
	for i, fr := range result.Folds {
		out.Folds[i] = foldJSON{FoldResult: fr}
		if fr.Err != nil {
			out.Folds[i].Error = fr.Err.Error()
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "encode result")
	}
	return nil
}

// Registry builds a Prometheus registry holding the fold and summary
// gauges of a run. Undefined values are not exported.
func Registry(result *model_selection.CVResult) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()

	foldScore := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mlcv",
		Name:      "fold_score",
		Help:      "Metric value of a single cross-validation fold.",
	}, []string{"run_id", "fold", "metric"})
	summaryMean := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mlcv",
		Name:      "score_mean",
		Help:      "Mean metric value across folds where the metric is defined.",
	}, []string{"run_id", "metric"})
	summaryStd := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mlcv",
		Name:      "score_std",
		Help:      "Population standard deviation of the metric across folds.",
	}, []string{"run_id", "metric"})
	definedFolds := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "mlcv",
		Name:      "score_folds",
		Help:      "Number of folds where the metric is defined.",
	}, []string{"run_id", "metric"})
	failedFolds := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   "mlcv",
		Name:        "failed_folds",
		Help:        "Number of folds that failed to evaluate.",
		ConstLabels: prometheus.Labels{"run_id": result.RunID},
	})

	for _, c := range []prometheus.Collector{foldScore, summaryMean, summaryStd, definedFolds, failedFolds} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register collector")
		}
	}

	for _, fr := range result.Folds {
		if fr.Err != nil {
			failedFolds.Inc()
		}
		for _, name := range metrics.BinaryMetricNames {
			if s := fr.Metrics.Get(name); s.Defined {
				foldScore.WithLabelValues(result.RunID, strconv.Itoa(fr.Fold), string(name)).Set(s.Value)
			}
		}
	}
	for _, name := range metrics.BinaryMetricNames {
		s, ok := result.Summary[name]
		if !ok {
			continue
		}
		definedFolds.WithLabelValues(result.RunID, string(name)).Set(float64(s.NFolds))
		if s.Defined {
			summaryMean.WithLabelValues(result.RunID, string(name)).Set(s.Mean)
			summaryStd.WithLabelValues(result.RunID, string(name)).Set(s.Std)
		}
	}
	return reg, nil
}

// WriteMetricsFile writes the run's gauges in the node_exporter textfile
// format.
func WriteMetricsFile(path string, result *model_selection.CVResult) error {
	reg, err := Registry(result)
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return errors.Wrapf(err, "write metrics file %s", path)
	}
	return nil
}

// WriteWeightsFile saves every fold's classifier weights.
func WriteWeightsFile(path string, result *model_selection.CVResult) error {
	return model.SaveWeights(path, &model.WeightsFile{
		RunID: result.RunID,
		Folds: result.Weights(),
	})
}
