package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mrinference/mlcv/pkg/errors"
)

// MetricName は評価指標の識別子
type MetricName string

const (
	MetricAccuracy         MetricName = "accuracy"
	MetricBalancedAccuracy MetricName = "balanced_accuracy"
	MetricSensitivity      MetricName = "sensitivity"
	MetricSpecificity      MetricName = "specificity"
)

// BinaryMetricNames は出力順に並べた4つの評価指標
var BinaryMetricNames = []MetricName{
	MetricAccuracy,
	MetricBalancedAccuracy,
	MetricSensitivity,
	MetricSpecificity,
}

// Abbrev はサマリー出力用の略称（Acc, Bac, Sens, Spec）を返す
func (n MetricName) Abbrev() string {
	switch n {
	case MetricAccuracy:
		return "Acc"
	case MetricBalancedAccuracy:
		return "Bac"
	case MetricSensitivity:
		return "Sens"
	case MetricSpecificity:
		return "Spec"
	default:
		return string(n)
	}
}

// MetricSummary は分割をまたいだ1指標の平均と母標準偏差
// NFoldsは値が定義されていた分割の数、NExcludedは除外された分割の数
type MetricSummary struct {
	Metric    MetricName `json:"metric"`
	Mean      float64    `json:"mean"`
	Std       float64    `json:"std"`
	NFolds    int        `json:"n_folds"`
	NExcluded int        `json:"n_excluded"`
	Defined   bool       `json:"defined"`
}

// Summary は4指標のサマリー
type Summary map[MetricName]MetricSummary

// AggregateScores は定義済みのScoreのみを使って平均と母標準偏差（Kで割る）を計算する
// 定義済みの値が1つもない場合はDefined=falseを返す
func AggregateScores(name MetricName, scores []Score) MetricSummary {
	values := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s.Defined {
			values = append(values, s.Value)
		}
	}

	out := MetricSummary{
		Metric:    name,
		NFolds:    len(values),
		NExcluded: len(scores) - len(values),
	}
	if len(values) == 0 {
		return out
	}

	out.Mean, out.Std = stat.PopMeanStdDev(values, nil)
	out.Defined = true
	return out
}

// Aggregate は各分割のBinaryMetricsから4指標のサマリーを計算する
func Aggregate(folds []BinaryMetrics) (Summary, error) {
	if len(folds) == 0 {
		return nil, errors.NewModelError("metrics.Aggregate", "no folds to aggregate", errors.ErrEmptyData)
	}

	summary := make(Summary, len(BinaryMetricNames))
	scores := make([]Score, len(folds))
	for _, name := range BinaryMetricNames {
		for i, m := range folds {
			scores[i] = m.Get(name)
		}
		summary[name] = AggregateScores(name, scores)
	}
	return summary, nil
}
