package metrics

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

// ConfusionMatrix は2値分類の混同行列（陽性=1）
type ConfusionMatrix struct {
	TN int `json:"tn"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TP int `json:"tp"`
}

// Total はサンプル数を返す
func (c ConfusionMatrix) Total() int {
	return c.TN + c.FP + c.FN + c.TP
}

// Positives は真のラベルが1のサンプル数（tp+fn）を返す
func (c ConfusionMatrix) Positives() int {
	return c.TP + c.FN
}

// Negatives は真のラベルが0のサンプル数（tn+fp）を返す
func (c ConfusionMatrix) Negatives() int {
	return c.TN + c.FP
}

// Rows は [[tn, fp], [fn, tp]] の形で返す（行=真のラベル、列=予測）
func (c ConfusionMatrix) Rows() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

// Score は定義されない可能性のある評価値
// Defined=falseの場合Valueは意味を持たず、Reasonに原因が入る
type Score struct {
	Value   float64
	Defined bool
	Reason  error
}

// DefinedScore は定義済みのScoreを作成する
func DefinedScore(v float64) Score {
	return Score{Value: v, Defined: true}
}

// UndefinedScore は未定義のScoreを作成する
func UndefinedScore(reason error) Score {
	return Score{Reason: reason}
}

type scoreJSON struct {
	Value   *float64 `json:"value"`
	Defined bool     `json:"defined"`
	Reason  string   `json:"reason,omitempty"`
}

// MarshalJSON は未定義値をnullとして出力する
func (s Score) MarshalJSON() ([]byte, error) {
	out := scoreJSON{Defined: s.Defined}
	if s.Defined {
		v := s.Value
		out.Value = &v
	} else if s.Reason != nil {
		out.Reason = s.Reason.Error()
	}
	return json.Marshal(out)
}

// UnmarshalJSON はMarshalJSONの逆変換。Reasonは文字列からエラーを再構成する
func (s *Score) UnmarshalJSON(data []byte) error {
	var in scoreJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Score{Defined: in.Defined}
	if in.Value != nil {
		s.Value = *in.Value
	}
	if in.Reason != "" {
		s.Reason = errors.New(in.Reason)
	}
	return nil
}

// ConfusionMatrixFromVec は真のラベルと予測ラベルから混同行列を作成する
// ラベルは0または1でなければならない
func ConfusionMatrixFromVec(yTrue, yPred *mat.VecDense) (ConfusionMatrix, error) {
	n := yTrue.Len()
	if n == 0 {
		return ConfusionMatrix{}, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return ConfusionMatrix{}, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	var c ConfusionMatrix
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		if !isBinary(t) || !isBinary(p) {
			return ConfusionMatrix{}, errors.Wrapf(errors.ErrNonBinaryLabel, "ConfusionMatrix: sample %d (true=%v, pred=%v)", i, t, p)
		}
		switch {
		case t == 1 && p == 1:
			c.TP++
		case t == 1:
			c.FN++
		case p == 1:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

// ConfusionMatrixFromMatrix は列ベクトル（n×1行列）形式の入力を受け付ける
func ConfusionMatrixFromMatrix(yTrue, yPred mat.Matrix) (ConfusionMatrix, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if cTrue != 1 || cPred != 1 {
		return ConfusionMatrix{}, errors.NewValueError("ConfusionMatrix", "must be a column vector (n×1 matrix)")
	}
	if rTrue != rPred {
		return ConfusionMatrix{}, errors.NewDimensionError("ConfusionMatrix", rTrue, rPred, 0)
	}
	return ConfusionMatrixFromVec(columnVec(yTrue), columnVec(yPred))
}

// ConfusionMatrixFromLabels は整数ラベルのスライスから混同行列を作成する
func ConfusionMatrixFromLabels(yTrue, yPred []int) (ConfusionMatrix, error) {
	t := make([]float64, len(yTrue))
	for i, v := range yTrue {
		t[i] = float64(v)
	}
	p := make([]float64, len(yPred))
	for i, v := range yPred {
		p[i] = float64(v)
	}
	if len(t) == 0 {
		return ConfusionMatrix{}, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if len(p) == 0 {
		return ConfusionMatrix{}, errors.NewDimensionError("ConfusionMatrix", len(t), 0, 0)
	}
	return ConfusionMatrixFromVec(mat.NewVecDense(len(t), t), mat.NewVecDense(len(p), p))
}

// Accuracy は (tp+tn)/n を計算する
func (c ConfusionMatrix) Accuracy() Score {
	n := c.Total()
	if n == 0 {
		return UndefinedScore(errors.NewUndefinedMetricError(string(MetricAccuracy), "no samples"))
	}
	return DefinedScore(float64(c.TP+c.TN) / float64(n))
}

// Sensitivity は tp/(tp+fn) を計算する。陽性サンプルがない場合は未定義
func (c ConfusionMatrix) Sensitivity() Score {
	if c.Positives() == 0 {
		return UndefinedScore(errors.NewUndefinedMetricError(string(MetricSensitivity), "no positive samples in y_true (tp+fn=0)"))
	}
	return DefinedScore(float64(c.TP) / float64(c.Positives()))
}

// Specificity は tn/(tn+fp) を計算する。陰性サンプルがない場合は未定義
func (c ConfusionMatrix) Specificity() Score {
	if c.Negatives() == 0 {
		return UndefinedScore(errors.NewUndefinedMetricError(string(MetricSpecificity), "no negative samples in y_true (tn+fp=0)"))
	}
	return DefinedScore(float64(c.TN) / float64(c.Negatives()))
}

// BalancedAccuracy は (sensitivity+specificity)/2 を計算する
// どちらかが未定義の場合は未定義となる
func (c ConfusionMatrix) BalancedAccuracy() Score {
	sens, spec := c.Sensitivity(), c.Specificity()
	if !sens.Defined {
		return UndefinedScore(errors.Wrap(sens.Reason, string(MetricBalancedAccuracy)))
	}
	if !spec.Defined {
		return UndefinedScore(errors.Wrap(spec.Reason, string(MetricBalancedAccuracy)))
	}
	return DefinedScore((sens.Value + spec.Value) / 2)
}

// BinaryMetrics は1つの分割で計算された4つの評価指標
type BinaryMetrics struct {
	Accuracy         Score `json:"accuracy"`
	BalancedAccuracy Score `json:"balanced_accuracy"`
	Sensitivity      Score `json:"sensitivity"`
	Specificity      Score `json:"specificity"`
}

// Metrics は混同行列から4つの評価指標を計算する
func (c ConfusionMatrix) Metrics() BinaryMetrics {
	return BinaryMetrics{
		Accuracy:         c.Accuracy(),
		BalancedAccuracy: c.BalancedAccuracy(),
		Sensitivity:      c.Sensitivity(),
		Specificity:      c.Specificity(),
	}
}

// Get は指標名に対応するScoreを返す
func (m BinaryMetrics) Get(name MetricName) Score {
	switch name {
	case MetricAccuracy:
		return m.Accuracy
	case MetricBalancedAccuracy:
		return m.BalancedAccuracy
	case MetricSensitivity:
		return m.Sensitivity
	case MetricSpecificity:
		return m.Specificity
	default:
		return UndefinedScore(errors.NewValueError("BinaryMetrics.Get", "unknown metric "+string(name)))
	}
}

// ComputeBinaryMetrics は真のラベルと予測ラベルから混同行列と評価指標を計算する
//
// 使用例:
//
//	cm, m, err := metrics.ComputeBinaryMetrics(yTest, yPred)
//	if !m.Sensitivity.Defined {
//	    // テスト分割に陽性サンプルがない
//	}
func ComputeBinaryMetrics(yTrue, yPred mat.Matrix) (ConfusionMatrix, BinaryMetrics, error) {
	cm, err := ConfusionMatrixFromMatrix(yTrue, yPred)
	if err != nil {
		return ConfusionMatrix{}, BinaryMetrics{}, err
	}
	return cm, cm.Metrics(), nil
}

func isBinary(v float64) bool {
	return v == 0 || v == 1
}

func columnVec(m mat.Matrix) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	r, _ := m.Dims()
	v := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		v.SetVec(i, m.At(i, 0))
	}
	return v
}
