package metrics

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

func TestConfusionMatrix(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    ConfusionMatrix
		wantErr bool
	}{
		{
			name:  "Perfect classifier",
			yTrue: []float64{0, 0, 1, 1},
			yPred: []float64{0, 0, 1, 1},
			want:  ConfusionMatrix{TN: 2, TP: 2},
		},
		{
			name:  "Mixed",
			yTrue: []float64{0, 0, 0, 1, 1, 1, 1},
			yPred: []float64{0, 1, 0, 1, 0, 1, 1},
			want:  ConfusionMatrix{TN: 2, FP: 1, FN: 1, TP: 3},
		},
		{
			name:    "Non-binary labels",
			yTrue:   []float64{0, 2, 1},
			yPred:   []float64{0, 1, 1},
			wantErr: true,
		},
		{
			name:    "Length mismatch",
			yTrue:   []float64{0, 1, 1},
			yPred:   []float64{0, 1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			got, err := ConfusionMatrixFromVec(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ConfusionMatrixFromVec() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ConfusionMatrixFromVec() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrixNonBinaryIsSentinel(t *testing.T) {
	_, err := ConfusionMatrixFromLabels([]int{0, 1, 3}, []int{0, 1, 1})
	if !errors.Is(err, errors.ErrNonBinaryLabel) {
		t.Errorf("expected ErrNonBinaryLabel, got %v", err)
	}
}

func TestBinaryMetrics(t *testing.T) {
	cm := ConfusionMatrix{TN: 2, FP: 1, FN: 1, TP: 3}
	m := cm.Metrics()

	checks := []struct {
		name  string
		score Score
		want  float64
	}{
		{"accuracy", m.Accuracy, 5.0 / 7.0},
		{"sensitivity", m.Sensitivity, 3.0 / 4.0},
		{"specificity", m.Specificity, 2.0 / 3.0},
		{"balanced_accuracy", m.BalancedAccuracy, (3.0/4.0 + 2.0/3.0) / 2},
	}
	for _, c := range checks {
		if !c.score.Defined {
			t.Errorf("%s: expected defined score", c.name)
			continue
		}
		if math.Abs(c.score.Value-c.want) > 1e-12 {
			t.Errorf("%s = %v, want %v", c.name, c.score.Value, c.want)
		}
	}

	if m.BalancedAccuracy.Value != (m.Sensitivity.Value+m.Specificity.Value)/2 {
		t.Error("balanced accuracy must equal (sens+spec)/2 exactly")
	}
}

func TestUndefinedMetrics(t *testing.T) {
	t.Run("no positive samples", func(t *testing.T) {
		cm, err := ConfusionMatrixFromLabels([]int{0, 0, 0}, []int{0, 1, 0})
		if err != nil {
			t.Fatal(err)
		}
		m := cm.Metrics()

		if m.Sensitivity.Defined {
			t.Error("sensitivity should be undefined")
		}
		var undef *errors.UndefinedMetricError
		if !errors.As(m.Sensitivity.Reason, &undef) || undef.Metric != "sensitivity" {
			t.Errorf("expected UndefinedMetricError for sensitivity, got %v", m.Sensitivity.Reason)
		}
		if m.BalancedAccuracy.Defined {
			t.Error("balanced accuracy should be undefined when sensitivity is undefined")
		}
		if !errors.As(m.BalancedAccuracy.Reason, &undef) {
			t.Error("balanced accuracy reason should wrap UndefinedMetricError")
		}
		if !m.Specificity.Defined || math.Abs(m.Specificity.Value-2.0/3.0) > 1e-12 {
			t.Errorf("specificity = %+v", m.Specificity)
		}
		if !m.Accuracy.Defined || math.Abs(m.Accuracy.Value-2.0/3.0) > 1e-12 {
			t.Errorf("accuracy = %+v", m.Accuracy)
		}
	})

	t.Run("no negative samples", func(t *testing.T) {
		cm := ConfusionMatrix{TP: 4, FN: 1}
		m := cm.Metrics()
		if m.Specificity.Defined || m.BalancedAccuracy.Defined {
			t.Error("specificity and balanced accuracy should be undefined")
		}
		if !m.Sensitivity.Defined || m.Sensitivity.Value != 0.8 {
			t.Errorf("sensitivity = %+v", m.Sensitivity)
		}
	})
}

func TestComputeBinaryMetricsMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 1, 1, 0})
	yPred := mat.NewDense(4, 1, []float64{0, 1, 0, 0})

	cm, m, err := ComputeBinaryMetrics(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if cm.Rows() != [2][2]int{{2, 0}, {1, 1}} {
		t.Errorf("Rows() = %v", cm.Rows())
	}
	if m.Accuracy.Value != 0.75 {
		t.Errorf("accuracy = %v", m.Accuracy.Value)
	}

	_, _, err = ComputeBinaryMetrics(mat.NewDense(2, 2, nil), yPred)
	if err == nil {
		t.Error("expected error for non column vector")
	}
}

func TestScoreJSON(t *testing.T) {
	data, err := json.Marshal(BinaryMetrics{
		Accuracy:    DefinedScore(0.5),
		Sensitivity: UndefinedScore(errors.NewUndefinedMetricError("sensitivity", "no positive samples")),
	})
	if err != nil {
		t.Fatal(err)
	}

	var back BinaryMetrics
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Accuracy.Defined || back.Accuracy.Value != 0.5 {
		t.Errorf("accuracy = %+v", back.Accuracy)
	}
	if back.Sensitivity.Defined || back.Sensitivity.Reason == nil {
		t.Errorf("sensitivity = %+v", back.Sensitivity)
	}
}

func BenchmarkConfusionMatrix(b *testing.B) {
	n := 1000
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, float64(i%2))
		yPred.SetVec(i, float64((i/3)%2))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ConfusionMatrixFromVec(yTrue, yPred)
	}
}
