package model_selection

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/core/model"
	"github.com/mrinference/mlcv/core/parallel"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/pkg/log"
)

// FoldResult holds everything computed for one fold. Err is set when the
// fold failed numerically or panicked; its metrics are then undefined.
type FoldResult struct {
	Fold                 int                     `json:"fold"`
	TrainIndices         []int                   `json:"-"`
	TestIndices          []int                   `json:"test_indices"`
	TrainSize            int                     `json:"train_size"`
	TestSize             int                     `json:"test_size"`
	Confusion            metrics.ConfusionMatrix `json:"confusion"`
	Metrics              metrics.BinaryMetrics   `json:"metrics"`
	ZeroVarianceFeatures []int                   `json:"zero_variance_features,omitempty"`
	Converged            bool                    `json:"converged"`
	NIter                int                     `json:"n_iter"`
	Weights              *model.ModelWeights     `json:"-"`
	Duration             time.Duration           `json:"duration_ns"`
	Err                  error                   `json:"-"`
}

// CVResult is the outcome of CrossValidateBinary. Folds are in partition order.
type CVResult struct {
	RunID   string          `json:"run_id"`
	NSplits int             `json:"n_splits"`
	Folds   []FoldResult    `json:"folds"`
	Summary metrics.Summary `json:"summary"`
}

// FoldMetrics returns the per-fold metric sets in fold order.
func (r *CVResult) FoldMetrics() []metrics.BinaryMetrics {
	out := make([]metrics.BinaryMetrics, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.Metrics
	}
	return out
}

// Weights returns the exported weights of every fold that produced them.
func (r *CVResult) Weights() []model.ModelWeights {
	var out []model.ModelWeights
	for _, f := range r.Folds {
		if f.Weights != nil {
			out = append(out, *f.Weights)
		}
	}
	return out
}

// Evaluator runs the cross-validated binary classification pipeline:
// partition, then per fold normalize, fit, predict and score, then aggregate.
type Evaluator struct {
	// Splitter partitions the samples. Required.
	Splitter KFoldSplitter

	// NewClassifier builds a fresh classifier for each fold. Required.
	NewClassifier model.ClassifierFactory

	// NewScaler builds a fresh transformer fitted on each training split.
	// nil disables scaling.
	NewScaler model.TransformerFactory

	// Workers bounds fold-level concurrency. 1 runs folds sequentially.
	Workers int

	// FeatureNames are attached to exported weights when set.
	FeatureNames []string

	// OnFoldDone is called after each fold completes, possibly from a
	// worker goroutine.
	OnFoldDone func(FoldResult)
}

// EvaluatorOption configures an Evaluator
type EvaluatorOption func(*Evaluator)

// WithScaler sets the per-fold transformer factory
func WithScaler(f model.TransformerFactory) EvaluatorOption {
	return func(e *Evaluator) { e.NewScaler = f }
}

// WithWorkers sets the number of folds evaluated concurrently
func WithWorkers(n int) EvaluatorOption {
	return func(e *Evaluator) { e.Workers = n }
}

// WithFeatureNames sets the feature names attached to exported weights
func WithFeatureNames(names []string) EvaluatorOption {
	return func(e *Evaluator) { e.FeatureNames = names }
}

// WithFoldCallback registers a hook run after each fold
func WithFoldCallback(fn func(FoldResult)) EvaluatorOption {
	return func(e *Evaluator) { e.OnFoldDone = fn }
}

// NewEvaluator creates an Evaluator
func NewEvaluator(splitter KFoldSplitter, newClassifier model.ClassifierFactory, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		Splitter:      splitter,
		NewClassifier: newClassifier,
		Workers:       1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ValidateBinary checks the preconditions shared by every fold: matching
// row counts, a single label column, labels in {0,1} and finite features.
func ValidateBinary(X, y mat.Matrix) error {
	if X == nil || y == nil {
		return errors.NewModelError("ValidateBinary", "empty data", errors.ErrEmptyData)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("ValidateBinary", "empty data", errors.ErrEmptyData)
	}
	yRows, yCols := y.Dims()
	if yRows != nSamples {
		return errors.NewDimensionError("ValidateBinary", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("ValidateBinary", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}
	for i := 0; i < nSamples; i++ {
		if v := y.At(i, 0); v != 0 && v != 1 {
			return errors.NewValidationError("label", fmt.Sprintf("sample %d: labels must be 0 or 1", i), v)
		}
		for j := 0; j < nFeatures; j++ {
			if v := X.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValidationError("features", fmt.Sprintf("sample %d feature %d is not finite", i, j), v)
			}
		}
	}
	return nil
}

// CrossValidateBinary validates the input, partitions it and evaluates
// every fold. Input and partition errors are returned before any fold
// runs. Per-fold failures are recorded on FoldResult.Err and do not stop
// other folds. Cancelling ctx stops scheduling further folds.
func (e *Evaluator) CrossValidateBinary(ctx context.Context, X, y mat.Matrix) (*CVResult, error) {
	if e.Splitter == nil || e.NewClassifier == nil {
		return nil, errors.NewValueError("Evaluator", "splitter and classifier factory are required")
	}
	if err := ValidateBinary(X, y); err != nil {
		return nil, err
	}

	folds, err := e.Splitter.Split(X, y)
	if err != nil {
		return nil, err
	}

	result := &CVResult{
		RunID:   uuid.NewString(),
		NSplits: len(folds),
		Folds:   make([]FoldResult, len(folds)),
	}

	logger := log.GetLoggerWithName("model_selection").With(log.RunIDKey, result.RunID)
	nSamples, nFeatures := X.Dims()
	logger.Info("cross-validation started",
		log.SplitterKey, fmt.Sprintf("%T", e.Splitter),
		log.NFoldsKey, len(folds),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.WorkersKey, e.Workers,
	)

	err = parallel.ForEachIndex(ctx, len(folds), e.Workers, func(i int) {
		fr := e.runFold(logger, i, folds[i], X, y)
		result.Folds[i] = fr
		if e.OnFoldDone != nil {
			e.OnFoldDone(fr)
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "cross-validation cancelled")
	}

	result.Summary, err = metrics.Aggregate(result.FoldMetrics())
	if err != nil {
		return nil, err
	}

	logger.Info("cross-validation finished",
		log.AccuracyKey, result.Summary[metrics.MetricAccuracy].Mean,
		log.BalancedAccuracyKey, result.Summary[metrics.MetricBalancedAccuracy].Mean,
	)
	return result, nil
}

// CrossValidateBinary is a convenience wrapper around Evaluator.
func CrossValidateBinary(ctx context.Context, X, y mat.Matrix, splitter KFoldSplitter,
	newClassifier model.ClassifierFactory, opts ...EvaluatorOption) (*CVResult, error) {
	return NewEvaluator(splitter, newClassifier, opts...).CrossValidateBinary(ctx, X, y)
}

func (e *Evaluator) runFold(logger log.Logger, idx int, fold CVFold, X, y mat.Matrix) FoldResult {
	start := time.Now()
	fr := FoldResult{
		Fold:         idx,
		TrainIndices: fold.TrainIndices,
		TestIndices:  fold.TestIndices,
		TrainSize:    len(fold.TrainIndices),
		TestSize:     len(fold.TestIndices),
	}

	err := errors.SafeExecute(fmt.Sprintf("fold %d", idx), func() error {
		return e.evaluateFold(&fr, X, y)
	})
	fr.Duration = time.Since(start)

	logger = logger.With(log.FoldKey, idx)
	if err != nil {
		fr.Err = err
		undefined := metrics.UndefinedScore(err)
		fr.Metrics = metrics.BinaryMetrics{
			Accuracy:         undefined,
			BalancedAccuracy: undefined,
			Sensitivity:      undefined,
			Specificity:      undefined,
		}
		logger.Error("fold failed", err)
		return fr
	}

	for _, name := range metrics.BinaryMetricNames {
		if s := fr.Metrics.Get(name); !s.Defined {
			errors.Warn(errors.NewUndefinedMetricWarning(string(name), undefinedCondition(s.Reason), idx))
		}
	}

	logger.Info("fold evaluated",
		log.TrainSizeKey, fr.TrainSize,
		log.TestSizeKey, fr.TestSize,
		log.AccuracyKey, fr.Metrics.Accuracy.Value,
		log.ConvergedKey, fr.Converged,
		log.DurationMsKey, fr.Duration.Milliseconds(),
	)
	return fr
}

// evaluateFold fits the scaler and classifier on the training rows only and
// scores the held-out rows.
func (e *Evaluator) evaluateFold(fr *FoldResult, X, y mat.Matrix) error {
	XTrain, yTrain := extractSubset(X, y, fr.TrainIndices)
	XTest, yTest := extractSubset(X, y, fr.TestIndices)

	var trainIn, testIn mat.Matrix = XTrain, XTest
	if e.NewScaler != nil {
		scaler := e.NewScaler()
		var err error
		if trainIn, err = scaler.FitTransform(XTrain); err != nil {
			return errors.Wrap(err, "normalize training split")
		}
		if testIn, err = scaler.Transform(XTest); err != nil {
			return errors.Wrap(err, "normalize test split")
		}
		r, c := testIn.Dims()
		if err := errors.CheckMatrix("normalize test split", testIn, r, c); err != nil {
			return err
		}
		if zv, ok := scaler.(model.ZeroVarianceReporter); ok {
			fr.ZeroVarianceFeatures = zv.ZeroVariance()
		}
	}

	clf := e.NewClassifier()
	if err := clf.Fit(trainIn, yTrain); err != nil {
		return errors.Wrap(err, "fit classifier")
	}
	fr.Converged = true
	if c, ok := clf.(model.ConvergenceReporter); ok {
		fr.Converged = c.Converged()
		fr.NIter = c.NIter()
	}

	yPred, err := clf.Predict(testIn)
	if err != nil {
		return errors.Wrap(err, "predict test split")
	}

	fr.Confusion, fr.Metrics, err = metrics.ComputeBinaryMetrics(yTest, yPred)
	if err != nil {
		return errors.Wrap(err, "score test split")
	}

	if exp, ok := clf.(model.WeightExporter); ok {
		w, err := exp.ExportWeights()
		if err != nil {
			return errors.Wrap(err, "export weights")
		}
		w.Fold = fr.Fold
		if len(e.FeatureNames) == len(w.Coefficients) {
			w.Features = e.FeatureNames
		}
		fr.Weights = w
	}
	return nil
}

func undefinedCondition(reason error) string {
	var um *errors.UndefinedMetricError
	if errors.As(reason, &um) {
		return um.Condition
	}
	if reason != nil {
		return reason.Error()
	}
	return "an empty class"
}
