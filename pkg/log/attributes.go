// Standard attribute keys for cross-validation runs.
//
// Keys follow a dotted hierarchy ("cv.fold", "data.samples") so log lines
// from different folds and runs can be filtered and joined.

package log

// Run and component context.
const (
	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// ModelNameKey identifies the estimator type, e.g. "LinearSVC".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed: fit, predict, transform, split.
	OperationKey = "ml.operation"

	// RunIDKey is the UUID assigned to one cross-validation run.
	RunIDKey = "run.id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"

	// ClassCountsKey carries the per-label sample counts.
	ClassCountsKey = "data.class_counts"

	// SourceKey is the path or URL a dataset was read from.
	SourceKey = "data.source"
)

// Cross-validation context.
const (
	FoldKey      = "cv.fold"
	NFoldsKey    = "cv.n_folds"
	TrainSizeKey = "cv.train_size"
	TestSizeKey  = "cv.test_size"
	SplitterKey  = "cv.splitter"
	WorkersKey   = "cv.workers"
)

// Metrics and optimizer progress.
const (
	AccuracyKey         = "metrics.accuracy"
	BalancedAccuracyKey = "metrics.balanced_accuracy"
	SensitivityKey      = "metrics.sensitivity"
	SpecificityKey      = "metrics.specificity"

	IterationKey  = "training.iteration"
	ConvergedKey  = "training.converged"
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	ErrorKey = "error"

	// StacktraceKey is populated from cockroachdb/errors safe details.
	StacktraceKey = "error.stacktrace"

	ErrorTypeKey = "error.type"
)

// Hyperparameters.
const (
	RegularizationKey = "hyperparams.C"
	LossKey           = "hyperparams.loss"
	ToleranceKey      = "hyperparams.tol"
	MaxIterKey        = "hyperparams.max_iter"
	RandomSeedKey     = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationSplit     = "split"
	OperationEvaluate  = "evaluate"
	OperationLoad      = "load"
)
