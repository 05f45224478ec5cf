package model

import "gonum.org/v1/gonum/mat"

// Fitter learns parameters from a feature matrix X (n_samples x n_features)
// and a label column y (n_samples x 1) holding 0/1 values.
type Fitter interface {
	Fit(X, y mat.Matrix) error
}

// Predictor returns one predicted label per row of X as an n x 1 matrix.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// LinearModel exposes the hyperplane w·x + b of a fitted linear model.
type LinearModel interface {
	Weights() []float64
	Intercept() float64
}

// Transformer learns a feature mapping on one matrix and applies it to
// others. In cross-validation it is fitted on the training split only and
// the held-out split is transformed with the stored parameters.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ZeroVarianceReporter is implemented by transformers that detect constant
// features while fitting. Indices are ascending column positions.
type ZeroVarianceReporter interface {
	ZeroVariance() []int
}

// ConvergenceReporter is implemented by iterative solvers.
type ConvergenceReporter interface {
	Converged() bool
	NIter() int
}
