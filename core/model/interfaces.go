// Package model provides the estimator interfaces shared by the
// preprocessing, svm and model_selection packages.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Classifier is a binary classifier over labels {0, 1}.
type Classifier interface {
	Fitter
	Predictor

	// DecisionFunction returns the signed distance of each sample to the
	// separating hyperplane. Positive values predict class 1.
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the labels seen during fitting, ascending.
	Classes() []int
}

// ClassifierFactory builds a fresh, unfitted classifier. Each fold of a
// cross-validation run gets its own instance.
type ClassifierFactory func() Classifier

// TransformerFactory builds a fresh, unfitted transformer.
type TransformerFactory func() Transformer

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// WeightExporter is implemented by models whose learned parameters can be
// written out as ModelWeights.
type WeightExporter interface {
	ExportWeights() (*ModelWeights, error)
}
