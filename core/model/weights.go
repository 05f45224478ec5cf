package model

import (
	"github.com/mrinference/mlcv/pkg/errors"
)

// WeightsVersion is bumped whenever the ModelWeights layout changes.
const WeightsVersion = "1"

// ModelWeights is the learned state of one fold's linear classifier.
type ModelWeights struct {
	ModelType    string    `json:"model_type"`
	Version      string    `json:"version"`
	Fold         int       `json:"fold"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	// Features names each coefficient when the dataset has a header.
	Features        []string       `json:"features,omitempty"`
	Hyperparameters map[string]any `json:"hyperparameters"`
	// Metadata holds solver details such as n_iter and converged.
	Metadata map[string]any `json:"metadata,omitempty"`
	IsFitted bool           `json:"is_fitted"`
}

// Validate checks a decoded ModelWeights before it is trusted.
func (mw *ModelWeights) Validate() error {
	switch {
	case mw.ModelType == "":
		return errors.NewValidationError("model_type", "is required", mw.ModelType)
	case mw.Version != WeightsVersion:
		return errors.NewValidationError("version", "unsupported weights version", mw.Version)
	case mw.IsFitted && len(mw.Coefficients) == 0:
		return errors.NewValidationError("coefficients", "fitted model must have coefficients", 0)
	case !mw.IsFitted && len(mw.Coefficients) > 0:
		return errors.NewValidationError("coefficients", "unfitted model should not have coefficients", len(mw.Coefficients))
	case len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients):
		return errors.NewDimensionError("ModelWeights.Validate", len(mw.Coefficients), len(mw.Features), 1)
	}
	return nil
}
