package mlcv

import (
	"context"

	"github.com/mrinference/mlcv/config"
	"github.com/mrinference/mlcv/core/model"
	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/pkg/log"
	"github.com/mrinference/mlcv/preprocessing"
	"github.com/mrinference/mlcv/sklearn/model_selection"
	"github.com/mrinference/mlcv/sklearn/svm"
)

// NewSplitter returns the stratified or plain k-fold splitter selected by cfg.
func NewSplitter(cfg *config.Config) model_selection.KFoldSplitter {
	if cfg.CV.Stratify {
		return model_selection.NewStratifiedKFold(cfg.CV.Folds, true, cfg.CV.Seed)
	}
	return model_selection.NewKFold(cfg.CV.Folds, true, cfg.CV.Seed)
}

// ClassifierFactory builds a LinearSVC per fold from the model section.
// Every fold shares the same solver seed.
func ClassifierFactory(cfg *config.Config) model.ClassifierFactory {
	m := cfg.Model
	seed := cfg.CV.Seed
	return func() model.Classifier {
		return svm.NewLinearSVC(
			svm.WithC(m.C),
			svm.WithLoss(svm.Loss(m.Loss)),
			svm.WithMaxIter(m.MaxIter),
			svm.WithTol(m.Tol),
			svm.WithFitIntercept(m.FitIntercept),
			svm.WithInterceptScaling(m.InterceptScaling),
			svm.WithRandomState(seed),
		)
	}
}

// ScalerFactory returns the per-fold transformer factory, or nil when
// scaling is disabled.
func ScalerFactory(cfg *config.Config) (model.TransformerFactory, error) {
	switch cfg.Model.Scaler {
	case "standard":
		return func() model.Transformer { return preprocessing.NewStandardScalerDefault() }, nil
	case "minmax":
		return func() model.Transformer { return preprocessing.NewMinMaxScalerDefault() }, nil
	case "none", "":
		return nil, nil
	default:
		return nil, errors.NewValidationError("model.scaler", "must be one of standard, minmax, none", cfg.Model.Scaler)
	}
}

// Evaluate validates ds and runs cross-validation configured by cfg.
// Extra evaluator options (progress callbacks, worker overrides) are
// applied after the configured ones.
func Evaluate(ctx context.Context, ds *dataset.Dataset, cfg *config.Config, opts ...model_selection.EvaluatorOption) (*model_selection.CVResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	scaler, err := ScalerFactory(cfg)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("mlcv").Debug("evaluation configured",
		log.NFoldsKey, cfg.CV.Folds,
		log.RandomSeedKey, cfg.CV.Seed,
		log.LossKey, cfg.Model.Loss,
		log.RegularizationKey, cfg.Model.C,
		log.ToleranceKey, cfg.Model.Tol,
		log.MaxIterKey, cfg.Model.MaxIter,
	)

	evalOpts := []model_selection.EvaluatorOption{
		model_selection.WithScaler(scaler),
		model_selection.WithWorkers(cfg.CV.Workers),
		model_selection.WithFeatureNames(ds.FeatureNames),
	}
	evaluator := model_selection.NewEvaluator(NewSplitter(cfg), ClassifierFactory(cfg), append(evalOpts, opts...)...)

	X, y := ds.Matrix()
	return evaluator.CrossValidateBinary(ctx, X, y)
}
