// Package mlcv evaluates a linear support vector classifier on tabular
// neuroimaging data with stratified k-fold cross-validation.
//
// The workflow follows the usual supervised learning tutorial:
// load a dataset, partition it into K stratified folds, and for every fold
// z-score the features using training statistics only, fit a hinge-loss
// LinearSVC, predict the held-out participants and score them. Per-fold
// accuracy, balanced accuracy, sensitivity and specificity are then
// summarised as mean (population standard deviation) across folds.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//	    "os"
//
//	    "github.com/mrinference/mlcv"
//	    "github.com/mrinference/mlcv/config"
//	    "github.com/mrinference/mlcv/dataset"
//	    "github.com/mrinference/mlcv/report"
//	)
//
//	func main() {
//	    cfg := config.Default()
//	    ds, err := dataset.Load(context.Background(), "ml_tutorial_data.csv", cfg.LoadOptions())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    result, err := mlcv.Evaluate(context.Background(), ds, cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    report.WriteText(os.Stdout, result)
//	}
//
// # Packages
//
//   - dataset: samples, CSV loading and descriptive counts
//   - preprocessing: StandardScaler and MinMaxScaler
//   - sklearn/svm: LinearSVC solved by dual coordinate descent
//   - sklearn/model_selection: KFold, StratifiedKFold and the cross-validation evaluator
//   - metrics: confusion matrix, binary metrics and fold aggregation
//   - report, plot: text, JSON, Prometheus and chart output
//   - config: defaults, file and environment loading, validation
//   - pkg/errors, pkg/log: typed errors, warnings and structured logging
//
// # Error Handling
//
// Input problems are reported before any fold runs, as typed errors that
// can be inspected with errors.As:
//
//	var ve *errors.ValidationError
//	if errors.As(err, &ve) {
//	    fmt.Println("invalid", ve.ParamName)
//	}
//
// A failure inside a single fold is recorded on that fold and leaves its
// metrics undefined; the remaining folds still run.
package mlcv
