package main

import (
	"context"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mrinference/mlcv"
	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/pkg/log"
	"github.com/mrinference/mlcv/plot"
	"github.com/mrinference/mlcv/report"
	"github.com/mrinference/mlcv/sklearn/model_selection"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run cross-validation and print per-fold and summary metrics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		metricsFile, _ := cmd.Flags().GetString("metrics-file")
		weightsFile, _ := cmd.Flags().GetString("weights-file")
		plotFile, _ := cmd.Flags().GetString("plot-file")
		progress, _ := cmd.Flags().GetBool("progress")

		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}

		var opts []model_selection.EvaluatorOption
		if progress {
			bar := progressbar.NewOptions(conf.CV.Folds,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("folds"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			opts = append(opts, model_selection.WithFoldCallback(func(model_selection.FoldResult) {
				_ = bar.Add(1)
			}))
		}

		result, err := mlcv.Evaluate(cmd.Context(), ds, conf, opts...)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return errors.Wrapf(err, "create %s", output)
			}
			defer f.Close()
			w = f
		}
		if err := writeResult(w, format, result); err != nil {
			return err
		}

		if metricsFile != "" {
			if err := report.WriteMetricsFile(metricsFile, result); err != nil {
				return err
			}
		}
		if weightsFile != "" {
			if err := report.WriteWeightsFile(weightsFile, result); err != nil {
				return err
			}
		}
		if plotFile != "" {
			p, err := plot.FoldMetrics(result)
			if err != nil {
				return err
			}
			if err := plot.Save(p, plotFile); err != nil {
				return err
			}
		}
		log.GetLoggerWithName("cli").Info("run complete", log.RunIDKey, result.RunID)
		return nil
	},
}

func init() {
	flags := runCmd.Flags()
	flags.Int("folds", 10, "number of cross-validation folds")
	flags.Uint64("seed", 1, "seed for fold shuffling and the solver")
	flags.Bool("stratify", true, "preserve class proportions in every fold")
	flags.Int("workers", 1, "folds evaluated concurrently (0 = one per CPU)")
	flags.Float64("c", 1.0, "inverse regularization strength")
	flags.String("loss", "hinge", "hinge or squared_hinge")
	flags.Int("max-iter", 1000, "maximum solver passes")
	flags.Float64("tol", 1e-4, "solver stopping tolerance")
	flags.String("scaler", "standard", "standard, minmax or none")
	flags.StringP("format", "f", "text", "output format: text, table or json")
	flags.StringP("output", "o", "", "write the report to a file instead of stdout")
	flags.String("metrics-file", "", "write Prometheus textfile gauges to this path")
	flags.String("weights-file", "", "write per-fold classifier weights as JSON to this path")
	flags.String("plot-file", "", "draw per-fold metrics to this image path")
	flags.Bool("progress", false, "show a fold progress bar on stderr")
}

func writeResult(w io.Writer, format string, result *model_selection.CVResult) error {
	switch format {
	case "text":
		return report.WriteText(w, result)
	case "table":
		report.WriteFoldTable(w, result)
		return report.WriteSummary(w, result.Summary)
	case "json":
		return report.WriteJSON(w, result)
	default:
		return errors.NewValidationError("format", "must be text, table or json", format)
	}
}

func loadDataset(ctx context.Context) (*dataset.Dataset, error) {
	if conf.Data.Source == "" {
		return nil, errors.NewValidationError("data.source", "a dataset path or URL is required (--data)", "")
	}
	return dataset.Load(ctx, conf.Data.Source, conf.LoadOptions())
}
