// Command mlcv runs cross-validated LinearSVC evaluation on a tabular
// dataset and reports per-fold and summary metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mrinference/mlcv/config"
	"github.com/mrinference/mlcv/pkg/log"
)

var conf *config.Config

var rootCmd = &cobra.Command{
	Use:   "mlcv",
	Short: "Cross-validated linear SVM evaluation for neuroimaging data",
	Long: `mlcv loads a CSV of participants, partitions it with stratified k-fold
cross-validation and, for every fold, z-scores the features on the training
split, fits a hinge-loss LinearSVC and scores the held-out participants.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		var err error
		conf, err = config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		return log.SetupLogger(conf.Log.Level, conf.Log.Format)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "configuration file (yaml, toml or json)")
	flags.StringP("data", "d", "", "dataset CSV path or http(s) URL")
	flags.String("id-column", "ID", "identifier column")
	flags.String("target-column", "Diagnosis", "binary label column")
	flags.Int("feature-start", 3, "index of the first feature column, counted without the ID column")
	flags.StringSlice("group-columns", nil, "demographic columns kept as groups")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("log-format", "json", "log format: json or console")

	rootCmd.AddCommand(runCmd, describeCmd, plotCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
