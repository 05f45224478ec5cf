package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/plot"
	"github.com/mrinference/mlcv/report"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print participant, feature and label counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		desc := ds.Describe()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return errors.Wrap(enc.Encode(desc), "encode description")
		}
		return report.WriteDescription(cmd.OutOrStdout(), desc)
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw label counts split by a group column",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		group, _ := cmd.Flags().GetString("group")
		output, _ := cmd.Flags().GetString("output")

		ds, err := loadDataset(cmd.Context())
		if err != nil {
			return err
		}
		p, err := plot.ClassCounts(ds, group, conf.Data.TargetColumn)
		if err != nil {
			return err
		}
		return plot.Save(p, output)
	},
}

func init() {
	describeCmd.Flags().Bool("json", false, "print the description as JSON")

	plotCmd.Flags().String("group", "Sex", "group column splitting each label bar")
	plotCmd.Flags().StringP("output", "o", "class_counts.png", "image path; the extension selects the format")
}
