// Package report renders cross-validation results as text, JSON,
// Prometheus textfile gauges and weight files.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/sklearn/model_selection"
)

const (
	separator = "--------------------------------------------------------------------------"
	undefined = "undefined"
)

var metricLabels = map[metrics.MetricName]string{
	metrics.MetricAccuracy:         "Accuracy",
	metrics.MetricBalancedAccuracy: "Balanced accuracy",
	metrics.MetricSensitivity:      "Sensitivity",
	metrics.MetricSpecificity:      "Specificity",
}

// FormatScore prints a score with three decimals or "undefined".
func FormatScore(s metrics.Score) string {
	if !s.Defined {
		return undefined
	}
	return strconv.FormatFloat(s.Value, 'f', 3, 64)
}

// WriteFold prints one fold: 1-based iteration, split sizes, the confusion
// matrix (rows = true label, columns = predicted) and the four metrics.
func WriteFold(w io.Writer, fr model_selection.FoldResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CV iteration: %d\n", fr.Fold+1)
	fmt.Fprintf(&b, "Training set size: %d\n", fr.TrainSize)
	fmt.Fprintf(&b, "Test set size: %d\n", fr.TestSize)
	if fr.Err != nil {
		fmt.Fprintf(&b, "Fold failed: %v\n", fr.Err)
	} else {
		b.WriteString("Confusion matrix\n")
		table := tablewriter.NewWriter(&b)
		table.SetHeader([]string{"", "pred 0", "pred 1"})
		table.SetAutoFormatHeaders(false)
		table.SetAlignment(tablewriter.ALIGN_RIGHT)
		rows := fr.Confusion.Rows()
		for i, row := range rows {
			table.Append([]string{fmt.Sprintf("true %d", i), strconv.Itoa(row[0]), strconv.Itoa(row[1])})
		}
		table.Render()
		if len(fr.ZeroVarianceFeatures) > 0 {
			fmt.Fprintf(&b, "Zero-variance features: %v\n", fr.ZeroVarianceFeatures)
		}
		if !fr.Converged {
			b.WriteString("Warning: classifier did not converge\n")
		}
	}
	for _, name := range metrics.BinaryMetricNames {
		fmt.Fprintf(&b, "%s: %s\n", metricLabels[name], FormatScore(fr.Metrics.Get(name)))
	}
	b.WriteString(separator + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// SummaryLine formats "Acc: Mean(SD) = 0.xxx(0.xxx)". Folds where the
// metric was undefined are noted after the values.
func SummaryLine(s metrics.MetricSummary) string {
	label := s.Metric.Abbrev()
	if !s.Defined {
		return fmt.Sprintf("%s: Mean(SD) = %s", label, undefined)
	}
	line := fmt.Sprintf("%s: Mean(SD) = %.3f(%.3f)", label, s.Mean, s.Std)
	if s.NExcluded > 0 {
		line += fmt.Sprintf(" [%d of %d folds, %d undefined]", s.NFolds, s.NFolds+s.NExcluded, s.NExcluded)
	}
	return line
}

// WriteSummary prints the cross-validation summary in metric order.
func WriteSummary(w io.Writer, summary metrics.Summary) error {
	lines := append([]string{"CV results"}, lo.Map(metrics.BinaryMetricNames, func(name metrics.MetricName, _ int) string {
		s, ok := summary[name]
		if !ok {
			s = metrics.MetricSummary{Metric: name}
		}
		return SummaryLine(s)
	})...)
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

// WriteText prints every fold followed by the summary.
func WriteText(w io.Writer, result *model_selection.CVResult) error {
	for _, fr := range result.Folds {
		if err := WriteFold(w, fr); err != nil {
			return err
		}
	}
	return WriteSummary(w, result.Summary)
}

// WriteFoldTable prints one row per fold with the four metrics.
func WriteFoldTable(w io.Writer, result *model_selection.CVResult) {
	table := tablewriter.NewWriter(w)
	header := []string{"Fold", "Train", "Test", "TN", "FP", "FN", "TP"}
	header = append(header, lo.Map(metrics.BinaryMetricNames, func(n metrics.MetricName, _ int) string { return n.Abbrev() })...)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, fr := range result.Folds {
		row := []string{
			strconv.Itoa(fr.Fold + 1),
			strconv.Itoa(fr.TrainSize),
			strconv.Itoa(fr.TestSize),
			strconv.Itoa(fr.Confusion.TN),
			strconv.Itoa(fr.Confusion.FP),
			strconv.Itoa(fr.Confusion.FN),
			strconv.Itoa(fr.Confusion.TP),
		}
		for _, name := range metrics.BinaryMetricNames {
			row = append(row, FormatScore(fr.Metrics.Get(name)))
		}
		table.Append(row)
	}
	table.Render()
}

// WriteDescription prints the dataset overview: feature and participant
// counts, label counts and label counts per group value.
func WriteDescription(w io.Writer, desc dataset.Description) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Number of features = %d\n", desc.NFeatures)
	fmt.Fprintf(&b, "Number of participants = %d\n", desc.NParticipants)

	b.WriteString("Label counts\n")
	table := tablewriter.NewWriter(&b)
	table.SetHeader([]string{"Label", "Count"})
	for _, label := range dataset.SortedKeys(desc.ClassCounts) {
		table.Append([]string{strconv.Itoa(label), strconv.Itoa(desc.ClassCounts[label])})
	}
	table.Render()

	for _, group := range dataset.SortedKeys(desc.GroupCounts) {
		counts := desc.GroupCounts[group]
		fmt.Fprintf(&b, "Label counts by %s\n", group)
		table := tablewriter.NewWriter(&b)
		table.SetHeader([]string{group, "Label 0", "Label 1"})
		table.SetAutoFormatHeaders(false)
		for _, value := range dataset.SortedKeys(counts) {
			table.Append([]string{value, strconv.Itoa(counts[value][0]), strconv.Itoa(counts[value][1])})
		}
		table.Render()
	}

	_, err := io.WriteString(w, b.String())
	return err
}
