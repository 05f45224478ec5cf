// Package plot draws dataset and cross-validation charts with gonum/plot.
package plot

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/metrics"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/sklearn/model_selection"
)

// Default figure size.
const (
	Width  = 6 * vg.Inch
	Height = 4 * vg.Inch
)

var palette = []color.Color{
	color.RGBA{R: 0x83, G: 0x90, B: 0x98, A: 0xff},
	color.RGBA{R: 0xf7, G: 0xd8, B: 0x42, A: 0xff},
}

func groupColor(i int) color.Color {
	if i < len(palette) {
		return palette[i]
	}
	return plotutil.Color(i)
}

// ClassCounts draws a bar chart of label counts with one bar per value of
// the group column at each label.
func ClassCounts(ds *dataset.Dataset, group, target string) (*plot.Plot, error) {
	counts, err := ds.GroupCounts(group)
	if err != nil {
		return nil, err
	}
	labels := dataset.SortedKeys(ds.ClassCounts())
	values := dataset.SortedKeys(counts)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by %s", target, group)
	p.X.Label.Text = target
	p.Y.Label.Text = "Count"
	p.Legend.Top = true

	width := vg.Points(40) / vg.Length(max(1, len(values)))
	for i, v := range values {
		heights := make(plotter.Values, len(labels))
		for j, label := range labels {
			heights[j] = float64(counts[v][label])
		}
		bars, err := plotter.NewBarChart(heights, width)
		if err != nil {
			return nil, errors.Wrapf(err, "bars for %s=%s", group, v)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = groupColor(i)
		bars.Offset = width * vg.Length(2*i-len(values)+1) / 2
		p.Add(bars)
		p.Legend.Add(v, bars)
	}

	names := make([]string, len(labels))
	for i, label := range labels {
		names[i] = fmt.Sprint(label)
	}
	p.NominalX(names...)
	return p, nil
}

// FoldMetrics draws one line per metric across folds. Undefined values
// are left out of their line.
func FoldMetrics(result *model_selection.CVResult) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Cross-validation metrics per fold"
	p.X.Label.Text = "Fold"
	p.Y.Label.Text = "Score"
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())

	for i, name := range metrics.BinaryMetricNames {
		var pts plotter.XYs
		for _, fr := range result.Folds {
			if s := fr.Metrics.Get(name); s.Defined {
				pts = append(pts, plotter.XY{X: float64(fr.Fold + 1), Y: s.Value})
			}
		}
		if len(pts) == 0 {
			continue
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, errors.Wrapf(err, "line for %s", name)
		}
		line.Color = plotutil.Color(i)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(name.Abbrev(), line, points)
	}
	p.Legend.Top = false
	return p, nil
}

// Save writes the plot to path. The format follows the file extension
// (png, svg, pdf, ...).
func Save(p *plot.Plot, path string) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return errors.NewValidationError("output", "file extension selects the image format", path)
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
