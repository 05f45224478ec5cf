// Package dataset holds the tabular samples evaluated by the cross-validation
// pipeline and loads them from CSV.
package dataset

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

// Sample is one participant: an opaque identifier, a fixed-length feature
// vector and a binary label. Groups carries demographic columns such as
// Sex or Age as raw strings; they are never used for fitting.
type Sample struct {
	ID       string
	Features []float64
	Label    int
	Groups   map[string]string
}

// Dataset is an ordered collection of samples sharing one feature layout.
type Dataset struct {
	Samples      []Sample
	FeatureNames []string
	GroupNames   []string
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.Samples)
}

// NumFeatures returns the feature dimensionality.
func (d *Dataset) NumFeatures() int {
	if len(d.FeatureNames) > 0 {
		return len(d.FeatureNames)
	}
	if len(d.Samples) > 0 {
		return len(d.Samples[0].Features)
	}
	return 0
}

// Validate checks that the dataset is non-empty, every sample has the
// same number of finite features and every label is 0 or 1.
func (d *Dataset) Validate() error {
	if len(d.Samples) == 0 {
		return errors.NewModelError("Dataset.Validate", "empty data", errors.ErrEmptyData)
	}
	nFeatures := d.NumFeatures()
	if nFeatures == 0 {
		return errors.NewModelError("Dataset.Validate", "no feature columns", errors.ErrEmptyData)
	}
	for i, s := range d.Samples {
		if len(s.Features) != nFeatures {
			return errors.Wrapf(errors.NewDimensionError("Dataset.Validate", nFeatures, len(s.Features), 1),
				"sample %d (%s)", i, s.ID)
		}
		if s.Label != 0 && s.Label != 1 {
			return errors.NewValidationError("label",
				fmt.Sprintf("sample %d (%s): labels must be 0 or 1", i, s.ID), s.Label)
		}
		for j, v := range s.Features {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.NewValidationError("features",
					fmt.Sprintf("sample %d (%s) feature %d is not finite", i, s.ID, j), v)
			}
		}
	}
	return nil
}

// Matrix returns the feature matrix (N x D) and the label column (N x 1).
func (d *Dataset) Matrix() (*mat.Dense, *mat.Dense) {
	n, p := d.Len(), d.NumFeatures()
	X := mat.NewDense(n, p, nil)
	y := mat.NewDense(n, 1, nil)
	for i, s := range d.Samples {
		X.SetRow(i, s.Features)
		y.Set(i, 0, float64(s.Label))
	}
	return X, y
}

// Labels returns the labels in sample order.
func (d *Dataset) Labels() []int {
	return lo.Map(d.Samples, func(s Sample, _ int) int { return s.Label })
}

// IDs returns the sample identifiers in sample order.
func (d *Dataset) IDs() []string {
	return lo.Map(d.Samples, func(s Sample, _ int) string { return s.ID })
}

// ClassCounts returns the number of samples per label.
func (d *Dataset) ClassCounts() map[int]int {
	return lo.CountValues(d.Labels())
}

// GroupCounts returns, for each value of the group column, the number of
// samples per label.
func (d *Dataset) GroupCounts(group string) (map[string]map[int]int, error) {
	if !lo.Contains(d.GroupNames, group) {
		return nil, errors.NewValidationError("group",
			fmt.Sprintf("unknown group column (available: %v)", d.GroupNames), group)
	}
	out := make(map[string]map[int]int)
	for _, s := range d.Samples {
		v := s.Groups[group]
		if out[v] == nil {
			out[v] = make(map[int]int)
		}
		out[v][s.Label]++
	}
	return out, nil
}

// Description summarises a dataset the way the tutorial prints it before
// modelling.
type Description struct {
	NParticipants int                                `json:"n_participants"`
	NFeatures     int                                `json:"n_features"`
	ClassCounts   map[int]int                        `json:"class_counts"`
	GroupCounts   map[string]map[string]map[int]int `json:"group_counts,omitempty"`
}

// Describe computes participant, feature, label and per-group counts.
func (d *Dataset) Describe() Description {
	desc := Description{
		NParticipants: d.Len(),
		NFeatures:     d.NumFeatures(),
		ClassCounts:   d.ClassCounts(),
	}
	if len(d.GroupNames) > 0 {
		desc.GroupCounts = make(map[string]map[string]map[int]int, len(d.GroupNames))
		for _, g := range d.GroupNames {
			counts, _ := d.GroupCounts(g)
			desc.GroupCounts[g] = counts
		}
	}
	return desc
}

// SortedKeys returns the keys of a count map in ascending order.
func SortedKeys[K int | string, V any](m map[K]V) []K {
	keys := lo.Keys(m)
	slices.Sort(keys)
	return keys
}
