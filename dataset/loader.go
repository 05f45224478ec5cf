package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/pkg/log"
)

// LoadOptions describes the column layout of a dataset CSV.
//
// Columns are counted after the ID column is removed. Features are every
// column from FeatureStart onwards except the target. When GroupColumns is
// empty, the columns before FeatureStart other than the target are kept as
// groups.
type LoadOptions struct {
	IDColumn     string
	TargetColumn string
	FeatureStart int
	GroupColumns []string
}

// DefaultLoadOptions matches the MRI tutorial layout: ID, three descriptive
// columns (including Diagnosis), then the regional features.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		IDColumn:     "ID",
		TargetColumn: "Diagnosis",
		FeatureStart: 3,
	}
}

// Load reads a dataset from a local path or an http(s) URL.
func Load(ctx context.Context, source string, opts LoadOptions) (*Dataset, error) {
	logger := log.GetLoggerWithName("dataset").With(log.SourceKey, source, log.OperationKey, log.OperationLoad)

	rc, err := open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := Read(rc, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", source)
	}

	logger.Info("dataset loaded",
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
		log.ClassCountsKey, ds.ClassCounts(),
	)
	return ds, nil
}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "build request for %s", source)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, errors.Wrapf(err, "download %s", source)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, errors.Newf("download %s: unexpected status %s", source, resp.Status)
		}
		return resp.Body, nil
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", source)
	}
	return f, nil
}

// Read parses a dataset CSV with a header row. Cell errors name the
// 1-based data row and the column.
func Read(r io.Reader, opts LoadOptions) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewModelError("dataset.Read", "missing header", errors.ErrEmptyData)
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	header = lo.Map(header, func(h string, _ int) string { return strings.TrimSpace(h) })

	layout, err := resolveLayout(header, opts)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		FeatureNames: lo.Map(layout.features, func(c int, _ int) string { return header[c] }),
		GroupNames:   lo.Map(layout.groups, func(c int, _ int) string { return header[c] }),
	}

	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", row)
		}

		sample, err := layout.parse(record, header, row)
		if err != nil {
			return nil, err
		}
		ds.Samples = append(ds.Samples, sample)
	}

	if len(ds.Samples) == 0 {
		return nil, errors.NewModelError("dataset.Read", "no data rows", errors.ErrEmptyData)
	}
	return ds, nil
}

type columnLayout struct {
	id       int
	target   int
	features []int
	groups   []int
}

func resolveLayout(header []string, opts LoadOptions) (columnLayout, error) {
	idCol := lo.IndexOf(header, opts.IDColumn)
	if idCol < 0 {
		return columnLayout{}, errors.NewValidationError("id_column", "column not found in header", opts.IDColumn)
	}
	targetCol := lo.IndexOf(header, opts.TargetColumn)
	if targetCol < 0 {
		return columnLayout{}, errors.NewValidationError("target_column", "column not found in header", opts.TargetColumn)
	}

	// Positions with the ID column removed
	rest := lo.Filter(lo.Range(len(header)), func(c int, _ int) bool { return c != idCol })
	if opts.FeatureStart < 0 || opts.FeatureStart >= len(rest) {
		return columnLayout{}, errors.NewValidationError("feature_start",
			fmt.Sprintf("must be in [0, %d)", len(rest)), opts.FeatureStart)
	}

	layout := columnLayout{id: idCol, target: targetCol}
	layout.features = lo.Filter(rest[opts.FeatureStart:], func(c int, _ int) bool { return c != targetCol })
	if len(layout.features) == 0 {
		return columnLayout{}, errors.NewValidationError("feature_start", "no feature columns after feature_start", opts.FeatureStart)
	}

	if len(opts.GroupColumns) > 0 {
		for _, name := range opts.GroupColumns {
			c := lo.IndexOf(header, name)
			if c < 0 {
				return columnLayout{}, errors.NewValidationError("group_columns", "column not found in header", name)
			}
			layout.groups = append(layout.groups, c)
		}
	} else {
		layout.groups = lo.Filter(rest[:opts.FeatureStart], func(c int, _ int) bool { return c != targetCol })
	}
	return layout, nil
}

func (l columnLayout) parse(record, header []string, row int) (Sample, error) {
	if len(record) != len(header) {
		return Sample{}, errors.NewValidationError("row",
			fmt.Sprintf("row %d has %d fields, header has %d", row, len(record), len(header)), len(record))
	}

	s := Sample{
		ID:       strings.TrimSpace(record[l.id]),
		Features: make([]float64, len(l.features)),
	}

	rawLabel := strings.TrimSpace(record[l.target])
	label, err := strconv.ParseFloat(rawLabel, 64)
	if err != nil || label != math.Trunc(label) {
		return Sample{}, errors.NewValidationError(header[l.target],
			fmt.Sprintf("row %d, column %d: label is not an integer", row, l.target+1), rawLabel)
	}
	s.Label = int(label)

	for j, c := range l.features {
		raw := strings.TrimSpace(record[c])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Sample{}, errors.NewValidationError(header[c],
				fmt.Sprintf("row %d, column %d: not a number", row, c+1), raw)
		}
		s.Features[j] = v
	}

	if len(l.groups) > 0 {
		s.Groups = make(map[string]string, len(l.groups))
		for _, c := range l.groups {
			s.Groups[header[c]] = strings.TrimSpace(record[c])
		}
	}
	return s, nil
}
