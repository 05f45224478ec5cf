package model

import (
	"encoding/json"
	"io"
	"os"

	"github.com/mrinference/mlcv/pkg/errors"
)

// WeightsFile collects the weights learned on every fold of one run.
type WeightsFile struct {
	RunID string         `json:"run_id"`
	Folds []ModelWeights `json:"folds"`
}

// SaveWeights writes wf as indented JSON to filename.
//
//	err := model.SaveWeights("weights.json", &model.WeightsFile{RunID: id, Folds: ws})
func SaveWeights(filename string, wf *WeightsFile) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create weights file %s", filename)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close weights file")
		}
	}()

	return SaveWeightsToWriter(wf, file)
}

// LoadWeights reads a weights file and validates every fold.
func LoadWeights(filename string) (*WeightsFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "open weights file %s", filename)
	}
	defer file.Close()

	return LoadWeightsFromReader(file)
}

func SaveWeightsToWriter(wf *WeightsFile, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wf); err != nil {
		return errors.Wrap(err, "encode weights")
	}
	return nil
}

func LoadWeightsFromReader(r io.Reader) (*WeightsFile, error) {
	var wf WeightsFile
	if err := json.NewDecoder(r).Decode(&wf); err != nil {
		return nil, errors.Wrap(err, "decode weights")
	}
	for i := range wf.Folds {
		if err := wf.Folds[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "fold %d", wf.Folds[i].Fold)
		}
	}
	return &wf, nil
}
