package model_selection

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/pkg/errors"
)

// KFoldSplitter defines interface for cross-validation splitters
type KFoldSplitter interface {
	Split(X, y mat.Matrix) ([]CVFold, error)
	GetNSplits() int
}

// CVFold represents a single fold in cross-validation.
// Both index slices are ascending.
type CVFold struct {
	TrainIndices []int `json:"train_indices"`
	TestIndices  []int `json:"test_indices"`
}

// KFold implements k-fold cross-validation splitter
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewKFold creates a new k-fold splitter
func NewKFold(nSplits int, shuffle bool, randomSeed uint64) *KFold {
	return &KFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. The first
// nSamples % NSplits folds get one extra test sample.
func (kf *KFold) Split(X, _ mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	if err := checkNSplits(kf.NSplits, nSamples); err != nil {
		return nil, err
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.RandomSeed, kf.RandomSeed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testFolds := make([]int, nSamples)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	current := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		for _, idx := range indices[current : current+testSize] {
			testFolds[idx] = i
		}
		current += testSize
	}

	return foldsFromAssignment(testFolds, kf.NSplits), nil
}

// StratifiedKFold implements stratified k-fold cross-validation with the
// same allocation scheme as scikit-learn: the sorted label sequence is
// dealt round-robin to get per-fold class counts, then each class's fold
// labels are shuffled and assigned to its samples in index order.
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed uint64) *StratifiedKFold {
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold
func (skf *StratifiedKFold) Split(X, y mat.Matrix) ([]CVFold, error) {
	nSamples, _ := X.Dims()
	if y == nil {
		return nil, errors.NewValueError("StratifiedKFold.Split", "y is required for stratification")
	}
	if yRows, _ := y.Dims(); yRows != nSamples {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", nSamples, yRows, 0)
	}
	if err := checkNSplits(skf.NSplits, nSamples); err != nil {
		return nil, err
	}

	// Encode classes by order of first appearance
	classOf := make(map[float64]int)
	encoded := make([]int, nSamples)
	var counts []int
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		k, ok := classOf[label]
		if !ok {
			k = len(counts)
			classOf[label] = k
			counts = append(counts, 0)
		}
		encoded[i] = k
		counts[k]++
	}

	minCount := counts[0]
	for _, c := range counts[1:] {
		minCount = min(minCount, c)
	}
	if skf.NSplits > minCount {
		return nil, errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot be greater than the number of members in each class (smallest class has %d)", minCount),
			skf.NSplits)
	}

	// Sorted label sequence: counts[0] copies of class 0, then class 1, ...
	// allocation[f][k] = number of class k samples among positions f, f+K, f+2K, ...
	nClasses := len(counts)
	allocation := make([][]int, skf.NSplits)
	for f := range allocation {
		allocation[f] = make([]int, nClasses)
	}
	pos := 0
	for k, c := range counts {
		for j := 0; j < c; j++ {
			allocation[pos%skf.NSplits][k]++
			pos++
		}
	}

	var r *rand.Rand
	if skf.Shuffle {
		r = rand.New(rand.NewPCG(skf.RandomSeed, skf.RandomSeed))
	}

	testFolds := make([]int, nSamples)
	for k := 0; k < nClasses; k++ {
		foldsForClass := make([]int, 0, counts[k])
		for f := 0; f < skf.NSplits; f++ {
			for j := 0; j < allocation[f][k]; j++ {
				foldsForClass = append(foldsForClass, f)
			}
		}
		if r != nil {
			r.Shuffle(len(foldsForClass), func(i, j int) {
				foldsForClass[i], foldsForClass[j] = foldsForClass[j], foldsForClass[i]
			})
		}

		next := 0
		for i := 0; i < nSamples; i++ {
			if encoded[i] == k {
				testFolds[i] = foldsForClass[next]
				next++
			}
		}
	}

	return foldsFromAssignment(testFolds, skf.NSplits), nil
}

func checkNSplits(nSplits, nSamples int) error {
	if nSamples == 0 {
		return errors.NewModelError("KFold.Split", "empty data", errors.ErrEmptyData)
	}
	if nSplits < 2 {
		return errors.NewValidationError("n_splits", "k-fold cross-validation requires at least one train/test split (n_splits >= 2)", nSplits)
	}
	if nSplits > nSamples {
		return errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot be greater than the number of samples (%d)", nSamples), nSplits)
	}
	return nil
}

// foldsFromAssignment turns a per-sample test fold label into ascending
// test and train index lists.
func foldsFromAssignment(testFolds []int, nSplits int) []CVFold {
	n := len(testFolds)
	folds := make([]CVFold, nSplits)
	for f := range folds {
		folds[f].TestIndices = make([]int, 0, n/nSplits+1)
		folds[f].TrainIndices = make([]int, 0, n-n/nSplits)
	}
	for i, f := range testFolds {
		for g := range folds {
			if g == f {
				folds[g].TestIndices = append(folds[g].TestIndices, i)
			} else {
				folds[g].TrainIndices = append(folds[g].TrainIndices, i)
			}
		}
	}
	return folds
}

// extractSubset extracts the rows of X and y listed in indices, in order
func extractSubset(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, 1, nil)

	for i, idx := range indices {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		ySubset.Set(i, 0, y.At(idx, 0))
	}

	return xSubset, ySubset
}
