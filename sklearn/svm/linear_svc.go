package svm

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mrinference/mlcv/core/model"
	"github.com/mrinference/mlcv/core/parallel"
	"github.com/mrinference/mlcv/pkg/errors"
	"github.com/mrinference/mlcv/pkg/log"
)

// Loss is the loss function minimized by LinearSVC.
type Loss string

const (
	// Hinge is the standard SVM loss max(0, 1 - y·f(x)).
	Hinge Loss = "hinge"
	// SquaredHinge is max(0, 1 - y·f(x))².
	SquaredHinge Loss = "squared_hinge"
)

// predictParallelThreshold is the number of rows above which
// DecisionFunction splits the work across CPUs.
const predictParallelThreshold = 2048

// LinearSVC implements an L2-regularized linear support vector classifier
// for binary labels {0, 1}, trained by dual coordinate descent with
// shrinking (the liblinear solver behind scikit-learn's LinearSVC).
//
// The intercept is learnt as the weight of an extra constant feature equal
// to interceptScaling, so it is regularized like the other weights.
type LinearSVC struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	C                float64 // Inverse regularization strength
	loss             Loss    // Hinge or SquaredHinge
	fitIntercept     bool    // Whether to fit intercept
	interceptScaling float64 // Value of the synthetic bias feature
	maxIter          int     // Maximum passes over the data
	tol              float64 // Stopping tolerance on the projected gradient
	randomState      uint64  // Seed for the coordinate permutation

	// Model parameters
	coef_      []float64
	intercept_ float64
	classes_   []int
	nIter_     int
	converged_ bool
}

// LinearSVCOption is a functional option for LinearSVC
type LinearSVCOption func(*LinearSVC)

// NewLinearSVC creates a new LinearSVC with scikit-learn defaults
// except for loss, which defaults to hinge.
//
// Example:
//
//	clf := svm.NewLinearSVC(svm.WithC(1.0), svm.WithRandomState(1))
//	err := clf.Fit(XTrain, yTrain)
//	yPred, err := clf.Predict(XTest)
func NewLinearSVC(opts ...LinearSVCOption) *LinearSVC {
	svc := &LinearSVC{
		state:            model.NewStateManager(),
		C:                1.0,
		loss:             Hinge,
		fitIntercept:     true,
		interceptScaling: 1.0,
		maxIter:          1000,
		tol:              1e-4,
		randomState:      0,
	}

	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithC sets the inverse regularization strength
func WithC(c float64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.C = c
	}
}

// WithLoss sets the loss function
func WithLoss(loss Loss) LinearSVCOption {
	return func(s *LinearSVC) {
		s.loss = loss
	}
}

// WithFitIntercept sets whether to fit an intercept
func WithFitIntercept(fit bool) LinearSVCOption {
	return func(s *LinearSVC) {
		s.fitIntercept = fit
	}
}

// WithInterceptScaling sets the value of the synthetic bias feature
func WithInterceptScaling(scaling float64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.interceptScaling = scaling
	}
}

// WithMaxIter sets the maximum number of passes
func WithMaxIter(maxIter int) LinearSVCOption {
	return func(s *LinearSVC) {
		s.maxIter = maxIter
	}
}

// WithTol sets the stopping tolerance
func WithTol(tol float64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.tol = tol
	}
}

// WithRandomState sets the seed of the coordinate permutation
func WithRandomState(seed uint64) LinearSVCOption {
	return func(s *LinearSVC) {
		s.randomState = seed
	}
}

func (s *LinearSVC) validateParams() error {
	if !(s.C > 0) || math.IsInf(s.C, 0) {
		return errors.NewValidationError("C", "must be a positive finite number", s.C)
	}
	if s.loss != Hinge && s.loss != SquaredHinge {
		return errors.NewValidationError("loss", "must be hinge or squared_hinge", s.loss)
	}
	if s.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", s.maxIter)
	}
	if !(s.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", s.tol)
	}
	if s.fitIntercept && !(s.interceptScaling > 0) {
		return errors.NewValidationError("intercept_scaling", "must be positive", s.interceptScaling)
	}
	return nil
}

// Fit trains the classifier. y must be an n×1 column of 0/1 labels
// containing both classes.
func (s *LinearSVC) Fit(X, y mat.Matrix) error {
	if err := s.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LinearSVC.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("LinearSVC.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LinearSVC.Fit", fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	signs := make([]float64, nSamples)
	var nPos int
	for i := 0; i < nSamples; i++ {
		switch y.At(i, 0) {
		case 1:
			signs[i] = 1
			nPos++
		case 0:
			signs[i] = -1
		default:
			return errors.Wrapf(errors.ErrNonBinaryLabel, "LinearSVC.Fit: sample %d has label %v", i, y.At(i, 0))
		}
	}
	if nPos == 0 || nPos == nSamples {
		return errors.NewValueError("LinearSVC.Fit", "this solver needs samples of at least 2 classes in the data")
	}

	// Augmented rows: [x_i, interceptScaling]
	width := nFeatures
	if s.fitIntercept {
		width++
	}
	rows := make([][]float64, nSamples)
	for i := range rows {
		row := make([]float64, width)
		mat.Row(row[:nFeatures], i, X)
		if s.fitIntercept {
			row[nFeatures] = s.interceptScaling
		}
		if err := errors.CheckNumericalStability("LinearSVC.Fit", row, 0); err != nil {
			return errors.Wrapf(err, "sample %d", i)
		}
		rows[i] = row
	}

	w, nIter, converged, err := s.solveDual(rows, signs, width)
	if err != nil {
		return err
	}

	s.coef_ = w[:nFeatures]
	s.intercept_ = 0
	if s.fitIntercept {
		s.intercept_ = w[nFeatures] * s.interceptScaling
	}
	s.classes_ = []int{0, 1}
	s.nIter_ = nIter
	s.converged_ = converged

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LinearSVC", nIter,
			"liblinear failed to converge, increase the number of iterations"))
	}

	log.GetLoggerWithName("svm").Debug("LinearSVC fitted",
		log.ModelNameKey, "LinearSVC",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, nIter,
		log.ConvergedKey, converged,
	)

	s.state.SetFitted(nFeatures, nSamples)
	return nil
}

// solveDual runs dual coordinate descent for
//
//	min_α ½ αᵀQα − eᵀα,  0 ≤ α_i ≤ U,  Q_ij = y_i y_j x_iᵀx_j + D_ii δ_ij
//
// with U = C, D_ii = 0 for hinge and U = ∞, D_ii = 1/(2C) for squared hinge.
// w = Σ α_i y_i x_i is maintained incrementally.
func (s *LinearSVC) solveDual(rows [][]float64, signs []float64, width int) ([]float64, int, bool, error) {
	l := len(rows)

	diag, upper := 0.0, s.C
	if s.loss == SquaredHinge {
		diag, upper = 0.5/s.C, math.Inf(1)
	}

	w := make([]float64, width)
	alpha := make([]float64, l)
	qd := make([]float64, l)
	index := make([]int, l)
	for i, row := range rows {
		qd[i] = diag + floats.Dot(row, row)
		index[i] = i
	}

	rng := rand.New(rand.NewPCG(s.randomState, s.randomState))

	activeSize := l
	pgMaxOld, pgMinOld := math.Inf(1), math.Inf(-1)
	iter := 0
	for iter < s.maxIter {
		pgMaxNew, pgMinNew := math.Inf(-1), math.Inf(1)

		for i := 0; i < activeSize; i++ {
			j := i + rng.IntN(activeSize-i)
			index[i], index[j] = index[j], index[i]
		}

		for k := 0; k < activeSize; k++ {
			i := index[k]
			yi := signs[i]

			g := yi*floats.Dot(w, rows[i]) - 1 + alpha[i]*diag

			pg := 0.0
			switch {
			case alpha[i] == 0:
				if g > pgMaxOld {
					activeSize--
					index[k], index[activeSize] = index[activeSize], index[k]
					k--
					continue
				}
				if g < 0 {
					pg = g
				}
			case alpha[i] == upper:
				if g < pgMinOld {
					activeSize--
					index[k], index[activeSize] = index[activeSize], index[k]
					k--
					continue
				}
				if g > 0 {
					pg = g
				}
			default:
				pg = g
			}

			pgMaxNew = math.Max(pgMaxNew, pg)
			pgMinNew = math.Min(pgMinNew, pg)

			if math.Abs(pg) > 1e-12 && qd[i] > 0 {
				alphaOld := alpha[i]
				alpha[i] = math.Min(math.Max(alpha[i]-g/qd[i], 0), upper)
				floats.AddScaled(w, (alpha[i]-alphaOld)*yi, rows[i])
			}
		}

		iter++

		if pgMaxNew-pgMinNew <= s.tol {
			if activeSize == l {
				break
			}
			// Unshrink and verify on the full set
			activeSize = l
			pgMaxOld, pgMinOld = math.Inf(1), math.Inf(-1)
			continue
		}

		pgMaxOld, pgMinOld = pgMaxNew, pgMinNew
		if pgMaxOld <= 0 {
			pgMaxOld = math.Inf(1)
		}
		if pgMinOld >= 0 {
			pgMinOld = math.Inf(-1)
		}
	}

	if err := errors.CheckNumericalStability("dual_coordinate_descent", w, iter); err != nil {
		return nil, iter, false, err
	}
	return w, iter, iter < s.maxIter, nil
}

// DecisionFunction returns w·x + b for every row of X as an n×1 matrix.
func (s *LinearSVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("LinearSVC", "DecisionFunction"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := s.state.RequireFeatures("LinearSVC.DecisionFunction", c); err != nil {
		return nil, err
	}

	scores := make([]float64, r)
	parallel.ParallelizeWithThreshold(r, predictParallelThreshold, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			scores[i] = floats.Dot(s.coef_, row) + s.intercept_
		}
	})
	return mat.NewDense(r, 1, scores), nil
}

// Predict returns 1 where the decision function is positive and 0 otherwise.
func (s *LinearSVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, _ := scores.Dims()
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		if scores.At(i, 0) > 0 {
			pred.Set(i, 0, 1)
		}
	}
	return pred, nil
}

// Weights returns a copy of the learned coefficients.
func (s *LinearSVC) Weights() []float64 {
	return append([]float64(nil), s.coef_...)
}

// Intercept returns the learned intercept.
func (s *LinearSVC) Intercept() float64 {
	return s.intercept_
}

// Classes returns the labels seen during fitting.
func (s *LinearSVC) Classes() []int {
	return s.classes_
}

// NIter returns the number of passes run by the last Fit.
func (s *LinearSVC) NIter() int {
	return s.nIter_
}

// Converged reports whether the last Fit met the tolerance before max_iter.
func (s *LinearSVC) Converged() bool {
	return s.converged_
}

// IsFitted reports whether Fit has completed.
func (s *LinearSVC) IsFitted() bool {
	return s.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (s *LinearSVC) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":                 s.C,
		"loss":              string(s.loss),
		"fit_intercept":     s.fitIntercept,
		"intercept_scaling": s.interceptScaling,
		"max_iter":          s.maxIter,
		"tol":               s.tol,
		"random_state":      s.randomState,
	}
}

// ExportWeights returns the fitted parameters as ModelWeights.
func (s *LinearSVC) ExportWeights() (*model.ModelWeights, error) {
	if err := s.state.RequireFitted("LinearSVC", "ExportWeights"); err != nil {
		return nil, err
	}
	return &model.ModelWeights{
		ModelType:       "LinearSVC",
		Version:         model.WeightsVersion,
		Coefficients:    s.Weights(),
		Intercept:       s.intercept_,
		Hyperparameters: s.GetParams(),
		Metadata: map[string]interface{}{
			"n_iter":    s.nIter_,
			"converged": s.converged_,
		},
		IsFitted: true,
	}, nil
}

// String returns a short description of the classifier.
func (s *LinearSVC) String() string {
	return fmt.Sprintf("LinearSVC(C=%g, loss=%s, max_iter=%d, tol=%g)", s.C, s.loss, s.maxIter, s.tol)
}

var (
	_ model.Classifier          = (*LinearSVC)(nil)
	_ model.LinearModel         = (*LinearSVC)(nil)
	_ model.WeightExporter      = (*LinearSVC)(nil)
	_ model.ConvergenceReporter = (*LinearSVC)(nil)
)
