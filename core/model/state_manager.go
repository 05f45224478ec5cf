package model

import (
	"sync"

	"github.com/mrinference/mlcv/pkg/errors"
)

// ModelState is a snapshot of a StateManager.
type ModelState struct {
	Fitted    bool `json:"fitted"`
	NFeatures int  `json:"n_features,omitempty"`
	NSamples  int  `json:"n_samples,omitempty"`
}

// StateManager tracks whether an estimator has been fitted and on what
// shape. It is safe for concurrent use.
type StateManager struct {
	mu    sync.RWMutex
	state ModelState
}

func NewStateManager() *StateManager {
	return &StateManager{}
}

func (s *StateManager) IsFitted() bool {
	return s.GetState().Fitted
}

// SetFitted records a successful Fit on an nSamples x nFeatures matrix.
func (s *StateManager) SetFitted(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = ModelState{Fitted: true, NFeatures: nFeatures, NSamples: nSamples}
}

func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = ModelState{}
}

func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	st := s.GetState()
	return st.NFeatures, st.NSamples
}

func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RequireFitted returns a NotFittedError naming modelName.method when Fit
// has not succeeded yet.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if s.IsFitted() {
		return nil
	}
	return errors.NewNotFittedError(modelName, method)
}

// RequireFeatures returns a DimensionError unless got matches the fitted
// feature count.
func (s *StateManager) RequireFeatures(op string, got int) error {
	if want, _ := s.GetDimensions(); got != want {
		return errors.NewDimensionError(op, want, got, 1)
	}
	return nil
}
