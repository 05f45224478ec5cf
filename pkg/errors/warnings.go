package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/rs/zerolog"
)

var (
	warnMu      sync.Mutex
	warnHandler = defaultWarnHandler
	// warnSink is installed by pkg/log so that warnings become structured
	// log events without this package importing the logger.
	warnSink func(warning error)
)

func defaultWarnHandler(w error) {
	log.Printf("mlcv-Warning: %v\n", w)
}

// SetWarningHandler replaces the handler used when no structured sink is
// installed. A nil handler drops warnings.
//
//	errors.SetWarningHandler(func(w error) {
//	    collected = append(collected, w)
//	})
func SetWarningHandler(handler func(w error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnHandler = handler
}

// SetZerologWarnFunc installs the structured warning sink. Passing nil
// restores the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	warnSink = warnFunc
}

// Warn reports a non-fatal condition. Handlers run under the package lock,
// so they never observe two warnings at once.
func Warn(w error) {
	warnMu.Lock()
	defer warnMu.Unlock()

	switch {
	case warnSink != nil:
		warnSink(w)
	case warnHandler != nil:
		warnHandler(w)
	}
}

// ConvergenceWarning reports a solver that stopped at its iteration limit.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message == "" {
		return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.",
			w.Algorithm, w.Iterations)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
}

func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ConvergenceWarning").
		Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message)
}

func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// ZeroVarianceWarning lists training features with zero spread. Scalers map
// those features to 0 on every split.
type ZeroVarianceWarning struct {
	Op       string
	Features []int
}

func (w *ZeroVarianceWarning) Error() string {
	return fmt.Sprintf("%s: %d feature(s) have zero variance in the fitted data and will be normalized to 0: %v",
		w.Op, len(w.Features), w.Features)
}

func (w *ZeroVarianceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "ZeroVarianceWarning").
		Str("operation", w.Op).
		Ints("features", w.Features)
}

func NewZeroVarianceWarning(op string, features []int) *ZeroVarianceWarning {
	return &ZeroVarianceWarning{Op: op, Features: features}
}

// UndefinedMetricWarning marks a fold whose metric has a zero denominator,
// e.g. sensitivity on a test split without patients.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Fold      int
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is undefined in fold %d due to %s; it is excluded from the summary.", w.Metric, w.Fold, w.Condition)
}

func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("type", "UndefinedMetricWarning").
		Str("metric", w.Metric).
		Str("condition", w.Condition).
		Int("fold", w.Fold)
}

func NewUndefinedMetricWarning(metric, condition string, fold int) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Fold: fold}
}
