package errors

import "math"

// maxReportedValues bounds the offending values kept on a
// NumericalInstabilityError.
const maxReportedValues = 10

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckNumericalStability returns a NumericalInstabilityError when any of
// values is NaN or ±Inf. iteration is the solver pass, 0 outside solvers.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckMatrix scans a rows x cols matrix for NaN or ±Inf and reports up to
// ten offending values.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	var bad []float64
	for i := 0; i < rows && len(bad) < maxReportedValues; i++ {
		for j := 0; j < cols && len(bad) < maxReportedValues; j++ {
			if v := matrix.At(i, j); !finite(v) {
				bad = append(bad, v)
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, 0)
	}
	return nil
}
