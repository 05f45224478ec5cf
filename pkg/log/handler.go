package log

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// splitFields separates a leading bare error from the key/value pairs.
// A trailing key without a value is logged under "!BADKEY" like slog does.
func splitFields(fields []any) (error, []any) {
	var lead error
	if len(fields) > 0 {
		if err, ok := fields[0].(error); ok && len(fields)%2 == 1 {
			lead = err
			fields = fields[1:]
		}
	}

	kv := make([]any, 0, len(fields)+1)
	for i := 0; i < len(fields); i += 2 {
		if i+1 >= len(fields) {
			kv = append(kv, "!BADKEY", fields[i])
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprint(fields[i])
		}
		kv = append(kv, key, fields[i+1])
	}
	return lead, kv
}

// extractStacktrace returns the stack recorded by errors.WithStack, if any.
func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
