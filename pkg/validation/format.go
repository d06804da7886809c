// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/consistency-planner/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	return oneOf("output format", format,
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON)
}

// ValidateStoreBackend checks the snapshot store backend name. Empty selects
// the file backend and is accepted.
func ValidateStoreBackend(backend string) error {
	if backend == "" {
		return nil
	}
	return oneOf("store backend", backend,
		constants.StoreBackendFile, constants.StoreBackendSQLite, constants.StoreBackendRedis)
}

// oneOf matches exactly; callers normalize case beforehand if they allow it.
func oneOf(kind, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	last := len(allowed) - 1
	return fmt.Errorf("expected %s of %s or %s, got %s",
		kind, strings.Join(allowed[:last], ", "), allowed[last], value)
}
