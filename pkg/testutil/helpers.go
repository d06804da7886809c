// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/consistency-planner/internal/analysis"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
)

// FindReport finds a report by account name in the results slice.
// Returns a pointer to the report if found, nil otherwise.
func FindReport(results []analysis.Report, name string) *analysis.Report {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// Log builds a trade log from profits, one day per value.
func Log(profits ...float64) tradelog.Log {
	return tradelog.FromProfits(profits)
}
