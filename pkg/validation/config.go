// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
)

// ValidateProgram checks that the program exists and is sold at the given
// account size. A zero size selects the program's smallest tier.
func ValidateProgram(program string, accountSize float64) error {
	parsed, err := rules.ParseProgram(program)
	if err != nil {
		return err
	}
	_, err = rules.Lookup(parsed, accountSize)
	return err
}

// ValidateDays reports entries that cannot be read as a profit and will be
// treated as zero, and logs longer than the maximum day count.
func ValidateDays(accountName string, days []string) []string {
	var warnings []string

	if len(days) > constants.MaxDayCount {
		warnings = append(warnings, fmt.Sprintf("Account '%s' has %d days, only the first %d are evaluated",
			accountName, len(days), constants.MaxDayCount))
	}

	for i, raw := range days {
		if i >= constants.MaxDayCount {
			break
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if !tradelog.IsNumeric(raw) {
			warnings = append(warnings, fmt.Sprintf("Account '%s' day %d value %q is not a number and counts as 0",
				accountName, i+1, raw))
		}
	}

	return warnings
}

// ValidatePlannedDays reports a planning horizon that will be clamped. Zero
// means unset and is accepted.
func ValidatePlannedDays(accountName string, plannedDays int) string {
	if plannedDays == 0 {
		return ""
	}
	if plannedDays < constants.MinPlannedDays || plannedDays > constants.MaxPlannedDays {
		return fmt.Sprintf("Account '%s' planned days %d outside %d..%d and will be clamped",
			accountName, plannedDays, constants.MinPlannedDays, constants.MaxPlannedDays)
	}
	return ""
}

// ConfigValidator checks a whole set of accounts.
type ConfigValidator struct {
	Accounts []AccountConfig
}

// AccountConfig is the subset of an account the validator looks at.
type AccountConfig struct {
	Name         string
	Active       bool
	Program      string
	AccountSize  float64
	TargetPayout float64
	PlannedDays  int
	Days         []string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	if len(cv.Accounts) == 0 {
		return []string{"No accounts configured"}
	}

	active := 0
	seen := make(map[string]bool)
	for i, account := range cv.Accounts {
		name := strings.TrimSpace(account.Name)
		if name == "" {
			name = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("Account %s has no name", name))
		} else if seen[strings.ToLower(name)] {
			warnings = append(warnings, fmt.Sprintf("Account '%s' is configured more than once", name))
		}
		seen[strings.ToLower(name)] = true

		if !account.Active {
			continue
		}
		active++

		if err := ValidateProgram(account.Program, account.AccountSize); err != nil {
			warnings = append(warnings, fmt.Sprintf("Account '%s' is skipped: %v", name, err))
			continue
		}
		if account.TargetPayout < 0 {
			warnings = append(warnings, fmt.Sprintf("Account '%s' target payout %.2f is negative, the default is used",
				name, account.TargetPayout))
		}
		if w := ValidatePlannedDays(name, account.PlannedDays); w != "" {
			warnings = append(warnings, w)
		}
		warnings = append(warnings, ValidateDays(name, account.Days)...)
	}

	if active == 0 {
		warnings = append(warnings, "No active accounts configured")
	}

	return warnings
}
