// Package payout decides whether profit can be withdrawn and how much the
// trader would receive.
package payout

import (
	"fmt"

	"github.com/iwvelando/consistency-planner/internal/consistency"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/format"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
)

// Shortfalls are the gaps left before each withdrawal requirement is met.
// Every gap is zero once its requirement holds.
type Shortfalls struct {
	Profit      float64 `json:"profit"`
	Consistency float64 `json:"consistency"`
	Days        int     `json:"days"`
}

// Eligibility is the withdrawal verdict for an evaluated log.
type Eligibility struct {
	ConsistencyPassed  bool       `json:"consistencyPassed"`
	ValidTradingDays   int        `json:"validTradingDays"`
	MinTradingDays     int        `json:"minTradingDays"`
	ValidDayThreshold  float64    `json:"validDayThreshold"`
	MinWithdrawal      float64    `json:"minWithdrawal"`
	Eligible           bool       `json:"eligible"`
	PotentialPayout    float64    `json:"potentialPayout"`
	WithdrawablePayout float64    `json:"withdrawablePayout"`
	Shortfalls         Shortfalls `json:"shortfalls"`
	Reasons            []string   `json:"reasons,omitempty"`
}

// Evaluate checks the withdrawal requirements: the consistency rule passed,
// the net profit reached the minimum withdrawal, and enough days reached the
// valid-day threshold.
func Evaluate(log tradelog.Log, rule consistency.Result, profile rules.Profile) Eligibility {
	threshold := profile.ValidDayThreshold()
	validDays := CountValidDays(log, threshold)
	total := rule.TotalNetProfit

	elig := Eligibility{
		ConsistencyPassed: rule.Passed(),
		ValidTradingDays:  validDays,
		MinTradingDays:    profile.MinTradingDays,
		ValidDayThreshold: threshold,
		MinWithdrawal:     profile.MinWithdrawal,
		Shortfalls: Shortfalls{
			Profit:      mathutil.Shortfall(profile.MinWithdrawal, total),
			Consistency: mathutil.Shortfall(rule.RequiredTotalProfit, total),
			Days:        shortfallDays(profile.MinTradingDays, validDays),
		},
	}

	elig.Eligible = rule.Passed() &&
		total >= profile.MinWithdrawal &&
		validDays >= profile.MinTradingDays

	if elig.Eligible {
		elig.PotentialPayout = total * profile.ProfitSplit
		elig.WithdrawablePayout = Withdrawable(total, profile)
	}
	elig.Reasons = reasons(rule, elig)
	return elig
}

// CountValidDays counts the days whose profit reaches the threshold.
func CountValidDays(log tradelog.Log, threshold float64) int {
	count := 0
	for _, day := range log {
		if day.Profit >= threshold {
			count++
		}
	}
	return count
}

// Withdrawable is the payout for a given profit after the program's
// withdrawal cap, if any, is applied.
func Withdrawable(profit float64, profile rules.Profile) float64 {
	if profit <= 0 {
		return 0
	}
	if profile.Capped() {
		profit = mathutil.Min(profit, profile.MaxWithdrawal)
	}
	return profit * profile.ProfitSplit
}

func shortfallDays(required, actual int) int {
	if actual >= required {
		return 0
	}
	return required - actual
}

func reasons(rule consistency.Result, elig Eligibility) []string {
	if elig.Eligible {
		return nil
	}

	var out []string
	switch rule.Status {
	case consistency.StatusNotApplicable:
		out = append(out, "net profit is not positive, the consistency rule does not apply yet")
	case consistency.StatusBreached:
		out = append(out, fmt.Sprintf("highest day %s is %s of net profit, above the %s limit",
			format.Currency(rule.HighestDayProfit),
			format.Percent(rule.ConsistencyPercentage),
			format.Percent(rule.ThresholdPercent)))
	}
	if elig.Shortfalls.Profit > 0 {
		out = append(out, fmt.Sprintf("minimum profit of %s required (shortfall %s)",
			format.Currency(elig.MinWithdrawal), format.Currency(elig.Shortfalls.Profit)))
	}
	if elig.Shortfalls.Days > 0 {
		out = append(out, fmt.Sprintf("%d more day(s) of at least %s profit required",
			elig.Shortfalls.Days, format.Currency(elig.ValidDayThreshold)))
	}
	return out
}
