// Package consistency evaluates the consistency rule: the best single day may
// not exceed a percentage of the net profit over the evaluation window.
package consistency

import (
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Status is the verdict of the consistency rule.
type Status string

const (
	// StatusNotApplicable means the net profit is zero or negative, so the
	// rule has nothing to measure against.
	StatusNotApplicable Status = "not_applicable"

	// StatusPassed means the best day is within the allowed share.
	StatusPassed Status = "passed"

	// StatusBreached means the best day exceeds the allowed share.
	StatusBreached Status = "breached"
)

// Result holds the outcome of a consistency evaluation.
type Result struct {
	TotalNetProfit        float64 `json:"totalNetProfit"`
	HighestDayProfit      float64 `json:"highestDayProfit"`
	HighestDay            int     `json:"highestDay"`
	ConsistencyPercentage float64 `json:"consistencyPercentage"`
	ThresholdPercent      float64 `json:"thresholdPercent"`
	RequiredTotalProfit   float64 `json:"requiredTotalProfit"`
	MaxAllowedDayProfit   float64 `json:"maxAllowedDayProfit"`
	Status                Status  `json:"status"`
}

// Profitable reports whether the net profit is positive.
func (r Result) Profitable() bool {
	return r.TotalNetProfit > 0
}

// Passed reports whether the rule is satisfied.
func (r Result) Passed() bool {
	return r.Status == StatusPassed
}

// Evaluate applies a consistency rule of thresholdPercent (15 for a 15% rule)
// to the log.
func Evaluate(log tradelog.Log, thresholdPercent float64) Result {
	total := TotalNetProfit(log)
	highest, day := HighestDay(log)

	result := Result{
		TotalNetProfit:   total,
		HighestDayProfit: highest,
		HighestDay:       day,
		ThresholdPercent: thresholdPercent,
		Status:           StatusNotApplicable,
	}

	percent := decimal.NewFromFloat(constants.PercentageMultiplier)
	threshold := decimal.NewFromFloat(thresholdPercent)
	if threshold.IsPositive() {
		result.RequiredTotalProfit = decimal.NewFromFloat(highest).Mul(percent).Div(threshold).InexactFloat64()
	}

	if !result.Profitable() {
		return result
	}

	result.MaxAllowedDayProfit = decimal.NewFromFloat(total).Mul(threshold).Div(percent).InexactFloat64()
	result.ConsistencyPercentage = mathutil.CalculatePercentage(highest, total)
	if WithinThreshold(highest, total, thresholdPercent) {
		result.Status = StatusPassed
	} else {
		result.Status = StatusBreached
	}
	return result
}

// WithinThreshold reports whether highest*100 <= thresholdPercent*total,
// compared in decimal so a best day exactly at the limit passes.
func WithinThreshold(highest, total, thresholdPercent float64) bool {
	share := decimal.NewFromFloat(highest).Mul(decimal.NewFromFloat(constants.PercentageMultiplier))
	limit := decimal.NewFromFloat(thresholdPercent).Mul(decimal.NewFromFloat(total))
	return share.LessThanOrEqual(limit)
}

// TotalNetProfit sums every day's profit. Decimal arithmetic keeps the sum
// independent of the order of the days.
func TotalNetProfit(log tradelog.Log) float64 {
	sum := decimal.Zero
	for _, day := range log {
		sum = sum.Add(decimal.NewFromFloat(day.Profit))
	}
	return sum.InexactFloat64()
}

// HighestDay returns the largest single-day profit and its day number. Ties go
// to the earliest day. Without a positive day it returns (0, 0).
func HighestDay(log tradelog.Log) (float64, int) {
	highest := 0.0
	day := 0
	for _, result := range log {
		if result.Profit > highest {
			highest = result.Profit
			day = result.Day
		}
	}
	return highest, day
}
