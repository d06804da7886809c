// Package roadmap suggests how much to make per day to reach a withdrawal
// without breaching the consistency rule again. It only reports suggestions
// and never changes the evaluated data.
package roadmap

import (
	"github.com/iwvelando/consistency-planner/internal/consistency"
	"github.com/iwvelando/consistency-planner/internal/payout"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
)

// Goals are the trader's own targets for the next withdrawal.
type Goals struct {
	TargetPayout float64 `json:"targetPayout" yaml:"targetPayout"`
	PlannedDays  int     `json:"plannedDays" yaml:"plannedDays"`
}

// DefaultGoals returns the goals used when none are supplied.
func DefaultGoals() Goals {
	return Goals{
		TargetPayout: constants.DefaultTargetPayout,
		PlannedDays:  constants.DefaultPlannedDays,
	}
}

// Pace names a pacing scenario.
type Pace string

const (
	PaceFastest  Pace = "fastest"
	PaceBalanced Pace = "balanced"
	PaceSafe     Pace = "safe"
)

// Scenario is one alternative pace towards the goal.
type Scenario struct {
	Pace            Pace    `json:"pace"`
	Label           string  `json:"label"`
	DailyRate       float64 `json:"dailyRate"`
	DaysNeeded      int     `json:"daysNeeded"`
	ProjectedTotal  float64 `json:"projectedTotal"`
	ProjectedPayout float64 `json:"projectedPayout"`
	Risky           bool    `json:"risky"`
	Available       bool    `json:"available"`
}

// DayTarget is the suggested profit for one upcoming trading day.
type DayTarget struct {
	Day        int     `json:"day"`
	Target     float64 `json:"target"`
	Cumulative float64 `json:"cumulative"`
}

// Plan is the suggested path to a withdrawal. Required is false when the
// trader is already eligible and nothing needs planning.
type Plan struct {
	Required             bool        `json:"required"`
	Goal                 float64     `json:"goal"`
	TargetForConsistency float64     `json:"targetForConsistency"`
	TargetForPayout      float64     `json:"targetForPayout"`
	AmountNeeded         float64     `json:"amountNeeded"`
	DaysMissing          int         `json:"daysMissing"`
	Horizon              int         `json:"horizon"`
	DailyTarget          float64     `json:"dailyTarget"`
	RiskLimit            float64     `json:"riskLimit"`
	Risky                bool        `json:"risky"`
	Targets              []DayTarget `json:"targets,omitempty"`
	ProjectedTotal       float64     `json:"projectedTotal"`
	ProjectedPayout      float64     `json:"projectedPayout"`
	Scenarios            []Scenario  `json:"scenarios,omitempty"`
}

// Generate builds a plan for an evaluated log.
//
// The goal is the largest of the minimum withdrawal, the total that dilutes
// the current best day under the rule, and the total that yields the desired
// payout. The amount still needed is spread over the longer of the missing
// valid days and the chosen horizon.
func Generate(log tradelog.Log, rule consistency.Result, elig payout.Eligibility, profile rules.Profile, goals Goals) Plan {
	if elig.Eligible {
		return Plan{}
	}

	total := rule.TotalNetProfit
	highest := rule.HighestDayProfit

	plan := Plan{
		Required:             true,
		TargetForConsistency: rule.RequiredTotalProfit,
		DaysMissing:          elig.Shortfalls.Days,
	}
	if profile.ProfitSplit > 0 && goals.TargetPayout > 0 {
		plan.TargetForPayout = goals.TargetPayout / profile.ProfitSplit
	}
	plan.Goal = mathutil.Max(profile.MinWithdrawal, mathutil.Max(plan.TargetForConsistency, plan.TargetForPayout))
	plan.AmountNeeded = mathutil.Shortfall(plan.Goal, total)

	plannedDays := tradelog.ClampPlannedDays(goals.PlannedDays)
	plan.Horizon = plannedDays
	if plan.DaysMissing > plan.Horizon {
		plan.Horizon = plan.DaysMissing
	}

	if plan.AmountNeeded > 0 {
		plan.DailyTarget = mathutil.RoundUp(plan.AmountNeeded / float64(plan.Horizon))
	}
	if highest > 0 {
		plan.RiskLimit = highest * constants.RiskFactor
	}
	plan.Risky = isRisky(plan.DailyTarget, highest, plan.AmountNeeded)

	plan.Targets = dailyTargets(len(log), total, plan.Horizon, mathutil.Max(profile.ValidDayThreshold(), plan.DailyTarget))
	plan.ProjectedTotal = mathutil.Max(plan.Goal, total)
	plan.ProjectedPayout = payout.Withdrawable(plan.ProjectedTotal, profile)
	plan.Scenarios = scenarios(total, highest, plan.AmountNeeded, profile)

	return plan
}

func dailyTargets(loggedDays int, total float64, horizon int, target float64) []DayTarget {
	targets := make([]DayTarget, horizon)
	cumulative := total
	for i := range targets {
		cumulative += target
		targets[i] = DayTarget{
			Day:        loggedDays + i + 1,
			Target:     target,
			Cumulative: cumulative,
		}
	}
	return targets
}

func scenarios(total, highest, amountNeeded float64, profile rules.Profile) []Scenario {
	paces := []Scenario{
		{Pace: PaceFastest, Label: "Fastest Path", DailyRate: highest * constants.FastestPaceFactor},
		{Pace: PaceBalanced, Label: "Balanced Path", DailyRate: highest * constants.BalancedPaceFactor},
		{Pace: PaceSafe, Label: "Safe Path", DailyRate: mathutil.Max(constants.SafePaceFloor, profile.ValidDayThreshold())},
	}

	for i := range paces {
		s := &paces[i]
		days := mathutil.CeilDiv(amountNeeded, s.DailyRate)
		if days < 0 {
			s.DailyRate = 0
			continue
		}
		s.Available = true
		s.DaysNeeded = days
		s.ProjectedTotal = total + float64(days)*s.DailyRate
		s.ProjectedPayout = payout.Withdrawable(s.ProjectedTotal, profile)
		s.Risky = isRisky(s.DailyRate, highest, amountNeeded)
	}
	return paces
}

// isRisky flags a daily amount close enough to the current best day that
// exceeding it would set a new, larger best day and widen the gap again.
func isRisky(daily, highest, amountNeeded float64) bool {
	return highest > 0 && amountNeeded > 0 && daily > highest*constants.RiskFactor
}
