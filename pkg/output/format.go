// Package output provides utilities for formatting and displaying account reports.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/iwvelando/consistency-planner/internal/analysis"
	"github.com/iwvelando/consistency-planner/internal/consistency"
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LocalCurrency adds converted amounts next to USD payouts.
type LocalCurrency struct {
	Code   string  `json:"code"`
	Locale string  `json:"locale"`
	Rate   float64 `json:"rate"`
	Live   bool    `json:"live"`
}

func (l *LocalCurrency) amount(usd float64) string {
	if l == nil || l.Rate <= 0 {
		return ""
	}
	return " (" + format.LocalAmount(usd*l.Rate, l.Code, l.Locale) + ")"
}

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	naStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headStyle = lipgloss.NewStyle().Bold(true)
)

func statusLabel(status consistency.Status) string {
	switch status {
	case consistency.StatusPassed:
		return passStyle.Render("PASSED")
	case consistency.StatusBreached:
		return failStyle.Render("BREACHED")
	default:
		return naStyle.Render("NOT APPLICABLE")
	}
}

func eligibleLabel(eligible bool) string {
	if eligible {
		return passStyle.Render("ELIGIBLE")
	}
	return failStyle.Render("NOT ELIGIBLE")
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(results []analysis.Report, local *LocalCurrency) {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		profile := result.Profile
		fmt.Println(headStyle.Render(fmt.Sprintf("--- Results for account %s ---", result.Name)))
		_, _ = p.Printf("Program: %s, account size $%.0f\n", profile.Label, profile.AccountSize)
		fmt.Printf("Day | Profit        | Valid\n")
		fmt.Printf("___ | _____________ | _____\n")
		threshold := result.Eligibility.ValidDayThreshold
		for _, day := range result.Days {
			valid := "no"
			if day.Profit >= threshold {
				valid = "yes"
			}
			_, _ = p.Printf("%-3d | %13s | %s\n", day.Day, format.SignedCurrency(day.Profit), valid)
		}

		rule := result.Consistency
		fmt.Printf("Total net profit:   %s\n", format.Currency(rule.TotalNetProfit))
		if rule.HighestDay > 0 {
			fmt.Printf("Highest day:        %s (day %d)\n", format.Currency(rule.HighestDayProfit), rule.HighestDay)
		} else {
			fmt.Printf("Highest day:        none\n")
		}
		fmt.Printf("Consistency:        %s of %s limit %s\n",
			format.Percent(rule.ConsistencyPercentage), format.Percent(rule.ThresholdPercent), statusLabel(rule.Status))

		elig := result.Eligibility
		fmt.Printf("Valid trading days: %d of %d (at least %s each)\n",
			elig.ValidTradingDays, elig.MinTradingDays, format.Currency(elig.ValidDayThreshold))
		fmt.Printf("Payout:             %s\n", eligibleLabel(elig.Eligible))
		if elig.Eligible {
			fmt.Printf("Potential payout:   %s%s\n", format.Currency(elig.PotentialPayout), local.amount(elig.PotentialPayout))
			if elig.WithdrawablePayout != elig.PotentialPayout {
				fmt.Printf("Withdrawable now:   %s%s\n", format.Currency(elig.WithdrawablePayout), local.amount(elig.WithdrawablePayout))
			}
		}
		for _, reason := range elig.Reasons {
			fmt.Printf("  - %s\n", reason)
		}

		if result.Roadmap.Required {
			printRoadmap(p, result.Roadmap, local)
		}

		if len(results) > 1 && i < len(results)-1 {
			fmt.Printf("\n")
		}
	}
}

func printRoadmap(p *message.Printer, plan roadmap.Plan, local *LocalCurrency) {
	fmt.Println(headStyle.Render("Roadmap"))
	fmt.Printf("Goal:               %s (consistency %s, payout %s)\n",
		format.Currency(plan.Goal), format.Currency(plan.TargetForConsistency), format.Currency(plan.TargetForPayout))
	fmt.Printf("Amount needed:      %s over %d day(s)\n", format.Currency(plan.AmountNeeded), plan.Horizon)
	risk := ""
	if plan.Risky {
		risk = " " + failStyle.Render("RISKY")
	}
	fmt.Printf("Daily target:       %s%s\n", format.Currency(plan.DailyTarget), risk)
	if plan.RiskLimit > 0 {
		fmt.Printf("Stay below:         %s per day\n", format.Currency(plan.RiskLimit))
	}
	fmt.Printf("Day | Target        | Cumulative\n")
	fmt.Printf("___ | _____________ | __________\n")
	for _, target := range plan.Targets {
		_, _ = p.Printf("%-3d | %13s | %s\n", target.Day, format.Currency(target.Target), format.Currency(target.Cumulative))
	}
	fmt.Printf("Projected payout:   %s%s\n", format.Currency(plan.ProjectedPayout), local.amount(plan.ProjectedPayout))
	for _, s := range plan.Scenarios {
		if !s.Available {
			fmt.Printf("  %-8s unavailable\n", s.Pace)
			continue
		}
		flag := ""
		if s.Risky {
			flag = " RISKY"
		}
		fmt.Printf("  %-8s %s/day for %d day(s), payout %s%s\n",
			s.Pace, format.Currency(s.DailyRate), s.DaysNeeded, format.Currency(s.ProjectedPayout), flag)
	}
}

var csvHeader = []string{
	"account", "program", "account size", "total net profit", "highest day profit", "highest day",
	"consistency %", "limit %", "status", "valid days", "min days", "eligible",
	"potential payout", "withdrawable payout", "amount needed", "daily target", "horizon",
}

// CsvString renders one summary row per account in comma-separated value format.
func CsvString(results []analysis.Report) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(csvHeader)
	for _, r := range results {
		_ = w.Write([]string{
			r.Name,
			string(r.Profile.Program),
			money(r.Profile.AccountSize),
			money(r.Consistency.TotalNetProfit),
			money(r.Consistency.HighestDayProfit),
			strconv.Itoa(r.Consistency.HighestDay),
			strconv.FormatFloat(r.Consistency.ConsistencyPercentage, 'f', 2, 64),
			strconv.FormatFloat(r.Consistency.ThresholdPercent, 'f', 0, 64),
			string(r.Consistency.Status),
			strconv.Itoa(r.Eligibility.ValidTradingDays),
			strconv.Itoa(r.Eligibility.MinTradingDays),
			strconv.FormatBool(r.Eligibility.Eligible),
			money(r.Eligibility.PotentialPayout),
			money(r.Eligibility.WithdrawablePayout),
			money(r.Roadmap.AmountNeeded),
			money(r.Roadmap.DailyTarget),
			strconv.Itoa(r.Roadmap.Horizon),
		})
	}
	w.Flush()
	return buf.String()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []analysis.Report) {
	fmt.Print(CsvString(results))
}

// Document is the JSON rendering of a run.
type Document struct {
	Accounts []analysis.Report `json:"accounts"`
	Currency *LocalCurrency    `json:"currency,omitempty"`
}

// JSONFormat outputs the reports as indented JSON.
func JSONFormat(results []analysis.Report, local *LocalCurrency) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Document{Accounts: results, Currency: local}); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	return nil
}
