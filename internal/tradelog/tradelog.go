// Package tradelog holds the per-day profit log and the parse-and-clamp steps
// that turn raw user input into well-formed daily results.
package tradelog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// DailyResult is the net profit of one trading day. Day is 1-based.
type DailyResult struct {
	Day    int     `json:"day" yaml:"day"`
	Profit float64 `json:"profit" yaml:"profit"`
}

// Log is an ordered sequence of daily results. Methods never modify the
// receiver; they return a new Log.
type Log []DailyResult

// New returns a log of n zero-profit days.
func New(n int) (Log, error) {
	if err := checkDayCount(n); err != nil {
		return nil, err
	}
	return Log(nil).resize(n), nil
}

// Reset returns the default log.
func Reset() Log {
	return Log(nil).resize(constants.DefaultDayCount)
}

// FromProfits builds a log from already parsed profits. Non-finite values
// become zero and anything beyond the maximum day count is dropped.
func FromProfits(profits []float64) Log {
	if len(profits) > constants.MaxDayCount {
		profits = profits[:constants.MaxDayCount]
	}
	log := make(Log, len(profits))
	for i, profit := range profits {
		log[i] = DailyResult{Day: i + 1, Profit: mathutil.Finite(profit)}
	}
	return log
}

// Parse builds a log from raw text entries, coercing invalid entries to zero.
func Parse(raw []string) Log {
	profits := make([]float64, len(raw))
	for i, value := range raw {
		profits[i] = ParseProfit(value)
	}
	return FromProfits(profits)
}

// Resize returns a log of n days. Existing profits are kept by index, new days
// start at zero and days past n are dropped.
func (l Log) Resize(n int) (Log, error) {
	if err := checkDayCount(n); err != nil {
		return nil, err
	}
	return l.resize(n), nil
}

func (l Log) resize(n int) Log {
	resized := make(Log, n)
	for i := range resized {
		resized[i].Day = i + 1
		if i < len(l) {
			resized[i].Profit = l[i].Profit
		}
	}
	return resized
}

// WithProfit returns a copy of the log with the profit of the given day replaced.
func (l Log) WithProfit(day int, profit float64) (Log, error) {
	if day < 1 || day > len(l) {
		return nil, fmt.Errorf("day %d is outside the log of %d days", day, len(l))
	}
	updated := l.Clone()
	updated[day-1].Profit = mathutil.Finite(profit)
	return updated, nil
}

// Clone returns an independent copy of the log.
func (l Log) Clone() Log {
	if l == nil {
		return nil
	}
	return append(Log(nil), l...)
}

// Profits returns the profit of every day in order.
func (l Log) Profits() []float64 {
	profits := make([]float64, len(l))
	for i, day := range l {
		profits[i] = day.Profit
	}
	return profits
}

// ParseProfit converts a raw entry to a profit rounded to the cent. Empty,
// non-numeric or out of range entries are treated as zero.
func ParseProfit(raw string) float64 {
	amount, err := decimal.NewFromString(cleanProfit(raw))
	if err != nil {
		return 0
	}
	return mathutil.Finite(amount.Round(2).InexactFloat64())
}

// IsNumeric reports whether a raw entry reads as a number once currency
// symbols and separators are removed. Blank entries are not numeric.
func IsNumeric(raw string) bool {
	_, err := decimal.NewFromString(cleanProfit(raw))
	return err == nil
}

func cleanProfit(raw string) string {
	return profitReplacer.Replace(strings.TrimSpace(raw))
}

var profitReplacer = strings.NewReplacer(",", "", "$", "", " ", "")

// ParseDayCount accepts a day count between 1 and 100. Anything else is
// rejected so the caller keeps its previous value.
func ParseDayCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid day count %q: %w", raw, err)
	}
	if err := checkDayCount(n); err != nil {
		return 0, err
	}
	return n, nil
}

// ClampPlannedDays limits a planning horizon to 3..30 days.
func ClampPlannedDays(n int) int {
	return mathutil.ClampInt(n, constants.MinPlannedDays, constants.MaxPlannedDays)
}

func checkDayCount(n int) error {
	if n < constants.MinDayCount || n > constants.MaxDayCount {
		return fmt.Errorf("day count %d outside %d..%d", n, constants.MinDayCount, constants.MaxDayCount)
	}
	return nil
}
