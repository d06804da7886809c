// Package rules enumerates the funding programs and account tiers a trader can
// pick, and resolves them into the thresholds the evaluator checks against.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwvelando/consistency-planner/pkg/constants"
	"github.com/iwvelando/consistency-planner/pkg/mathutil"
)

// Program identifies a funding program rule variant.
type Program string

const (
	// ProgramPromo15 is the 1K $1 instant account with a 15% rule.
	ProgramPromo15 Program = "15_promo"

	// ProgramGoat15 covers the instant GOAT and Blitz accounts with a 15% rule.
	ProgramGoat15 Program = "15"

	// ProgramPro20 is the instant PRO account with a 20% rule.
	ProgramPro20 Program = "20"
)

// DefaultProgram is selected when no program is configured.
const DefaultProgram = ProgramPromo15

// AccountTiers lists the account sizes the programs are sold in.
var AccountTiers = []float64{1000, 5000, 10000, 25000, 50000, 100000, 200000}

type programTerms struct {
	label              string
	consistencyPercent float64
	minTradingDays     int
	tiers              []float64
	maxWithdrawal      float64
}

var programs = map[Program]programTerms{
	ProgramPromo15: {
		label:              "1K $1 Instant Account (15% Rule)",
		consistencyPercent: 15,
		minTradingDays:     3,
		tiers:              []float64{1000},
		maxWithdrawal:      constants.PromoMaxWithdrawal,
	},
	ProgramGoat15: {
		label:              "Instant GOAT / Blitz (15% Rule)",
		consistencyPercent: 15,
		minTradingDays:     5,
		tiers:              AccountTiers,
	},
	ProgramPro20: {
		label:              "Instant PRO (20% Rule)",
		consistencyPercent: 20,
		minTradingDays:     5,
		tiers:              AccountTiers,
	},
}

// Profile holds the thresholds of one program at one account size.
type Profile struct {
	Program            Program `json:"program" yaml:"program"`
	Label              string  `json:"label" yaml:"label"`
	AccountSize        float64 `json:"accountSize" yaml:"accountSize"`
	ConsistencyPercent float64 `json:"consistencyPercent" yaml:"consistencyPercent"`
	MinTradingDays     int     `json:"minTradingDays" yaml:"minTradingDays"`
	MinWithdrawal      float64 `json:"minWithdrawal" yaml:"minWithdrawal"`
	ProfitSplit        float64 `json:"profitSplit" yaml:"profitSplit"`
	ValidDayPercent    float64 `json:"validDayPercent" yaml:"validDayPercent"`
	MaxWithdrawal      float64 `json:"maxWithdrawal,omitempty" yaml:"maxWithdrawal,omitempty"`
}

// ValidDayThreshold is the profit a day must reach to count as a trading day.
func (p Profile) ValidDayThreshold() float64 {
	return mathutil.ApplyPercentage(p.AccountSize, p.ValidDayPercent)
}

// Capped reports whether the program limits how much profit can be withdrawn.
func (p Profile) Capped() bool {
	return p.MaxWithdrawal > 0
}

// ParseProgram normalizes a program identifier. An empty string selects the
// default program.
func ParseProgram(value string) (Program, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return DefaultProgram, nil
	}
	trimmed = strings.TrimSuffix(trimmed, "%")
	program := Program(trimmed)
	if _, ok := programs[program]; !ok {
		return "", fmt.Errorf("unknown program %q, expected one of %s", value, strings.Join(programNames(), ", "))
	}
	return program, nil
}

// Lookup resolves a program and account size into a Profile. A zero account
// size selects the smallest tier the program is sold in.
func Lookup(program Program, accountSize float64) (Profile, error) {
	terms, ok := programs[program]
	if !ok {
		return Profile{}, fmt.Errorf("unknown program %q", program)
	}

	if accountSize == 0 {
		accountSize = terms.tiers[0]
	}
	if !containsTier(terms.tiers, accountSize) {
		return Profile{}, fmt.Errorf("account size %.0f is not offered for program %q", accountSize, program)
	}

	return Profile{
		Program:            program,
		Label:              terms.label,
		AccountSize:        accountSize,
		ConsistencyPercent: terms.consistencyPercent,
		MinTradingDays:     terms.minTradingDays,
		MinWithdrawal:      constants.MinWithdrawalProfit,
		ProfitSplit:        constants.ProfitSplit,
		ValidDayPercent:    constants.ValidDayPercent,
		MaxWithdrawal:      terms.maxWithdrawal,
	}, nil
}

// Default returns the profile of the default program.
func Default() Profile {
	profile, _ := Lookup(DefaultProgram, 0)
	return profile
}

// Programs lists every program with its smallest tier, ordered by identifier.
func Programs() []Profile {
	names := programNames()
	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		profile, err := Lookup(Program(name), 0)
		if err != nil {
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles
}

// Tiers returns the account sizes offered for a program.
func Tiers(program Program) []float64 {
	terms, ok := programs[program]
	if !ok {
		return nil
	}
	return append([]float64(nil), terms.tiers...)
}

func programNames() []string {
	names := make([]string, 0, len(programs))
	for program := range programs {
		names = append(names, string(program))
	}
	sort.Strings(names)
	return names
}

func containsTier(tiers []float64, size float64) bool {
	for _, tier := range tiers {
		if tier == size {
			return true
		}
	}
	return false
}
