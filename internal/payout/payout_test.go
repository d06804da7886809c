package payout

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/consistency-planner/internal/consistency"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
)

func mustProfile(t *testing.T, program rules.Program, size float64) rules.Profile {
	t.Helper()
	profile, err := rules.Lookup(program, size)
	if err != nil {
		t.Fatalf("rules.Lookup(%q, %v) error = %v", program, size, err)
	}
	return profile
}

func evaluate(profits []float64, profile rules.Profile) (consistency.Result, Eligibility) {
	log := tradelog.FromProfits(profits)
	rule := consistency.Evaluate(log, profile.ConsistencyPercent)
	return rule, Evaluate(log, rule, profile)
}

func TestEvaluateEligibility(t *testing.T) {
	promo := mustProfile(t, rules.ProgramPromo15, 1000)
	pro := mustProfile(t, rules.ProgramPro20, 1000)

	tests := []struct {
		name            string
		profile         rules.Profile
		profits         []float64
		eligible        bool
		validDays       int
		profitGap       float64
		dayGap          int
		potentialPayout float64
	}{
		{
			name:     "Consistent and above minimum",
			profile:  promo,
			profits:  []float64{6, 6, 6, 6, 6, 6, 6, 6},
			eligible: true, validDays: 8, potentialPayout: 48 * 0.8,
		},
		{
			name:     "Breached rule blocks payout",
			profile:  promo,
			profits:  []float64{50, 30, 20, 10, 5},
			eligible: false, validDays: 5,
		},
		{
			name:     "Consistent but below minimum profit",
			profile:  pro,
			profits:  []float64{5, 5, 5, 5, 5},
			eligible: false, validDays: 5, profitGap: 10,
		},
		{
			name:     "Not enough valid days",
			profile:  mustProfile(t, rules.ProgramPro20, 10000),
			profits:  []float64{10, 10, 10, 10, 10, 10},
			eligible: false, validDays: 0, profitGap: 0, dayGap: 5,
		},
		{
			name:     "All losses",
			profile:  promo,
			profits:  []float64{-10, -5},
			eligible: false, validDays: 0, profitGap: 50, dayGap: 3,
		},
		{
			name:     "Valid day threshold is inclusive",
			profile:  promo,
			profits:  []float64{5, 5, 5, 4.99, 5, 5, 5, 5},
			eligible: true, validDays: 7, potentialPayout: 39.99 * 0.8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, elig := evaluate(tt.profits, tt.profile)

			if elig.Eligible != tt.eligible {
				t.Errorf("Eligible = %v, expected %v (reasons %v)", elig.Eligible, tt.eligible, elig.Reasons)
			}
			if elig.ValidTradingDays != tt.validDays {
				t.Errorf("ValidTradingDays = %d, expected %d", elig.ValidTradingDays, tt.validDays)
			}
			if math.Abs(elig.Shortfalls.Profit-tt.profitGap) > 1e-9 {
				t.Errorf("profit shortfall = %v, expected %v", elig.Shortfalls.Profit, tt.profitGap)
			}
			if elig.Shortfalls.Days != tt.dayGap {
				t.Errorf("day shortfall = %d, expected %d", elig.Shortfalls.Days, tt.dayGap)
			}
			if math.Abs(elig.PotentialPayout-tt.potentialPayout) > 1e-9 {
				t.Errorf("PotentialPayout = %v, expected %v", elig.PotentialPayout, tt.potentialPayout)
			}

			if elig.Eligible {
				if !rule.Passed() || rule.TotalNetProfit < 35 || elig.ValidTradingDays < tt.profile.MinTradingDays {
					t.Errorf("eligible without meeting every requirement: %+v", elig)
				}
				if elig.PotentialPayout != rule.TotalNetProfit*0.8 {
					t.Errorf("PotentialPayout = %v, expected exactly total x 0.8", elig.PotentialPayout)
				}
				if len(elig.Reasons) != 0 {
					t.Errorf("eligible result should not carry reasons: %v", elig.Reasons)
				}
			} else {
				if elig.PotentialPayout != 0 || elig.WithdrawablePayout != 0 {
					t.Errorf("ineligible result must not pay out: %+v", elig)
				}
				if len(elig.Reasons) == 0 {
					t.Errorf("ineligible result should explain why")
				}
			}
		})
	}
}

func TestEligibilityFixedMinimumBoundary(t *testing.T) {
	// 7 days of 5 is exactly the 35 minimum with 14.3% consistency.
	_, elig := evaluate([]float64{5, 5, 5, 5, 5, 5, 5}, mustProfile(t, rules.ProgramPromo15, 1000))
	if !elig.Eligible {
		t.Fatalf("expected eligibility at exactly the minimum, reasons %v", elig.Reasons)
	}
	if elig.Shortfalls.Profit != 0 {
		t.Errorf("profit shortfall = %v, expected 0", elig.Shortfalls.Profit)
	}
}

func TestBestDayAtThresholdIsEligible(t *testing.T) {
	goat := mustProfile(t, rules.ProgramGoat15, 1000)

	rule, elig := evaluate([]float64{150.3, 150.3, 150.3, 150.3, 150.3, 150.3, 100.2}, goat)
	if !rule.Passed() || !elig.ConsistencyPassed {
		t.Fatalf("expected the 15%% rule to pass at exactly 15%%, got %s", rule.Status)
	}
	if !elig.Eligible {
		t.Fatalf("expected eligibility, reasons %v", elig.Reasons)
	}
	if elig.ValidTradingDays != 7 {
		t.Errorf("ValidTradingDays = %d, expected 7", elig.ValidTradingDays)
	}
	if elig.Shortfalls.Consistency != 0 {
		t.Errorf("consistency shortfall = %v, expected 0", elig.Shortfalls.Consistency)
	}
	if math.Abs(elig.PotentialPayout-801.6) > 1e-9 {
		t.Errorf("PotentialPayout = %v, expected 801.6", elig.PotentialPayout)
	}

	// Passing the rule alone does not unlock a payout below the minimum.
	rule, elig = evaluate([]float64{2.7, 2.7, 2.7, 2.7, 2.7, 2.7, 1.8}, goat)
	if !elig.ConsistencyPassed {
		t.Errorf("expected the rule to pass at exactly 15%%, got %s", rule.Status)
	}
	if elig.Eligible {
		t.Errorf("expected no eligibility below the minimum withdrawal")
	}
	if math.Abs(elig.Shortfalls.Profit-17) > 1e-9 {
		t.Errorf("profit shortfall = %v, expected 17", elig.Shortfalls.Profit)
	}
}

func TestConsistencyShortfall(t *testing.T) {
	_, elig := evaluate([]float64{50, 30, 20, 10, 5}, mustProfile(t, rules.ProgramPromo15, 1000))
	if math.Abs(elig.Shortfalls.Consistency-218.33) > 0.01 {
		t.Errorf("consistency shortfall = %v, expected about 218.33", elig.Shortfalls.Consistency)
	}
	if !strings.Contains(strings.Join(elig.Reasons, ";"), "43.5%") {
		t.Errorf("expected breach reason with percentage, got %v", elig.Reasons)
	}
}

func TestWithdrawableCap(t *testing.T) {
	promo := mustProfile(t, rules.ProgramPromo15, 1000)
	goat := mustProfile(t, rules.ProgramGoat15, 5000)

	if got := Withdrawable(150, promo); got != 80 {
		t.Errorf("promo Withdrawable(150) = %v, expected 80", got)
	}
	if got := Withdrawable(50, promo); got != 40 {
		t.Errorf("promo Withdrawable(50) = %v, expected 40", got)
	}
	if got := Withdrawable(150, goat); got != 120 {
		t.Errorf("goat Withdrawable(150) = %v, expected 120", got)
	}
	if got := Withdrawable(-5, goat); got != 0 {
		t.Errorf("Withdrawable(-5) = %v, expected 0", got)
	}
}

func TestCountValidDays(t *testing.T) {
	log := tradelog.FromProfits([]float64{250, 249.99, -300, 500, 0})
	if got := CountValidDays(log, 250); got != 2 {
		t.Errorf("CountValidDays() = %d, expected 2", got)
	}
}
