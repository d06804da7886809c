// Package analysis runs the full evaluation pipeline for one or more accounts:
// the consistency rule, payout eligibility and, when needed, the roadmap.
package analysis

import (
	"fmt"

	"github.com/iwvelando/consistency-planner/internal/config"
	"github.com/iwvelando/consistency-planner/internal/consistency"
	"github.com/iwvelando/consistency-planner/internal/payout"
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/session"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"go.uber.org/zap"
)

// Report holds everything derived from one session.
type Report struct {
	Name        string             `json:"name"`
	Profile     rules.Profile      `json:"profile"`
	Goals       roadmap.Goals      `json:"goals"`
	Days        tradelog.Log       `json:"days"`
	Consistency consistency.Result `json:"consistency"`
	Eligibility payout.Eligibility `json:"eligibility"`
	Roadmap     roadmap.Plan       `json:"roadmap"`
}

// Analyze evaluates a session. It never modifies the session's log.
func Analyze(s session.Session) Report {
	log := s.Log.Clone()
	rule := consistency.Evaluate(log, s.Profile.ConsistencyPercent)
	elig := payout.Evaluate(log, rule, s.Profile)

	return Report{
		Name:        s.Name,
		Profile:     s.Profile,
		Goals:       s.Goals,
		Days:        log,
		Consistency: rule,
		Eligibility: elig,
		Roadmap:     roadmap.Generate(log, rule, elig, s.Profile, s.Goals),
	}
}

// Session rebuilds the session the report was derived from.
func (r Report) Session() session.Session {
	return session.New(r.Name).WithProfile(r.Profile).WithLog(r.Days).WithGoals(r.Goals)
}

// GetReports analyses every active account in the configuration. Accounts
// whose program or size cannot be resolved are skipped with a warning.
func GetReports(logger *zap.Logger, conf config.Configuration) ([]Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var results []Report
	for _, account := range conf.Accounts {
		if !account.Active {
			logger.Debug(fmt.Sprintf("skipping account %s because it is inactive", account.Name),
				zap.String("op", "analysis.GetReports"),
			)
			continue
		}

		s, err := account.Session(conf.Common)
		if err != nil {
			logger.Warn("skipping account with invalid rules",
				zap.String("op", "analysis.GetReports"),
				zap.String("account", account.Name),
				zap.Error(err),
			)
			continue
		}

		report := Analyze(s)
		logger.Debug("account analysed",
			zap.String("op", "analysis.GetReports"),
			zap.String("account", report.Name),
			zap.String("status", string(report.Consistency.Status)),
			zap.Bool("eligible", report.Eligibility.Eligible),
		)
		results = append(results, report)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no active accounts could be analysed")
	}
	return results, nil
}
