// Package session holds the working set of one account: its rule profile,
// its daily log and the trader's goals. A Session is a value; every change
// produces a new one.
package session

import (
	"github.com/iwvelando/consistency-planner/internal/roadmap"
	"github.com/iwvelando/consistency-planner/internal/rules"
	"github.com/iwvelando/consistency-planner/internal/store"
	"github.com/iwvelando/consistency-planner/internal/tradelog"
	"github.com/iwvelando/consistency-planner/pkg/constants"
)

// Session is the input to one evaluation.
type Session struct {
	Name    string
	Profile rules.Profile
	Log     tradelog.Log
	Goals   roadmap.Goals
}

// New returns a session for the default program with the default log and goals.
func New(name string) Session {
	return Session{
		Name:    name,
		Profile: rules.Default(),
		Log:     tradelog.Reset(),
		Goals:   roadmap.DefaultGoals(),
	}
}

// WithLog returns a copy of s using log.
func (s Session) WithLog(log tradelog.Log) Session {
	s.Log = log.Clone()
	return s
}

// WithProfile returns a copy of s using profile.
func (s Session) WithProfile(profile rules.Profile) Session {
	s.Profile = profile
	return s
}

// WithGoals returns a copy of s using goals, with planned days clamped and a
// non-positive target payout replaced by the default.
func (s Session) WithGoals(goals roadmap.Goals) Session {
	s.Goals = normalizeGoals(goals)
	return s
}

// Snapshot converts the session into its persisted form.
func (s Session) Snapshot() store.Snapshot {
	return store.Snapshot{
		Name:         s.Name,
		Program:      string(s.Profile.Program),
		AccountSize:  s.Profile.AccountSize,
		Profits:      s.Log.Profits(),
		TargetPayout: s.Goals.TargetPayout,
		PlannedDays:  s.Goals.PlannedDays,
	}
}

// FromSnapshot restores a session. Profits are re-clamped the same way user
// input is, so a hand-edited snapshot cannot carry non-finite values.
func FromSnapshot(snapshot store.Snapshot) (Session, error) {
	program, err := rules.ParseProgram(snapshot.Program)
	if err != nil {
		return Session{}, err
	}
	profile, err := rules.Lookup(program, snapshot.AccountSize)
	if err != nil {
		return Session{}, err
	}

	log := tradelog.FromProfits(snapshot.Profits)
	if len(log) == 0 {
		log = tradelog.Reset()
	}

	return Session{
		Name:    snapshot.Name,
		Profile: profile,
		Log:     log,
		Goals: normalizeGoals(roadmap.Goals{
			TargetPayout: snapshot.TargetPayout,
			PlannedDays:  snapshot.PlannedDays,
		}),
	}, nil
}

func normalizeGoals(goals roadmap.Goals) roadmap.Goals {
	if goals.TargetPayout <= 0 {
		goals.TargetPayout = constants.DefaultTargetPayout
	}
	if goals.PlannedDays == 0 {
		goals.PlannedDays = constants.DefaultPlannedDays
	}
	goals.PlannedDays = tradelog.ClampPlannedDays(goals.PlannedDays)
	return goals
}
