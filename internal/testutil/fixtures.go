// Package testutil builds reusable champion maps and match-record fixtures
// shared across this module's test suites, the way
// testing-utils/fixtures/test_data.go supplies canned users/matches/insights
// for the rest of the herald.lol family — generalized here to champions,
// drafts, and tier groups instead of summoner profiles.
package testutil

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/herald-lol/draftlab/internal/champion"
	"github.com/herald-lol/draftlab/internal/draft"
)

// champRoles cycles the five lanes so a generated champion map always has
// at least one champion per role once n >= 5.
var champRoles = []champion.Role{champion.Top, champion.Jungle, champion.Mid, champion.ADC, champion.Support}

// NewChampionMap builds an n-champion attribute map with synthetic but
// structurally valid tags, suitable for feeding history/assets/features/
// recommend tests that need a real *champion.Map rather than a fake.
// Champion ids run 1..n; roles and damage types cycle so every role is
// represented.
func NewChampionMap(n int) *champion.Map {
	champs := make(map[string]champion.Attributes, n)
	for i := 1; i <= n; i++ {
		damage := champion.AD
		if i%3 == 0 {
			damage = champion.AP
		} else if i%7 == 0 {
			damage = champion.Mix
		}
		champs[fmt.Sprintf("%d", i)] = champion.Attributes{
			ChampionID:   i,
			Name:         fmt.Sprintf("Champion%d", i),
			Role:         champRoles[(i-1)%len(champRoles)],
			Damage:       damage,
			Engage:       i % 4,
			HardCC:       (i + 1) % 4,
			Poke:         (i + 2) % 4,
			Splitpush:    (i + 3) % 4,
			Frontline:    (i + 1) % 4,
			SkillCap:     i % 4,
			ScalingEarly: (i + 2) % 4,
			ScalingMid:   (i + 1) % 4,
			ScalingLate:  i % 4,
		}
	}
	raw, err := json.Marshal(struct {
		Champions map[string]champion.Attributes `json:"champions"`
	}{Champions: champs})
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal champion map: %v", err))
	}
	m, err := champion.LoadBytes(raw)
	if err != nil {
		panic(fmt.Sprintf("testutil: build champion map: %v", err))
	}
	return m
}

// MatchOption mutates a generated Record before it's returned. Used to
// override the defaults NewMatch fills in.
type MatchOption func(*draft.Record)

// WithBans overrides the ban slots on both sides.
func WithBans(blue, red [5]int) MatchOption {
	return func(r *draft.Record) {
		r.BlueBans = blue
		r.RedBans = red
	}
}

// WithDerived attaches derived features to the record.
func WithDerived(d draft.DerivedFeatures) MatchOption {
	return func(r *draft.Record) { r.Derived = &d }
}

// NewMatch builds one completed, Validate-passing match record for a patch
// and tier. bluePicks/redPicks must each be five distinct, non-overlapping
// champion ids in draft.Roles order; the match id is a fresh UUID so
// fixture batches never collide.
func NewMatch(patch string, tier draft.Tier, bluePicks, redPicks [5]int, blueWin bool, opts ...MatchOption) *draft.Record {
	r := &draft.Record{
		MatchID:   uuid.NewString(),
		Patch:     patch,
		Tier:      tier,
		BluePicks: bluePicks,
		RedPicks:  redPicks,
		BlueBans:  [5]int{draft.EmptyBan, draft.EmptyBan, draft.EmptyBan, draft.EmptyBan, draft.EmptyBan},
		RedBans:   [5]int{draft.EmptyBan, draft.EmptyBan, draft.EmptyBan, draft.EmptyBan, draft.EmptyBan},
		BlueWin:   blueWin,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewMatchBatch builds n matches on one patch and tier. Every match uses the
// same 2*len(draft.Roles) champion ids: blue takes poolOffset+1..poolOffset+5
// and red poolOffset+6..poolOffset+10, so picks never collide within a
// match. Blue wins match i when i%blueWinEvery == 0, and wins every match
// when blueWinEvery <= 1. poolOffset shifts which champion ids are used, so
// two calls against the same champion map can produce non-identical
// compositions.
func NewMatchBatch(patch string, tier draft.Tier, n int, blueWinEvery int, poolOffset int) []*draft.Record {
	out := make([]*draft.Record, n)
	for i := 0; i < n; i++ {
		var blue, red [5]int
		for slot := range draft.Roles {
			blue[slot] = poolOffset + slot + 1
			red[slot] = poolOffset + slot + len(draft.Roles) + 1
		}
		win := true
		if blueWinEvery > 1 {
			win = i%blueWinEvery == 0
		}
		out[i] = NewMatch(patch, tier, blue, red, win)
	}
	return out
}
