// Package draft defines the canonical match record — the shared data model
// every other package (history, assets, features, train) consumes — and the
// tier/tier-group vocabulary.
package draft

import "fmt"

// Role is one of the five lanes, fixed per team.
type Role string

const (
	Top     Role = "TOP"
	Jungle  Role = "JUNGLE"
	Mid     Role = "MID"
	ADC     Role = "ADC"
	Support Role = "SUPPORT"
)

// Roles lists the five roles in the order picks/bans/composition blocks use.
var Roles = []Role{Top, Jungle, Mid, ADC, Support}

// EmptyBan marks an unused ban slot.
const EmptyBan = -1

// EmptyPick marks a not-yet-filled pick slot in a partial draft used by the
// recommendation engine. Completed canonical match records never contain it
// (Validate rejects them if they do).
const EmptyPick = -1

// DerivedFeatures holds the four optional derived scalars.
// Zero value means "absent"; the feature assembler treats absence as 0.0.
type DerivedFeatures struct {
	APADRatio        float64 `json:"ap_ad_ratio"`
	EngageScore      float64 `json:"engage_score"`
	SplitpushScore   float64 `json:"splitpush_score"`
	TeamfightSynergy float64 `json:"teamfight_synergy"`
}

// Record is the canonical match record, one per completed game.
type Record struct {
	MatchID string `json:"match_id"`
	Patch   string `json:"patch"` // "season.minor"
	Tier    Tier   `json:"tier"`

	BluePicks [5]int `json:"blue_picks"` // ordered by Roles
	RedPicks  [5]int `json:"red_picks"`

	BlueBans [5]int `json:"blue_bans"` // EmptyBan for unused slots
	RedBans  [5]int `json:"red_bans"`

	BlueWin bool `json:"blue_win"`

	Derived *DerivedFeatures `json:"derived_features,omitempty"`
}

// Validate checks the structural invariants: five unique picks per side,
// no champion picked on both sides, bans unique within a side, and a
// recognized tier. It does not check champion ids against the attribute map
// — that is the feature assembler's job (unknown ids are a hard error at
// assembly time).
func (r *Record) Validate() error {
	if !r.Tier.Valid() {
		return fmt.Errorf("match %s: unrecognized tier %q", r.MatchID, r.Tier)
	}
	seen := make(map[int]string, 10)
	for i, c := range r.BluePicks {
		if c == EmptyPick {
			return fmt.Errorf("match %s: blue %s pick is empty in a completed record", r.MatchID, Roles[i])
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("match %s: champion %d picked on both %s and blue %s", r.MatchID, c, prev, Roles[i])
		}
		seen[c] = "blue " + string(Roles[i])
	}
	for i, c := range r.RedPicks {
		if c == EmptyPick {
			return fmt.Errorf("match %s: red %s pick is empty in a completed record", r.MatchID, Roles[i])
		}
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("match %s: champion %d picked on both %s and red %s", r.MatchID, c, prev, Roles[i])
		}
		seen[c] = "red " + string(Roles[i])
	}
	if err := validateBans(r.MatchID, "blue", r.BlueBans); err != nil {
		return err
	}
	if err := validateBans(r.MatchID, "red", r.RedBans); err != nil {
		return err
	}
	return nil
}

func validateBans(matchID, side string, bans [5]int) error {
	seen := make(map[int]bool, 5)
	for _, b := range bans {
		if b == EmptyBan {
			continue
		}
		if seen[b] {
			return fmt.Errorf("match %s: champion %d banned twice on %s side", matchID, b, side)
		}
		seen[b] = true
	}
	return nil
}

// TeamPicks returns the picks for "blue" or "red".
func (r *Record) TeamPicks(blue bool) [5]int {
	if blue {
		return r.BluePicks
	}
	return r.RedPicks
}

// TeamBans returns the bans for "blue" or "red".
func (r *Record) TeamBans(blue bool) [5]int {
	if blue {
		return r.BlueBans
	}
	return r.RedBans
}

// Swapped returns a new record with blue and red sides exchanged and the
// label flipped. Used by the side-symmetry stress test.
func (r *Record) Swapped() *Record {
	cp := *r
	cp.BluePicks, cp.RedPicks = r.RedPicks, r.BluePicks
	cp.BlueBans, cp.RedBans = r.RedBans, r.BlueBans
	cp.BlueWin = !r.BlueWin
	return &cp
}
