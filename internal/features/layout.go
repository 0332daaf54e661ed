// Package features implements the feature assembler: a pure,
// deterministic function from a canonical match record (or partial draft),
// tier group, champion attribute map, and optional history/asset inputs to a
// fixed-length real-valued vector plus a named-feature dict. Layout offsets
// depend only on feature_mode, N (the champion count), and, in rich mode,
// the asset bundle's embedding dimension d; any layout change
// bumps feature_version (internal/model).
package features

// Mode selects between the basic and rich history blocks.
type Mode string

const (
	Basic Mode = "basic"
	Rich  Mode = "rich"
)

const (
	rolesPerTeam        = 5
	teams                = 2
	compositionFeatures  = 30
	patchFeatures        = 2
	tierFeatures         = 10
	basicHistoryFeatures = 3
	objectiveFeatures    = 4

	duoEncodingFeatures = 18
	laneMatchupFeatures = 5
	metaPriorFeatures   = 6
	banContextFeatures  = 4
)

// Dim returns feature_dim(N, d, mode), the only three inputs the layout
// depends on.
func Dim(n, d int, mode Mode) int {
	base := teams*rolesPerTeam*n /* role one-hots */ +
		teams*rolesPerTeam*n /* ban one-hots */ +
		compositionFeatures +
		patchFeatures +
		tierFeatures +
		objectiveFeatures

	switch mode {
	case Rich:
		return base + duoEncodingFeatures + laneMatchupFeatures + metaPriorFeatures + 2*d + banContextFeatures
	default:
		return base + basicHistoryFeatures
	}
}

// FeatureVersion returns the opaque tag identifying this layout for a given
// (n, d, mode). Any change to the layout itself (not n/d/mode, which are
// already part of the tag) must change the constant suffix.
func FeatureVersion(n, d int, mode Mode) string {
	return "fa-v1-" + string(mode) + "-n" + itoa(n) + "-d" + itoa(d)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
