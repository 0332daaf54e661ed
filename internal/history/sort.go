package history

import (
	"sort"
	"strconv"
)

func itoa(i int) string { return strconv.Itoa(i) }
func atoi(s string) int { i, _ := strconv.Atoi(s); return i }

func sortedIntKeys(m map[int]winGames) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedPairKeys(m map[pairKey]winGames) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	return keys
}

func sortedMatchupKeys(m map[matchupKey]winGames) []matchupKey {
	keys := make([]matchupKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Blue != keys[j].Blue {
			return keys[i].Blue < keys[j].Blue
		}
		if keys[i].Red != keys[j].Red {
			return keys[i].Red < keys[j].Red
		}
		return keys[i].Role < keys[j].Role
	})
	return keys
}
