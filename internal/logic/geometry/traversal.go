package geometry

import (
	"slices"
	"sort"
)

// SnakeOrder reorders raw scan positions into a boustrophedon path.
// Positions are grouped by ring (V), rings are visited from the horizon up,
// and every other ring is swept in the opposite pan direction so that the
// move from the end of one ring to the start of the next stays short.
// The input slice is not modified.
func SnakeOrder(raw []MotorPosition) []MotorPosition {
	rings := make(map[int][]MotorPosition)
	for _, p := range raw {
		rings[p.V] = append(rings[p.V], p)
	}

	keys := make([]int, 0, len(rings))
	for v := range rings {
		keys = append(keys, v)
	}
	sort.Ints(keys)

	ordered := make([]MotorPosition, 0, len(raw))
	for i, v := range keys {
		ring := rings[v]
		sort.SliceStable(ring, func(a, b int) bool { return ring[a].H < ring[b].H })
		if i%2 == 1 {
			slices.Reverse(ring)
		}
		ordered = append(ordered, ring...)
	}
	return ordered
}
