package mesh

import (
	"math"
)

// NoVertex marks absent vertex references in remap and loop tables.
const NoVertex = ^uint32(0)

// positionHasher hashes vertex indices by the bit patterns of their three
// position components. Equality is bit-exact, so -0 and +0 land in
// different classes, matching a raw memory comparison.
type positionHasher struct {
	data   []float32
	stride int
}

func (h positionHasher) word(index uint32, j int) uint32 {
	return math.Float32bits(h.data[int(index)*h.stride+j])
}

func (h positionHasher) Hash(index uint32) uint32 {
	// MurmurHash2
	const (
		m = 0x5bd1e995
		r = 24
	)

	var hash uint32
	for j := 0; j < 3; j++ {
		k := h.word(index, j)

		k *= m
		k ^= k >> r
		k *= m

		hash *= m
		hash ^= k
	}

	return hash
}

func (h positionHasher) Equal(lhs, rhs uint32) bool {
	for j := 0; j < 3; j++ {
		if h.word(lhs, j) != h.word(rhs, j) {
			return false
		}
	}
	return true
}

// BuildPositionRemap groups vertices with bit-identical positions.
//
// After the call remap[v] is the smallest-indexed vertex whose position
// equals v's, so remap[remap[v]] == remap[v] for every v. wedge links the
// members of each equivalence class into a cyclic ring: wedge[v] == v for
// singleton classes, and otherwise following wedge repeatedly visits every
// class member exactly once before returning to v.
//
// positions holds vertexCount records of at least three floats each,
// stride measured in floats.
func BuildPositionRemap(remap, wedge []uint32, positions []float32, vertexCount, stride int) {
	hasher := positionHasher{data: positions, stride: stride}

	table := make([]uint32, Buckets(vertexCount))
	for i := range table {
		table[i] = NoVertex
	}

	// map each vertex to the first vertex seen at the same position
	for i := 0; i < vertexCount; i++ {
		index := uint32(i)
		slot := Lookup(table, hasher, index, NoVertex)

		if table[slot] == NoVertex {
			table[slot] = index
		}

		remap[i] = table[slot]
	}

	for i := 0; i < vertexCount; i++ {
		wedge[i] = uint32(i)
	}

	// splice every non-canonical vertex into its canonical vertex's ring
	for i := 0; i < vertexCount; i++ {
		if remap[i] != uint32(i) {
			r := remap[i]

			wedge[i] = wedge[r]
			wedge[r] = uint32(i)
		}
	}
}
