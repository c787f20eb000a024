package meshoptimizer

import (
	"math"

	"github.com/uniqlow/meshoptimizer/geom"
	"github.com/uniqlow/meshoptimizer/mesh"
)

// canCollapse[k0][k1] permits collapsing a vertex of kind k0 onto a vertex
// of kind k1: manifold vertices may move onto anything, border and seam
// vertices only onto their own kind, locked vertices never move.
var canCollapse = [mesh.KindCount][mesh.KindCount]bool{
	{true, true, true, true},
	{false, true, false, false},
	{false, false, true, false},
	{false, false, false, false},
}

// hasOpposite[k0][k1] marks edges that occur as two opposite half-edges,
// which would otherwise be picked twice. Seam edges lack the reverse
// half-edge in the attribute topology but carry it in the position-only
// mesh, so they count as paired as well.
var hasOpposite = [mesh.KindCount][mesh.KindCount]bool{
	{true, true, true, true},
	{true, false, true, false},
	{true, true, true, true},
	{true, false, true, false},
}

// collapse is one candidate edge collapse, v0 onto v1. bidi is meaningful
// between picking and ranking; err holds the quadric error afterwards.
type collapse struct {
	v0, v1 uint32
	bidi   bool
	err    float32
}

// collapseState holds the per-call scratch arrays of the pass loop, sized
// once at entry the way a workspace is.
type collapseState struct {
	collapses []collapse
	order     []uint32
	remap     []uint32
	locked    []bool
}

func newCollapseState(indexCount, vertexCount int) *collapseState {
	return &collapseState{
		collapses: make([]collapse, 0, indexCount),
		order:     make([]uint32, 0, indexCount),
		remap:     make([]uint32, vertexCount),
		locked:    make([]bool, vertexCount),
	}
}

// pickEdgeCollapses scans every face corner for collapsible edges and
// returns them with their direction fixed (unidirectional) or tagged bidi.
func (s *collapseState) pickEdgeCollapses(indices []uint32, remap []uint32, kinds []mesh.Kind, loop []uint32) {
	s.collapses = s.collapses[:0]

	for i := 0; i+2 < len(indices); i += 3 {
		for e := 0; e < 3; e++ {
			i0 := indices[i+e]
			i1 := indices[i+next[e]]

			// zero-length edges, and edges whose endpoints merged during
			// earlier seam collapses, are left alone: they can be load
			// bearing for mesh integrity
			if remap[i0] == remap[i1] {
				continue
			}

			k0 := kinds[i0]
			k1 := kinds[i1]

			// the edge has to be collapsible in at least one direction
			if !canCollapse[k0][k1] && !canCollapse[k1][k0] {
				continue
			}

			// paired edges occur twice as opposite half-edges; keep the
			// copy that starts at the larger canonical index
			if hasOpposite[k0][k1] && remap[i1] > remap[i0] {
				continue
			}

			// same-kind border/seam endpoints must lie on the same edge
			// loop; loop tracks half-edges so i0->i1 suffices
			if k0 == k1 && (k0 == mesh.Border || k0 == mesh.Seam) && loop[i0] != i1 {
				continue
			}

			if canCollapse[k0][k1] && canCollapse[k1][k0] {
				s.collapses = append(s.collapses, collapse{v0: i0, v1: i1, bidi: true})
			} else {
				e0, e1 := i0, i1
				if !canCollapse[k0][k1] {
					e0, e1 = i1, i0
				}
				s.collapses = append(s.collapses, collapse{v0: e0, v1: e1})
			}
		}
	}
}

// rankEdgeCollapses evaluates the quadric error of each candidate and, for
// bidirectional edges, keeps the direction with the smaller error.
func (s *collapseState) rankEdgeCollapses(positions []geom.Vec, quadrics []geom.Quadric, remap []uint32) {
	for i := range s.collapses {
		c := &s.collapses[i]

		i0, i1 := c.v0, c.v1

		j0, j1 := i0, i1
		if c.bidi {
			j0, j1 = i1, i0
		}

		ei := quadrics[remap[i0]].Error(&positions[i1])
		ej := quadrics[remap[j0]].Error(&positions[j1])

		if ei <= ej {
			c.v0, c.v1, c.err = i0, i1, ei
		} else {
			c.v0, c.v1, c.err = j0, j1, ej
		}
	}
}

const sortBits = 11

// sortEdgeCollapses counting-sorts the candidates by the top bits of their
// error and fills s.order with the resulting permutation. The sign bit is
// shifted out, which is safe because errors are non-negative.
func (s *collapseState) sortEdgeCollapses() {
	var histogram [1 << sortBits]uint32

	for i := range s.collapses {
		key := (math.Float32bits(s.collapses[i].err) << 1) >> (32 - sortBits)
		histogram[key]++
	}

	sum := uint32(0)
	for i := range histogram {
		count := histogram[i]
		histogram[i] = sum
		sum += count
	}

	s.order = s.order[:len(s.collapses)]

	for i := range s.collapses {
		key := (math.Float32bits(s.collapses[i].err) << 1) >> (32 - sortBits)
		s.order[histogram[key]] = uint32(i)
		histogram[key]++
	}
}

// performEdgeCollapses walks the candidates in error order and applies
// them until the triangle budget or the error limit is hit. Each pass
// moves a vertex at most once: both endpoints of an applied collapse are
// locked because errors were computed against the pass-entry quadrics and
// are not re-ranked mid-pass. Returns the number of collapses applied.
func (s *collapseState) performEdgeCollapses(quadrics []geom.Quadric, remap, wedge []uint32, kinds []mesh.Kind, triangleCollapseGoal int, errorLimit float32) int {
	edgeCollapses := 0
	triangleCollapses := 0

	for i := range s.remap {
		s.remap[i] = uint32(i)
	}
	for i := range s.locked {
		s.locked[i] = false
	}

	for _, oi := range s.order {
		c := &s.collapses[oi]

		if c.err > errorLimit {
			break
		}
		if triangleCollapses >= triangleCollapseGoal {
			break
		}

		i0, i1 := c.v0, c.v1
		r0, r1 := remap[i0], remap[i1]

		if s.locked[r0] || s.locked[r1] {
			continue
		}

		quadrics[r1].Add(&quadrics[r0])

		if kinds[i0] == mesh.Seam {
			// move the seam pair in lockstep
			s0 := wedge[i0]
			s1 := wedge[i1]

			if s0 == i0 || s1 == i1 || wedge[s0] != i0 || wedge[s1] != i1 {
				panic("meshoptimizer: seam wedge rings are inconsistent")
			}

			s.remap[i0] = i1
			s.remap[s0] = s1
		} else {
			s.remap[i0] = i1
		}

		s.locked[r0] = true
		s.locked[r1] = true

		// border edges collapse one triangle, other edges two or more
		if kinds[i0] == mesh.Border {
			triangleCollapses++
		} else {
			triangleCollapses += 2
		}
		edgeCollapses++
	}

	return edgeCollapses
}

// remapIndexBuffer rewrites indices through the pass's collapse remap,
// dropping triangles that became degenerate, and returns the new index
// count.
func (s *collapseState) remapIndexBuffer(indices []uint32) int {
	write := 0

	for i := 0; i+2 < len(indices); i += 3 {
		v0 := s.remap[indices[i+0]]
		v1 := s.remap[indices[i+1]]
		v2 := s.remap[indices[i+2]]

		if v0 != v1 && v0 != v2 && v1 != v2 {
			indices[write+0] = v0
			indices[write+1] = v1
			indices[write+2] = v2
			write += 3
		}
	}

	return write
}

// remapEdgeLoops routes loop continuations through the collapse remap.
// When an edge collapsed against its own loop direction the straight
// remap would make a vertex its own continuation; the loop skips over the
// collapsed vertex instead.
func (s *collapseState) remapEdgeLoops(loop []uint32) {
	for i := range loop {
		if loop[i] == mesh.NoVertex {
			continue
		}

		l := loop[i]
		r := s.remap[l]

		if uint32(i) == r {
			loop[i] = loop[l]
		} else {
			loop[i] = r
		}
	}
}
