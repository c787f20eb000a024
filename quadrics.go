package meshoptimizer

import (
	"github.com/uniqlow/meshoptimizer/geom"
	"github.com/uniqlow/meshoptimizer/mesh"
)

// Border edges hold real silhouette geometry, so movement away from them
// is penalized heavily. Seam edges are already constrained topologically;
// a light penalty is enough to keep collapses ordered along the seam.
const (
	edgeWeightSeam   = 1.0
	edgeWeightBorder = 10.0
)

// next[e] is the corner following corner e within a face.
var next = [3]int{1, 2, 0}

// fillFaceQuadrics accumulates the area-weighted plane quadric of every
// triangle into the quadrics of its three corners, routed through remap so
// that all wedges of a position share one quadric. The same routine serves
// the sloppy reducer, where remap maps vertices to grid cells instead.
func fillFaceQuadrics(quadrics []geom.Quadric, indices []uint32, positions []geom.Vec, remap []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		i0 := indices[i+0]
		i1 := indices[i+1]
		i2 := indices[i+2]

		var q geom.Quadric
		q.FromTriangle(&positions[i0], &positions[i1], &positions[i2])

		quadrics[remap[i0]].Add(&q)
		quadrics[remap[i1]].Add(&q)
		quadrics[remap[i2]].Add(&q)
	}
}

// fillEdgeQuadrics accumulates perpendicular edge quadrics for boundary
// and seam edges. An edge qualifies when both endpoints share the same
// Border or Seam kind and the edge continues the endpoint's loop; the
// loop table tracks half-edges, so checking i0->i1 is sufficient.
func fillEdgeQuadrics(quadrics []geom.Quadric, indices []uint32, positions []geom.Vec, remap []uint32, kinds []mesh.Kind, loop []uint32) {
	for i := 0; i+2 < len(indices); i += 3 {
		for e := 0; e < 3; e++ {
			i0 := indices[i+e]
			i1 := indices[i+next[e]]

			k0 := kinds[i0]
			k1 := kinds[i1]

			if k0 != k1 || (k0 != mesh.Border && k0 != mesh.Seam) || loop[i0] != i1 {
				continue
			}

			i2 := indices[i+next[next[e]]]

			weight := float32(edgeWeightBorder)
			if k0 == mesh.Seam {
				weight = edgeWeightSeam
			}

			var q geom.Quadric
			q.FromTriangleEdge(&positions[i0], &positions[i1], &positions[i2], weight)

			quadrics[remap[i0]].Add(&q)
			quadrics[remap[i1]].Add(&q)
		}
	}
}
