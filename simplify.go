/*Package meshoptimizer reduces indexed triangle meshes to a target
triangle count while preserving the shape of the input.

Two reducers are provided. Simplify collapses edges in order of quadric
error, classifying vertices by their topology so that borders and
attribute seams keep their structure; it is the high-fidelity path.
SimplifySloppy quantizes vertices onto a uniform grid and merges each
cell into its best representative vertex; it is much faster and suitable
when approximate shape is enough.

Both reducers take an index buffer plus raw position data, write the
reduced index buffer into a destination prefix, and return the new index
count. They allocate only for the duration of the call and never touch
package-level state, so independent goroutines may simplify disjoint
buffers concurrently.

This work is based on:

	Michael Garland and Paul S. Heckbert. Surface simplification using quadric error metrics. 1997
	Michael Garland. Quadric-based polygonal surface simplification. 1999
	Peter Lindstrom. Out-of-Core Simplification of Large Polygonal Models. 2000
	Matthias Teschner et al. Optimized Spatial Hashing for Collision Detection of Deformable Objects. 2003
*/
package meshoptimizer

import (
	"errors"

	"github.com/chewxy/math32"

	"github.com/uniqlow/meshoptimizer/geom"
	"github.com/uniqlow/meshoptimizer/mesh"
)

var (
	// ErrIndexCount reports an index buffer whose length is not a
	// multiple of three.
	ErrIndexCount = errors.New("meshoptimizer: index count is not a multiple of three")
	// ErrStride reports a vertex stride that is not a positive multiple
	// of four bytes no larger than 256.
	ErrStride = errors.New("meshoptimizer: invalid vertex position stride")
	// ErrTargetIndexCount reports a target that exceeds the input size.
	ErrTargetIndexCount = errors.New("meshoptimizer: target index count exceeds index count")
	// ErrVertexIndex reports an index that is out of range of the vertex
	// buffer.
	ErrVertexIndex = errors.New("meshoptimizer: vertex index out of range")
	// ErrBufferSize reports a destination or position buffer that is too
	// small for the described mesh.
	ErrBufferSize = errors.New("meshoptimizer: buffer is too small")
)

// DebugInfo receives snapshots of the simplifier's internal classification
// when passed to SimplifyDebug. All slices are allocated by the call and
// sized to the vertex count.
type DebugInfo struct {
	// Kinds is the topological class assigned to each vertex.
	Kinds []mesh.Kind
	// Loop is the boundary continuation of each Border or Seam vertex,
	// mesh.NoVertex elsewhere, as of classification time.
	Loop []uint32
	// Remap maps each vertex to the canonical vertex of its position.
	Remap []uint32
	// Wedge links vertices sharing a position into cyclic rings.
	Wedge []uint32
	// Passes is the number of collapse passes that applied at least one
	// collapse.
	Passes int
}

// Simplify reduces a triangle mesh to approximately targetIndexCount
// indices using quadric error metrics, writing the result into a prefix
// of destination and returning the new index count.
//
// vertexPositions holds vertexCount position records of three floats
// each, spaced vertexPositionsStride bytes apart; the stride must be a
// positive multiple of four no larger than 256. destination must hold at
// least len(indices) entries and may alias indices. targetError is an
// absolute cap on the quadric error any single collapse may introduce;
// positions are rescaled into the unit cube before errors are measured.
//
// The reducer stops early when topology restrictions or the error cap
// leave nothing to collapse, so the result may exceed targetIndexCount.
func Simplify(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32) (int, error) {
	return simplify(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount, targetError, nil)
}

// SimplifyDebug is Simplify with an observer: when debug is non-nil it is
// filled with the vertex classification and pass statistics of the run.
func SimplifyDebug(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32, debug *DebugInfo) (int, error) {
	return simplify(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount, targetError, debug)
}

func simplify(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32, debug *DebugInfo) (int, error) {
	if err := validateMesh(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount); err != nil {
		return 0, err
	}

	strideFloats := vertexPositionsStride / 4

	adjacency := mesh.BuildEdgeAdjacency(indices, vertexCount)

	remap := make([]uint32, vertexCount)
	wedge := make([]uint32, vertexCount)
	mesh.BuildPositionRemap(remap, wedge, vertexPositions, vertexCount, strideFloats)

	kinds := make([]mesh.Kind, vertexCount)
	loop := make([]uint32, vertexCount)
	mesh.ClassifyVertices(kinds, loop, adjacency, remap, wedge)

	positions := make([]geom.Vec, vertexCount)
	geom.RescalePositions(positions, vertexPositions, vertexCount, strideFloats)

	quadrics := make([]geom.Quadric, vertexCount)
	fillFaceQuadrics(quadrics, indices, positions, remap)
	fillEdgeQuadrics(quadrics, indices, positions, remap, kinds, loop)

	if debug != nil {
		debug.Kinds = append([]mesh.Kind(nil), kinds...)
		debug.Loop = append([]uint32(nil), loop...)
		debug.Remap = append([]uint32(nil), remap...)
		debug.Wedge = append([]uint32(nil), wedge...)
		debug.Passes = 0
	}

	result := destination[:len(indices)]
	if len(indices) > 0 && &result[0] != &indices[0] {
		copy(result, indices)
	}

	state := newCollapseState(len(indices), vertexCount)

	resultCount := len(indices)

	for resultCount > targetIndexCount {
		state.pickEdgeCollapses(result[:resultCount], remap, kinds, loop)

		// no edges can be collapsed any more due to topology restrictions
		if len(state.collapses) == 0 {
			break
		}

		state.rankEdgeCollapses(positions, quadrics, remap)
		state.sortEdgeCollapses()

		// most collapses remove two triangles, which bounds the edge
		// collapses this pass needs; the error of the last collapse the
		// pass would ideally make bounds the acceptable error, widened
		// because locking will reject a share of the sorted prefix
		triangleCollapseGoal := (resultCount - targetIndexCount) / 3
		edgeCollapseGoal := triangleCollapseGoal / 2

		const passErrorBound = 1.5

		errorGoal := float32(math32.MaxFloat32)
		if edgeCollapseGoal < len(state.collapses) {
			errorGoal = state.collapses[state.order[edgeCollapseGoal]].err * passErrorBound
		}

		errorLimit := errorGoal
		if targetError < errorLimit {
			errorLimit = targetError
		}

		collapses := state.performEdgeCollapses(quadrics, remap, wedge, kinds, triangleCollapseGoal, errorLimit)

		// hit the error limit or the triangle budget
		if collapses == 0 {
			break
		}

		state.remapEdgeLoops(loop)
		resultCount = state.remapIndexBuffer(result[:resultCount])

		if debug != nil {
			debug.Passes++
		}
	}

	return resultCount, nil
}

// validateMesh checks the shared preconditions of both reducers.
func validateMesh(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride, targetIndexCount int) error {
	if len(indices)%3 != 0 {
		return ErrIndexCount
	}
	if vertexPositionsStride <= 0 || vertexPositionsStride > 256 || vertexPositionsStride%4 != 0 {
		return ErrStride
	}
	if targetIndexCount > len(indices) {
		return ErrTargetIndexCount
	}
	if len(destination) < len(indices) {
		return ErrBufferSize
	}

	strideFloats := vertexPositionsStride / 4
	if vertexCount > 0 && len(vertexPositions) < (vertexCount-1)*strideFloats+3 {
		return ErrBufferSize
	}

	for _, index := range indices {
		if int(index) >= vertexCount {
			return ErrVertexIndex
		}
	}

	return nil
}
