package meshoptimizer

import (
	"github.com/uniqlow/meshoptimizer/geom"
	"github.com/uniqlow/meshoptimizer/mesh"
)

// The sloppy reducer expects each output cell to yield about two
// triangles, and runs a fixed number of binary search passes over the
// cell size for robustness; the final pass always counts exactly.
const (
	sloppyTrianglesPerCell = 2
	sloppySearchPasses     = 10
)

// hashCell pairs a packed 30-bit grid cell id with the dense cell number
// assigned on first insertion.
type hashCell struct {
	id   uint32
	cell uint32
}

var emptyHashCell = hashCell{id: mesh.NoVertex, cell: mesh.NoVertex}

type hashCellHasher struct{}

func (hashCellHasher) Hash(c hashCell) uint32 {
	// MurmurHash2 finalizer
	h := c.id
	h ^= h >> 13
	h *= 0x5bd1e995
	h ^= h >> 15
	return h
}

func (hashCellHasher) Equal(lhs, rhs hashCell) bool {
	return lhs.id == rhs.id
}

// triangle is a corner triple in canonical rotation, used to filter
// duplicate output triangles.
type triangle struct {
	a, b, c uint32
}

var emptyTriangle = triangle{mesh.NoVertex, mesh.NoVertex, mesh.NoVertex}

type triangleHasher struct{}

func (triangleHasher) Hash(t triangle) uint32 {
	return (t.a * 73856093) ^ (t.b * 19349663) ^ (t.c * 83492791)
}

func (triangleHasher) Equal(lhs, rhs triangle) bool {
	return lhs == rhs
}

// SimplifySloppy reduces a triangle mesh by quantizing its vertices onto
// a uniform grid sized so that roughly targetIndexCount/6 cells survive,
// collapsing every vertex in a cell onto the cell's minimum-error vertex
// and re-emitting the triangles that stay non-degenerate. The result is
// written into a prefix of destination and the new index count returned.
//
// It trades fidelity for speed compared to Simplify: there is no error
// ordering and no topology awareness, so borders and seams may erode.
// targetError is accepted for signature compatibility but is not
// consulted; the grid search is driven by the cell count alone.
func SimplifySloppy(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32) (int, error) {
	return simplifySloppy(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount, targetError, false)
}

// SimplifySloppyFiltered is SimplifySloppy with duplicate-triangle
// filtering: coarse grids frequently emit the same cell triangle many
// times, and filtering drops the repeats at the cost of a hash probe per
// output triangle.
func SimplifySloppyFiltered(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32) (int, error) {
	return simplifySloppy(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount, targetError, true)
}

func simplifySloppy(destination, indices []uint32, vertexPositions []float32, vertexCount, vertexPositionsStride int, targetIndexCount int, targetError float32, filterDuplicates bool) (int, error) {
	_ = targetError

	if err := validateMesh(destination, indices, vertexPositions, vertexCount, vertexPositionsStride, targetIndexCount); err != nil {
		return 0, err
	}

	targetCellCount := targetIndexCount / (3 * sloppyTrianglesPerCell)
	if targetCellCount == 0 {
		return 0, nil
	}

	strideFloats := vertexPositionsStride / 4

	positions := make([]geom.Vec, vertexCount)
	geom.RescalePositions(positions, vertexPositions, vertexCount, strideFloats)

	vertexCells := make([]uint32, vertexCount)

	table := make([]hashCell, mesh.Buckets(vertexCount))

	// approximate counting marks direct-mapped slots instead of resolving
	// collisions; it can only undercount, which errs toward finer grids
	countTable := make([]byte, mesh.Buckets(targetCellCount*4))

	// binary search the cell size: cellMinSize stays fine enough to reach
	// the target count, cellMaxSize coarse enough to stay under it, and
	// the final pass fills vertexCells exactly at the coarse bound
	cellMinSize := float32(1.0 / 1024.0)
	cellMaxSize := float32(1.0)

	cellCount := 0

	for pass := 0; pass <= sloppySearchPasses; pass++ {
		cellSize := (cellMinSize + cellMaxSize) * 0.5
		if pass == sloppySearchPasses {
			cellSize = cellMaxSize
		}

		grid := geom.NewCellGrid(cellSize)
		cellCount = 0

		if pass < sloppySearchPasses {
			for i := range countTable {
				countTable[i] = 0
			}

			for i := 0; i < vertexCount; i++ {
				cell := hashCell{id: grid.ID(&positions[i])}
				slot := hashCellHasher{}.Hash(cell) & uint32(len(countTable)-1)

				cellCount += 1 - int(countTable[slot])
				countTable[slot] = 1
			}
		} else {
			for i := range table {
				table[i] = emptyHashCell
			}

			for i := 0; i < vertexCount; i++ {
				cell := hashCell{id: grid.ID(&positions[i])}
				slot := mesh.Lookup(table, hashCellHasher{}, cell, emptyHashCell)

				if table[slot].id == mesh.NoVertex {
					table[slot] = hashCell{id: cell.id, cell: uint32(cellCount)}
					cellCount++
				}

				vertexCells[i] = table[slot].cell
			}
		}

		if cellCount < targetCellCount {
			cellMaxSize = cellSize
		} else {
			cellMinSize = cellSize
		}
	}

	// build a quadric per cell so the representative can be chosen by the
	// same error measure the quadric reducer uses
	cellQuadrics := make([]geom.Quadric, cellCount)
	fillFaceQuadrics(cellQuadrics, indices, positions, vertexCells)

	// pick the minimum-error member vertex of every cell
	cellRemap := make([]uint32, cellCount)
	cellErrors := make([]float32, cellCount)
	for i := range cellRemap {
		cellRemap[i] = mesh.NoVertex
	}

	for i := 0; i < vertexCount; i++ {
		cell := vertexCells[i]
		err := cellQuadrics[cell].Error(&positions[i])

		if cellRemap[cell] == mesh.NoVertex || err < cellErrors[cell] {
			cellRemap[cell] = uint32(i)
			cellErrors[cell] = err
		}
	}

	// re-emit the triangles that survive the cell collapse
	var tritable []triangle
	if filterDuplicates {
		tritable = make([]triangle, mesh.Buckets(len(indices)/3))
		for i := range tritable {
			tritable[i] = emptyTriangle
		}
	}

	write := 0

	for i := 0; i+2 < len(indices); i += 3 {
		v0 := cellRemap[vertexCells[indices[i+0]]]
		v1 := cellRemap[vertexCells[indices[i+1]]]
		v2 := cellRemap[vertexCells[indices[i+2]]]

		if v0 == v1 || v0 == v2 || v1 == v2 {
			continue
		}

		if filterDuplicates {
			// rotate the smallest index first, preserving winding
			tri := triangle{v0, v1, v2}
			if tri.b < tri.a && tri.b < tri.c {
				tri.a, tri.b, tri.c = tri.b, tri.c, tri.a
			} else if tri.c < tri.a && tri.c < tri.b {
				tri.a, tri.b, tri.c = tri.c, tri.a, tri.b
			}

			slot := mesh.Lookup(tritable, triangleHasher{}, tri, emptyTriangle)
			if tritable[slot].a != mesh.NoVertex {
				continue
			}
			tritable[slot] = tri
		}

		destination[write+0] = v0
		destination[write+1] = v1
		destination[write+2] = v2
		write += 3
	}

	return write, nil
}
