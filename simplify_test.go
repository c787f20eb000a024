package meshoptimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/uniqlow/meshoptimizer/mesh"
)

// tetrahedron returns a closed four-triangle mesh over four vertices.
func tetrahedron() (positions []float32, indices []uint32) {
	positions = []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	indices = []uint32{
		0, 2, 1,
		0, 1, 3,
		0, 3, 2,
		1, 2, 3,
	}
	return positions, indices
}

// gridMesh returns an n x n vertex planar grid triangulated into
// 2*(n-1)^2 triangles. Interior vertices are manifold, the rim is border.
func gridMesh(n int) (positions []float32, indices []uint32) {
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			positions = append(positions, float32(x), float32(y), 0)
		}
	}

	for y := 0; y+1 < n; y++ {
		for x := 0; x+1 < n; x++ {
			i := uint32(y*n + x)
			indices = append(indices,
				i, i+1, i+uint32(n),
				i+1, i+uint32(n)+1, i+uint32(n),
			)
		}
	}

	return positions, indices
}

// checkIndexBuffer verifies the invariants every reducer result must
// satisfy: triple-aligned, within the input size, in range, and free of
// degenerate triangles.
func checkIndexBuffer(t *testing.T, result []uint32, inputIndexCount, vertexCount int) {
	t.Helper()

	if len(result)%3 != 0 {
		t.Fatalf("result index count %d is not a multiple of 3", len(result))
	}
	if len(result) > inputIndexCount {
		t.Fatalf(
			"result index count %d exceeds input count %d",
			len(result), inputIndexCount,
		)
	}

	for i, index := range result {
		if int(index) >= vertexCount {
			t.Fatalf("index %d out of range at %d", index, i)
		}
	}

	for i := 0; i+2 < len(result); i += 3 {
		v0, v1, v2 := result[i], result[i+1], result[i+2]
		if v0 == v1 || v0 == v2 || v1 == v2 {
			t.Fatalf("degenerate triangle (%d, %d, %d) at %d", v0, v1, v2, i)
		}
	}
}

func TestSimplifyTetrahedron(t *testing.T) {
	positions, indices := tetrahedron()
	destination := make([]uint32, len(indices))

	write, err := Simplify(destination, indices, positions, 4, 12, 6, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}

	if write > 6 {
		t.Errorf("result has %d indices, want <= 6", write)
	}
	checkIndexBuffer(t, destination[:write], len(indices), 4)
}

func TestSimplifyQuad(t *testing.T) {
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		1, 1, 0,
		0, 1, 0,
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	destination := make([]uint32, len(indices))

	write, err := Simplify(destination, indices, positions, 4, 12, 3, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}

	// a lone quad has nothing to collapse toward without keeping at
	// least one triangle, so either one triangle or nothing survives
	if write != 0 && write != 3 {
		t.Errorf("result has %d indices, want 0 or 3", write)
	}
	checkIndexBuffer(t, destination[:write], len(indices), 4)
}

func TestSimplifySaturatedTargetIsIdentity(t *testing.T) {
	positions, indices := gridMesh(4)
	destination := make([]uint32, len(indices))

	write, err := Simplify(
		destination, indices, positions,
		len(positions)/3, 12, len(indices), math.MaxFloat32,
	)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(indices), write)
	assert.Equal(t, indices, destination[:write])
}

func TestSimplifyMonotonicity(t *testing.T) {
	positions, indices := gridMesh(6)
	vertexCount := len(positions) / 3

	previous := len(indices) + 1
	for _, target := range []int{len(indices), 90, 60, 30, 12, 0} {
		destination := make([]uint32, len(indices))

		write, err := Simplify(
			destination, indices, positions,
			vertexCount, 12, target, math.MaxFloat32,
		)
		if err != nil {
			t.Fatal(err)
		}

		checkIndexBuffer(t, destination[:write], len(indices), vertexCount)

		if write > previous {
			t.Errorf(
				"target %d produced %d indices, more than %d from the looser target",
				target, write, previous,
			)
		}
		previous = write
	}
}

func TestSimplifyTranslationScaleInvariance(t *testing.T) {
	positions, indices := gridMesh(5)
	vertexCount := len(positions) / 3

	// power-of-two scale and integer translation keep the rescaled
	// positions bit-identical, so the collapse order cannot change
	transformed := make([]float32, len(positions))
	for i, x := range positions {
		transformed[i] = x*4 + 16
	}

	a := make([]uint32, len(indices))
	b := make([]uint32, len(indices))

	writeA, err := Simplify(a, indices, positions, vertexCount, 12, 24, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}
	writeB, err := Simplify(b, indices, transformed, vertexCount, 12, 24, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, a[:writeA], b[:writeB])
}

func TestSimplifyTinyErrorBudget(t *testing.T) {
	positions, indices := tetrahedron()
	destination := make([]uint32, len(indices))

	// no collapse of a tetrahedron is free, so a zero budget forbids all
	write, err := Simplify(destination, indices, positions, 4, 12, 6, 0)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, len(indices), write)
	assert.Equal(t, indices, destination[:write])
}

func TestSimplifyIsolatedVertexUntouched(t *testing.T) {
	positions, indices := tetrahedron()
	// append a vertex no triangle references
	positions = append(positions, 9, 9, 9)
	destination := make([]uint32, len(indices))

	write, err := Simplify(destination, indices, positions, 5, 12, 6, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}

	checkIndexBuffer(t, destination[:write], len(indices), 5)
	for _, index := range destination[:write] {
		if index == 4 {
			t.Errorf("isolated vertex appeared in the output")
		}
	}
}

func TestSimplifyLockedMeshUnchanged(t *testing.T) {
	// two lone triangles joined by a too-short seam: every shared vertex
	// locks, and border collapses along two-vertex loops are rejected,
	// so the mesh survives any target
	positions := []float32{
		0, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 0,
		0, 1, 0,
		-1, 1, 0,
	}
	indices := []uint32{0, 1, 2, 3, 4, 5}
	destination := make([]uint32, len(indices))

	write, err := Simplify(destination, indices, positions, 6, 12, 0, math.MaxFloat32)
	if err != nil {
		t.Fatal(err)
	}

	checkIndexBuffer(t, destination[:write], len(indices), 6)
	assert.Equal(t, len(indices), write)
}

func TestSimplifyAliasedDestination(t *testing.T) {
	positions, indices := gridMesh(5)
	vertexCount := len(positions) / 3

	separate := make([]uint32, len(indices))
	writeSeparate, err := Simplify(
		separate, indices, positions, vertexCount, 12, 24, math.MaxFloat32,
	)
	if err != nil {
		t.Fatal(err)
	}

	aliased := append([]uint32(nil), indices...)
	writeAliased, err := Simplify(
		aliased, aliased, positions, vertexCount, 12, 24, math.MaxFloat32,
	)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, separate[:writeSeparate], aliased[:writeAliased])
}

func TestSimplifyGridReachesTarget(t *testing.T) {
	positions, indices := gridMesh(9)
	vertexCount := len(positions) / 3
	destination := make([]uint32, len(indices))

	target := len(indices) / 4
	target -= target % 3

	write, err := Simplify(
		destination, indices, positions,
		vertexCount, 12, target, math.MaxFloat32,
	)
	if err != nil {
		t.Fatal(err)
	}

	checkIndexBuffer(t, destination[:write], len(indices), vertexCount)

	// a flat grid is entirely collapsible: the interior is manifold and
	// collapses are free, so the reducer should get at least close
	if write > target+len(indices)/8 {
		t.Errorf("result has %d indices, target was %d", write, target)
	}
}

func TestSimplifyDebugClassification(t *testing.T) {
	positions, indices := gridMesh(4)
	vertexCount := len(positions) / 3
	destination := make([]uint32, len(indices))

	var debug DebugInfo
	_, err := SimplifyDebug(
		destination, indices, positions,
		vertexCount, 12, 0, math.MaxFloat32, &debug,
	)
	if err != nil {
		t.Fatal(err)
	}

	assert.Len(t, debug.Kinds, vertexCount)
	assert.Len(t, debug.Loop, vertexCount)
	assert.Len(t, debug.Remap, vertexCount)
	assert.Len(t, debug.Wedge, vertexCount)
	assert.Greater(t, debug.Passes, 0)

	// 4x4 grid: the four interior vertices are manifold, the rim is
	// border; all positions are unique so remap and wedge are identity
	manifold := 0
	for v, kind := range debug.Kinds {
		if kind == mesh.Manifold {
			manifold++
		}
		assert.Equal(t, uint32(v), debug.Remap[v])
		assert.Equal(t, uint32(v), debug.Wedge[v])
	}
	assert.Equal(t, 4, manifold)
}

func TestSimplifyPreconditions(t *testing.T) {
	positions, indices := tetrahedron()
	destination := make([]uint32, len(indices))

	_, err := Simplify(destination, indices[:4], positions, 4, 12, 0, 0)
	assert.ErrorIs(t, err, ErrIndexCount)

	_, err = Simplify(destination, indices, positions, 4, 13, 0, 0)
	assert.ErrorIs(t, err, ErrStride)

	_, err = Simplify(destination, indices, positions, 4, 0, 0, 0)
	assert.ErrorIs(t, err, ErrStride)

	_, err = Simplify(destination, indices, positions, 4, 260, 0, 0)
	assert.ErrorIs(t, err, ErrStride)

	_, err = Simplify(destination, indices, positions, 4, 12, 15, 0)
	assert.ErrorIs(t, err, ErrTargetIndexCount)

	_, err = Simplify(destination, indices, positions, 3, 12, 0, 0)
	assert.ErrorIs(t, err, ErrVertexIndex)

	_, err = Simplify(destination[:3], indices, positions, 4, 12, 0, 0)
	assert.ErrorIs(t, err, ErrBufferSize)
}

func BenchmarkSimplify(b *testing.B) {
	positions, indices := gridMesh(33)
	vertexCount := len(positions) / 3
	destination := make([]uint32, len(indices))
	target := len(indices) / 4

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Simplify(
			destination, indices, positions,
			vertexCount, 12, target, math.MaxFloat32,
		)
		if err != nil {
			b.Fatal(err)
		}
	}
}
