package geom

import (
	"github.com/chewxy/math32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max Vec
}

// PositionBounds returns the bounding box of vertexCount positions stored
// in data with the given stride, measured in floats. An empty vertex set
// yields an inverted box.
func PositionBounds(data []float32, vertexCount, stride int) Bounds {
	b := Bounds{
		Min: Vec{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32},
		Max: Vec{-math32.MaxFloat32, -math32.MaxFloat32, -math32.MaxFloat32},
	}

	for i := 0; i < vertexCount; i++ {
		v := data[i*stride:]
		for j := 0; j < 3; j++ {
			if v[j] < b.Min[j] {
				b.Min[j] = v[j]
			}
			if v[j] > b.Max[j] {
				b.Max[j] = v[j]
			}
		}
	}

	return b
}

// Extent returns the largest axis range of b.
func (b *Bounds) Extent() float32 {
	extent := float32(0)
	for j := 0; j < 3; j++ {
		if r := b.Max[j] - b.Min[j]; r > extent {
			extent = r
		}
	}
	return extent
}

// Contains returns true if v lies inside b and false otherwise.
func (b *Bounds) Contains(v *Vec) bool {
	for j := 0; j < 3; j++ {
		if v[j] < b.Min[j] || v[j] > b.Max[j] {
			return false
		}
	}
	return true
}

// RescalePositions copies vertexCount positions out of data, with stride
// measured in floats, and rescales them so that the largest bounding box
// axis spans [0, 1]. The other axes are scaled by the same factor, so the
// result always fits in the unit cube. A zero-extent input maps every
// vertex to the origin.
func RescalePositions(result []Vec, data []float32, vertexCount, stride int) {
	b := PositionBounds(data, vertexCount, stride)

	scale := float32(0)
	if extent := b.Extent(); extent > 0 {
		scale = 1 / extent
	}

	for i := 0; i < vertexCount; i++ {
		v := data[i*stride:]
		for j := 0; j < 3; j++ {
			result[i][j] = (v[j] - b.Min[j]) * scale
		}
	}
}
