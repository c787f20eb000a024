package geom

import (
	"github.com/chewxy/math32"
)

// Quadric is a symmetric 4x4 error matrix stored as ten scalars: the lower
// triangle of the 3x3 quadratic block, the linear term and the constant
// term. Evaluated at a point v it measures v'Av + 2bv + c, the sum of
// squared distances to the planes accumulated into it.
//
// The zero value is a valid empty quadric.
type Quadric struct {
	a00           float32
	a10, a11      float32
	a20, a21, a22 float32
	b0, b1, b2, c float32
}

// Add accumulates r into q componentwise.
func (q *Quadric) Add(r *Quadric) {
	q.a00 += r.a00
	q.a10 += r.a10
	q.a11 += r.a11
	q.a20 += r.a20
	q.a21 += r.a21
	q.a22 += r.a22
	q.b0 += r.b0
	q.b1 += r.b1
	q.b2 += r.b2
	q.c += r.c
}

// Mul scales all ten components of q by s.
func (q *Quadric) Mul(s float32) {
	q.a00 *= s
	q.a10 *= s
	q.a11 *= s
	q.a20 *= s
	q.a21 *= s
	q.a22 *= s
	q.b0 *= s
	q.b1 *= s
	q.b2 *= s
	q.c *= s
}

// FromPlane initializes q to the outer product of the plane (a, b, c, d),
// so that Error returns the squared distance to that plane when the normal
// is unit length.
func (q *Quadric) FromPlane(a, b, c, d float32) {
	q.a00 = a * a
	q.a10 = b * a
	q.a11 = b * b
	q.a20 = c * a
	q.a21 = c * b
	q.a22 = c * c
	q.b0 = d * a
	q.b1 = d * b
	q.b2 = d * c
	q.c = d * d
}

// FromTriangle initializes q to the plane quadric of the triangle
// (p0, p1, p2), weighted by the triangle's area so that larger triangles
// constrain their vertices more strongly.
func (q *Quadric) FromTriangle(p0, p1, p2 *Vec) {
	var p10, p20, normal Vec
	p1.Sub(p0, &p10)
	p2.Sub(p0, &p20)

	p10.Cross(&p20, &normal)
	area := normal.Normalize()

	distance := normal.Dot(p0)

	q.FromPlane(normal[0], normal[1], normal[2], -distance)
	q.Mul(area)
}

// FromTriangleEdge initializes q to the quadric of a plane that contains
// the edge p0->p1 and is perpendicular to the plane of the triangle
// (p0, p1, p2), weighted by the squared edge length times weight. Adding
// it to both edge endpoints penalizes movement away from the edge.
func (q *Quadric) FromTriangleEdge(p0, p1, p2 *Vec, weight float32) {
	var p10 Vec
	p1.Sub(p0, &p10)
	length := p10.Normalize()

	var p20 Vec
	p2.Sub(p0, &p20)
	p20p := p20.Dot(&p10)

	normal := Vec{p20[0] - p10[0]*p20p, p20[1] - p10[1]*p20p, p20[2] - p10[2]*p20p}
	normal.Normalize()

	distance := normal.Dot(p0)

	q.FromPlane(normal[0], normal[1], normal[2], -distance)
	q.Mul(length * length * weight)
}

// Error evaluates q at v and returns the absolute value of the quadratic
// form. The evaluation interleaves the linear and quadratic terms to keep
// the dependency chains short.
func (q *Quadric) Error(v *Vec) float32 {
	rx := q.b0
	ry := q.b1
	rz := q.b2

	rx += q.a10 * v[1]
	ry += q.a21 * v[2]
	rz += q.a20 * v[0]

	rx *= 2
	ry *= 2
	rz *= 2

	rx += q.a00 * v[0]
	ry += q.a11 * v[1]
	rz += q.a22 * v[2]

	r := q.c
	r += rx * v[0]
	r += ry * v[1]
	r += rz * v[2]

	return math32.Abs(r)
}
