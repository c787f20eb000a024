/*package geom contains the geometric primitives used by the simplifier:
position vectors, bounding boxes, error quadrics and the uniform cell grid.

All quantities are float32; callers are expected to rescale positions into
the unit cube (see RescalePositions) before accumulating quadrics so that
error magnitudes stay well conditioned.
*/
package geom

import (
	"github.com/chewxy/math32"
)

// Vec is a three dimensional position vector.
type Vec [3]float32

// Sub stores v - u in out.
func (v *Vec) Sub(u, out *Vec) {
	for i := 0; i < 3; i++ {
		out[i] = v[i] - u[i]
	}
}

// Dot returns the inner product of v and u.
func (v *Vec) Dot(u *Vec) float32 {
	return v[0]*u[0] + v[1]*u[1] + v[2]*u[2]
}

// Cross stores the cross product of v and u in out. out must not alias
// either operand.
func (v *Vec) Cross(u, out *Vec) {
	out[0] = v[1]*u[2] - v[2]*u[1]
	out[1] = v[2]*u[0] - v[0]*u[2]
	out[2] = v[0]*u[1] - v[1]*u[0]
}

// Normalize scales v to unit length in place and returns the length v had
// before the call. A zero vector is left unchanged.
func (v *Vec) Normalize() float32 {
	length := math32.Sqrt(v.Dot(v))
	if length > 0 {
		for i := 0; i < 3; i++ {
			v[i] /= length
		}
	}
	return length
}
