package simplify

import "math"

// Quadric is a symmetric 4x4 error matrix stored as its 10 distinct
// entries, accumulated per vertex from the planes of its incident
// triangles, per the quadric-error-metric algorithm.
//
// Quadrics are accumulated in float64 even though mesh positions are
// stored as float32: summing many plane quadrics drifts badly in f32.
type Quadric struct {
	a [10]float64 // a11,a12,a13,a14,a22,a23,a24,a33,a34,a44
}

// planeQuadric builds the quadric for the plane a*x+b*y+c*z+d=0.
func planeQuadric(a, b, c, d float64) Quadric {
	return Quadric{a: [10]float64{
		a * a, a * b, a * c, a * d,
		b * b, b * c, b * d,
		c * c, c * d,
		d * d,
	}}
}

// Add returns the sum of two quadrics.
func (q Quadric) Add(o Quadric) Quadric {
	var out Quadric
	for i := range q.a {
		out.a[i] = q.a[i] + o.a[i]
	}
	return out
}

// Error evaluates the quadric at point (x,y,z): vᵀQv for the homogeneous
// point [x y z 1].
func (q Quadric) Error(x, y, z float64) float64 {
	return q.a[0]*x*x + 2*q.a[1]*x*y + 2*q.a[2]*x*z + 2*q.a[3]*x +
		q.a[4]*y*y + 2*q.a[5]*y*z + 2*q.a[6]*y +
		q.a[7]*z*z + 2*q.a[8]*z +
		q.a[9]
}

// triangleQuadric returns the quadric for the plane through a,b,c, or the
// zero quadric if the triangle is degenerate.
func triangleQuadric(a, b, c [3]float64) Quadric {
	e1 := sub(b, a)
	e2 := sub(c, a)
	n := cross(e1, e2)
	length := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if length < 1e-12 {
		return Quadric{}
	}
	nx, ny, nz := n[0]/length, n[1]/length, n[2]/length
	d := -(nx*a[0] + ny*a[1] + nz*a[2])
	return planeQuadric(nx, ny, nz, d)
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
