// Package simplex finds the point of a 1 to 4 point simplex closest to the origin.
//
// The search uses signed cofactors (sub-areas for triangles, sub-volumes for tetrahedra)
// rather than explicit Voronoi region tests. When the origin projects outside the simplex,
// every sub-feature whose cofactor disagrees with the total is solved recursively and the
// globally closest candidate wins. Numerically flat simplices drop to the lower dimension.
//
// References:
//   - Montanari, Petrinic, Barbieri: "Improving the GJK algorithm for faster and more reliable
//     distance queries between convex objects" (2017)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package simplex

import (
	"math"

	"github.com/akmonengine/narrowphase/internal/scalar"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

const (
	// triangleDegenerateEpsilon bounds sin² of the triangle angle at its first vertex.
	triangleDegenerateEpsilon = 1e-14

	// tetrahedronDegenerateEpsilon bounds the volume relative to the product of edge lengths.
	tetrahedronDegenerateEpsilon = 1e-12
)

// Indices selects the active points of a point buffer, in order.
type Indices struct {
	Idx   [4]int
	Count int
}

// FindClosest returns the point of the simplex selected by ids that is closest to the origin.
//
// On return ids holds only the points spanning the closest feature, in their original
// relative order, and barycentric[i] holds the weight of points[i] for every i left in ids.
// Weights of the discarded points are not touched.
func FindClosest(points []mgl64.Vec3, ids *Indices, barycentric *[4]float64) mgl64.Vec3 {
	switch ids.Count {
	case 1:
		barycentric[ids.Idx[0]] = 1
		return points[ids.Idx[0]]
	case 2:
		return Line(points, ids, barycentric)
	case 3:
		return Triangle(points, ids, barycentric)
	case 4:
		return Tetrahedron(points, ids, barycentric)
	}
	panic(errors.Errorf("simplex: invalid vertex count %d", ids.Count))
}

// Line solves the segment case.
//
// No epsilon is applied to the segment length: very short segments still keep both ends
// as long as the origin projects between them.
func Line(points []mgl64.Vec3, ids *Indices, barycentric *[4]float64) mgl64.Vec3 {
	i0, i1 := ids.Idx[0], ids.Idx[1]
	x0, x1 := points[i0], points[i1]
	edge := x1.Sub(x0)

	projection := x0.Mul(-1).Dot(edge)
	if projection <= 0 {
		ids.Count = 1
		barycentric[i0] = 1
		return x0
	}

	lenSqr := edge.LenSqr()
	if lenSqr <= projection {
		ids.Idx[0] = i1
		ids.Count = 1
		barycentric[i1] = 1
		return x1
	}

	ratio := projection / lenSqr
	barycentric[i0] = 1 - ratio
	barycentric[i1] = ratio
	return x0.Add(edge.Mul(ratio))
}

// area2D is the signed double area of (a, b, c) on the plane spanned by axes u and v.
func area2D(a, b, c mgl64.Vec3, u, v int) float64 {
	return (b[u]-a[u])*(c[v]-a[v]) - (b[v]-a[v])*(c[u]-a[u])
}

// Triangle solves the triangle case.
//
// The origin is projected onto the triangle plane and the sub-areas are measured on the
// coordinate plane where the triangle's shadow is largest. A zero sub-area counts as
// outside, so an origin lying on an edge reduces to that edge.
func Triangle(points []mgl64.Vec3, ids *Indices, barycentric *[4]float64) mgl64.Vec3 {
	i0, i1, i2 := ids.Idx[0], ids.Idx[1], ids.Idx[2]
	x0, x1, x2 := points[i0], points[i1], points[i2]
	e1 := x1.Sub(x0)
	e2 := x2.Sub(x0)
	normal := e1.Cross(e2)
	normalLenSqr := normal.LenSqr()

	// Flat triangle: keep the two oldest points
	if normalLenSqr <= triangleDegenerateEpsilon*e1.LenSqr()*e2.LenSqr() {
		ids.Count = 2
		return Line(points, ids, barycentric)
	}

	projected := normal.Mul(x0.Dot(normal) / normalLenSqr)

	// Drop the axis with the largest normal component
	drop := 0
	for axis := 1; axis < 3; axis++ {
		if math.Abs(normal[axis]) > math.Abs(normal[drop]) {
			drop = axis
		}
	}
	u, v := (drop+1)%3, (drop+2)%3

	total := area2D(x0, x1, x2, u, v)
	cofactors := [3]float64{
		area2D(projected, x1, x2, u, v),
		area2D(x0, projected, x2, u, v),
		area2D(x0, x1, projected, u, v),
	}

	inside := true
	for i := 0; i < 3; i++ {
		if !scalar.SameSign(cofactors[i], total) {
			inside = false
			break
		}
	}

	if inside {
		barycentric[i0] = cofactors[0] / total
		barycentric[i1] = cofactors[1] / total
		barycentric[i2] = cofactors[2] / total
		return projected
	}

	// Edge opposite each failing vertex, keeping slot order
	edges := [3][2]int{{i1, i2}, {i0, i2}, {i0, i1}}
	best := math.Inf(1)
	var bestIds Indices
	var bestWeights [4]float64
	var bestPoint mgl64.Vec3

	for i := 0; i < 3; i++ {
		if scalar.SameSign(cofactors[i], total) {
			continue
		}
		sub := Indices{Idx: [4]int{edges[i][0], edges[i][1]}, Count: 2}
		var weights [4]float64
		p := Line(points, &sub, &weights)
		if d := p.LenSqr(); d < best {
			best = d
			bestIds = sub
			bestWeights = weights
			bestPoint = p
		}
	}

	*ids = bestIds
	for k := 0; k < ids.Count; k++ {
		barycentric[ids.Idx[k]] = bestWeights[ids.Idx[k]]
	}
	return bestPoint
}

// signedVolume is six times the signed volume of the tetrahedron (a, b, c, d).
func signedVolume(a, b, c, d mgl64.Vec3) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}

// Tetrahedron solves the tetrahedron case. When the origin is inside, the closest point
// is the origin itself and all four points are kept.
func Tetrahedron(points []mgl64.Vec3, ids *Indices, barycentric *[4]float64) mgl64.Vec3 {
	i0, i1, i2, i3 := ids.Idx[0], ids.Idx[1], ids.Idx[2], ids.Idx[3]
	x0, x1, x2, x3 := points[i0], points[i1], points[i2], points[i3]
	var origin mgl64.Vec3

	total := signedVolume(x0, x1, x2, x3)
	scale := x1.Sub(x0).Len() * x2.Sub(x0).Len() * x3.Sub(x0).Len()
	if math.Abs(total) <= tetrahedronDegenerateEpsilon*scale {
		ids.Count = 3
		return Triangle(points, ids, barycentric)
	}

	cofactors := [4]float64{
		signedVolume(origin, x1, x2, x3),
		signedVolume(x0, origin, x2, x3),
		signedVolume(x0, x1, origin, x3),
		signedVolume(x0, x1, x2, origin),
	}

	inside := true
	for i := 0; i < 4; i++ {
		if !scalar.SameSign(cofactors[i], total) {
			inside = false
			break
		}
	}

	if inside {
		for i := 0; i < 4; i++ {
			barycentric[ids.Idx[i]] = cofactors[i] / total
		}
		return origin
	}

	faces := [4][3]int{{i1, i2, i3}, {i0, i2, i3}, {i0, i1, i3}, {i0, i1, i2}}
	best := math.Inf(1)
	var bestIds Indices
	var bestWeights [4]float64
	var bestPoint mgl64.Vec3

	for i := 0; i < 4; i++ {
		if scalar.SameSign(cofactors[i], total) {
			continue
		}
		sub := Indices{Idx: [4]int{faces[i][0], faces[i][1], faces[i][2]}, Count: 3}
		var weights [4]float64
		p := Triangle(points, &sub, &weights)
		if d := p.LenSqr(); d < best {
			best = d
			bestIds = sub
			bestWeights = weights
			bestPoint = p
		}
	}

	*ids = bestIds
	for k := 0; k < ids.Count; k++ {
		barycentric[ids.Idx[k]] = bestWeights[ids.Idx[k]]
	}
	return bestPoint
}
