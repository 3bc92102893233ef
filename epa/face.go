package epa

import (
	"math"

	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// Face represents a triangular face of the polytope during EPA.
//
// Indices point into the polytope vertex buffer and are wound counter-clockwise when
// seen from outside, so Normal = (v1-v0) x (v2-v0) points away from the polytope.
// Edge e runs from Indices[e] to Indices[(e+1)%3]; AdjFaces[e] is the face across it
// and AdjEdges[e] the index of the same edge inside that face.
type Face struct {
	Indices  [3]int
	Normal   mgl64.Vec3
	Distance float64 // signed distance from origin to the face plane
	AdjFaces [3]int
	AdjEdges [3]int
	Obsolete bool
	valid    bool
}

// newFace builds a face over vertices and reports whether its normal could be computed.
// A sliver face stays in the polytope for adjacency but is never queued.
func newFace(vertices []simplex.Vertex, i0, i1, i2 int, epsilon float64) Face {
	f := Face{Indices: [3]int{i0, i1, i2}}

	v0 := vertices[i0].W
	e1 := vertices[i1].W.Sub(v0)
	e2 := vertices[i2].W.Sub(v0)
	normal := e1.Cross(e2)
	lenSqr := normal.LenSqr()

	if lenSqr == 0 || lenSqr <= epsilon*e1.LenSqr()*e2.LenSqr() {
		return f
	}

	f.Normal = normal.Mul(1 / math.Sqrt(lenSqr))
	f.Distance = f.Normal.Dot(v0)
	f.valid = true
	return f
}

// sees reports whether point lies strictly in front of the face plane.
func (f *Face) sees(point mgl64.Vec3) bool {
	return f.Normal.Dot(point)-f.Distance > 0
}

// witnesses projects the origin onto the face and rebuilds the matching points on
// both shapes from the stored supports.
func (f *Face) witnesses(vertices []simplex.Vertex) (a, b mgl64.Vec3) {
	points := [3]mgl64.Vec3{
		vertices[f.Indices[0]].W,
		vertices[f.Indices[1]].W,
		vertices[f.Indices[2]].W,
	}
	ids := simplex.Indices{Idx: [4]int{0, 1, 2}, Count: 3}
	var weights [4]float64
	simplex.Triangle(points[:], &ids, &weights)

	for k := 0; k < ids.Count; k++ {
		v := vertices[f.Indices[ids.Idx[k]]]
		w := weights[ids.Idx[k]]
		a = a.Add(v.A.Mul(w))
		b = b.Add(v.B.Mul(w))
	}
	return a, b
}
