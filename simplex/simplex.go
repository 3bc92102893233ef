package simplex

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Vertex is a point of the Minkowski difference A - B together with the two support
// points it was built from, so witness points can be rebuilt on each shape.
type Vertex struct {
	W mgl64.Vec3
	A mgl64.Vec3
	B mgl64.Vec3
}

// Simplex represents a set of 1-4 vertices in the Minkowski difference space.
// After Reduce the vertices spanning the feature closest to the origin sit in
// [0, Count) and Barycentric holds their weights at the same positions.
type Simplex struct {
	Vertices    [4]Vertex
	Barycentric [4]float64
	Count       int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

// Pool recycles simplices between queries. Callers must Reset after Get.
var Pool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// Add appends a vertex. It panics when the simplex already holds four vertices,
// which only happens if Reduce was skipped.
func (s *Simplex) Add(v Vertex) {
	if s.Count >= len(s.Vertices) {
		panic(errors.New("simplex: cannot add a fifth vertex"))
	}
	s.Vertices[s.Count] = v
	s.Count++
}

// Reduce keeps only the vertices of the feature closest to the origin, repacked in
// their original order, and returns that closest point.
func (s *Simplex) Reduce() mgl64.Vec3 {
	var points [4]mgl64.Vec3
	for i := 0; i < s.Count; i++ {
		points[i] = s.Vertices[i].W
	}

	ids := Indices{Idx: [4]int{0, 1, 2, 3}, Count: s.Count}
	var weights [4]float64
	closest := FindClosest(points[:s.Count], &ids, &weights)

	var packed [4]Vertex
	for k := 0; k < ids.Count; k++ {
		packed[k] = s.Vertices[ids.Idx[k]]
		s.Barycentric[k] = weights[ids.Idx[k]]
	}
	s.Vertices = packed
	s.Count = ids.Count

	return closest
}

// Translate shifts every Minkowski point by delta. Sweeps use it when the ray origin
// moves, which moves the whole difference set.
func (s *Simplex) Translate(delta mgl64.Vec3) {
	for i := 0; i < s.Count; i++ {
		s.Vertices[i].W = s.Vertices[i].W.Add(delta)
	}
}

// ClosestPoints interpolates the stored support points with the current weights.
func (s *Simplex) ClosestPoints() (a, b mgl64.Vec3) {
	for i := 0; i < s.Count; i++ {
		a = a.Add(s.Vertices[i].A.Mul(s.Barycentric[i]))
		b = b.Add(s.Vertices[i].B.Mul(s.Barycentric[i]))
	}
	return a, b
}

// Points copies the active Minkowski points.
func (s *Simplex) Points() []mgl64.Vec3 {
	points := make([]mgl64.Vec3, s.Count)
	for i := 0; i < s.Count; i++ {
		points[i] = s.Vertices[i].W
	}
	return points
}
