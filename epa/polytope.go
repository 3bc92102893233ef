package epa

import (
	"sync"

	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// initialDistanceSlack is how far behind an initial face the origin may sit before the
// starting tetrahedron is rejected. GJK hands over simplices that only come within its
// near-zero threshold of the origin.
const initialDistanceSlack = 1e-3

// coincidentSqr is the squared distance below which two polytope points are the same.
const coincidentSqr = 1e-24

var searchAxes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Outward faces of a tetrahedron whose first face (0,1,2) looks away from vertex 3,
// with the adjacency that closes it.
var (
	tetrahedronFaces    = [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}}
	tetrahedronAdjFaces = [4][3]int{{1, 3, 2}, {2, 3, 0}, {0, 3, 1}, {1, 2, 0}}
	tetrahedronAdjEdges = [4][3]int{{2, 2, 0}, {2, 0, 2}, {2, 1, 0}, {1, 1, 1}}
)

// edgeRef names edge Edge of face Face.
type edgeRef struct {
	Face int
	Edge int
}

// PolytopeBuilder holds the growing polytope of one EPA run.
// Faces are never removed, only marked obsolete, so indices stay stable.
type PolytopeBuilder struct {
	vertices []simplex.Vertex
	faces    []Face
	queue    faceQueue
	stack    []edgeRef
	border   []edgeRef
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			vertices: make([]simplex.Vertex, 0, 64),
			faces:    make([]Face, 0, 128),
			stack:    make([]edgeRef, 0, 64),
			border:   make([]edgeRef, 0, 32),
		}
	},
}

// Reset clears the builder for reuse, keeping allocated capacity.
func (b *PolytopeBuilder) Reset() {
	b.vertices = b.vertices[:0]
	b.faces = b.faces[:0]
	b.stack = b.stack[:0]
	b.border = b.border[:0]
	b.queue.reset(&b.faces)
}

// BuildInitialFaces grows the seed vertices into a tetrahedron and queues its faces.
// On failure it returns the best plane normal it found, or a zero vector.
func (b *PolytopeBuilder) BuildInitialFaces(support SupportFunc, epsilon float64) (mgl64.Vec3, bool) {
	if len(b.vertices) == 1 && !b.extendPoint(support) {
		return mgl64.Vec3{}, false
	}
	if len(b.vertices) == 2 && !b.extendSegment(support, epsilon) {
		return mgl64.Vec3{}, false
	}
	if len(b.vertices) == 3 {
		normal, flat := b.triangleNormal(epsilon)
		if flat {
			return mgl64.Vec3{}, false
		}
		b.addFartherPoint(normal, support)
	}

	v0, v1, v2, v3 := b.vertices[0].W, b.vertices[1].W, b.vertices[2].W, b.vertices[3].W
	e1, e2, e3 := v1.Sub(v0), v2.Sub(v0), v3.Sub(v0)
	det := e1.Dot(e2.Cross(e3))
	if det*det <= epsilon*e1.LenSqr()*e2.LenSqr()*e3.LenSqr() {
		normal, flat := b.triangleNormal(epsilon)
		if flat {
			return mgl64.Vec3{}, false
		}
		return normal, false
	}

	// Make face (0,1,2) look away from vertex 3
	if det > 0 {
		b.vertices[1], b.vertices[2] = b.vertices[2], b.vertices[1]
	}

	for i := 0; i < 4; i++ {
		ids := tetrahedronFaces[i]
		f := newFace(b.vertices, ids[0], ids[1], ids[2], epsilon)
		if !f.valid {
			normal, _ := b.triangleNormal(epsilon)
			return normal, false
		}
		if f.Distance < -initialDistanceSlack {
			return f.Normal, false
		}
		f.AdjFaces = tetrahedronAdjFaces[i]
		f.AdjEdges = tetrahedronAdjEdges[i]
		b.faces = append(b.faces, f)
	}

	for i := range b.faces {
		b.queue.push(i)
	}
	return mgl64.Vec3{}, true
}

// addFartherPoint adds whichever of the supports along ±direction reaches farther.
func (b *PolytopeBuilder) addFartherPoint(direction mgl64.Vec3, support SupportFunc) {
	positive := support(direction)
	negative := support(direction.Mul(-1))
	if positive.W.Dot(direction) >= -negative.W.Dot(direction) {
		b.vertices = append(b.vertices, positive)
	} else {
		b.vertices = append(b.vertices, negative)
	}
}

func (b *PolytopeBuilder) extendPoint(support SupportFunc) bool {
	for _, axis := range searchAxes {
		b.addFartherPoint(axis, support)
		if b.vertices[1].W.Sub(b.vertices[0].W).LenSqr() > coincidentSqr {
			return true
		}
		b.vertices = b.vertices[:1]
	}
	return false
}

func (b *PolytopeBuilder) extendSegment(support SupportFunc, epsilon float64) bool {
	edge := b.vertices[1].W.Sub(b.vertices[0].W)
	for _, axis := range searchAxes {
		direction := edge.Cross(axis)
		if direction.LenSqr() == 0 {
			continue
		}
		b.addFartherPoint(direction, support)
		if _, flat := b.triangleNormal(epsilon); !flat {
			return true
		}
		b.vertices = b.vertices[:2]
	}
	return false
}

// triangleNormal returns the unit normal of the first three vertices.
func (b *PolytopeBuilder) triangleNormal(epsilon float64) (mgl64.Vec3, bool) {
	f := newFace(b.vertices, 0, 1, 2, epsilon)
	return f.Normal, !f.valid
}

// carveHole marks every face visible from point as obsolete, starting at root, and
// collects the horizon as the non-visible side of each crossed edge.
// It returns false when the horizon cannot bound a cap.
func (b *PolytopeBuilder) carveHole(root int, point mgl64.Vec3) bool {
	b.border = b.border[:0]
	b.stack = b.stack[:0]

	rootFace := &b.faces[root]
	rootFace.Obsolete = true
	for e := 2; e >= 0; e-- {
		b.stack = append(b.stack, edgeRef{Face: rootFace.AdjFaces[e], Edge: rootFace.AdjEdges[e]})
	}

	for len(b.stack) > 0 {
		current := b.stack[len(b.stack)-1]
		b.stack = b.stack[:len(b.stack)-1]

		f := &b.faces[current.Face]
		if f.Obsolete {
			continue
		}
		if !f.sees(point) {
			b.border = append(b.border, current)
			continue
		}

		f.Obsolete = true
		next := (current.Edge + 1) % 3
		last := (current.Edge + 2) % 3
		b.stack = append(b.stack,
			edgeRef{Face: f.AdjFaces[last], Edge: f.AdjEdges[last]},
			edgeRef{Face: f.AdjFaces[next], Edge: f.AdjEdges[next]},
		)
	}

	return len(b.border) >= 3
}

// stitch closes the hole left by carveHole with a fan of faces meeting at apex and
// queues those that could still beat the upper bound.
func (b *PolytopeBuilder) stitch(apex int, upper, epsilon float64) bool {
	first := len(b.faces)

	for _, edge := range b.border {
		owner := b.faces[edge.Face].Indices
		f := newFace(b.vertices, owner[(edge.Edge+1)%3], owner[edge.Edge], apex, epsilon)
		f.AdjFaces[0] = edge.Face
		f.AdjEdges[0] = edge.Edge

		b.faces[edge.Face].AdjFaces[edge.Edge] = len(b.faces)
		b.faces[edge.Face].AdjEdges[edge.Edge] = 0
		b.faces = append(b.faces, f)
	}

	// Edge 1 of a new face (v1 -> apex) meets edge 2 (apex -> v0) of the face starting at v1
	for k := first; k < len(b.faces); k++ {
		end := b.faces[k].Indices[1]
		next := -1
		for j := first; j < len(b.faces); j++ {
			if b.faces[j].Indices[0] != end {
				continue
			}
			if next >= 0 {
				return false
			}
			next = j
		}
		if next < 0 || next == k {
			return false
		}

		b.faces[k].AdjFaces[1] = next
		b.faces[k].AdjEdges[1] = 2
		b.faces[next].AdjFaces[2] = k
		b.faces[next].AdjEdges[2] = 1
	}

	for k := first; k < len(b.faces); k++ {
		f := &b.faces[k]
		if f.valid && f.Distance <= upper {
			b.queue.push(k)
		}
	}
	return true
}

func (b *PolytopeBuilder) result(status Status, index, iterations int) Result {
	f := &b.faces[index]
	closestA, closestB := f.witnesses(b.vertices)
	return Result{
		Status:     status,
		Depth:      f.Distance,
		Normal:     f.Normal,
		ClosestA:   closestA,
		ClosestB:   closestB,
		Iterations: iterations,
	}
}
