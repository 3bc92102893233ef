// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for narrow-phase queries.
//
// All queries share one skeleton: a search vector V tracks the point of the Minkowski
// difference A - B closest to the origin, each iteration asks both shapes for a support
// point along -V, folds it into a simplex and reduces the simplex to the feature closest
// to the origin. On top of it sit four query modes:
//   - Intersects: boolean overlap, with early exit as soon as a separating plane is found
//   - Distance: closest points and separation, with a running lower bound for convergence
//   - Penetration: depth, normal and witness points, falling back to EPA on deep overlap
//   - Raycast / Sweep: conservative advancement of B along a direction until it touches A
//
// Every query works in A's local frame. The bToA (or start) transform places B in that frame,
// and normals always point from A toward B.
//
// Shapes can be queried whole or as a core shrunk by a margin (see shape.Adapter): spheres and
// capsules then reduce to a point and a segment, and the margins are added back afterwards.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Ray Casting against General Convex Objects with Application to
//     Continuous Collision Detection" (2004)
package gjk

import (
	"math"

	"github.com/akmonengine/narrowphase/epa"
	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/internal/scalar"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// unitTolerance bounds |len² - 1| for a sweep direction.
const unitTolerance = 1e-4

// defaultAxis replaces the initial search vector when both frames share an origin.
var defaultAxis = mgl64.Vec3{-1, 0, 0}

// Convex is the view of a shape the queries need. shape.Adapter implements it.
type Convex interface {
	// Support returns the farthest point along direction, eroded by margin.
	Support(direction mgl64.Vec3, margin float64) mgl64.Vec3
	Margin() float64
	IsConvex() bool
}

// VertexSupporter is implemented by Convex values that can name the vertex a support point
// came from. The index is -1 when the shape has no discrete vertices.
type VertexSupporter interface {
	SupportVertex(direction mgl64.Vec3, margin float64) (mgl64.Vec3, int)
}

// Settings tunes the iteration caps and thresholds shared by the queries.
type Settings struct {
	MaxIterations int
	// Epsilon is the convergence gap of Distance.
	Epsilon float64
	// NearZero is the squared length under which V counts as touching the origin.
	NearZero float64
	EPA      epa.Settings
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations: 32,
		Epsilon:       1e-4,
		NearZero:      1e-6,
		EPA:           epa.DefaultSettings(),
	}
}

// Solver runs queries with fixed settings. It holds no per-query state and is safe for
// concurrent use.
type Solver struct {
	settings Settings
}

// NewSolver panics when an iteration cap is below one.
func NewSolver(settings Settings) *Solver {
	if settings.MaxIterations < 1 {
		panic(errors.Errorf("gjk: max iterations must be positive, got %d", settings.MaxIterations))
	}
	if settings.EPA.MaxIterations < 1 {
		panic(errors.Errorf("gjk: epa max iterations must be positive, got %d", settings.EPA.MaxIterations))
	}
	return &Solver{settings: settings}
}

func (s *Solver) Settings() Settings {
	return s.settings
}

var defaultSolver = NewSolver(DefaultSettings())

// query binds two shapes, their margins and the transform placing B in A's frame.
type query struct {
	a, b             Convex
	bToA             shape.Transform
	marginA, marginB float64
}

func newQuery(a, b Convex, bToA shape.Transform, marginA, marginB float64) query {
	return query{a: a, b: b, bToA: bToA, marginA: marginA, marginB: marginB}
}

// support returns the Minkowski support point of A - B along direction, in A's frame.
func (q *query) support(direction mgl64.Vec3) simplex.Vertex {
	pa := q.a.Support(direction, q.marginA)
	localDirection := q.bToA.InverseTransformDirection(direction.Mul(-1))
	pb := q.bToA.TransformPoint(q.b.Support(localDirection, q.marginB))
	return simplex.Vertex{W: pa.Sub(pb), A: pa, B: pb}
}

// initialDirection estimates V from the frame origins: A sits at the origin, B at bToA.Position.
func (q *query) initialDirection() mgl64.Vec3 {
	v := q.bToA.Position.Mul(-1)
	if v.LenSqr() == 0 {
		return defaultAxis
	}
	return v
}

func requireConvex(a, b Convex) {
	if a == nil || b == nil || !a.IsConvex() || !b.IsConvex() {
		panic(errors.New("gjk: both shapes must be convex"))
	}
}

func requireRay(direction mgl64.Vec3, length float64) {
	if !scalar.ApproxEqual(direction.LenSqr(), 1, unitTolerance) {
		panic(errors.Errorf("gjk: sweep direction %v is not unit length", direction))
	}
	if length <= 0 {
		panic(errors.Errorf("gjk: sweep length must be positive, got %g", length))
	}
}

func acquireSimplex() *simplex.Simplex {
	smp := simplex.Pool.Get().(*simplex.Simplex)
	smp.Reset()
	return smp
}

// Intersects reports whether A and B, each inflated by its thickness, overlap.
//
// Both shapes are queried on their cores and the margins join the thicknesses in the
// inflation. The loop returns false as soon as a support plane proves a gap larger than the
// inflation, and true once V falls inside the inflation.
//
// Contact tolerance: a core gap of at most sqrt(NearZero) beyond the inflation (1e-3 with the
// default settings) counts as contact when no support plane has proven the separation first.
// This matches the stopping rule of Raycast, so a shape moved to a reported hit time always
// intersects. When V stops shrinking the same test gives the verdict.
func (s *Solver) Intersects(a, b Convex, bToA shape.Transform, thicknessA, thicknessB float64) bool {
	requireConvex(a, b)
	q := newQuery(a, b, bToA, a.Margin(), b.Margin())
	inflation := q.marginA + q.marginB + thicknessA + thicknessB
	inflationSqr := inflation * inflation
	tolerance := math.Sqrt(s.settings.NearZero)

	smp := acquireSimplex()
	defer simplex.Pool.Put(smp)

	v := q.initialDirection()
	vLenSqr := math.MaxFloat64

	for i := 0; i < s.settings.MaxIterations; i++ {
		w := q.support(v.Mul(-1))

		// Separating plane found: the whole difference lies beyond the inflation along V
		if v.Dot(w.W) > inflation*v.Len() {
			return false
		}

		smp.Add(w)
		v = smp.Reduce()

		newLenSqr := v.LenSqr()
		if newLenSqr <= s.settings.NearZero || newLenSqr < inflationSqr || smp.Count == 4 {
			return true
		}
		if newLenSqr >= vLenSqr {
			return withinInflation(newLenSqr, inflation, tolerance, s.settings.NearZero)
		}
		vLenSqr = newLenSqr
	}

	logging.LogWarn("gjk: intersection did not converge after %d iterations", s.settings.MaxIterations)
	return true
}

// withinInflation is the overlap verdict for a core gap of sqrt(lenSqr): touching the origin,
// or covered by the inflation plus slack.
func withinInflation(lenSqr, inflation, slack, nearZero float64) bool {
	reach := inflation + slack
	return lenSqr <= nearZero || lenSqr < reach*reach
}

// Intersects runs Solver.Intersects with the default settings.
func Intersects(a, b Convex, bToA shape.Transform, thicknessA, thicknessB float64) bool {
	return defaultSolver.Intersects(a, b, bToA, thicknessA, thicknessB)
}
