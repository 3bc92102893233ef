// Package epa implements the Expanding Polytope Algorithm for penetration depth.
//
// EPA starts from a simplex of the Minkowski difference A - B that contains (or nearly
// contains) the origin, typically the terminal simplex of GJK, and repeatedly pushes the
// polytope face closest to the origin outward along its normal until the face cannot move
// any further. That face then gives the minimum translation separating A and B.
//
// The polytope lives in an arena: faces are appended and marked obsolete, never moved,
// and each face keeps its three neighbours so the visible region can be carved out with
// a flood fill instead of an edge search over every face.
package epa

import (
	"math"

	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// SupportFunc returns the support vertex of the Minkowski difference A - B along direction.
type SupportFunc func(direction mgl64.Vec3) simplex.Vertex

// Status tells how an EPA run ended.
type Status int

const (
	// Ok means the closest face converged within tolerance.
	Ok Status = iota
	// MaxIterations means the iteration cap was hit; the result is the best face so far.
	MaxIterations
	// Degenerate means the polytope could not be expanded further.
	Degenerate
	// BadInitialSimplex means no valid tetrahedron around the origin could be built.
	// The shapes are then treated as touching along Normal with zero depth.
	BadInitialSimplex
)

func (s Status) String() string {
	switch s {
	case Ok:
		return "Ok"
	case MaxIterations:
		return "MaxIterations"
	case Degenerate:
		return "Degenerate"
	case BadInitialSimplex:
		return "BadInitialSimplex"
	}
	return "Unknown"
}

// Settings bounds an EPA run.
type Settings struct {
	MaxIterations int
	// Tolerance is the relative gap between upper and lower depth bounds at convergence.
	Tolerance float64
	// DegenerateEpsilon bounds sin² of the angle under which a face is a sliver.
	DegenerateEpsilon float64
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations:     64,
		Tolerance:         1e-4,
		DegenerateEpsilon: 1e-12,
	}
}

// Result of an EPA run.
// Normal is the outward normal of the closest face, pointing from A toward B, and Depth
// its distance from the origin. ClosestA - ClosestB == Depth * Normal up to tolerance.
type Result struct {
	Status     Status
	Depth      float64
	Normal     mgl64.Vec3
	ClosestA   mgl64.Vec3
	ClosestB   mgl64.Vec3
	Iterations int
}

// touchingNormal is reported when no plane could be derived from the seed simplex.
var touchingNormal = mgl64.Vec3{0, 0, 1}

// EPA computes the penetration of A and B from seed vertices of their Minkowski difference.
//
// Algorithm:
//  1. Grow the 1-4 seed vertices into a tetrahedron and queue its faces by distance
//  2. Pop the closest live face and find the support point along its normal
//  3. Stop once the best support distance (upper bound) meets the face distance (lower bound)
//  4. Otherwise carve out every face visible from the support point
//  5. Close the hole with new faces meeting at that point and queue them
//
// It panics when given no seed vertex, more than four, or a non-positive iteration cap.
func EPA(vertices []simplex.Vertex, support SupportFunc, settings Settings) Result {
	if len(vertices) == 0 || len(vertices) > 4 {
		panic(errors.Errorf("epa: expected 1 to 4 seed vertices, got %d", len(vertices)))
	}
	if settings.MaxIterations < 1 {
		panic(errors.Errorf("epa: max iterations must be positive, got %d", settings.MaxIterations))
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()
	builder.vertices = append(builder.vertices, vertices...)

	// Step 1: initial tetrahedron
	if normal, ok := builder.BuildInitialFaces(support, settings.DegenerateEpsilon); !ok {
		logging.LogDebug("epa: bad initial simplex from %d vertices, plane normal %v", len(vertices), normal)
		return touching(normal, vertices[0], support)
	}

	upper := math.Inf(1)
	best := -1
	iterations := 0

	for ; iterations < settings.MaxIterations; iterations++ {
		// Step 2: closest face and its support point
		index, ok := builder.queue.popLive()
		if !ok {
			break
		}
		best = index
		face := builder.faces[index]
		lower := face.Distance

		w := support(face.Normal)
		upper = math.Min(upper, w.W.Dot(face.Normal))

		// Step 3: convergence
		if upper-lower <= settings.Tolerance*math.Max(1, math.Abs(upper)) {
			return builder.result(Ok, index, iterations+1)
		}

		// Steps 4-5: expansion
		apex := len(builder.vertices)
		builder.vertices = append(builder.vertices, w)
		if !builder.carveHole(index, w.W) || !builder.stitch(apex, upper, settings.DegenerateEpsilon) {
			logging.LogDebug("epa: degenerate polytope at iteration %d, depth %g", iterations, lower)
			return builder.result(Degenerate, index, iterations+1)
		}
	}

	if best < 0 {
		return touching(mgl64.Vec3{}, vertices[0], support)
	}
	if iterations == settings.MaxIterations {
		logging.LogWarn("epa: no convergence after %d iterations, depth %g", iterations, builder.faces[best].Distance)
		return builder.result(MaxIterations, best, iterations)
	}

	// Every remaining face lies beyond the upper bound: the last face popped is the answer
	return builder.result(Ok, best, iterations)
}

// touching builds the zero-depth result for a seed that spans no volume. A plane normal is
// flipped toward the side where the Minkowski difference is shallower.
func touching(normal mgl64.Vec3, seed simplex.Vertex, support SupportFunc) Result {
	if normal.LenSqr() == 0 {
		normal = touchingNormal
	} else {
		normal = normal.Normalize()
		flipped := normal.Mul(-1)
		if support(flipped).W.Dot(flipped) < support(normal).W.Dot(normal) {
			normal = flipped
		}
	}

	return Result{
		Status:   BadInitialSimplex,
		Normal:   normal,
		ClosestA: seed.A,
		ClosestB: seed.B,
	}
}
