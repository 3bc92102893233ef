package gjk

import (
	"math"

	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// SweepResult describes the first contact of a sweep, in A's frame.
//
// Time is the distance travelled along the sweep direction. Position lies on A's surface and
// Normal points from A toward B. A sweep starting in overlap reports Time 0 and nothing else,
// or, when the minimum translation was requested, Time = -depth with the penetration witness
// and normal.
type SweepResult struct {
	Time     float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// Raycast moves B from start along direction for at most length and reports the first time
// it touches A inflated by thickness. Both shapes are taken whole, margins are ignored.
//
// Conservative advancement: X = Lambda*direction walks toward A - B. Whenever the support plane
// along V proves X is still outside, Lambda jumps to that plane and the simplex follows X.
// It panics on a non unit direction or a non positive length.
func (s *Solver) Raycast(a, b Convex, start shape.Transform, direction mgl64.Vec3, length, thickness float64) (SweepResult, bool) {
	requireConvex(a, b)
	requireRay(direction, length)
	q := newQuery(a, b, start, 0, 0)

	smp := acquireSimplex()
	defer simplex.Pool.Put(smp)

	lambda := 0.0
	var x, normal mgl64.Vec3
	v := q.initialDirection().Mul(-1)

	for i := 0; i < s.settings.MaxIterations; i++ {
		p := q.support(v)
		if thickness != 0 {
			offset := v.Normalize().Mul(thickness)
			p.A = p.A.Add(offset)
			p.W = p.W.Add(offset)
		}

		w := x.Sub(p.W)
		if vw := v.Dot(w); vw > 0 {
			vr := v.Dot(direction)
			if vr >= 0 {
				return SweepResult{}, false
			}
			lambda -= vw / vr
			if lambda > length {
				return SweepResult{}, false
			}

			next := direction.Mul(lambda)
			smp.Translate(next.Sub(x))
			x = next
			w = x.Sub(p.W)
			normal = v
		}

		smp.Add(simplex.Vertex{W: w, A: p.A, B: p.B})
		v = smp.Reduce()

		if v.LenSqr() <= s.settings.NearZero || smp.Count == 4 {
			return raycastHit(smp, lambda, normal, 0), true
		}
	}

	logging.LogWarn("gjk: raycast did not converge after %d iterations, time %g", s.settings.MaxIterations, lambda)
	return raycastHit(smp, lambda, normal, 0), true
}

// Sweep is the margin-aware sweep. Shapes are queried on their cores (see
// shape.SweepAdapters) and the sweep stops when the cores come within the margins plus the
// thicknesses.
//
// When B already overlaps A at start, Sweep returns Time 0 unless computeMTD is set, in which
// case the penetration at start is reported with Time = -depth.
func (s *Solver) Sweep(a, b Convex, start shape.Transform, direction mgl64.Vec3, length, thicknessA, thicknessB float64, computeMTD bool) (SweepResult, bool) {
	requireConvex(a, b)
	requireRay(direction, length)
	q := newQuery(a, b, start, a.Margin(), b.Margin())
	inflation := q.marginA + q.marginB + thicknessA + thicknessB
	tolerance := math.Sqrt(s.settings.NearZero)

	smp := acquireSimplex()
	defer simplex.Pool.Put(smp)

	lambda := 0.0
	var x, normal mgl64.Vec3
	v := q.initialDirection().Mul(-1)

	for i := 0; ; i++ {
		if i == s.settings.MaxIterations {
			logging.LogWarn("gjk: sweep did not converge after %d iterations, time %g", i, lambda)
			break
		}

		p := q.support(v)
		w := x.Sub(p.W)
		vLen := v.Len()

		// Advance only by the part of the gap not covered by the inflation
		if vw := v.Dot(w); vw > inflation*vLen {
			vr := v.Dot(direction)
			if vr >= 0 {
				return SweepResult{}, false
			}
			lambda -= (vw - inflation*vLen) / vr
			if lambda > length {
				return SweepResult{}, false
			}

			next := direction.Mul(lambda)
			smp.Translate(next.Sub(x))
			x = next
			w = x.Sub(p.W)
			normal = v
		}

		smp.Add(simplex.Vertex{W: w, A: p.A, B: p.B})
		v = smp.Reduce()

		if withinInflation(v.LenSqr(), inflation, tolerance, s.settings.NearZero) || smp.Count == 4 {
			break
		}
	}

	if lambda == 0 {
		if !computeMTD {
			return SweepResult{}, true
		}
		penetration, _ := s.penetration(a, b, start, thicknessA, thicknessB, tolerance, false)
		return SweepResult{
			Time:     -penetration.Depth,
			Position: penetration.ClosestA,
			Normal:   penetration.Normal,
		}, true
	}

	return raycastHit(smp, lambda, normal, q.marginA), true
}

// raycastHit builds the hit at lambda: the contact on A's core, pushed out by marginA.
func raycastHit(smp *simplex.Simplex, lambda float64, normal mgl64.Vec3, marginA float64) SweepResult {
	if lambda == 0 || normal.LenSqr() == 0 {
		return SweepResult{}
	}

	n := normal.Normalize()
	closestA, _ := smp.ClosestPoints()
	return SweepResult{
		Time:     lambda,
		Position: closestA.Add(n.Mul(marginA)),
		Normal:   n,
	}
}

// Raycast runs Solver.Raycast with the default settings.
func Raycast(a, b Convex, start shape.Transform, direction mgl64.Vec3, length, thickness float64) (SweepResult, bool) {
	return defaultSolver.Raycast(a, b, start, direction, length, thickness)
}

// Sweep runs Solver.Sweep with the default settings.
func Sweep(a, b Convex, start shape.Transform, direction mgl64.Vec3, length, thicknessA, thicknessB float64, computeMTD bool) (SweepResult, bool) {
	return defaultSolver.Sweep(a, b, start, direction, length, thicknessA, thicknessB, computeMTD)
}
