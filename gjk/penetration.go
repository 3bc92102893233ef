package gjk

import (
	"math"

	"github.com/akmonengine/narrowphase/epa"
	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
)

// PenetrationMethod tells which stage produced a PenetrationResult.
type PenetrationMethod int

const (
	// MethodGJK: the cores were apart, depth comes from the core distance.
	MethodGJK PenetrationMethod = iota
	// MethodEPA: the cores overlapped and EPA measured how deep.
	MethodEPA
	// MethodTouching: EPA could not start, the shapes are reported as touching cores.
	MethodTouching
)

func (m PenetrationMethod) String() string {
	switch m {
	case MethodGJK:
		return "GJK"
	case MethodEPA:
		return "EPA"
	case MethodTouching:
		return "Touching"
	}
	return "Unknown"
}

// PenetrationResult describes the deepest contact between A and B in A's frame.
// Depth is positive when the inflated shapes overlap. Moving B by Depth along Normal
// separates them.
//
// EPAStatus is only meaningful for MethodEPA and MethodTouching. Converged is false when
// GJK hit its iteration cap or EPA ended with MaxIterations or Degenerate: the contact is
// then the best estimate found, not a converged one.
type PenetrationResult struct {
	Depth        float64
	ClosestA     mgl64.Vec3
	ClosestB     mgl64.Vec3
	Normal       mgl64.Vec3
	VertexIndexA int
	VertexIndexB int
	Method       PenetrationMethod
	EPAStatus    epa.Status
	Converged    bool
}

// Penetration returns the contact between A and B inflated by their thicknesses, or false
// when they are provably apart.
func (s *Solver) Penetration(a, b Convex, bToA shape.Transform, thicknessA, thicknessB float64) (PenetrationResult, bool) {
	return s.penetration(a, b, bToA, thicknessA, thicknessB, math.Sqrt(s.settings.NearZero), true)
}

// SignedPenetration never exits early: separated shapes get a negative depth.
func (s *Solver) SignedPenetration(a, b Convex, bToA shape.Transform, thicknessA, thicknessB float64) PenetrationResult {
	result, _ := s.penetration(a, b, bToA, thicknessA, thicknessB, math.Sqrt(s.settings.NearZero), false)
	return result
}

// Penetration runs Solver.Penetration with the default settings. Once the core distance
// drops below epsilon the cores are considered overlapping and EPA takes over.
func Penetration(a, b Convex, bToA shape.Transform, thicknessA, thicknessB, epsilon float64) (PenetrationResult, bool) {
	return defaultSolver.penetration(a, b, bToA, thicknessA, thicknessB, epsilon, true)
}

// SignedPenetration runs Solver.SignedPenetration with the default settings.
func SignedPenetration(a, b Convex, bToA shape.Transform, thicknessA, thicknessB, epsilon float64) PenetrationResult {
	result, _ := defaultSolver.penetration(a, b, bToA, thicknessA, thicknessB, epsilon, false)
	return result
}

func (s *Solver) penetration(a, b Convex, bToA shape.Transform, thicknessA, thicknessB, epsilon float64, earlyExit bool) (PenetrationResult, bool) {
	requireConvex(a, b)
	q := newQuery(a, b, bToA, a.Margin(), b.Margin())
	inflation := q.marginA + q.marginB + thicknessA + thicknessB
	epsilonSqr := epsilon * epsilon

	smp := acquireSimplex()
	defer simplex.Pool.Put(smp)

	v := q.initialDirection()
	vLenSqr := math.MaxFloat64
	nearZero := false
	converged := true

	for i := 0; ; i++ {
		if i == s.settings.MaxIterations {
			logging.LogWarn("gjk: penetration did not converge after %d iterations", i)
			converged = false
			break
		}

		w := q.support(v.Mul(-1))
		if earlyExit && v.Dot(w.W) > inflation*v.Len() {
			return PenetrationResult{}, false
		}

		smp.Add(w)
		v = smp.Reduce()

		newLenSqr := v.LenSqr()
		if newLenSqr < epsilonSqr || smp.Count == 4 {
			nearZero = true
			break
		}
		if newLenSqr >= vLenSqr {
			break
		}
		vLenSqr = newLenSqr
	}

	var result PenetrationResult
	if nearZero {
		result = s.penetrationEPA(&q, smp, inflation)
	} else {
		vLen := v.Len()
		normal := v.Mul(-1 / vLen)
		closestA, closestB := smp.ClosestPoints()

		result = PenetrationResult{
			Depth:    inflation - vLen,
			Normal:   normal,
			ClosestA: closestA.Add(normal.Mul(q.marginA)),
			ClosestB: closestB.Sub(normal.Mul(q.marginB)),
			Method:   MethodGJK,
		}
		if earlyExit && result.Depth < 0 {
			return PenetrationResult{}, false
		}
	}
	result.Converged = converged && (result.EPAStatus == epa.Ok || result.EPAStatus == epa.BadInitialSimplex)

	result.VertexIndexA = vertexIndex(q.a, result.Normal, q.marginA)
	result.VertexIndexB = vertexIndex(q.b, bToA.InverseTransformDirection(result.Normal.Mul(-1)), q.marginB)
	return result, true
}

// penetrationEPA hands the terminal simplex to EPA and adds the inflation back.
func (s *Solver) penetrationEPA(q *query, smp *simplex.Simplex, inflation float64) PenetrationResult {
	r := epa.EPA(smp.Vertices[:smp.Count], q.support, s.settings.EPA)

	result := PenetrationResult{
		Depth:     r.Depth + inflation,
		Normal:    r.Normal,
		ClosestA:  r.ClosestA.Add(r.Normal.Mul(q.marginA)),
		ClosestB:  r.ClosestB.Sub(r.Normal.Mul(q.marginB)),
		Method:    MethodEPA,
		EPAStatus: r.Status,
	}
	if r.Status == epa.BadInitialSimplex {
		result.Depth = inflation
		result.Method = MethodTouching
	}
	return result
}

func vertexIndex(c Convex, direction mgl64.Vec3, margin float64) int {
	vs, ok := c.(VertexSupporter)
	if !ok {
		return -1
	}
	_, index := vs.SupportVertex(direction, margin)
	return index
}
