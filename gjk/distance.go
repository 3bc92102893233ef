package gjk

import (
	"math"

	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/akmonengine/narrowphase/simplex"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// DistanceStatus classifies a Distance result.
type DistanceStatus int

const (
	// Separated: the shapes do not touch, Distance >= 0.
	Separated DistanceStatus = iota
	// Contact: the cores are apart but the margins overlap, Distance < 0.
	Contact
	// DeepContact: the cores overlap. No other field is valid; use Penetration instead.
	DeepContact
)

func (s DistanceStatus) String() string {
	switch s {
	case Separated:
		return "Separated"
	case Contact:
		return "Contact"
	case DeepContact:
		return "DeepContact"
	}
	return "Unknown"
}

// DistanceResult holds the closest points on both shapes, in A's frame, and the unit
// normal from A toward B. Converged is false when the iteration cap stopped the loop; the
// fields then describe the best simplex found and Distance overestimates the gap.
type DistanceResult struct {
	Status     DistanceStatus
	Distance   float64
	ClosestA   mgl64.Vec3
	ClosestB   mgl64.Vec3
	Normal     mgl64.Vec3
	Iterations int
	Converged  bool
}

// Distance computes the separation of A and B using the solver's epsilon and iteration cap.
func (s *Solver) Distance(a, b Convex, bToA shape.Transform) DistanceResult {
	return distance(a, b, bToA, s.settings.Epsilon, s.settings.MaxIterations)
}

// Distance computes the separation of A and B.
//
// The loop stops when |V| comes within epsilon of the best lower bound seen on the core
// distance. The closest core points are rebuilt from the simplex weights, then pushed back
// out to the shape surfaces by each margin. It panics when maxIterations is below one.
func Distance(a, b Convex, bToA shape.Transform, epsilon float64, maxIterations int) DistanceResult {
	return distance(a, b, bToA, epsilon, maxIterations)
}

func distance(a, b Convex, bToA shape.Transform, epsilon float64, maxIterations int) DistanceResult {
	requireConvex(a, b)
	if maxIterations < 1 {
		panic(errors.Errorf("gjk: max iterations must be positive, got %d", maxIterations))
	}

	q := newQuery(a, b, bToA, a.Margin(), b.Margin())
	smp := acquireSimplex()
	defer simplex.Pool.Put(smp)

	v := q.initialDirection()
	vLenSqr := math.MaxFloat64
	mu := 0.0
	epsilonSqr := epsilon * epsilon
	result := DistanceResult{}
	converged := false

	for i := 0; i < maxIterations; i++ {
		result.Iterations = i + 1

		w := q.support(v.Mul(-1))
		vLen := v.Len()

		// Lower bound on the core distance from the support plane
		mu = math.Max(mu, v.Dot(w.W)/vLen)
		if smp.Count > 0 && vLen-mu <= epsilon {
			converged = true
			break
		}

		smp.Add(w)
		v = smp.Reduce()

		newLenSqr := v.LenSqr()
		if newLenSqr < epsilonSqr || smp.Count == 4 {
			result.Status = DeepContact
			result.Converged = true
			return result
		}
		if newLenSqr >= vLenSqr {
			converged = true
			break
		}
		vLenSqr = newLenSqr
	}

	if !converged {
		logging.LogWarn("gjk: distance did not converge after %d iterations", maxIterations)
	}
	result.Converged = converged

	vLen := v.Len()
	if vLen == 0 {
		result.Status = DeepContact
		return result
	}

	closestA, closestB := smp.ClosestPoints()
	normal := v.Mul(-1 / vLen)

	result.Distance = vLen - (q.marginA + q.marginB)
	result.Normal = normal
	result.ClosestA = closestA.Add(normal.Mul(q.marginA))
	result.ClosestB = closestB.Sub(normal.Mul(q.marginB))
	if result.Distance >= 0 {
		result.Status = Separated
	} else {
		result.Status = Contact
	}
	return result
}
