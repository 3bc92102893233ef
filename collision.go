// Package narrowphase runs the convex queries of package gjk over batches of shape pairs.
//
// A broad phase hands over candidate pairs placed in world space. NarrowPhase filters them
// with a boolean overlap test and measures the survivors; SweepAll casts one shape against
// another for a batch of motions. Results come back in world space.
package narrowphase

import (
	"sync"

	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// Pair is a candidate pair of shapes, each placed in world space.
type Pair struct {
	A, B                   shape.Shape
	TransformA, TransformB shape.Transform
	ThicknessA, ThicknessB float64
}

// Contact is the deepest contact of an overlapping pair, in world space.
// Normal points from A toward B; moving B by Depth along Normal separates the pair.
type Contact struct {
	Pair
	Depth  float64
	Normal mgl64.Vec3
	PointA mgl64.Vec3
	PointB mgl64.Vec3
	Method gjk.PenetrationMethod
	// Converged is false when the depth is a best estimate cut short by an iteration cap.
	Converged bool
}

// overlap carries a pair that passed the boolean test, with B already expressed in A's frame.
type overlap struct {
	pair Pair
	bToA shape.Transform
}

func requireWorkers(workersCount int) {
	if workersCount < 1 {
		panic(errors.Errorf("narrowphase: workersCount must be at least 1, got %d", workersCount))
	}
}

// NarrowPhase measures every overlapping pair read from pairs until the channel is closed.
// Both shapes are queried on their cores. The order of the returned contacts is not specified.
func NarrowPhase(pairs <-chan Pair, workersCount int, solver *gjk.Solver) []Contact {
	requireWorkers(workersCount)

	overlaps := intersect(pairs, workersCount, solver)
	contactsChan := penetrate(overlaps, workersCount, solver)

	contacts := make([]Contact, 0)
	for c := range contactsChan {
		contacts = append(contacts, c)
	}
	logging.LogDebug("narrowphase: %d contacts", len(contacts))
	return contacts
}

func intersect(pairs <-chan Pair, workersCount int, solver *gjk.Solver) <-chan overlap {
	ch := make(chan overlap, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(ch)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for p := range pairs {
					bToA := shape.Relative(p.TransformA, p.TransformB)
					if solver.Intersects(shape.Core(p.A), shape.Core(p.B), bToA, p.ThicknessA, p.ThicknessB) {
						ch <- overlap{pair: p, bToA: bToA}
					}
				}
			}()
		}
		wg.Wait()
	}()

	return ch
}

func penetrate(overlaps <-chan overlap, workersCount int, solver *gjk.Solver) <-chan Contact {
	ch := make(chan Contact, workersCount)

	go func() {
		var wg sync.WaitGroup
		defer close(ch)

		for range workersCount {
			wg.Add(1)
			go func() {
				defer wg.Done()

				for o := range overlaps {
					p := o.pair
					result, ok := solver.Penetration(shape.Core(p.A), shape.Core(p.B), o.bToA, p.ThicknessA, p.ThicknessB)
					if !ok {
						continue
					}

					ch <- Contact{
						Pair:      p,
						Depth:     result.Depth,
						Normal:    p.TransformA.TransformDirection(result.Normal),
						PointA:    p.TransformA.TransformPoint(result.ClosestA),
						PointB:    p.TransformA.TransformPoint(result.ClosestB),
						Method:    result.Method,
						Converged: result.Converged,
					}
				}
			}()
		}
		wg.Wait()
	}()

	return ch
}
