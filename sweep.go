package narrowphase

import (
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// SweepQuery moves B from its placement along Direction (world space, unit length) for at
// most Length, A staying still.
type SweepQuery struct {
	Pair
	Direction  mgl64.Vec3
	Length     float64
	ComputeMTD bool
}

// SweepHit is the first contact of a SweepQuery in world space. Hit is false on a miss.
type SweepHit struct {
	Hit      bool
	Time     float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// SweepAll runs every query and returns the hits in query order. Shape margins follow
// shape.SweepAdapters with marginScale.
func SweepAll(queries []SweepQuery, workersCount int, solver *gjk.Solver, marginScale float64) []SweepHit {
	requireWorkers(workersCount)

	hits := make([]SweepHit, len(queries))
	task(workersCount, queries, func(i int, q SweepQuery) {
		hits[i] = sweep(q, solver, marginScale)
	})
	return hits
}

func sweep(q SweepQuery, solver *gjk.Solver, marginScale float64) SweepHit {
	a, b := shape.SweepAdapters(q.A, q.B, marginScale)
	start := shape.Relative(q.TransformA, q.TransformB)
	direction := q.TransformA.InverseTransformDirection(q.Direction)

	result, hit := solver.Sweep(a, b, start, direction, q.Length, q.ThicknessA, q.ThicknessB, q.ComputeMTD)
	if !hit {
		return SweepHit{}
	}

	h := SweepHit{Hit: true, Time: result.Time}
	// A hit at time 0 without MTD carries no geometry
	if result.Normal.LenSqr() > 0 {
		h.Position = q.TransformA.TransformPoint(result.Position)
		h.Normal = q.TransformA.TransformDirection(result.Normal)
	}
	return h
}
