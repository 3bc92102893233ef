package narrowphase

import (
	"math"
	"sort"
	"testing"

	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// Test helper functions
func vec3ApproxEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return math.Abs(a.X()-b.X()) < tolerance &&
		math.Abs(a.Y()-b.Y()) < tolerance &&
		math.Abs(a.Z()-b.Z()) < tolerance
}

func at(x, y, z float64) shape.Transform {
	return shape.Translation(mgl64.Vec3{x, y, z})
}

func createSpherePair(a, b shape.Transform, radius float64) Pair {
	return Pair{
		A:          &shape.Sphere{Radius: radius},
		B:          &shape.Sphere{Radius: radius},
		TransformA: a,
		TransformB: b,
	}
}

func feed(pairs []Pair) <-chan Pair {
	ch := make(chan Pair, len(pairs))
	for _, p := range pairs {
		ch <- p
	}
	close(ch)
	return ch
}

func TestNarrowPhase(t *testing.T) {
	solver := gjk.NewSolver(gjk.DefaultSettings())

	pairs := []Pair{
		createSpherePair(at(0, 0, 0), at(1.5, 0, 0), 1),
		createSpherePair(at(10, 0, 0), at(10, 1.8, 0), 1),
		createSpherePair(at(0, 0, 0), at(5, 0, 0), 1),
		{
			A:          &shape.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
			B:          &shape.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}},
			TransformA: at(0, 20, 0),
			TransformB: at(0, 20.75, 0),
		},
		{
			A:          &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			B:          &shape.Sphere{Radius: 1},
			TransformA: at(-20, 0, 0),
			TransformB: at(-20, 0, 2.5),
		},
	}

	for _, workers := range []int{1, 3, 8} {
		contacts := NarrowPhase(feed(pairs), workers, solver)
		if len(contacts) != 3 {
			t.Fatalf("workers=%d: Expected 3 contacts, got %d", workers, len(contacts))
		}

		sort.Slice(contacts, func(i, j int) bool {
			return contacts[i].Depth > contacts[j].Depth
		})

		expected := []struct {
			depth  float64
			normal mgl64.Vec3
			pointA mgl64.Vec3
		}{
			{0.5, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{1, 0, 0}},
			{0.25, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, 20.5, 0}},
			{0.2, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{10, 1, 0}},
		}
		for i, e := range expected {
			c := contacts[i]
			if math.Abs(c.Depth-e.depth) > 1e-4 {
				t.Errorf("workers=%d contact %d: Expected depth %v, got %v", workers, i, e.depth, c.Depth)
			}
			if !vec3ApproxEqual(c.Normal, e.normal, 1e-4) {
				t.Errorf("workers=%d contact %d: Expected normal %v, got %v", workers, i, e.normal, c.Normal)
			}
			if e.depth != 0.25 && !vec3ApproxEqual(c.PointA, e.pointA, 1e-4) {
				t.Errorf("workers=%d contact %d: Expected point A %v, got %v", workers, i, e.pointA, c.PointA)
			}
			if e.depth == 0.25 && math.Abs(c.PointA.Y()-20.5) > 1e-4 {
				t.Errorf("workers=%d contact %d: Expected point A on y=20.5, got %v", workers, i, c.PointA)
			}
			if c.Method == gjk.MethodGJK && !c.Converged {
				t.Errorf("workers=%d contact %d: Expected a converged contact", workers, i)
			}
		}
	}
}

func TestNarrowPhase_RotatedFrame(t *testing.T) {
	solver := gjk.NewSolver(gjk.DefaultSettings())
	turn := mgl64.QuatRotate(math.Pi*0.5, mgl64.Vec3{0, 0, 1})

	pair := createSpherePair(shape.NewTransformAt(mgl64.Vec3{1, 1, 0}, turn), at(1, 2.5, 0), 1)
	contacts := NarrowPhase(feed([]Pair{pair}), 2, solver)
	if len(contacts) != 1 {
		t.Fatalf("Expected 1 contact, got %d", len(contacts))
	}

	c := contacts[0]
	if !vec3ApproxEqual(c.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("Expected world normal (0,1,0), got %v", c.Normal)
	}
	if !vec3ApproxEqual(c.PointA, mgl64.Vec3{1, 2, 0}, 1e-9) {
		t.Errorf("Expected world point A (1,2,0), got %v", c.PointA)
	}
	if !vec3ApproxEqual(c.PointB, mgl64.Vec3{1, 1.5, 0}, 1e-9) {
		t.Errorf("Expected world point B (1,1.5,0), got %v", c.PointB)
	}
}

func TestNarrowPhase_Empty(t *testing.T) {
	contacts := NarrowPhase(feed(nil), 4, gjk.NewSolver(gjk.DefaultSettings()))
	if len(contacts) != 0 {
		t.Errorf("Expected no contacts, got %d", len(contacts))
	}
}

func TestNarrowPhase_InvalidWorkers(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for zero workers")
		}
	}()
	NarrowPhase(feed(nil), 0, gjk.NewSolver(gjk.DefaultSettings()))
}

func BenchmarkNarrowPhase(b *testing.B) {
	solver := gjk.NewSolver(gjk.DefaultSettings())
	pairs := make([]Pair, 0, 1000)
	for i := 0; i < 1000; i++ {
		x := float64(i) * 10
		pairs = append(pairs, Pair{
			A:          &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			B:          &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			TransformA: at(x, 0, 0),
			TransformB: at(x+1.5+float64(i%3), 0.1, 0),
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NarrowPhase(feed(pairs), 4, solver)
	}
}
