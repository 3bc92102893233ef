package gjk

import (
	"math"
	"testing"

	"github.com/akmonengine/narrowphase/shape"
	"github.com/go-gl/mathgl/mgl64"
)

func TestRaycast_Spheres(t *testing.T) {
	a := shape.Full(&shape.Sphere{Radius: 1})
	b := shape.Full(&shape.Sphere{Radius: 1})
	right := mgl64.Vec3{1, 0, 0}

	tests := []struct {
		name      string
		start     shape.Transform
		direction mgl64.Vec3
		length    float64
		thickness float64
		hit       bool
		time      float64
	}{
		{"head on", translate(-5, 0, 0), right, 10, 0, true, 3},
		{"offset", translate(-5, 1, 0), right, 10, 0, true, 5 - math.Sqrt(3)},
		{"miss", translate(-5, 2.1, 0), right, 10, 0, false, 0},
		{"hit from thickness", translate(-5, 2.1, 0), right, 10, 0.2, true, 5 - math.Sqrt(2.2*2.2-2.1*2.1)},
		{"stops short", translate(-5, 0, 0), right, 2.9, 0, false, 0},
		{"reaches at the end", translate(-5, 0, 0), right, 3.01, 0, true, 3},
		{"moving away", translate(-5, 0, 0), right.Mul(-1), 10, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, hit := Raycast(a, b, tt.start, tt.direction, tt.length, tt.thickness)
			if hit != tt.hit {
				t.Fatalf("Expected hit %v, got %v", tt.hit, hit)
			}
			if !hit {
				return
			}
			if math.Abs(result.Time-tt.time) > 1e-2 {
				t.Errorf("Expected time %v, got %v", tt.time, result.Time)
			}
			if result.Normal.X() >= 0 || math.Abs(result.Normal.Len()-1) > 1e-9 {
				t.Errorf("Expected a unit normal facing -x, got %v", result.Normal)
			}
			if math.Abs(result.Position.Len()-1-tt.thickness) > 1e-2 {
				t.Errorf("Expected position on the inflated sphere, got %v", result.Position)
			}
		})
	}

	t.Run("head on witness", func(t *testing.T) {
		result, _ := Raycast(a, b, translate(-5, 0, 0), right, 10, 0)
		if !vec3ApproxEqual(result.Position, mgl64.Vec3{-1, 0, 0}, 1e-9) {
			t.Errorf("Expected position (-1,0,0), got %v", result.Position)
		}
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{-1, 0, 0}, 1e-9) {
			t.Errorf("Expected normal (-1,0,0), got %v", result.Normal)
		}
	})

	t.Run("starting in overlap", func(t *testing.T) {
		result, hit := Raycast(a, b, translate(0.5, 0, 0), right, 10, 0)
		if !hit {
			t.Fatal("Expected a hit at time 0")
		}
		if result != (SweepResult{}) {
			t.Errorf("Expected an empty result, got %+v", result)
		}
	})
}

func TestRaycast_Box(t *testing.T) {
	box := shape.Full(&shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}})
	ball := shape.Full(&shape.Sphere{Radius: 0.5})

	result, hit := Raycast(box, ball, translate(-5, 0, 0), mgl64.Vec3{1, 0, 0}, 10, 0)
	if !hit {
		t.Fatal("Expected a hit")
	}
	if math.Abs(result.Time-3.5) > 1e-4 {
		t.Errorf("Expected time 3.5, got %v", result.Time)
	}
	if math.Abs(result.Position.X()+1) > 1e-4 {
		t.Errorf("Expected position on x=-1, got %v", result.Position)
	}
}

func TestRaycast_SweepConsistency(t *testing.T) {
	a := shape.Full(&shape.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	b := shape.Full(&shape.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}})
	axis := mgl64.Vec3{0, 1, 1}.Normalize()
	right := mgl64.Vec3{1, 0, 0}
	start := mgl64.Vec3{-5, 0.1, -0.1}

	at := func(time float64) shape.Transform {
		return rotated(start.Add(right.Mul(time)), 0.35, axis)
	}

	result, hit := Raycast(a, b, at(0), right, 10, 0)
	if !hit {
		t.Fatal("Expected the rotated box to hit")
	}
	// The leading corner of B reaches the x=-0.5 face of A
	if math.Abs(result.Time-3.78785) > 1e-2 {
		t.Errorf("Expected time near 3.78785, got %v", result.Time)
	}

	if !Intersects(a, b, at(result.Time+2e-3), 0, 0) {
		t.Errorf("Expected overlap just past the hit time %v", result.Time)
	}
	for _, earlier := range []float64{0, 1, 2, 3, 3.5, result.Time - 1e-2} {
		if Intersects(a, b, at(earlier), 0, 0) {
			t.Errorf("Expected no overlap at %v before the hit time %v", earlier, result.Time)
		}
	}
}

func TestRaycast_Preconditions(t *testing.T) {
	a := shape.Full(&shape.Sphere{Radius: 1})
	start := translate(-5, 0, 0)

	tests := []struct {
		name      string
		b         Convex
		direction mgl64.Vec3
		length    float64
	}{
		{"non unit direction", a, mgl64.Vec3{2, 0, 0}, 10},
		{"zero length", a, mgl64.Vec3{1, 0, 0}, 0},
		{"non convex shape", shape.Adapter{}, mgl64.Vec3{1, 0, 0}, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected panic")
				}
			}()
			Raycast(a, tt.b, start, tt.direction, tt.length, 0)
		})
	}
}

func TestSweep_Spheres(t *testing.T) {
	a, b := shape.SweepAdapters(&shape.Sphere{Radius: 1}, &shape.Sphere{Radius: 1}, shape.DefaultSweepMarginScale)
	right := mgl64.Vec3{1, 0, 0}

	t.Run("head on", func(t *testing.T) {
		result, hit := Sweep(a, b, translate(-5, 0, 0), right, 10, 0, 0, false)
		if !hit {
			t.Fatal("Expected a hit")
		}
		if math.Abs(result.Time-3) > 1e-6 {
			t.Errorf("Expected time 3, got %v", result.Time)
		}
		if !vec3ApproxEqual(result.Position, mgl64.Vec3{-1, 0, 0}, 1e-6) {
			t.Errorf("Expected position (-1,0,0), got %v", result.Position)
		}
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{-1, 0, 0}, 1e-6) {
			t.Errorf("Expected normal (-1,0,0), got %v", result.Normal)
		}
	})

	t.Run("thickness hits earlier", func(t *testing.T) {
		result, hit := Sweep(a, b, translate(-5, 0, 0), right, 10, 0.25, 0.25, false)
		if !hit {
			t.Fatal("Expected a hit")
		}
		if math.Abs(result.Time-2.5) > 1e-6 {
			t.Errorf("Expected time 2.5, got %v", result.Time)
		}
	})

	t.Run("miss", func(t *testing.T) {
		if _, hit := Sweep(a, b, translate(-5, 2.1, 0), right, 10, 0, 0, false); hit {
			t.Error("Expected a miss")
		}
	})

	t.Run("overlap without mtd", func(t *testing.T) {
		result, hit := Sweep(a, b, translate(-1, 0, 0), right, 10, 0, 0, false)
		if !hit {
			t.Fatal("Expected a hit at time 0")
		}
		if result != (SweepResult{}) {
			t.Errorf("Expected an empty result, got %+v", result)
		}
	})

	t.Run("overlap with mtd", func(t *testing.T) {
		result, hit := Sweep(a, b, translate(-1, 0, 0), right, 10, 0, 0, true)
		if !hit {
			t.Fatal("Expected a hit")
		}
		if math.Abs(result.Time+1) > 1e-6 {
			t.Errorf("Expected time -1, got %v", result.Time)
		}
		if !vec3ApproxEqual(result.Position, mgl64.Vec3{-1, 0, 0}, 1e-6) {
			t.Errorf("Expected position (-1,0,0), got %v", result.Position)
		}
		if !vec3ApproxEqual(result.Normal, mgl64.Vec3{-1, 0, 0}, 1e-6) {
			t.Errorf("Expected normal (-1,0,0), got %v", result.Normal)
		}
	})

	t.Run("coincident centers with mtd", func(t *testing.T) {
		big, small := shape.SweepAdapters(&shape.Sphere{Center: mgl64.Vec3{10, 0, 0}, Radius: 5}, &shape.Sphere{Center: mgl64.Vec3{1, 0, 0}, Radius: 2}, shape.DefaultSweepMarginScale)
		result, hit := Sweep(big, small, translate(9, 0, 0), right, 10, 0, 0, true)
		if !hit {
			t.Fatal("Expected a hit")
		}
		if math.Abs(result.Time+7) > 1e-9 {
			t.Errorf("Expected time -7, got %v", result.Time)
		}
		if result.Normal != (mgl64.Vec3{0, 0, 1}) {
			t.Errorf("Expected default normal (0,0,1), got %v", result.Normal)
		}
		if !vec3ApproxEqual(result.Position, mgl64.Vec3{10, 0, 5}, 1e-9) {
			t.Errorf("Expected position (10,0,5), got %v", result.Position)
		}
	})
}

// The margin-aware sweep and the plain raycast describe the same motion.
func TestSweep_AgreesWithRaycast(t *testing.T) {
	sphere := &shape.Sphere{Radius: 1}
	box := &shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}
	right := mgl64.Vec3{1, 0, 0}

	for y := -1.5; y <= 1.5; y += 0.5 {
		start := translate(-6, y, 0.25)
		a, b := shape.SweepAdapters(box, sphere, shape.DefaultSweepMarginScale)

		ray, rayHit := Raycast(shape.Full(box), shape.Full(sphere), start, right, 10, 0)
		sweep, sweepHit := Sweep(a, b, start, right, 10, 0, 0, false)
		if rayHit != sweepHit {
			t.Errorf("y=%v: raycast hit %v, sweep hit %v", y, rayHit, sweepHit)
			continue
		}
		if rayHit && math.Abs(ray.Time-sweep.Time) > 1e-2 {
			t.Errorf("y=%v: raycast time %v, sweep time %v", y, ray.Time, sweep.Time)
		}
	}
}

func BenchmarkRaycast_Spheres(b *testing.B) {
	sphere := shape.Full(&shape.Sphere{Radius: 1})
	start := translate(-5, 1, 0)
	right := mgl64.Vec3{1, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Raycast(sphere, sphere, start, right, 10, 0)
	}
}

func BenchmarkSweep_BoxSphere(b *testing.B) {
	box, ball := shape.SweepAdapters(&shape.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, &shape.Sphere{Radius: 1}, shape.DefaultSweepMarginScale)
	start := translate(-6, 0.5, 0.25)
	right := mgl64.Vec3{1, 0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sweep(box, ball, start, right, 10, 0, 0, false)
	}
}
