package simplex

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func vertexAt(w mgl64.Vec3) Vertex {
	// B is placed at a fixed offset so A - B == W
	b := mgl64.Vec3{0, 0, 5}
	return Vertex{W: w, A: w.Add(b), B: b}
}

func TestSimplexReduce(t *testing.T) {
	t.Run("repacks surviving vertices in order", func(t *testing.T) {
		s := &Simplex{}
		s.Add(vertexAt(mgl64.Vec3{0, 0, -1.5}))
		s.Add(vertexAt(mgl64.Vec3{-1, -1, -1}))
		s.Add(vertexAt(mgl64.Vec3{1, -1, -1}))
		s.Add(vertexAt(mgl64.Vec3{0, 1, -1}))

		closest := s.Reduce()
		if !vec3ApproxEqual(closest, mgl64.Vec3{0, 0, -1}, 1e-12) {
			t.Errorf("Expected (0,0,-1), got %v", closest)
		}
		if s.Count != 3 {
			t.Fatalf("Expected 3 vertices, got %d", s.Count)
		}
		expected := []mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}}
		for i, e := range expected {
			if s.Vertices[i].W != e {
				t.Errorf("Expected vertex %d = %v, got %v", i, e, s.Vertices[i].W)
			}
		}
		if !approxEqual(s.Barycentric[0]+s.Barycentric[1]+s.Barycentric[2], 1) {
			t.Errorf("Expected packed weights to sum to 1, got %v", s.Barycentric)
		}
	})

	t.Run("closest points follow the weights", func(t *testing.T) {
		s := &Simplex{}
		s.Add(vertexAt(mgl64.Vec3{-1, -1, -1}))
		s.Add(vertexAt(mgl64.Vec3{-1, -1, 1}))
		s.Reduce()

		a, b := s.ClosestPoints()
		if !vec3ApproxEqual(a, mgl64.Vec3{-1, -1, 5}, 1e-12) {
			t.Errorf("Expected closest A (-1,-1,5), got %v", a)
		}
		if !vec3ApproxEqual(b, mgl64.Vec3{0, 0, 5}, 1e-12) {
			t.Errorf("Expected closest B (0,0,5), got %v", b)
		}
	})

	t.Run("translate shifts minkowski points only", func(t *testing.T) {
		s := &Simplex{}
		s.Add(vertexAt(mgl64.Vec3{1, 0, 0}))
		s.Translate(mgl64.Vec3{-1, 2, 0})
		if s.Vertices[0].W != (mgl64.Vec3{0, 2, 0}) {
			t.Errorf("Expected W (0,2,0), got %v", s.Vertices[0].W)
		}
		if s.Vertices[0].A != (mgl64.Vec3{1, 0, 5}) {
			t.Errorf("Expected A unchanged, got %v", s.Vertices[0].A)
		}
	})

	t.Run("fifth vertex panics", func(t *testing.T) {
		s := &Simplex{}
		for i := 0; i < 4; i++ {
			s.Add(vertexAt(mgl64.Vec3{float64(i), 0, 0}))
		}
		defer func() {
			if recover() == nil {
				t.Error("Expected panic when adding a fifth vertex")
			}
		}()
		s.Add(vertexAt(mgl64.Vec3{}))
	})

	t.Run("pool hands back reset simplices", func(t *testing.T) {
		s := Pool.Get().(*Simplex)
		s.Reset()
		s.Add(vertexAt(mgl64.Vec3{1, 1, 1}))
		if got := s.Points(); len(got) != 1 || got[0] != (mgl64.Vec3{1, 1, 1}) {
			t.Errorf("Expected one point (1,1,1), got %v", got)
		}
		Pool.Put(s)
	})
}

func BenchmarkSimplexReduce_Tetrahedron(b *testing.B) {
	points := []mgl64.Vec3{{-1, -1, -1}, {1, -1, -1}, {0, 1, -1}, {0, 0, 0.5}}
	for i := 0; i < b.N; i++ {
		s := Simplex{}
		for _, p := range points {
			s.Add(vertexAt(p))
		}
		s.Reduce()
	}
}
