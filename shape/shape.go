// Package shape provides the convex collision shapes consumed by the GJK and EPA queries,
// together with the adapter that presents them with a selectable rounding margin.
//
// Every shape is described in its own local frame. Only the support mapping is needed:
// the point of the shape farthest along a direction. A shape with a natural rounding
// radius (sphere, capsule) can also be reduced to its core (a point or a segment) so the
// queries can work on the core and add the radius back afterwards.
package shape

import (
	"math"

	"github.com/akmonengine/narrowphase/internal/scalar"
	"github.com/go-gl/mathgl/mgl64"
)

// zeroDirectionSqr is the squared length under which a support direction carries no information.
const zeroDirectionSqr = 1e-24

// Shape is the interface that all convex collision shapes must implement
type Shape interface {
	// Support returns the point of the shape farthest along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// SupportCore returns the farthest point of the shape eroded by margin
	SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3
	// GetRadius is the natural rounding radius, zero for polytopes
	GetRadius() float64
	// GetMargin is the configured collision margin; round shapes report their radius
	GetMargin() float64
}

// VertexSupporter is implemented by shapes whose support points are discrete vertices.
// The index identifies the vertex that realized the support query.
type VertexSupporter interface {
	SupportVertex(direction mgl64.Vec3) (mgl64.Vec3, int)
}

func unitDirection(direction mgl64.Vec3) (mgl64.Vec3, bool) {
	lenSqr := direction.LenSqr()
	if lenSqr < zeroDirectionSqr {
		return mgl64.Vec3{}, false
	}
	return direction.Mul(1.0 / math.Sqrt(lenSqr)), true
}

// Sphere represents a sphere collision shape, optionally offset from the local origin
type Sphere struct {
	Center mgl64.Vec3
	Radius float64
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return s.SupportCore(direction, 0)
}

func (s *Sphere) SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	n, ok := unitDirection(direction)
	if !ok {
		return s.Center
	}
	return s.Center.Add(n.Mul(s.Radius - margin))
}

func (s *Sphere) GetRadius() float64 {
	return s.Radius
}

func (s *Sphere) GetMargin() float64 {
	return s.Radius
}

// Capsule is a segment A-B swept by a sphere of Radius
type Capsule struct {
	A, B   mgl64.Vec3
	Radius float64
}

func (c *Capsule) endpoint(direction mgl64.Vec3) (mgl64.Vec3, int) {
	if direction.Dot(c.B.Sub(c.A)) > 0 {
		return c.B, 1
	}
	return c.A, 0
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return c.SupportCore(direction, 0)
}

func (c *Capsule) SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	p, _ := c.endpoint(direction)
	n, ok := unitDirection(direction)
	if !ok {
		return p
	}
	return p.Add(n.Mul(c.Radius - margin))
}

// SupportVertex reports which end of the segment supports the query (0 for A, 1 for B).
func (c *Capsule) SupportVertex(direction mgl64.Vec3) (mgl64.Vec3, int) {
	_, idx := c.endpoint(direction)
	return c.Support(direction), idx
}

func (c *Capsule) GetRadius() float64 {
	return c.Radius
}

func (c *Capsule) GetMargin() float64 {
	return c.Radius
}

// Box represents an axis-aligned box in its local frame.
// The box is defined by its center and half-extents (half-width, half-height, half-depth).
// Margin erodes the core used by margin-aware queries; the outer box keeps sharp corners.
type Box struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Margin      float64
}

// NewBoxMinMax creates a box spanning min to max.
func NewBoxMinMax(min, max mgl64.Vec3) *Box {
	return &Box{
		Center:      min.Add(max).Mul(0.5),
		HalfExtents: max.Sub(min).Mul(0.5),
	}
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	p, _ := b.SupportVertex(direction)
	return p
}

func (b *Box) SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	hx := scalar.Clamp(b.HalfExtents.X()-margin, 0, b.HalfExtents.X())
	hy := scalar.Clamp(b.HalfExtents.Y()-margin, 0, b.HalfExtents.Y())
	hz := scalar.Clamp(b.HalfExtents.Z()-margin, 0, b.HalfExtents.Z())

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return b.Center.Add(mgl64.Vec3{hx, hy, hz})
}

// SupportVertex returns the supporting corner. The index has bit i set when the corner
// lies on the positive side of axis i.
func (b *Box) SupportVertex(direction mgl64.Vec3) (mgl64.Vec3, int) {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()
	index := 7

	if direction.X() < 0 {
		hx = -hx
		index &^= 1
	}
	if direction.Y() < 0 {
		hy = -hy
		index &^= 2
	}
	if direction.Z() < 0 {
		hz = -hz
		index &^= 4
	}

	return b.Center.Add(mgl64.Vec3{hx, hy, hz}), index
}

func (b *Box) GetRadius() float64 {
	return 0
}

func (b *Box) GetMargin() float64 {
	return b.Margin
}

// Convex is a convex hull given by its vertices.
// Margin erodes the core used by margin-aware queries.
type Convex struct {
	Vertices []mgl64.Vec3
	Margin   float64
}

// NewConvex creates a hull from its vertices. It panics if vertices is empty.
func NewConvex(vertices []mgl64.Vec3, margin float64) *Convex {
	if len(vertices) == 0 {
		panic("shape: convex hull needs at least one vertex")
	}
	points := make([]mgl64.Vec3, len(vertices))
	copy(points, vertices)
	return &Convex{Vertices: points, Margin: margin}
}

// SupportVertex scans the hull for the vertex farthest along direction.
// Ties keep the lowest index.
func (c *Convex) SupportVertex(direction mgl64.Vec3) (mgl64.Vec3, int) {
	best := 0
	bestDot := c.Vertices[0].Dot(direction)
	for i := 1; i < len(c.Vertices); i++ {
		if d := c.Vertices[i].Dot(direction); d > bestDot {
			best = i
			bestDot = d
		}
	}
	return c.Vertices[best], best
}

func (c *Convex) Support(direction mgl64.Vec3) mgl64.Vec3 {
	p, _ := c.SupportVertex(direction)
	return p
}

// SupportCore pulls the supporting vertex back along the query direction.
// This approximates the eroded hull; it is exact on face normals.
func (c *Convex) SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	p, _ := c.SupportVertex(direction)
	if margin == 0 {
		return p
	}
	n, ok := unitDirection(direction)
	if !ok {
		return p
	}
	return p.Sub(n.Mul(margin))
}

func (c *Convex) GetRadius() float64 {
	return 0
}

func (c *Convex) GetMargin() float64 {
	return c.Margin
}

// Scaled wraps a shape with a per-axis scale applied in the shape's local frame.
type Scaled struct {
	Shape Shape
	Scale mgl64.Vec3
}

func NewScaled(s Shape, scale mgl64.Vec3) *Scaled {
	return &Scaled{Shape: s, Scale: scale}
}

func (s *Scaled) uniform() (float64, bool) {
	k := s.Scale.X()
	return k, k != 0 && s.Scale.Y() == k && s.Scale.Z() == k
}

func (s *Scaled) scale(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X() * s.Scale.X(), v.Y() * s.Scale.Y(), v.Z() * s.Scale.Z()}
}

// Support maps the query through the scale: the farthest point of S·X along d is
// S times the farthest point of X along S·d.
func (s *Scaled) Support(direction mgl64.Vec3) mgl64.Vec3 {
	return s.scale(s.Shape.Support(s.scale(direction)))
}

func (s *Scaled) SupportCore(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	if margin == 0 {
		return s.Support(direction)
	}
	if k, ok := s.uniform(); ok {
		return s.Shape.SupportCore(direction.Mul(k), margin/math.Abs(k)).Mul(k)
	}
	p := s.Support(direction)
	n, ok := unitDirection(direction)
	if !ok {
		return p
	}
	return p.Sub(n.Mul(margin))
}

func (s *Scaled) SupportVertex(direction mgl64.Vec3) (mgl64.Vec3, int) {
	vs, ok := s.Shape.(VertexSupporter)
	if !ok {
		return s.Support(direction), -1
	}
	p, idx := vs.SupportVertex(s.scale(direction))
	return s.scale(p), idx
}

// GetRadius keeps the inner radius only under uniform scale; a non-uniformly scaled
// sphere is no longer a sphere.
func (s *Scaled) GetRadius() float64 {
	if k, ok := s.uniform(); ok {
		return s.Shape.GetRadius() * math.Abs(k)
	}
	return 0
}

func (s *Scaled) GetMargin() float64 {
	if k, ok := s.uniform(); ok {
		return s.Shape.GetMargin() * math.Abs(k)
	}
	minScale := math.Min(math.Abs(s.Scale.X()), math.Min(math.Abs(s.Scale.Y()), math.Abs(s.Scale.Z())))
	return s.Shape.GetMargin() * minScale
}
