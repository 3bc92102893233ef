package shape

import "github.com/go-gl/mathgl/mgl64"

// DefaultSweepMarginScale is the fraction of a polytope's configured margin used as its
// core margin during a sweep.
const DefaultSweepMarginScale = 0.05

// Adapter presents a Shape to the GJK queries with a chosen margin.
// A zero margin queries the outer boundary; a positive margin queries the core.
// An Adapter does not own its shape and is meant to live for a single query.
type Adapter struct {
	shape  Shape
	margin float64
}

// Full wraps s with a zero margin: queries see the whole shape.
func Full(s Shape) Adapter {
	return Adapter{shape: s}
}

// Core wraps s with its natural rounding radius as margin, so spheres become points
// and capsules become segments. Polytopes have no radius and behave like Full.
func Core(s Shape) Adapter {
	return Adapter{shape: s, margin: s.GetRadius()}
}

// WithMargin wraps s with an explicit margin.
func WithMargin(s Shape, margin float64) Adapter {
	return Adapter{shape: s, margin: margin}
}

// Support returns the farthest point along direction of the shape eroded by margin.
func (a Adapter) Support(direction mgl64.Vec3, margin float64) mgl64.Vec3 {
	if margin == 0 {
		return a.shape.Support(direction)
	}
	return a.shape.SupportCore(direction, margin)
}

// SupportVertex is Support plus the index of the vertex realizing it, or -1 when the
// shape has no discrete vertices.
func (a Adapter) SupportVertex(direction mgl64.Vec3, margin float64) (mgl64.Vec3, int) {
	p := a.Support(direction, margin)
	vs, ok := a.shape.(VertexSupporter)
	if !ok {
		return p, -1
	}
	_, idx := vs.SupportVertex(direction)
	return p, idx
}

func (a Adapter) Margin() float64 {
	return a.margin
}

// IsConvex is false only for an adapter that wraps no shape.
func (a Adapter) IsConvex() bool {
	return a.shape != nil
}

func (a Adapter) Shape() Shape {
	return a.shape
}

// SweepAdapters picks the margins for a sweep between a and b.
//
// Round shapes sweep on their cores. When neither shape is round, at most one of them
// receives a small margin (scale times its configured margin): the one with the smaller
// configured margin, or b on a tie.
func SweepAdapters(a, b Shape, scale float64) (Adapter, Adapter) {
	if a.GetRadius() > 0 || b.GetRadius() > 0 {
		return Core(a), Core(b)
	}
	if a.GetMargin() < b.GetMargin() {
		return WithMargin(a, scale*a.GetMargin()), Full(b)
	}
	return Full(a), WithMargin(b, scale*b.GetMargin())
}
