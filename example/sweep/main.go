package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"

	"github.com/akmonengine/narrowphase"
	"github.com/akmonengine/narrowphase/config"
	"github.com/akmonengine/narrowphase/gjk"
	"github.com/akmonengine/narrowphase/internal/logging"
	"github.com/akmonengine/narrowphase/shape"
	"github.com/go-gl/mathgl/mgl64"
)

// Scene is a static floor with a few shapes dropped onto it.
type Scene struct {
	Floor          shape.Shape
	FloorTransform shape.Transform
	Bodies         []shape.Shape
	Transforms     []shape.Transform
}

func SetupScene() *Scene {
	return &Scene{
		Floor:          &shape.Box{HalfExtents: mgl64.Vec3{10, 0.5, 10}, Margin: 0.04},
		FloorTransform: shape.Translation(mgl64.Vec3{0, -0.5, 0}),
		Bodies: []shape.Shape{
			&shape.Sphere{Radius: 0.5},
			&shape.Capsule{A: mgl64.Vec3{-0.5, 0, 0}, B: mgl64.Vec3{0.5, 0, 0}, Radius: 0.25},
			shape.NewConvex([]mgl64.Vec3{{0, 1, 0}, {-1, -1, -1}, {1, -1, -1}, {0, -1, 1}}, 0.04),
			shape.NewScaled(&shape.Box{HalfExtents: mgl64.Vec3{0.5, 0.5, 0.5}, Margin: 0.04}, mgl64.Vec3{2, 0.5, 1}),
		},
		Transforms: []shape.Transform{
			shape.Translation(mgl64.Vec3{-4, 3, 0}),
			shape.NewTransformAt(mgl64.Vec3{-1, 5, 0}, mgl64.QuatRotate(math.Pi/6, mgl64.Vec3{0, 0, 1})),
			shape.Translation(mgl64.Vec3{2, 4, 1}),
			shape.NewTransformAt(mgl64.Vec3{5, 2, -2}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})),
		},
	}
}

// Drop sweeps every body straight down and moves it to its first contact with the floor.
func (s *Scene) Drop(solver *gjk.Solver, marginScale float64) {
	down := mgl64.Vec3{0, -1, 0}
	queries := make([]narrowphase.SweepQuery, len(s.Bodies))
	for i, body := range s.Bodies {
		queries[i] = narrowphase.SweepQuery{
			Pair: narrowphase.Pair{
				A:          s.Floor,
				B:          body,
				TransformA: s.FloorTransform,
				TransformB: s.Transforms[i],
			},
			Direction: down,
			Length:    10,
		}
	}

	hits := narrowphase.SweepAll(queries, 2, solver, marginScale)
	for i, hit := range hits {
		if !hit.Hit {
			fmt.Printf("  Body %d: no contact below\n", i)
			continue
		}
		fmt.Printf("  Body %d: hits after %.4f at %v, normal %v\n", i, hit.Time, hit.Position, hit.Normal)
		// Sink slightly so the contact pass below sees an overlap
		s.Transforms[i].Position = s.Transforms[i].Position.Add(down.Mul(hit.Time + 0.01))
	}
}

// Contacts runs the overlap filter and penetration pass over floor/body pairs.
func (s *Scene) Contacts(solver *gjk.Solver) []narrowphase.Contact {
	pairs := make(chan narrowphase.Pair, len(s.Bodies))
	for i, body := range s.Bodies {
		pairs <- narrowphase.Pair{
			A:          s.Floor,
			B:          body,
			TransformA: s.FloorTransform,
			TransformB: s.Transforms[i],
		}
	}
	close(pairs)

	return narrowphase.NarrowPhase(pairs, 2, solver)
}

func run(cfg *config.Config) {
	solver := gjk.NewSolver(cfg.Settings())
	scene := SetupScene()

	fmt.Println("Sweeping bodies onto the floor")
	fmt.Println("==============================")
	scene.Drop(solver, cfg.SweepMarginScale())

	fmt.Println()
	fmt.Println("Resting contacts")
	fmt.Println("================")
	for _, c := range scene.Contacts(solver) {
		fmt.Printf("  %T: depth %.4f normal %v (%v)\n", c.B, c.Depth, c.Normal, c.Method)
		fmt.Printf("      floor point %v, body point %v\n", c.PointA, c.PointB)
	}

	d := solver.Distance(shape.Core(scene.Bodies[0]), shape.Core(scene.Bodies[1]), shape.Relative(scene.Transforms[0], scene.Transforms[1]))
	fmt.Println()
	fmt.Printf("Sphere to capsule: %.4f (%v)\n", d.Distance, d.Status)
}

func main() {
	configPath := flag.String("config", "", "TOML file with solver tolerances")
	watch := flag.Bool("watch", false, "rerun the scene whenever the config file changes")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logging.LogError("%v", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if err := cfg.Apply(); err != nil {
		logging.LogError("%v", err)
		os.Exit(1)
	}

	run(cfg)
	if !*watch || *configPath == "" {
		return
	}

	reloads := make(chan *config.Config, 1)
	w, err := config.Watch(*configPath, func(c *config.Config) {
		select {
		case reloads <- c:
		default:
		}
	})
	if err != nil {
		logging.LogError("%v", err)
		os.Exit(1)
	}
	defer w.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	logging.LogInfo("watching %s, interrupt to stop", *configPath)

	for {
		select {
		case c := <-reloads:
			if err := c.Apply(); err != nil {
				logging.LogError("%v", err)
				continue
			}
			fmt.Println()
			run(c)
		case <-interrupt:
			return
		}
	}
}
