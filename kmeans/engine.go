// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/jcodagnone/kmeanslab/spatial"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxIterations bounds RunToConvergence when Config leaves it unset.
const DefaultMaxIterations = 1000

// minPointsPerWorker keeps small point sets on a single goroutine.
const minPointsPerWorker = 1024

// Config tunes an Engine.
type Config struct {
	// K is the number of clusters.
	K int
	// Strategy picks the initial centroids.
	Strategy Strategy
	// MaxIterations caps RunToConvergence. Zero means DefaultMaxIterations.
	MaxIterations int
	// Workers splits the assignment step across goroutines. Values below 2
	// assign sequentially.
	Workers int
}

// DefaultConfig returns the settings of the interactive page: three
// clusters seeded at random.
func DefaultConfig() Config {
	return Config{
		K:             3,
		Strategy:      StrategyRandom,
		MaxIterations: DefaultMaxIterations,
		Workers:       1,
	}
}

// Result describes a RunToConvergence call.
type Result struct {
	Iterations int  `json:"iterations"`
	Converged  bool `json:"converged"`
}

// Engine runs the clustering steps on a State.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine creates an engine. rng drives every random choice, so a seeded
// source makes runs reproducible.
func NewEngine(cfg Config, rng *rand.Rand) (*Engine, error) {
	if cfg.K < 1 {
		return nil, invalidClusterCount(cfg.K, 0)
	}

	if _, ok := strategyNames[cfg.Strategy]; !ok {
		return nil, &ClusterError{
			Type:    ErrorTypeInvalidStrategy,
			Message: fmt.Sprintf("unknown strategy %d", int(cfg.Strategy)),
		}
	}

	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // not security sensitive
	}

	return &Engine{cfg: cfg, rng: rng}, nil
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetStrategy changes the strategy used by the next initialization.
func (e *Engine) SetStrategy(strategy Strategy) {
	e.cfg.Strategy = strategy
}

// SetK changes the cluster count used by the next initialization.
func (e *Engine) SetK(k int) error {
	if k < 1 {
		return invalidClusterCount(k, 0)
	}

	e.cfg.K = k

	return nil
}

// Initialize seeds state with the configured k and strategy.
func (e *Engine) Initialize(state *State) error {
	return state.Initialize(e.cfg.K, e.cfg.Strategy, e.rng)
}

// Step initializes an empty state, otherwise runs one assign+update cycle.
// Once converged, further steps leave the centroids where they are.
func (e *Engine) Step(ctx context.Context, state *State) error {
	if state.Phase() == PhaseEmpty {
		return e.Initialize(state)
	}

	return e.iterate(ctx, state)
}

func (e *Engine) iterate(ctx context.Context, state *State) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}

	if err := state.assignWith(func(points, centroids []spatial.Point) (Assignment, error) {
		return e.assign(ctx, points, centroids)
	}); err != nil {
		return err
	}

	return state.Update()
}

// RunToConvergence iterates until the centroids stop moving. An empty state
// is initialized first. When the iteration cap is reached a NonConvergence
// error is returned and the state keeps the latest centroids.
func (e *Engine) RunToConvergence(ctx context.Context, state *State) (Result, error) {
	if state.Phase() == PhaseEmpty {
		if err := e.Initialize(state); err != nil {
			return Result{}, err
		}
	}

	var result Result

	converged, err := state.HasConverged()
	if err != nil {
		return result, err
	}

	for !converged {
		if result.Iterations >= e.cfg.MaxIterations {
			return result, &ClusterError{
				Type:    ErrorTypeNonConvergence,
				Message: fmt.Sprintf("no convergence after %d iterations", result.Iterations),
			}
		}

		if err := e.iterate(ctx, state); err != nil {
			return result, err
		}

		result.Iterations++

		converged = HasConverged(state.centroids, state.previous)
	}

	result.Converged = true

	return result, nil
}

// assign splits the points into contiguous chunks, one per worker. Each point
// is labelled independently so the outcome matches the sequential Assign.
// Workers that start after ctx is done give up with its error.
func (e *Engine) assign(ctx context.Context, points, centroids []spatial.Point) (Assignment, error) {
	workers := e.cfg.Workers
	if maxWorkers := len(points) / minPointsPerWorker; workers > maxWorkers {
		workers = maxWorkers
	}

	if workers < 2 {
		return Assign(points, centroids), nil
	}

	assignment := make(Assignment, len(points))
	chunk := (len(points) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)

	for from := 0; from < len(points); from += chunk {
		to := min(from+chunk, len(points))

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			assignRange(points, centroids, assignment, from, to)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assignment, nil
}
