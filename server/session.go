// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"math/rand"
	"sync"

	"github.com/jcodagnone/kmeanslab/dataset"
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/spatial"
)

// session is one browser's clustering run. The mutex serializes requests
// against it; the engine and state themselves are single owner.
type session struct {
	mu     sync.Mutex
	id     string
	rng    *rand.Rand
	engine *kmeans.Engine
	state  *kmeans.State
	bounds spatial.Bounds
}

func newSession(id string, cfg kmeans.Config, seed int64, n int, bounds spatial.Bounds) (*session, error) {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive

	engine, err := kmeans.NewEngine(cfg, rng)
	if err != nil {
		return nil, err
	}

	s := &session{id: id, rng: rng, engine: engine}
	if err := s.generate(n, bounds); err != nil {
		return nil, err
	}

	return s, nil
}

// generate replaces the point set; the previous state is discarded.
func (s *session) generate(n int, bounds spatial.Bounds) error {
	points, err := dataset.Generate(n, bounds, s.rng)
	if err != nil {
		return err
	}

	s.bounds = bounds
	s.state = kmeans.NewState(points)

	return nil
}

// selectStrategy records the strategy and k for the next initialization.
// Choosing manual starts collecting right away, mirroring the page where
// picking "manual" arms the plot for clicks; choosing another strategy
// abandons a pending collection. k is checked against the points before
// anything changes.
func (s *session) selectStrategy(strategy kmeans.Strategy, k int) error {
	if k == 0 {
		k = s.engine.Config().K
	}

	if err := s.state.CheckClusterCount(k); err != nil {
		return err
	}

	if err := s.engine.SetK(k); err != nil {
		return err
	}

	s.engine.SetStrategy(strategy)

	if strategy != kmeans.StrategyManual {
		if s.state.Phase() == kmeans.PhaseCollecting {
			s.state.Reset()
		}

		return nil
	}

	s.state.Reset()

	return s.engine.Initialize(s.state)
}

func (s *session) addManualCentroid(p spatial.Point) (bool, error) {
	if s.state.Phase() == kmeans.PhaseEmpty && s.engine.Config().Strategy == kmeans.StrategyManual {
		if err := s.engine.Initialize(s.state); err != nil {
			return false, err
		}
	}

	return s.state.AddManualCentroid(p)
}

func (s *session) step(ctx context.Context) error {
	return s.engine.Step(ctx, s.state)
}

func (s *session) runToConvergence(ctx context.Context) (kmeans.Result, error) {
	return s.engine.RunToConvergence(ctx, s.state)
}

func (s *session) reset() {
	s.state.Reset()
}
