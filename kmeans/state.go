// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"fmt"
	"math/rand"

	"github.com/jcodagnone/kmeanslab/spatial"
)

// Phase is the lifecycle stage of a State.
type Phase int

const (
	// PhaseEmpty no centroids yet.
	PhaseEmpty Phase = iota
	// PhaseCollecting manual centroids are being supplied.
	PhaseCollecting
	// PhaseReady all k centroids exist; assign and update are allowed.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseCollecting:
		return "collecting"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State holds one clustering run: the points, the current and previous
// centroids and the assignment of points to centroids.
//
// A State has a single owner and is not safe for concurrent use.
type State struct {
	points     []spatial.Point
	centroids  []spatial.Point
	previous   []spatial.Point
	assignment Assignment
	k          int
	strategy   Strategy
	phase      Phase
	iterations int
}

// NewState returns an empty state over a copy of points.
func NewState(points []spatial.Point) *State {
	return &State{points: clonePoints(points)}
}

func clonePoints(points []spatial.Point) []spatial.Point {
	if points == nil {
		return nil
	}

	out := make([]spatial.Point, len(points))
	copy(out, points)

	return out
}

// Points returns a copy of the point set.
func (s *State) Points() []spatial.Point { return clonePoints(s.points) }

// Centroids returns a copy of the current centroids.
func (s *State) Centroids() []spatial.Point { return clonePoints(s.centroids) }

// Previous returns a copy of the centroids before the last update, or nil.
func (s *State) Previous() []spatial.Point { return clonePoints(s.previous) }

// Assignment returns a copy of the current assignment, or nil before the
// first assign step.
func (s *State) Assignment() Assignment {
	if s.assignment == nil {
		return nil
	}

	out := make(Assignment, len(s.assignment))
	copy(out, s.assignment)

	return out
}

// K returns the cluster count requested at initialization.
func (s *State) K() int { return s.k }

// Strategy returns the strategy used at initialization.
func (s *State) Strategy() Strategy { return s.strategy }

// Phase returns the current lifecycle stage.
func (s *State) Phase() Phase { return s.phase }

// Iterations returns the number of update steps since initialization.
func (s *State) Iterations() int { return s.iterations }

// Initialize replaces any existing centroids. With StrategyManual the state
// moves to PhaseCollecting and waits for AddManualCentroid; the other
// strategies compute all k centroids at once. An invalid k leaves the state
// untouched.
func (s *State) Initialize(k int, strategy Strategy, rng *rand.Rand) error {
	if err := validateClusterCount(s.points, k); err != nil {
		return err
	}

	var centroids []spatial.Point

	phase := PhaseReady

	if strategy == StrategyManual {
		centroids = make([]spatial.Point, 0, k)
		phase = PhaseCollecting
	} else {
		var err error

		centroids, err = Initialize(s.points, k, strategy, rng)
		if err != nil {
			return err
		}
	}

	s.k = k
	s.strategy = strategy
	s.centroids = centroids
	s.previous = nil
	s.assignment = nil
	s.iterations = 0
	s.phase = phase

	return nil
}

// AddManualCentroid appends a driver supplied centroid. It reports true once
// the k-th centroid arrives and the state becomes ready.
func (s *State) AddManualCentroid(p spatial.Point) (bool, error) {
	if s.phase != PhaseCollecting {
		return false, &ClusterError{
			Type:    ErrorTypeManualSequence,
			Message: fmt.Sprintf("add manual centroid: state is %s, not collecting", s.phase),
		}
	}

	s.centroids = append(s.centroids, p)
	if len(s.centroids) < s.k {
		return false, nil
	}

	s.phase = PhaseReady

	return true, nil
}

func (s *State) requireReady(op string) error {
	switch s.phase {
	case PhaseReady:
		return nil
	case PhaseCollecting:
		return manualSequenceViolation(op, len(s.centroids), s.k)
	default:
		return uninitialized(op)
	}
}

// Assign recomputes the assignment of every point.
func (s *State) Assign() error {
	return s.assignWith(func(points, centroids []spatial.Point) (Assignment, error) {
		return Assign(points, centroids), nil
	})
}

// assignWith runs assign and stores its result. A failed assign leaves the
// previous assignment in place.
func (s *State) assignWith(assign func(points, centroids []spatial.Point) (Assignment, error)) error {
	if err := s.requireReady("assign"); err != nil {
		return err
	}

	assignment, err := assign(s.points, s.centroids)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}

	s.assignment = assignment

	return nil
}

// CheckClusterCount reports whether k clusters fit the point set, without
// touching the state.
func (s *State) CheckClusterCount(k int) error {
	return validateClusterCount(s.points, k)
}

// Update snapshots the current centroids and moves each one to the mean of
// its assigned points.
func (s *State) Update() error {
	if err := s.requireReady("update"); err != nil {
		return err
	}

	if s.assignment == nil {
		return uninitialized("update before assign")
	}

	s.previous = clonePoints(s.centroids)
	s.centroids = Update(s.points, s.assignment, s.centroids)
	s.iterations++

	return nil
}

// HasConverged reports whether the last update left every centroid in place.
func (s *State) HasConverged() (bool, error) {
	if err := s.requireReady("has converged"); err != nil {
		return false, err
	}

	return HasConverged(s.centroids, s.previous), nil
}

// Reset drops centroids and assignment but keeps the points. A pending manual
// collection is abandoned.
func (s *State) Reset() {
	s.centroids = nil
	s.previous = nil
	s.assignment = nil
	s.iterations = 0
	s.phase = PhaseEmpty
}

// Snapshot is a read-only copy of a State for presentation.
type Snapshot struct {
	Points     []spatial.Point `json:"points"`
	Centroids  []spatial.Point `json:"centroids"`
	Assignment Assignment      `json:"assignment"`
	K          int             `json:"k"`
	Strategy   Strategy        `json:"strategy"`
	Phase      Phase           `json:"phase"`
	Iterations int             `json:"iterations"`
	Converged  bool            `json:"converged"`
}

// Snapshot copies the state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Points:     s.Points(),
		Centroids:  s.Centroids(),
		Assignment: s.Assignment(),
		K:          s.k,
		Strategy:   s.strategy,
		Phase:      s.phase,
		Iterations: s.iterations,
		Converged:  s.phase == PhaseReady && HasConverged(s.centroids, s.previous),
	}
}
