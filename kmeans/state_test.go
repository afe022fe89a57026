// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jcodagnone/kmeanslab/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateCopiesPoints(t *testing.T) {
	points := []spatial.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	state := NewState(points)

	points[0] = spatial.Point{X: 99, Y: 99}
	assert.Equal(t, spatial.Point{X: 1, Y: 1}, state.Points()[0])
	assert.Equal(t, PhaseEmpty, state.Phase())
	assert.Nil(t, state.Centroids())
	assert.Nil(t, state.Assignment())
}

func TestStateInvalidClusterCountLeavesStateUntouched(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(2, StrategyRandom, seededRand(1)))

	before := state.Snapshot()

	err := state.Initialize(9, StrategyFarthest, seededRand(1))
	assert.True(t, IsInvalidClusterCount(err))
	assert.Equal(t, before, state.Snapshot())
}

func TestStateOperationsBeforeInitialization(t *testing.T) {
	state := NewState(square)

	assert.True(t, IsUninitialized(state.Assign()))
	assert.True(t, IsUninitialized(state.Update()))

	_, err := state.HasConverged()
	assert.True(t, IsUninitialized(err))

	_, err = state.AddManualCentroid(spatial.Point{})
	assert.True(t, IsManualSequenceViolation(err))
}

func TestStateFailedAssignKeepsAssignment(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(2, StrategyFarthest, seededRand(1)))
	require.NoError(t, state.Assign())

	before := state.Assignment()
	failure := errors.New("worker failed")

	err := state.assignWith(func(_, _ []spatial.Point) (Assignment, error) {
		return nil, failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, before, state.Assignment())
}

func TestStateCheckClusterCount(t *testing.T) {
	state := NewState(square)

	assert.NoError(t, state.CheckClusterCount(4))
	assert.True(t, IsInvalidClusterCount(state.CheckClusterCount(0)))
	assert.True(t, IsInvalidClusterCount(state.CheckClusterCount(5)))
	assert.Equal(t, PhaseEmpty, state.Phase())
}

func TestStateUpdateBeforeAssign(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(1, StrategyRandom, seededRand(1)))

	assert.True(t, IsUninitialized(state.Update()))
	assert.Nil(t, state.Previous())
}

func TestStateManualCollection(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(2, StrategyManual, nil))
	assert.Equal(t, PhaseCollecting, state.Phase())

	// Nothing runs until both centroids are in.
	err := state.Assign()
	assert.True(t, IsManualSequenceViolation(err), "got %v", err)
	assert.Contains(t, err.Error(), "0 of 2")
	assert.True(t, IsManualSequenceViolation(state.Update()))

	_, err = state.HasConverged()
	assert.True(t, IsManualSequenceViolation(err))
	assert.Nil(t, state.Assignment())

	complete, err := state.AddManualCentroid(spatial.Point{X: 0.5, Y: 0.5})
	require.NoError(t, err)
	assert.False(t, complete)
	assert.True(t, IsManualSequenceViolation(state.Assign()))

	complete, err = state.AddManualCentroid(spatial.Point{X: 1.5, Y: 1.5})
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, PhaseReady, state.Phase())

	_, err = state.AddManualCentroid(spatial.Point{X: 3, Y: 3})
	assert.True(t, IsManualSequenceViolation(err))
	assert.Len(t, state.Centroids(), 2)

	require.NoError(t, state.Assign())
	assert.Equal(t, Assignment{0, 0, 1, 0}, state.Assignment())
}

func TestStateUpdateSnapshotsPrevious(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(1, StrategyManual, nil))
	_, err := state.AddManualCentroid(spatial.Point{X: 0, Y: 0})
	require.NoError(t, err)

	require.NoError(t, state.Assign())
	require.NoError(t, state.Update())

	assert.Equal(t, []spatial.Point{{X: 0, Y: 0}}, state.Previous())
	assert.Equal(t, []spatial.Point{{X: 1, Y: 1}}, state.Centroids())
	assert.Equal(t, 1, state.Iterations())

	converged, err := state.HasConverged()
	require.NoError(t, err)
	assert.False(t, converged)

	require.NoError(t, state.Assign())
	require.NoError(t, state.Update())

	converged, err = state.HasConverged()
	require.NoError(t, err)
	assert.True(t, converged)
}

func TestStateReset(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(2, StrategyManual, nil))
	_, err := state.AddManualCentroid(spatial.Point{X: 1, Y: 1})
	require.NoError(t, err)

	state.Reset()

	assert.Equal(t, PhaseEmpty, state.Phase())
	assert.Nil(t, state.Centroids())
	assert.Nil(t, state.Assignment())
	assert.Equal(t, square, state.Points())

	_, err = state.AddManualCentroid(spatial.Point{X: 1, Y: 1})
	assert.True(t, IsManualSequenceViolation(err))
}

func TestSnapshotJSON(t *testing.T) {
	state := NewState(square)
	require.NoError(t, state.Initialize(1, StrategyKMeansPlusPlus, seededRand(1)))

	data, err := json.Marshal(state.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "kmeans++", decoded["strategy"])
	assert.Equal(t, "ready", decoded["phase"])
	assert.Equal(t, float64(1), decoded["k"])
	assert.Equal(t, false, decoded["converged"])
}
