// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jcodagnone/kmeanslab/dataset"
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListenAddr(t *testing.T) {
	t.Setenv(addrEnv, "")
	assert.Equal(t, defaultAddr, listenAddr(defaultAddr, false))

	t.Setenv(addrEnv, "0.0.0.0:9000")
	assert.Equal(t, "0.0.0.0:9000", listenAddr(defaultAddr, false))
	assert.Equal(t, "127.0.0.1:7000", listenAddr("127.0.0.1:7000", true))
}

func TestServeOptionsConfig(t *testing.T) {
	cfg, err := (&serveOptions{K: 5, Strategy: "K-Means++", MaxIterations: 50, Workers: 2}).config()
	require.NoError(t, err)
	assert.Equal(t, kmeans.Config{K: 5, Strategy: kmeans.StrategyKMeansPlusPlus, MaxIterations: 50, Workers: 2}, cfg)

	_, err = (&serveOptions{K: 5, Strategy: "ward"}).config()
	assert.True(t, kmeans.IsInvalidStrategy(err))
}

func TestRunOptionsConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    runOptions
		wantErr func(error) bool
	}{
		{"farthest", runOptions{K: 2, Strategy: "farthest", Trials: 1}, nil},
		{"unknown strategy", runOptions{K: 2, Strategy: "ward", Trials: 1}, kmeans.IsInvalidStrategy},
		{"manual", runOptions{K: 2, Strategy: "manual", Trials: 1}, func(err error) bool {
			return errors.Is(err, errManualRun)
		}},
		{"no trials", runOptions{K: 2, Strategy: "random"}, func(err error) bool {
			return err != nil && strings.Contains(err.Error(), "trials")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.opts.config()
			if tt.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.True(t, tt.wantErr(err), "unexpected error %v", err)
		})
	}
}

func generated(t *testing.T, n int, seed int64) []spatial.Point {
	t.Helper()

	points, err := dataset.Generate(n, dataset.DefaultBounds, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)

	return points
}

func TestRunTrialsKeepsLowestInertia(t *testing.T) {
	points := generated(t, 200, 11)
	cfg := kmeans.Config{K: 4, Strategy: kmeans.StrategyRandom, MaxIterations: 1000, Workers: 1}

	var lowest float64

	for i := range 6 {
		single, err := runTrial(context.Background(), points, cfg, 100+int64(i))
		require.NoError(t, err)
		assert.True(t, single.Result.Converged)

		if i == 0 || single.Inertia < lowest {
			lowest = single.Inertia
		}
	}

	var finished atomic.Int32

	best, err := runTrials(context.Background(), points, cfg, 100, 6, func() { finished.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, int32(6), finished.Load())
	assert.Equal(t, lowest, best.Inertia)
	assert.GreaterOrEqual(t, best.Seed, int64(100))
	assert.Less(t, best.Seed, int64(106))
	assert.Len(t, best.Snapshot.Centroids, 4)
}

func TestRunTrialsPropagatesErrors(t *testing.T) {
	points := generated(t, 3, 1)
	cfg := kmeans.Config{K: 5, Strategy: kmeans.StrategyRandom, MaxIterations: 10}

	_, err := runTrials(context.Background(), points, cfg, 1, 3, nil)
	assert.True(t, kmeans.IsInvalidClusterCount(err), "got %v", err)
}

func TestRunTrialIterationCap(t *testing.T) {
	points := generated(t, 500, 3)
	cfg := kmeans.Config{K: 8, Strategy: kmeans.StrategyRandom, MaxIterations: 1}

	single, err := runTrial(context.Background(), points, cfg, 42)
	require.NoError(t, err)
	assert.False(t, single.Result.Converged)
	assert.Equal(t, 1, single.Result.Iterations)
}

func TestDatasetCSVRoundTrip(t *testing.T) {
	points := generated(t, 25, 7)

	path := filepath.Join(t.TempDir(), "points.csv")

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, writeDatasetCSV(f, points))
	require.NoError(t, f.Close())

	loaded, err := (&runOptions{Input: path}).loadPoints(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(points, loaded, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("loaded points mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadPointsGenerates(t *testing.T) {
	o := &runOptions{N: 40, Width: 50, Height: 20, Seed: 7}

	points, err := o.loadPoints(context.Background())
	require.NoError(t, err)
	assert.Equal(t, generatedIn(t, 40, spatial.Bounds{Width: 50, Height: 20}, 7), points)
}

func generatedIn(t *testing.T, n int, bounds spatial.Bounds, seed int64) []spatial.Point {
	t.Helper()

	points, err := dataset.Generate(n, bounds, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)

	return points
}

func bestOfSquare(t *testing.T) runReport {
	t.Helper()

	square := []spatial.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	cfg := kmeans.Config{K: 1, Strategy: kmeans.StrategyRandom, MaxIterations: 10}

	best, err := runTrials(context.Background(), square, cfg, 1, 2, nil)
	require.NoError(t, err)

	return newRunReport(best, 2)
}

func TestWriteTable(t *testing.T) {
	r := bestOfSquare(t)

	var buf bytes.Buffer
	writeTable(&buf, r)

	out := buf.String()
	assert.Contains(t, out, "✅ converged")
	assert.Contains(t, out, "k=1, random, best of 2")
	assert.Contains(t, out, "5.00")
	assert.Contains(t, out, "Inertia: 200.00")
}

func TestWriteJSON(t *testing.T) {
	r := bestOfSquare(t)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, r))

	var decoded struct {
		Points    int             `json:"points"`
		Strategy  string          `json:"strategy"`
		Centroids []spatial.Point `json:"centroids"`
		Best      struct {
			Inertia float64       `json:"inertia"`
			Result  kmeans.Result `json:"result"`
		} `json:"best"`
		Clusters []struct {
			Size int `json:"size"`
		} `json:"clusters"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, 4, decoded.Points)
	assert.Equal(t, "random", decoded.Strategy)
	assert.Equal(t, []spatial.Point{{X: 5, Y: 5}}, decoded.Centroids)
	assert.InDelta(t, 200.0, decoded.Best.Inertia, 1e-9)
	assert.True(t, decoded.Best.Result.Converged)
	require.Len(t, decoded.Clusters, 1)
	assert.Equal(t, 4, decoded.Clusters[0].Size)
}

func TestWriteChart(t *testing.T) {
	snap := bestOfSquare(t).Best.Snapshot
	dir := t.TempDir()

	htmlPath := filepath.Join(dir, "chart.HTML")
	require.NoError(t, writeChart(htmlPath, snap))

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "cluster 0")

	pngPath := filepath.Join(dir, "chart.png")
	require.NoError(t, writeChart(pngPath, snap))

	f, err := os.Open(pngPath)
	require.NoError(t, err)

	defer f.Close()

	_, err = png.Decode(f)
	require.NoError(t, err)

	assert.Error(t, writeChart(filepath.Join(dir, "chart.svg"), snap))
}

func TestDebugDatasetCommand(t *testing.T) {
	var buf bytes.Buffer

	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"debug", "dataset", "-n", "3", "--seed", "7", "--width", "10", "--height", "10"})

	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "x,y", lines[0])
}
