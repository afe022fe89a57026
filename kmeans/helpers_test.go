// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"math/rand"
	"testing"

	"github.com/jcodagnone/kmeanslab/spatial"
)

// scriptedSource replays fixed 31-bit values, so rng.Intn(n) yields
// values[i] % n for any n above every scripted value.
type scriptedSource struct {
	values []int64
	next   int
}

func (s *scriptedSource) Int63() int64 {
	v := s.values[s.next%len(s.values)]
	s.next++

	return v << 32
}

func (s *scriptedSource) Seed(int64) {}

func scriptedRand(values ...int64) *rand.Rand {
	return rand.New(&scriptedSource{values: values})
}

func seededRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

var square = []spatial.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}

var trueCenters = []spatial.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}}

// fourBlobs returns 20 points around each true center, jittered by at most
// 0.5 per axis. Offsets come in mirrored pairs so every blob's mean is its
// center. Blob c occupies indices [20c, 20c+20).
func fourBlobs(t *testing.T) []spatial.Point {
	t.Helper()

	rng := seededRand(7)
	points := make([]spatial.Point, 0, 80)

	for _, c := range trueCenters {
		for range 10 {
			dx, dy := rng.Float64()-0.5, rng.Float64()-0.5
			points = append(points,
				spatial.Point{X: c.X + dx, Y: c.Y + dy},
				spatial.Point{X: c.X - dx, Y: c.Y - dy},
			)
		}
	}

	return points
}

func randomPoints(rng *rand.Rand, n int) []spatial.Point {
	points := make([]spatial.Point, n)
	for i := range points {
		points[i] = spatial.Point{X: rng.Float64() * 800, Y: rng.Float64() * 600}
	}

	return points
}

func containsPoint(points []spatial.Point, p spatial.Point) bool {
	for _, q := range points {
		if q == p {
			return true
		}
	}

	return false
}
