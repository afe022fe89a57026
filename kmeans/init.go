// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jcodagnone/kmeanslab/spatial"
)

func validateClusterCount(points []spatial.Point, k int) error {
	if k < 1 || k > len(points) {
		return invalidClusterCount(k, len(points))
	}

	return nil
}

// Initialize computes k initial centroids from points. Every centroid is a
// copy of some point. StrategyManual is rejected: manual centroids come from
// the driver through State.AddManualCentroid.
func Initialize(points []spatial.Point, k int, strategy Strategy, rng *rand.Rand) ([]spatial.Point, error) {
	if err := validateClusterCount(points, k); err != nil {
		return nil, err
	}

	switch strategy {
	case StrategyRandom:
		return randomInit(points, k, rng), nil
	case StrategyFarthest:
		return farthestInit(points, k, rng), nil
	case StrategyKMeansPlusPlus:
		return kmeansPlusPlusInit(points, k, rng), nil
	case StrategyManual:
		return nil, &ClusterError{
			Type:    ErrorTypeInvalidStrategy,
			Message: "manual centroids must be supplied one at a time",
		}
	default:
		return nil, &ClusterError{
			Type:    ErrorTypeInvalidStrategy,
			Message: fmt.Sprintf("unknown strategy %d", int(strategy)),
		}
	}
}

// randomInit draws k points with replacement. Duplicates are kept.
func randomInit(points []spatial.Point, k int, rng *rand.Rand) []spatial.Point {
	centroids := make([]spatial.Point, k)
	for i := range centroids {
		centroids[i] = points[rng.Intn(len(points))]
	}

	return centroids
}

// nearestDistance is the distance from p to the closest centroid.
func nearestDistance(p spatial.Point, centroids []spatial.Point) float64 {
	minDist := math.Inf(1)
	for _, c := range centroids {
		if d := p.Distance(c); d < minDist {
			minDist = d
		}
	}

	return minDist
}

// farthestInit seeds with one random point and then greedily adds the point
// whose nearest centroid is farthest away. Ties go to the first such point.
func farthestInit(points []spatial.Point, k int, rng *rand.Rand) []spatial.Point {
	centroids := make([]spatial.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	for len(centroids) < k {
		farthest := 0
		maxDist := math.Inf(-1)

		for i, p := range points {
			if d := nearestDistance(p, centroids); d > maxDist {
				maxDist = d
				farthest = i
			}
		}

		centroids = append(centroids, points[farthest])
	}

	return centroids
}

// kmeansPlusPlusInit samples each new centroid with probability proportional
// to the (non-squared) distance to the nearest chosen centroid.
func kmeansPlusPlusInit(points []spatial.Point, k int, rng *rand.Rand) []spatial.Point {
	centroids := make([]spatial.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	distances := make([]float64, len(points))

	for len(centroids) < k {
		var total float64

		for i, p := range points {
			distances[i] = nearestDistance(p, centroids)
			total += distances[i]
		}

		// Every point sits on a centroid when total is zero; the scan below
		// then never runs and the last point is taken.
		chosen := len(points) - 1

		if total > 0 {
			target := rng.Float64() * total

			var cumulative float64

			for i, d := range distances {
				cumulative += d
				if cumulative >= target {
					chosen = i

					break
				}
			}
		}

		centroids = append(centroids, points[chosen])
	}

	return centroids
}
