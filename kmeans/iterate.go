// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"math"

	"github.com/jcodagnone/kmeanslab/spatial"
)

// Assignment maps a point index to the index of its cluster centroid.
type Assignment []int

// Sizes returns the number of points assigned to each of the k clusters.
func (a Assignment) Sizes(k int) []int {
	sizes := make([]int, k)
	for _, c := range a {
		sizes[c]++
	}

	return sizes
}

// nearestCentroid returns the index of the closest centroid. An equal
// distance never replaces an earlier match, so ties go to the lowest index.
func nearestCentroid(p spatial.Point, centroids []spatial.Point) int {
	closest := 0
	minDist := math.Inf(1)

	for j, c := range centroids {
		if d := p.Distance(c); d < minDist {
			minDist = d
			closest = j
		}
	}

	return closest
}

// Assign labels every point with its nearest centroid.
func Assign(points, centroids []spatial.Point) Assignment {
	assignment := make(Assignment, len(points))
	assignRange(points, centroids, assignment, 0, len(points))

	return assignment
}

func assignRange(points, centroids []spatial.Point, assignment Assignment, from, to int) {
	for i := from; i < to; i++ {
		assignment[i] = nearestCentroid(points[i], centroids)
	}
}

// Update returns the new centroids: the mean of the points assigned to each
// cluster. A cluster without points keeps its previous position. The input
// slice is not modified.
func Update(points []spatial.Point, assignment Assignment, centroids []spatial.Point) []spatial.Point {
	type accumulator struct {
		x, y  float64
		count int
	}

	sums := make([]accumulator, len(centroids))

	for i, p := range points {
		cluster := assignment[i]
		sums[cluster].x += p.X
		sums[cluster].y += p.Y
		sums[cluster].count++
	}

	updated := make([]spatial.Point, len(centroids))
	copy(updated, centroids)

	for j, sum := range sums {
		if sum.count > 0 {
			updated[j] = spatial.Point{
				X: sum.x / float64(sum.count),
				Y: sum.y / float64(sum.count),
			}
		}
	}

	return updated
}

// HasConverged reports whether every centroid equals its previous position
// exactly. There is nothing to compare against before the first update, so a
// nil or mismatched previous set never counts as converged.
func HasConverged(centroids, previous []spatial.Point) bool {
	if previous == nil || len(previous) != len(centroids) {
		return false
	}

	for i, c := range centroids {
		if c.X != previous[i].X || c.Y != previous[i].Y {
			return false
		}
	}

	return true
}

// Inertia is the sum of squared distances from each point to its centroid.
func Inertia(points, centroids []spatial.Point, assignment Assignment) float64 {
	var total float64

	for i, p := range points {
		d := p.Distance(centroids[assignment[i]])
		total += d * d
	}

	return total
}
