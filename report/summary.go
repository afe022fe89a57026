// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package report turns a clustering state into statistics and charts.
package report

import (
	"github.com/jcodagnone/kmeanslab/kmeans"
	"github.com/jcodagnone/kmeanslab/spatial"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClusterSummary describes one cluster of an assignment.
type ClusterSummary struct {
	Index    int           `json:"index"`
	Centroid spatial.Point `json:"centroid"`
	Color    string        `json:"color"`
	Size     int           `json:"size"`
	// MeanDistance and StdDevDistance describe the point-to-centroid
	// distances; both are zero for an empty cluster.
	MeanDistance   float64 `json:"mean_distance"`
	StdDevDistance float64 `json:"stddev_distance"`
	// SSE is the within-cluster sum of squared distances.
	SSE float64 `json:"sse"`
}

// Summarize computes per-cluster statistics. A nil assignment yields empty
// clusters.
func Summarize(points, centroids []spatial.Point, assignment kmeans.Assignment) []ClusterSummary {
	k := len(centroids)
	distances := make([][]float64, k)

	for i, cluster := range assignment {
		distances[cluster] = append(distances[cluster], points[i].Distance(centroids[cluster]))
	}

	summaries := make([]ClusterSummary, k)

	for j, c := range centroids {
		d := distances[j]
		s := ClusterSummary{
			Index:    j,
			Centroid: c,
			Color:    Color(j, k),
			Size:     len(d),
		}

		switch len(d) {
		case 0:
		case 1:
			s.MeanDistance = d[0]
			s.SSE = d[0] * d[0]
		default:
			s.MeanDistance, s.StdDevDistance = stat.MeanStdDev(d, nil)
			s.SSE = floats.Dot(d, d)
		}

		summaries[j] = s
	}

	return summaries
}

// TotalSSE sums the SSE of every cluster; it equals kmeans.Inertia.
func TotalSSE(summaries []ClusterSummary) float64 {
	var total float64
	for _, s := range summaries {
		total += s.SSE
	}

	return total
}

// SummarizeSnapshot is Summarize over a state snapshot.
func SummarizeSnapshot(snap kmeans.Snapshot) []ClusterSummary {
	return Summarize(snap.Points, snap.Centroids, snap.Assignment)
}
