// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package kmeans implements interactive k-means clustering of 2-D points.
//
// A State owns the point set, the centroids and the per-point assignment.
// An Engine drives it: Step initializes the centroids with one of the
// seeding strategies (manual, random, farthest, kmeans++) and afterwards runs
// one assign+update cycle per call, while RunToConvergence iterates until the
// centroids stop moving or the iteration cap is reached.
//
// Ties in assignment go to the lowest centroid index and convergence is exact
// floating point equality between two consecutive centroid sets.
package kmeans
