// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

// Package dataset produces the point sets fed to the clustering engine.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"

	"github.com/jcodagnone/kmeanslab/spatial"
)

// DefaultSize is the number of points of a generated dataset.
const DefaultSize = 300

// DefaultBounds is the plot area points are generated in.
var DefaultBounds = spatial.Bounds{Width: 800, Height: 600}

// Generate returns n points drawn uniformly within bounds. Coordinates are
// shifted by one unit so the dot drawn at a point stays inside the plot.
func Generate(n int, bounds spatial.Bounds, rng *rand.Rand) ([]spatial.Point, error) {
	if n < 1 {
		return nil, fmt.Errorf("dataset size must be positive, got %d", n)
	}

	if !bounds.Valid() {
		return nil, fmt.Errorf("invalid bounds %gx%g", bounds.Width, bounds.Height)
	}

	points := make([]spatial.Point, n)
	for i := range points {
		points[i] = spatial.Point{
			X: rng.Float64()*bounds.Width - 1,
			Y: rng.Float64()*bounds.Height - 1,
		}
	}

	return points, nil
}

// ErrEmptyDataset is returned when a source holds no points.
var ErrEmptyDataset = errors.New("dataset has no points")

// LoadCSV reads the x and y columns of a CSV file, keeping file order. db
// must be a DuckDB connection; an in-memory one is enough.
func LoadCSV(ctx context.Context, db *sql.DB, path string) ([]spatial.Point, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT {'x': CAST(x AS DOUBLE), 'y': CAST(y AS DOUBLE)}
		FROM read_csv_auto(?, header = true)
	`, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer rows.Close()

	var points []spatial.Point

	for rows.Next() {
		var p spatial.Point
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning row %d of %s: %w", len(points)+1, path, err)
		}

		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", path, err)
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDataset)
	}

	return points, nil
}
