// Copyright 2025 The ChapaUY Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"math"
)

// Point represents a position on the plane.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.X, p.Y)
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		return fmt.Errorf("spatial: NULL point")
	}

	switch v := value.(type) {
	case []byte:
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.X, &p.Y)

		return err
	case map[string]interface{}:
		x, okX := toFloat(v["x"])
		y, okY := toFloat(v["y"])

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected numeric 'x' and 'y' fields, got %+v", v)
		}

		p.X = x
		p.Y = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// DuckDB's csv sniffer may type whole-number columns as BIGINT.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	default:
		return 0, false
	}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Bounds is the width and height of the plane points are drawn on.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (b Bounds) Valid() bool {
	return b.Width > 0 && b.Height > 0
}
