// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"fmt"

	"github.com/jcodagnone/kmeanslab/utils/textutils"
)

// Strategy selects how the initial centroids are chosen.
type Strategy int

const (
	// StrategyManual centroids are supplied one at a time by the driver.
	StrategyManual Strategy = iota
	// StrategyRandom k points drawn uniformly with replacement.
	StrategyRandom
	// StrategyFarthest greedy maximal-minimum-distance seeding.
	StrategyFarthest
	// StrategyKMeansPlusPlus seeding weighted by distance to the nearest centroid.
	StrategyKMeansPlusPlus
)

var strategyNames = map[Strategy]string{
	StrategyManual:         "manual",
	StrategyRandom:         "random",
	StrategyFarthest:       "farthest",
	StrategyKMeansPlusPlus: "kmeans++",
}

var strategyAliases = map[string]Strategy{
	"manual":         StrategyManual,
	"random":         StrategyRandom,
	"farthest":       StrategyFarthest,
	"farthest-point": StrategyFarthest,
	"kmeans++":       StrategyKMeansPlusPlus,
	"kmeanspp":       StrategyKMeansPlusPlus,
	"k-means++":      StrategyKMeansPlusPlus,
}

// Strategies returns the canonical strategy names in declaration order.
func Strategies() []string {
	return []string{
		StrategyManual.String(),
		StrategyRandom.String(),
		StrategyFarthest.String(),
		StrategyKMeansPlusPlus.String(),
	}
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy resolves a strategy name. Matching ignores case, accents and
// surrounding spaces.
func ParseStrategy(name string) (Strategy, error) {
	if s, ok := strategyAliases[textutils.LowerASCIIFolding(name)]; ok {
		return s, nil
	}

	return 0, &ClusterError{
		Type:    ErrorTypeInvalidStrategy,
		Message: fmt.Sprintf("unknown strategy %q", name),
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, &ClusterError{
			Type:    ErrorTypeInvalidStrategy,
			Message: fmt.Sprintf("unknown strategy %d", int(s)),
		}
	}

	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}
