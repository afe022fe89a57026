// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package kmeans

import (
	"errors"
	"fmt"
)

// ClusterError represents errors reported by the clustering engine.
type ClusterError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType defines the kinds of clustering errors.
type ErrorType int

const (
	// ErrorTypeUnknown unknown error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeInvalidClusterCount k < 1 or k > number of points.
	ErrorTypeInvalidClusterCount
	// ErrorTypeManualSequence operation issued while manual centroids are still being collected.
	ErrorTypeManualSequence
	// ErrorTypeNonConvergence iteration cap reached before the centroids settled.
	ErrorTypeNonConvergence
	// ErrorTypeInvalidStrategy unknown or unusable initialization strategy.
	ErrorTypeInvalidStrategy
	// ErrorTypeUninitialized operation issued before the centroids exist.
	ErrorTypeUninitialized
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeInvalidClusterCount:
		return "invalid cluster count"
	case ErrorTypeManualSequence:
		return "manual sequence violation"
	case ErrorTypeNonConvergence:
		return "non convergence"
	case ErrorTypeInvalidStrategy:
		return "invalid strategy"
	case ErrorTypeUninitialized:
		return "uninitialized"
	default:
		return "unknown"
	}
}

func (e *ClusterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ClusterError) Unwrap() error {
	return e.Err
}

func invalidClusterCount(k, n int) *ClusterError {
	return &ClusterError{
		Type:    ErrorTypeInvalidClusterCount,
		Message: fmt.Sprintf("invalid cluster count %d for %d points", k, n),
	}
}

func manualSequenceViolation(op string, collected, k int) *ClusterError {
	return &ClusterError{
		Type:    ErrorTypeManualSequence,
		Message: fmt.Sprintf("%s: %d of %d manual centroids collected", op, collected, k),
	}
}

func uninitialized(op string) *ClusterError {
	return &ClusterError{
		Type:    ErrorTypeUninitialized,
		Message: op + ": centroids not initialized",
	}
}

func errorType(err error) ErrorType {
	var clusterErr *ClusterError
	if errors.As(err, &clusterErr) {
		return clusterErr.Type
	}

	return ErrorTypeUnknown
}

// IsInvalidClusterCount checks whether err reports a k outside [1, len(points)].
func IsInvalidClusterCount(err error) bool {
	return errorType(err) == ErrorTypeInvalidClusterCount
}

// IsManualSequenceViolation checks whether err reports an operation issued
// before every manual centroid was supplied.
func IsManualSequenceViolation(err error) bool {
	return errorType(err) == ErrorTypeManualSequence
}

// IsNonConvergence checks whether err reports that the iteration cap was hit.
func IsNonConvergence(err error) bool {
	return errorType(err) == ErrorTypeNonConvergence
}

// IsInvalidStrategy checks whether err reports an unusable strategy.
func IsInvalidStrategy(err error) bool {
	return errorType(err) == ErrorTypeInvalidStrategy
}

// IsUninitialized checks whether err reports an operation that needs
// centroids issued on an empty state.
func IsUninitialized(err error) bool {
	return errorType(err) == ErrorTypeUninitialized
}
