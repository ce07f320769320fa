package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrUnsupportedDimension = errors.New("unsupported embedding dimension")
	ErrNonFiniteComponent   = errors.New("embedding contains non-finite component")
	ErrDimensionMismatch    = errors.New("embedding dimensions differ")
)

// SupportedDimensions lists the embedding sizes produced by the models we run.
var SupportedDimensions = []int{512, 768, 1536}

// EmbeddingVector is an immutable embedding. Construction copies the input.
type EmbeddingVector struct {
	values []float32
}

func NewEmbeddingVector(values []float32) (EmbeddingVector, error) {
	if !isSupportedDimension(len(values)) {
		return EmbeddingVector{}, fmt.Errorf("%w: %d", ErrUnsupportedDimension, len(values))
	}
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return EmbeddingVector{}, fmt.Errorf("%w at index %d", ErrNonFiniteComponent, i)
		}
	}
	cp := make([]float32, len(values))
	copy(cp, values)
	return EmbeddingVector{values: cp}, nil
}

// NewEmbeddingVectorFromFloat64 narrows provider output to float32.
func NewEmbeddingVectorFromFloat64(values []float64) (EmbeddingVector, error) {
	narrowed := make([]float32, len(values))
	for i, v := range values {
		narrowed[i] = float32(v)
	}
	return NewEmbeddingVector(narrowed)
}

func isSupportedDimension(n int) bool {
	for _, d := range SupportedDimensions {
		if n == d {
			return true
		}
	}
	return false
}

// Values returns a copy of the components.
func (v EmbeddingVector) Values() []float32 {
	cp := make([]float32, len(v.values))
	copy(cp, v.values)
	return cp
}

func (v EmbeddingVector) Dimension() int { return len(v.values) }
func (v EmbeddingVector) IsZero() bool   { return len(v.values) == 0 }

// CosineSimilarity returns dot(a,b) / (|a||b|). A zero-magnitude operand
// yields 0 rather than an error.
func (v EmbeddingVector) CosineSimilarity(other EmbeddingVector) (float64, error) {
	if len(v.values) != len(other.values) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(v.values), len(other.values))
	}
	var dot, normA, normB float64
	for i := range v.values {
		a := float64(v.values[i])
		b := float64(other.values[i])
		dot += a * b
		normA += a * a
		normB += b * b
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
