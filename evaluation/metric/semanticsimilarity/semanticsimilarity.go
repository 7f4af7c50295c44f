//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package semanticsimilarity scores a response by the cosine similarity of its
// embedding to the embedding of the reference answer.
package semanticsimilarity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// Name is the metric name.
const Name = "semantic_similarity"

// StepEmbed is the name of the embedding step.
const StepEmbed = "embed"

var (
	// ErrLengthMismatch is returned when the two vectors differ in length.
	ErrLengthMismatch = errors.New("vectors must have the same length")
	// ErrZeroMagnitude is returned when a vector has zero magnitude.
	ErrZeroMagnitude = errors.New("vector has zero magnitude")
)

// State is the per-model state of one run.
type State struct {
	Sample    *sample.Sample
	Response  []float64
	Reference []float64
}

// Option configures the metric.
type Option func(*options)

type options struct {
	threshold *float64
}

// WithThreshold turns the score binary: 1 when the similarity reaches t, 0 otherwise.
func WithThreshold(t float64) Option {
	return func(o *options) {
		o.threshold = &t
	}
}

// New returns the semantic similarity metric.
func New(opts ...Option) *engine.Metric[State] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	metadata := map[string]any{}
	if o.threshold != nil {
		metadata["threshold"] = *o.threshold
	}
	return &engine.Metric[State]{
		Name: Name,
		NewState: func(_ string, s *sample.Sample) State {
			return State{Sample: s}
		},
		Steps: []engine.Step[State]{
			engine.EmbeddingStep(StepEmbed,
				func(_ string, st *State) ([]string, error) {
					response := st.Sample.ResponseText()
					if strings.TrimSpace(response) == "" {
						return nil, errors.New("sample has no response")
					}
					if strings.TrimSpace(st.Sample.Reference) == "" {
						return nil, errors.New("sample has no reference")
					}
					return []string{response, st.Sample.Reference}, nil
				},
				func(st *State, vectors [][]float64) error {
					st.Response, st.Reference = vectors[0], vectors[1]
					return nil
				}),
		},
		Score: func(_ string, st *State) (float64, error) {
			sim, err := CosineSimilarity(st.Response, st.Reference)
			if err != nil {
				return 0, err
			}
			if o.threshold != nil {
				if sim >= *o.threshold {
					return 1, nil
				}
				return 0, nil
			}
			return sim, nil
		},
		Metadata: metadata,
	}
}

// CosineSimilarity returns the cosine of the angle between a and b, in [-1, 1].
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(a), len(b))
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	magA = math.Sqrt(magA)
	magB = math.Sqrt(magB)
	if magA == 0 || magB == 0 {
		return 0, ErrZeroMagnitude
	}
	return dot / (magA * magB), nil
}
