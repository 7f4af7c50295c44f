//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric/faithfulness"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric/semanticsimilarity"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric/toolcallaccuracy"
)

// Registry holds evaluators by name.
type Registry interface {
	// Register adds e under its name, replacing any evaluator of the same name.
	Register(e Evaluator) error
	// Get returns the evaluator registered as name.
	Get(name string) (Evaluator, error)
	// List returns the registered names in lexicographic order.
	List() []string
}

type registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

// NewRegistry creates a registry holding the built-in metrics with their
// default options.
func NewRegistry() Registry {
	r := &registry{evaluators: make(map[string]Evaluator)}
	_ = r.Register(Of(faithfulness.New()))
	_ = r.Register(Of(semanticsimilarity.New()))
	_ = r.Register(Of(toolcallaccuracy.New()))
	return r
}

func (r *registry) Register(e Evaluator) error {
	if e == nil {
		return errors.New("evaluator is nil")
	}
	name := e.Name()
	if name == "" {
		return errors.New("evaluator name is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evaluators[name] = e
	return nil
}

// Get returns os.ErrNotExist, wrapped, for unknown names.
func (r *registry) Get(name string) (Evaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.evaluators[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("get metric %s: %w", name, os.ErrNotExist)
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.evaluators))
	for name := range r.evaluators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
