//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package registry resolves model identifiers to callable model handles.
//
// A registry is built once and is read-only afterwards, so any number of
// evaluation runs may look up handles concurrently without locking.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// ErrModelNotFound is matched by every ModelNotFoundError.
var ErrModelNotFound = errors.New("model not found")

// ModelNotFoundError reports an unknown model id together with the ids that exist.
type ModelNotFoundError struct {
	ID        string
	Available []string
}

// Error implements error.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found, available models: [%s]", e.ID, strings.Join(e.Available, ", "))
}

// Is reports whether target is ErrModelNotFound.
func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

// Registry defines the read-only model lookup contract.
type Registry interface {
	// Resolve returns the handle registered under id or a *ModelNotFoundError.
	Resolve(id string) (model.Handle, error)
	// Contains reports whether id is registered.
	Contains(id string) bool
	// ListIDs returns the registered ids in registration order.
	ListIDs() []string
}

// Entry binds a model id to a handle.
type Entry struct {
	ID     string
	Handle model.Handle
}

type registry struct {
	ids     []string
	handles map[string]model.Handle
}

// New builds a registry from entries. Empty ids, nil handles and duplicate
// ids are rejected.
func New(entries ...Entry) (Registry, error) {
	r := &registry{
		ids:     make([]string, 0, len(entries)),
		handles: make(map[string]model.Handle, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New("model id is empty")
		}
		if e.Handle == nil {
			return nil, fmt.Errorf("model %s: handle is nil", e.ID)
		}
		if _, ok := r.handles[e.ID]; ok {
			return nil, fmt.Errorf("model %s: duplicate id", e.ID)
		}
		r.ids = append(r.ids, e.ID)
		r.handles[e.ID] = e.Handle
	}
	return r, nil
}

// Resolve returns the handle registered under id.
func (r *registry) Resolve(id string) (model.Handle, error) {
	if h, ok := r.handles[id]; ok {
		return h, nil
	}
	return nil, &ModelNotFoundError{ID: id, Available: r.ListIDs()}
}

// Contains reports whether id is registered.
func (r *registry) Contains(id string) bool {
	_, ok := r.handles[id]
	return ok
}

// ListIDs returns a copy of the registered ids in registration order.
func (r *registry) ListIDs() []string {
	return append([]string(nil), r.ids...)
}
