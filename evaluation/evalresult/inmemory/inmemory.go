//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory keeps evaluation records in memory.
package inmemory

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

// Manager is an in-memory evalresult.Manager.
type Manager struct {
	mu      sync.RWMutex
	records map[string]*evalresult.Record
}

// New creates an empty manager.
func New() *Manager {
	return &Manager{records: map[string]*evalresult.Record{}}
}

// Save implements evalresult.Manager. The record is stored by reference.
func (m *Manager) Save(_ context.Context, record *evalresult.Record) (string, error) {
	if err := evalresult.Prepare(record); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = record
	return record.ID, nil
}

// Get implements evalresult.Manager.
func (m *Manager) Get(_ context.Context, id string) (*evalresult.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("get result %s: %w", id, os.ErrNotExist)
}

// List implements evalresult.Manager.
func (m *Manager) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
