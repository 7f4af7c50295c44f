//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package local stores evaluation records as JSON files.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

type manager struct {
	baseDir string
	locator evalresult.Locator
	mu      sync.RWMutex
}

// New creates a file backed manager.
func New(opt ...evalresult.Option) evalresult.Manager {
	opts := evalresult.NewOptions(opt...)
	return &manager{baseDir: opts.BaseDir, locator: opts.Locator}
}

// Save writes record to a temporary file and renames it into place.
func (m *manager) Save(_ context.Context, record *evalresult.Record) (string, error) {
	if err := evalresult.Prepare(record); err != nil {
		return "", err
	}
	if strings.ContainsAny(record.ID, `/\`) {
		return "", fmt.Errorf("record id %q contains a path separator", record.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := m.locator.Build(m.baseDir, record.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create result dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create result file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("encode result: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close result file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("rename result file: %w", err)
	}
	return record.ID, nil
}

func (m *manager) Get(_ context.Context, id string) (*evalresult.Record, error) {
	if id == "" {
		return nil, errors.New("record id is empty")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, err := os.Open(m.locator.Build(m.baseDir, id))
	if err != nil {
		return nil, fmt.Errorf("open result %s: %w", id, err)
	}
	defer f.Close()
	var record evalresult.Record
	if err := json.NewDecoder(f).Decode(&record); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &record, nil
}

func (m *manager) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locator.List(m.baseDir)
}
