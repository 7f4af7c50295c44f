//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// defaultResultFileSuffix is the suffix of record files.
const defaultResultFileSuffix = ".eval_result.json"

// Locator maps record ids to files.
type Locator interface {
	// Build returns the path of the record file for id.
	Build(baseDir, id string) string
	// List returns the ids of the record files under baseDir.
	List(baseDir string) ([]string, error)
}

type locator struct{}

func (l *locator) Build(baseDir, id string) string {
	return filepath.Join(baseDir, id+defaultResultFileSuffix)
}

func (l *locator) List(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), defaultResultFileSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), defaultResultFileSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}
