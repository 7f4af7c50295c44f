//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package evalresult persists batch evaluation reports.
package evalresult

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/batch"
)

// Record is one stored batch report.
type Record struct {
	// ID uniquely identifies the record. Save assigns one when empty.
	ID string `json:"id"`
	// Metric is the metric the batch ran.
	Metric string `json:"metric"`
	// ModelIDs are the models the batch ran against.
	ModelIDs []string `json:"model_ids"`
	// CreatedAt is when the record was first saved.
	CreatedAt time.Time `json:"created_at"`
	// Report is the batch report.
	Report *batch.Report `json:"report"`
}

// NewRecord wraps report for storage.
func NewRecord(report *batch.Report, modelIDs []string) *Record {
	r := &Record{Report: report, ModelIDs: append([]string(nil), modelIDs...)}
	if report != nil {
		r.Metric = report.Metric
	}
	return r
}

// Manager stores and retrieves records.
type Manager interface {
	// Save stores record and returns its id.
	Save(ctx context.Context, record *Record) (string, error)
	// Get returns the record with id. Missing records yield an error
	// matching os.ErrNotExist.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns the ids of every stored record in lexicographic order.
	List(ctx context.Context) ([]string, error)
}

// Prepare validates record and fills in its id and creation time.
func Prepare(record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.Report == nil {
		return errors.New("record has no report")
	}
	if record.ID == "" {
		record.ID = record.Metric + "_" + uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	return nil
}
