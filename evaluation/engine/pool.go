//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"

	"trpc.group/trpc-go/trpc-eval-go/log"
)

// invocationParam carries one model's task of one step into the pool.
type invocationParam struct {
	idx      int
	ctx      context.Context
	modelID  string
	run      func(ctx context.Context, modelID string) *ModelOutcome
	outcomes []*ModelOutcome
	wg       *sync.WaitGroup
	slots    *semaphore.Weighted
}

func (p *invocationParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.modelID = ""
	p.run = nil
	p.outcomes = nil
	p.wg = nil
	p.slots = nil
}

var invocationParamPool = &sync.Pool{
	New: func() any { return new(invocationParam) },
}

func createInvocationPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*invocationParam)
		if !ok {
			panic("invocation pool args type error")
		}
		wg, slots := param.wg, param.slots
		defer func() {
			slots.Release(1)
			wg.Done()
			param.reset()
			invocationParamPool.Put(param)
		}()
		// Each task writes only its own slot, so outcomes needs no lock.
		param.outcomes[param.idx] = runGuarded(param.ctx, param.modelID, param.run)
	})
	if err != nil {
		return nil, fmt.Errorf("create invocation pool: %w", err)
	}
	return pool, nil
}

func runGuarded(ctx context.Context, modelID string, run func(context.Context, string) *ModelOutcome) (outcome *ModelOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.ErrorfContext(ctx, "step task for model %s panicked: %v\n%s", modelID, r, string(debug.Stack()))
			outcome = failedOutcome(modelID, start, fmt.Errorf("step panicked: %v", r))
		}
	}()
	outcome = run(ctx, modelID)
	if outcome == nil {
		outcome = failedOutcome(modelID, start, errors.New("step returned no outcome"))
	}
	return outcome
}
