//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package ratelimit throttles calls to a model handle with a token bucket.
// A call that cannot get a token before its context ends fails with a
// rate-limit error. Calls are never retried.
package ratelimit

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Wrap returns a handle that shares one limiter across every call to h.
// The returned handle keeps the capabilities of h: an LLM stays an LLM and an
// Embedder stays an Embedder. rps <= 0 disables throttling and returns h.
func Wrap(h model.Handle, rps float64, burst int) model.Handle {
	if rps <= 0 || h == nil {
		return h
	}
	if burst < 1 {
		burst = 1
	}
	base := limited{handle: h, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
	llm, isLLM := h.(model.LLM)
	emb, isEmb := h.(model.Embedder)
	switch {
	case isLLM && isEmb:
		return &limitedBoth{limitedLLM{base, llm}, emb}
	case isLLM:
		return &limitedLLM{base, llm}
	case isEmb:
		return &limitedEmbedder{base, emb}
	default:
		return h
	}
}

type limited struct {
	handle  model.Handle
	limiter *rate.Limiter
}

func (l limited) Info() model.Info {
	return l.handle.Info()
}

func (l limited) wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return model.NewError(l.handle.Info().Provider, model.KindRateLimit,
			fmt.Errorf("wait for rate limiter: %w", err))
	}
	return nil
}

type limitedLLM struct {
	limited
	llm model.LLM
}

func (l *limitedLLM) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.llm.Generate(ctx, req)
}

type limitedEmbedder struct {
	limited
	emb model.Embedder
}

func (l *limitedEmbedder) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.emb.Embed(ctx, inputs)
}

type limitedBoth struct {
	limitedLLM
	emb model.Embedder
}

func (l *limitedBoth) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if err := l.wait(ctx); err != nil {
		return nil, err
	}
	return l.emb.Embed(ctx, inputs)
}
