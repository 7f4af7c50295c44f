//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindCanceled},
		{"unsupported", fmt.Errorf("embed: %w", ErrUnsupported), KindUnsupported},
		{"rate limit", NewStatusError("openai", 429, errors.New("slow down")), KindRateLimit},
		{"server", NewStatusError("openai", 503, errors.New("unavailable")), KindNetwork},
		{"bad request", NewStatusError("openai", 400, errors.New("bad")), KindAPI},
		{"parse", NewError("engine", KindParse, errors.New("bad json")), KindParse},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, KindTimeout},
		{"plain", errors.New("boom"), KindUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Classify(c.err))
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewStatusError("anthropic", 429, errors.New("overloaded"))
	assert.Equal(t, "anthropic rate_limit error (status 429): overloaded", err.Error())
	assert.ErrorIs(t, err, err.Err)
}

func TestRequestSystemPrompt(t *testing.T) {
	req := &Request{Messages: []Message{
		NewSystemMessage("a"),
		NewUserMessage("q"),
		NewSystemMessage("b"),
	}}
	assert.Equal(t, "a\nb", req.SystemPrompt())
}
