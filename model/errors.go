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
	"net/http"
)

// ErrorKind classifies a failed model call.
type ErrorKind string

// Error kinds recorded on failed model results.
const (
	KindTimeout     ErrorKind = "timeout"
	KindRateLimit   ErrorKind = "rate_limit"
	KindParse       ErrorKind = "parse"
	KindNetwork     ErrorKind = "network"
	KindUnsupported ErrorKind = "unsupported"
	KindCanceled    ErrorKind = "canceled"
	KindAPI         ErrorKind = "api"
	KindUnknown     ErrorKind = "unknown"
)

// ErrUnsupported is returned when a handle lacks the capability a call needs.
var ErrUnsupported = errors.New("operation not supported by model")

// Error is a classified model call failure.
type Error struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Err        error
}

// Error implements error.
func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind.
func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// NewStatusError wraps an HTTP-level failure, deriving the kind from the status code.
func NewStatusError(provider string, statusCode int, err error) *Error {
	return &Error{Kind: KindFromStatus(statusCode), Provider: provider, StatusCode: statusCode, Err: err}
}

// KindFromStatus maps an HTTP status code to an error kind.
func KindFromStatus(code int) ErrorKind {
	switch {
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code == http.StatusRequestTimeout || code == http.StatusGatewayTimeout:
		return KindTimeout
	case code >= 500:
		return KindNetwork
	case code >= 400:
		return KindAPI
	default:
		return KindUnknown
	}
}

// Classify returns the kind of err. Context errors take precedence over any
// kind recorded by a provider so that deadlines are always reported as timeouts.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrUnsupported):
		return KindUnsupported
	}
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}
	return KindUnknown
}
