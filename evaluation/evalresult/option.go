//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package evalresult

// DefaultBaseDir is where file based managers store records.
const DefaultBaseDir = "eval_results"

// Options configures a manager.
type Options struct {
	BaseDir string
	Locator Locator
}

// NewOptions applies opt over the defaults.
func NewOptions(opt ...Option) *Options {
	opts := &Options{
		BaseDir: DefaultBaseDir,
		Locator: &locator{},
	}
	for _, o := range opt {
		o(opts)
	}
	return opts
}

// Option configures a manager.
type Option func(*Options)

// WithBaseDir overrides DefaultBaseDir.
func WithBaseDir(dir string) Option {
	return func(o *Options) {
		o.BaseDir = dir
	}
}

// WithLocator overrides how record files are named.
func WithLocator(l Locator) Option {
	return func(o *Options) {
		o.Locator = l
	}
}
