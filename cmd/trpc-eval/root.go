//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "trpc-eval",
		Short:         "Multi-model evaluation of LLM application samples",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.config, "config", "trpc-eval.yaml", "config file path")
	root.AddCommand(newModelsCmd(flags))
	root.AddCommand(newMetricsCmd())
	root.AddCommand(newEvaluateCmd(flags))
	return root
}
