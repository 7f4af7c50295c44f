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
	"fmt"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-eval-go/config"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric"
)

func newModelsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the configured models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.config)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range cfg.Models {
				limit := "unlimited"
				if m.RateLimit.RPS > 0 {
					limit = fmt.Sprintf("%g rps", m.RateLimit.RPS)
				}
				fmt.Fprintf(out, "%s\t%s/%s\t%s\n", m.ID, m.Provider, m.Model, limit)
			}
			return nil
		},
	}
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the built-in metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range metric.NewRegistry().List() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
