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
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/trpc-eval-go/config"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/batch"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult/local"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/listener/logging"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/sample"
	imetric "trpc.group/trpc-go/trpc-eval-go/telemetry/metric"
	itrace "trpc.group/trpc-go/trpc-eval-go/telemetry/trace"
)

const maxSampleLine = 16 << 20

type evaluateFlags struct {
	metric      string
	samples     string
	models      []string
	concurrency int
	outputDir   string
}

func newEvaluateCmd(root *rootFlags) *cobra.Command {
	flags := &evaluateFlags{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a JSONL file of samples and print one JSON result per sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runEvaluate(ctx, root.config, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&flags.metric, "metric", "", "metric name, see the metrics command")
	cmd.Flags().StringVar(&flags.samples, "samples", "", "JSONL file with one sample per line")
	cmd.Flags().StringSliceVar(&flags.models, "models", nil, "model ids to use (default: all configured)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", batch.DefaultConcurrency, "samples evaluated at once")
	cmd.Flags().StringVar(&flags.outputDir, "output-dir", "", "directory to store the batch report in")
	_ = cmd.MarkFlagRequired("metric")
	_ = cmd.MarkFlagRequired("samples")
	return cmd
}

func runEvaluate(ctx context.Context, cfgPath string, flags *evaluateFlags, out, errOut io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	log.SetLevel(cfg.Log.Level)

	cleanup, err := startTelemetry(ctx, cfg.Telemetry)
	defer func() {
		if err := cleanup(); err != nil {
			log.Warnf("telemetry shutdown: %v", err)
		}
	}()
	if err != nil {
		return err
	}

	ev, err := metric.NewRegistry().Get(flags.metric)
	if err != nil {
		return err
	}
	samples, err := readSamples(flags.samples)
	if err != nil {
		return err
	}
	reg, err := cfg.BuildRegistry(ctx)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	e, err := engine.New(reg, append(opts, engine.WithListeners(logging.New()))...)
	if err != nil {
		return err
	}
	defer e.Close()

	modelIDs := flags.models
	if len(modelIDs) == 0 {
		modelIDs = reg.ListIDs()
	}
	report, runErr := batch.Run(ctx, e, ev, samples, modelIDs, batch.WithConcurrency(flags.concurrency))
	if report == nil {
		return runErr
	}
	enc := json.NewEncoder(out)
	for _, item := range report.Items {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	score := "none"
	if report.Score != nil {
		score = fmt.Sprintf("%.4f", *report.Score)
	}
	fmt.Fprintf(errOut, "%s: %d samples, %d scored, %d unscored, %d failed, mean score %s, took %s\n",
		report.Metric, len(report.Items), report.Scored, report.Unscored, report.Failed, score, report.Duration)
	if flags.outputDir != "" {
		store := local.New(evalresult.WithBaseDir(flags.outputDir))
		id, err := store.Save(context.WithoutCancel(ctx), evalresult.NewRecord(report, modelIDs))
		if err != nil {
			return errors.Join(runErr, fmt.Errorf("save report: %w", err))
		}
		fmt.Fprintf(errOut, "report saved as %s\n", id)
	}
	return runErr
}

// readSamples parses a JSONL file. Blank lines are skipped.
func readSamples(path string) ([]*sample.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples: %w", err)
	}
	defer f.Close()
	var samples []*sample.Sample
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSampleLine)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		s := &sample.Sample{}
		if err := json.Unmarshal([]byte(text), s); err != nil {
			return nil, fmt.Errorf("samples %s line %d: %w", path, line, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("samples %s line %d: %w", path, line, err)
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("line-%d", line)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	if len(samples) == 0 {
		return nil, errors.New("samples file is empty")
	}
	return samples, nil
}

// startTelemetry starts the enabled OTLP exporters. The returned cleanup is
// never nil.
func startTelemetry(ctx context.Context, t config.Telemetry) (func() error, error) {
	var cleans []func() error
	cleanup := func() error {
		var errs []error
		for i := len(cleans) - 1; i >= 0; i-- {
			errs = append(errs, cleans[i]())
		}
		return errors.Join(errs...)
	}
	if t.Tracing.Enabled {
		var opts []itrace.Option
		if t.Tracing.Endpoint != "" {
			opts = append(opts, itrace.WithEndpoint(t.Tracing.Endpoint))
		}
		if t.Tracing.ServiceName != "" {
			opts = append(opts, itrace.WithServiceName(t.Tracing.ServiceName))
		}
		clean, err := itrace.Start(ctx, opts...)
		if err != nil {
			return cleanup, fmt.Errorf("start tracing: %w", err)
		}
		cleans = append(cleans, clean)
	}
	if t.Metrics.Enabled {
		var opts []imetric.Option
		if t.Metrics.Endpoint != "" {
			opts = append(opts, imetric.WithEndpoint(t.Metrics.Endpoint))
		}
		if t.Metrics.ServiceName != "" {
			opts = append(opts, imetric.WithServiceName(t.Metrics.ServiceName))
		}
		clean, err := imetric.Start(ctx, opts...)
		if err != nil {
			return cleanup, fmt.Errorf("start metrics: %w", err)
		}
		cleans = append(cleans, clean)
	}
	return cleanup, nil
}
