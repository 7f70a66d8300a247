// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/ondevice-ai/smokectl/internal/smoke"
)

// run executes the full smoke-test sequence against the configured server.
// Probe outcomes are communicated only as text printed to stdout: the run
// always completes and the error return is reserved for setup problems.
func run(ctx context.Context, c cmdRun, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	smoke.NewRunner(c.BaseURL, stdout, logger).Run(ctx)
	return nil
}
