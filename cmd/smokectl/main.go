// Copyright Ondevice AI Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ondevice-ai/smokectl/internal/smoke"
	"github.com/ondevice-ai/smokectl/internal/version"
)

type (
	// cmd corresponds to the top-level `smokectl` command.
	cmd struct {
		// Version is the sub-command to show the version.
		Version struct{} `cmd:"" help:"Show version."`
		// Run is the sub-command parsed by the `cmdRun` struct.
		Run cmdRun `cmd:"" help:"Run the smoke tests against an on-device OpenAI compatible server."`
		// Healthcheck is the sub-command to check if the server is healthy.
		Healthcheck cmdHealthcheck `cmd:"" help:"Docker HEALTHCHECK command."`
	}
	// cmdRun corresponds to `smokectl run`.
	cmdRun struct {
		Debug   bool   `help:"Enable debug logging emitted to stderr."`
		BaseURL string `name:"base-url" default:"${default_base_url}" help:"Base URL of the on-device OpenAI compatible server."`
	}
	// cmdHealthcheck corresponds to `smokectl healthcheck`.
	cmdHealthcheck struct {
		BaseURL string `name:"base-url" default:"${default_base_url}" help:"Base URL of the on-device OpenAI compatible server."`
	}
)

type (
	runFn         func(context.Context, cmdRun, io.Writer, io.Writer) error
	healthcheckFn func(context.Context, string, io.Writer, io.Writer) error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	doMain(ctx, os.Stdout, os.Stderr, os.Args[1:], os.Exit, run, healthcheck)
}

// doMain is the main entry point for the CLI. It parses the command line
// arguments and executes the appropriate command.
//
//   - stdout is the writer to use for standard output. Mainly for testing.
//   - stderr is the writer to use for standard error. Mainly for testing.
//   - `args` are the command line arguments without the program name.
//   - exitFn is the function to call to exit the program during the parsing
//     of the command line arguments. Mainly for testing.
//   - rf is the function to call to run the smoke tests. Mainly for testing.
//   - hf is the function to call for the health check. Mainly for testing.
func doMain(ctx context.Context, stdout, stderr io.Writer, args []string, exitFn func(int),
	rf runFn,
	hf healthcheckFn,
) {
	var c cmd
	parser, err := kong.New(&c,
		kong.Name("smokectl"),
		kong.Description("Smoke tests for an on-device OpenAI compatible server"),
		kong.Writers(stdout, stderr),
		kong.Exit(exitFn),
		kong.Vars{"default_base_url": smoke.DefaultBaseURL},
	)
	if err != nil {
		log.Fatalf("Error creating parser: %v", err)
	}
	parsed, err := parser.Parse(args)
	parser.FatalIfErrorf(err)
	switch parsed.Command() {
	case "version":
		_, _ = fmt.Fprintf(stdout, "smokectl: %s\n", version.Parse())
	case "run":
		if err = rf(ctx, c.Run, stdout, stderr); err != nil {
			log.Fatalf("Error running: %v", err)
		}
	case "healthcheck":
		if err = hf(ctx, c.Healthcheck.BaseURL, stdout, stderr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
	default:
		panic("unreachable")
	}
}
