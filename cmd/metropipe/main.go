package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/metropipe/metropipe/internal/logging"
	"github.com/metropipe/metropipe/internal/steps"
)

func main() {
	log, err := logging.New(logging.Options{
		Level:         "info",
		Component:     "cli",
		HumanReadable: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := steps.RegisterAll(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register steps: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(log)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
