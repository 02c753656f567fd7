package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/metropipe/metropipe/internal/config"
	"github.com/metropipe/metropipe/internal/docgen"
	"github.com/metropipe/metropipe/internal/driver"
	"github.com/metropipe/metropipe/internal/invalidation"
	"github.com/metropipe/metropipe/internal/logging"
	"github.com/metropipe/metropipe/internal/planner"
	"github.com/metropipe/metropipe/internal/step"
	metroerrors "github.com/metropipe/metropipe/pkg/errors"
)

const (
	exitOK       = 0
	exitPlanning = 1
	exitStep     = 2
	exitAborted  = 130
)

type rootFlags struct {
	dryRun  bool
	version bool
	verbose bool
	docs    bool
}

func newRootCmd(log *logging.Logger) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "metropipe <config-path>",
		Short:         "Metropipe runs transport-simulation pipelines from declarative TOML configs",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.version {
				printVersion(cmd)
				return nil
			}
			if flags.docs {
				fmt.Fprint(cmd.OutOrStdout(), docgen.Steps(step.Registered()))
				fmt.Fprint(cmd.OutOrStdout(), "\n"+docgen.Artifacts(step.Registered()))
				return nil
			}
			if len(args) != 1 {
				return cmd.Help()
			}
			return runPipeline(cmd, args[0], flags, log)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Compute and print the plan without executing")
	cmd.Flags().BoolVar(&flags.version, "version", false, "Print version and exit")
	cmd.Flags().BoolVar(&flags.docs, "docs", false, "Print the Markdown reference of registered steps and artifacts")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

func runPipeline(cmd *cobra.Command, configPath string, flags *rootFlags, log *logging.Logger) error {
	if flags.verbose {
		verboseLog, err := logging.New(logging.Options{
			Writer:        cmd.OutOrStdout(),
			Level:         "debug",
			Component:     "cli",
			HumanReadable: true,
		})
		if err != nil {
			return err
		}
		log = verboseLog
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if _, err := config.LoadSettings(cfg); err != nil {
		return err
	}

	inval := invalidation.New(cfg.MainDirectory())
	plan, err := planner.New(step.Registered(), cfg, inval, log.With("component", "planner")).Plan()
	if err != nil {
		return err
	}

	d := driver.New(driver.Options{
		Invalidation: inval,
		Logger:       log.With("component", "driver"),
		Out:          cmd.OutOrStdout(),
	})
	return d.Run(cmd.Context(), plan, flags.dryRun)
}

// exitCode maps the error taxonomy onto the documented exit codes: 1 for
// configuration, schema, and planning errors, 2 for a Step execution
// failure, 130 when the user refused the orphan prompt.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, driver.ErrAborted) {
		return exitAborted
	}
	var runtimeErr *metroerrors.StepRuntimeError
	if errors.As(err, &runtimeErr) {
		return exitStep
	}
	return exitPlanning
}
