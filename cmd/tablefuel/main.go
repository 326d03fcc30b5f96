package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/animus-labs/tablefuel/internal/platform/logging"
)

// exitError carries the process exit code: 2 for bad configuration, 1 for a
// failed run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func invalid(err error) error { return &exitError{code: 2, err: err} }
func failed(err error) error  { return &exitError{code: 1, err: err} }

func newRootCmd(out io.Writer, logger *slog.Logger) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tablefuel",
		Short:         "Copy a table into another, in partition batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to the fuel YAML file")
	_ = root.MarkPersistentFlagRequired("config")

	root.AddCommand(&cobra.Command{
		Use:   "fuel",
		Short: "Run a fuel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFuel(cmd.Context(), configPath, logger)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "plan",
		Short: "Print the commands a fuel would run without executing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), configPath, out, logger)
		},
	})
	return root
}

func main() {
	logCfg, err := logging.ConfigFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid logging config:", err)
		os.Exit(2)
	}
	logger, flush, err := logging.New(os.Stdout, logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging init failed:", err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	err = newRootCmd(os.Stdout, logger).Execute()
	flush()
	if err == nil {
		return
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		logger.Error("tablefuel failed", "error", exitErr.err)
		os.Exit(exitErr.code)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(2)
}
