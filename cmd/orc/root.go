package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/config"
	"github.com/ptreezh/orc/internal/logging"
	"github.com/ptreezh/orc/internal/orcerr"
)

var (
	flagConfigRoot string
	flagOutput     string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "orc",
	Short: "Fan a prompt out to one or more AI assistant CLIs",
	Long: `orc routes a prompt to one or more AI assistant command-line tools,
runs them as child processes, and coordinates concurrent subtasks through
a lock manager so independent work runs in parallel while dependent work
waits its turn.

Core commands:
  run       Execute a prompt against one or more assistants
  route     Show how a natural-language utterance would be routed
  cache     Inspect or refresh the per-assistant invocation-pattern cache
  sessions  Browse the recovery index of prior assistant sessions
  events    Show a task's event log, including every lock decision
  doctor    Check the health of the orc installation
  version   Show version information`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigRoot, "config-root", "", "Config/state root (default: $ORC_CONFIG_ROOT/.orc or ~/.orc)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "Output format (table, json, markdown, jsonl); default from config")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")
}

// exitCodeError carries a specific process exit code for a run that
// completed without an internal error but whose task outcome (partial
// failure, abort, timeout) still needs to be visible to a caller scripting
// against orc's exit status. It deliberately produces no stderr message of
// its own; the command has already rendered the task's summary to stdout.
type exitCodeError struct{ code int }

func (e *exitCodeError) Error() string { return fmt.Sprintf("task exited with code %d", e.code) }

func newExitCodeError(code int) error { return &exitCodeError{code: code} }

// Execute runs the root command and translates any orcerr-classified
// failure, or an explicit task-outcome exit code, into the matching
// process exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ec *exitCodeError
		if errors.As(err, &ec) {
			os.Exit(ec.code)
		}

		fmt.Fprintln(os.Stderr, "orc:", err)

		var classified *orcerr.Error
		if errors.As(err, &classified) {
			os.Exit(classified.Kind.ExitCode())
		}
		os.Exit(64)
	}
}

// loadConfig resolves layered configuration using the persistent flags
// set on the invoked command.
func loadConfig() (*config.Config, error) {
	overrides := &config.Config{BaseDir: flagConfigRoot, Output: flagOutput, Verbose: flagVerbose}
	return config.Load(overrides)
}

// dataRoot returns the absolute directory under which this invocation's
// on-disk state (tasks, help cache, worktrees) lives: cfg.BaseDir verbatim
// if it is already absolute, otherwise cfg.BaseDir resolved under
// $ORC_CONFIG_ROOT when that is set, or else under the user's home
// directory.
func dataRoot(cfg *config.Config) (string, error) {
	if filepath.IsAbs(cfg.BaseDir) {
		return cfg.BaseDir, nil
	}
	if root := os.Getenv("ORC_CONFIG_ROOT"); root != "" {
		return filepath.Join(root, cfg.BaseDir), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, cfg.BaseDir), nil
}

// logger is the command package's shared diagnostic logger. It is
// reconfigured in rootCmd's PersistentPreRun, once --verbose has been
// parsed, so every subcommand sees the caller's chosen verbosity.
var logger = logging.New(os.Stderr, false)

func configureLogger() {
	logger = logging.New(os.Stderr, flagVerbose)
}

// warnf logs a best-effort failure that should not abort the command —
// a plan document that couldn't be written, a worktree that couldn't be
// created — at Warn level so it surfaces even without --verbose.
func warnf(err error, format string, args ...any) {
	logger.Warn().Err(err).Msg(fmt.Sprintf(format, args...))
}

// debugf logs detail that only matters with --verbose.
func debugf(format string, args ...any) {
	logger.Debug().Msg(fmt.Sprintf(format, args...))
}
