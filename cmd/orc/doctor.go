package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptreezh/orc/internal/assistant"
	"github.com/ptreezh/orc/internal/config"
	"github.com/ptreezh/orc/internal/exec"
	"github.com/ptreezh/orc/internal/taskstore"
	"github.com/ptreezh/orc/internal/worker"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the orc installation",
	Long: `doctor runs health checks on your orc installation: whether each
known assistant CLI is installed, whether the config/state root is
writable, and how stale the help-probe cache is.

Missing optional assistants are reported as warnings and do not fail
the command; a config root that cannot be written to does.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "Output results as JSON")
	rootCmd.AddCommand(doctorCmd)
}

type doctorCheck struct {
	Name     string `json:"name"`
	Status   string `json:"status"` // "pass", "warn", "fail"
	Detail   string `json:"detail"`
	Required bool   `json:"required"`
}

type doctorOutput struct {
	Checks  []doctorCheck          `json:"checks"`
	Config  *config.ResolvedConfig `json:"config,omitempty"`
	Result  string                 `json:"result"` // "HEALTHY", "DEGRADED", "UNHEALTHY"
	Summary string                 `json:"summary"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := dataRoot(cfg)
	if err != nil {
		return err
	}

	checks := gatherDoctorChecks(root)
	output := computeDoctorResult(checks)
	output.Config = config.Resolve(flagOutput, flagConfigRoot, flagVerbose, 0)
	w := cmd.OutOrStdout()

	if doctorJSON || strings.ToLower(cfg.Output) == "json" {
		data, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal doctor output: %w", err)
		}
		fmt.Fprintln(w, string(data))
	} else {
		renderDoctorTable(w, output)
	}

	if hasRequiredDoctorFailure(output.Checks) {
		return fmt.Errorf("doctor failed: one or more required checks did not pass")
	}
	return nil
}

// gatherDoctorChecks probes every built-in assistant concurrently (via the
// same worker pool the session scanner uses) plus the config root's
// writability and the help cache's staleness.
func gatherDoctorChecks(configRoot string) []doctorCheck {
	checks := []doctorCheck{checkConfigRoot(configRoot)}

	names := assistant.Names()
	pool := worker.NewPool[doctorCheck](0)
	outcomes := pool.Process(names, func(name string) (doctorCheck, error) {
		return checkAssistantInstalled(assistant.Builtin()[name]), nil
	})
	for _, o := range outcomes {
		checks = append(checks, o.Value)
	}

	checks = append(checks, checkHelpCache(configRoot))
	return checks
}

func checkConfigRoot(configRoot string) doctorCheck {
	if err := os.MkdirAll(configRoot, 0o700); err != nil {
		return doctorCheck{Name: "Config root", Status: "fail", Detail: fmt.Sprintf("%s: %v", configRoot, err), Required: true}
	}

	probe := filepath.Join(configRoot, ".orc-doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return doctorCheck{Name: "Config root", Status: "fail", Detail: fmt.Sprintf("%s is not writable: %v", configRoot, err), Required: true}
	}
	_ = os.Remove(probe)

	return doctorCheck{Name: "Config root", Status: "pass", Detail: configRoot, Required: true}
}

func checkAssistantInstalled(descriptor assistant.Descriptor) doctorCheck {
	name := descriptor.DisplayName + " CLI"
	if len(descriptor.InstallArgv) == 0 {
		return doctorCheck{Name: name, Status: "warn", Detail: "no install-verification command declared", Required: false}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := exec.Execute(ctx, exec.Spec{Argv: descriptor.InstallArgv, Timeout: 5 * time.Second})
	if err != nil || result.SpawnFailed || result.ExitCode != 0 {
		return doctorCheck{
			Name:     name,
			Status:   "warn",
			Detail:   fmt.Sprintf("not found on PATH (optional — only needed if you route work to %s)", descriptor.Name),
			Required: false,
		}
	}

	return doctorCheck{Name: name, Status: "pass", Detail: "available", Required: false}
}

func checkHelpCache(configRoot string) doctorCheck {
	path := taskstore.HelpCachePath(configRoot)
	info, err := os.Stat(path)
	if err != nil {
		return doctorCheck{Name: "Help cache", Status: "warn", Detail: "not yet populated — run 'orc cache refresh <assistant>'", Required: false}
	}

	age := time.Since(info.ModTime())
	if age > assistant.DefaultTTL {
		return doctorCheck{
			Name:     "Help cache",
			Status:   "warn",
			Detail:   fmt.Sprintf("last refreshed %s ago, past the %s TTL", formatDoctorDuration(age), formatDoctorDuration(assistant.DefaultTTL)),
			Required: false,
		}
	}

	return doctorCheck{Name: "Help cache", Status: "pass", Detail: fmt.Sprintf("last refreshed %s ago", formatDoctorDuration(age)), Required: false}
}

func formatDoctorDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func doctorStatusIcon(status string) string {
	switch status {
	case "pass":
		return "✓"
	case "warn":
		return "!"
	case "fail":
		return "✗"
	}
	return "?"
}

func renderDoctorTable(w io.Writer, output doctorOutput) {
	fmt.Fprintln(w, "orc doctor")
	fmt.Fprintln(w, "─────────")

	maxName := 0
	for _, c := range output.Checks {
		if len(c.Name) > maxName {
			maxName = len(c.Name)
		}
	}
	for _, c := range output.Checks {
		padding := strings.Repeat(" ", maxName-len(c.Name))
		fmt.Fprintf(w, "%s %s%s  %s\n", doctorStatusIcon(c.Status), c.Name, padding, c.Detail)
	}

	if c := output.Config; c != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "resolved config")
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "output", c.Output.Value, c.Output.Source)
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "base dir", c.BaseDir.Value, c.BaseDir.Source)
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "verbose", c.Verbose.Value, c.Verbose.Source)
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "max concurrency", c.MaxConcurrency.Value, c.MaxConcurrency.Source)
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "cache ttl", c.CacheTTL.Value, c.CacheTTL.Source)
		fmt.Fprintf(w, "  %-16s %v (%s)\n", "merge strategy", c.MergeStrategy.Value, c.MergeStrategy.Source)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", output.Summary)
}

func hasRequiredDoctorFailure(checks []doctorCheck) bool {
	for _, c := range checks {
		if c.Required && c.Status == "fail" {
			return true
		}
	}
	return false
}

func computeDoctorResult(checks []doctorCheck) doctorOutput {
	var passes, fails, warns int
	for _, c := range checks {
		switch c.Status {
		case "pass":
			passes++
		case "fail":
			fails++
		case "warn":
			warns++
		}
	}

	result := "HEALTHY"
	switch {
	case fails > 0:
		result = "UNHEALTHY"
	case warns > 0:
		result = "DEGRADED"
	}

	return doctorOutput{
		Checks:  checks,
		Result:  result,
		Summary: buildDoctorSummary(passes, fails, warns, len(checks)),
	}
}

func buildDoctorSummary(passes, fails, warns, total int) string {
	switch {
	case fails == 0 && warns == 0:
		return fmt.Sprintf("%d/%d checks passed", passes, total)
	case fails == 0:
		summary := fmt.Sprintf("%d/%d checks passed, %d warning", passes, total, warns)
		if warns > 1 {
			summary += "s"
		}
		return summary
	default:
		parts := []string{fmt.Sprintf("%d/%d checks passed", passes, total)}
		if warns > 0 {
			w := fmt.Sprintf("%d warning", warns)
			if warns > 1 {
				w += "s"
			}
			parts = append(parts, w)
		}
		parts = append(parts, fmt.Sprintf("%d failed", fails))
		return strings.Join(parts, ", ")
	}
}
