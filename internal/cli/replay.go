package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quillon/overload/internal/compiler"
	"github.com/quillon/overload/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Name     string // optional - verify one name only
}

// ReplayResult holds the outcome of a replay verification.
type ReplayResult struct {
	Registrations int      `json:"registrations"`
	Resolutions   int      `json:"resolutions"`
	Mismatches    []string `json:"mismatches,omitempty"`
	Deterministic bool     `json:"deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <units-dir>",
		Short: "Verify a recorded run against freshly loaded units",
		Long: `Rebuild a registry from unit files and verify the event log against it.

Every recorded registration is checked by signature and declaration
index; every recorded resolution key is re-matched through the fresh
tables and must select the same record. Dispatch is deterministic in
registration order and match keys alone, so a verified log proves the
current units reproduce the recorded run.

Exit codes:
  0 - Log verified, every pick reproduced
  1 - Verification failed (mismatches found)
  2 - Command error (store not found, unloadable units)

Examples:
  overload replay ./units --db ./overload.db
  overload replay ./units --db ./overload.db --name combine
  overload replay ./units --db ./overload.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to trace store (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Name, "name", "", "verify one dispatch name only")

	return cmd
}

func runReplay(opts *ReplayOptions, unitsDir string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := trace.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace store", err)
	}
	defer st.Close()

	loadResult, loadErrors := LoadUnits(unitsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	// The verification registry stays unsinked: replay must never write
	// new rows into the log it is checking.
	reg, err := compiler.BuildRegistry(ctx, loadResult.Decls, filepath.Base(unitsDir))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build registry", err)
	}

	report, err := st.Verify(ctx, reg, trace.Filter{Name: opts.Name})
	if err != nil {
		return WrapExitError(ExitCommandError, "verification failed to run", err)
	}

	result := ReplayResult{
		Registrations: report.Registrations,
		Resolutions:   report.Resolutions,
		Deterministic: report.OK(),
	}
	for _, m := range report.Mismatches {
		result.Mismatches = append(result.Mismatches, m.String())
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.Deterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_REPLAY_MISMATCH",
			Message: fmt.Sprintf("%d mismatch(es) between log and live registry", len(result.Mismatches)),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.Deterministic {
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Verified %d registration(s), %d resolution(s)\n",
		result.Registrations, result.Resolutions)

	if result.Deterministic {
		fmt.Fprintln(w, "✓ Log reproduced by current units")
		return nil
	}

	fmt.Fprintln(w)
	for _, m := range result.Mismatches {
		fmt.Fprintf(w, "  %s\n", m)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay verification failed")
}
