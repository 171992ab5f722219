package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillon/overload/internal/compiler"
	"github.com/quillon/overload/internal/dispatch"
	"github.com/quillon/overload/internal/metrics"
	"github.com/quillon/overload/internal/trace"
	"github.com/quillon/overload/internal/types"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Units    string
	Args     string
	Kwargs   string
	Receiver string
	Database string
	NoCache  bool
}

// InvokeResult holds the outcome of a dispatched call.
type InvokeResult struct {
	Name   string `json:"name"`
	Result string `json:"result"`
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InvokeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invoke <name>",
		Short: "Build a registry from unit files and dispatch one call",
		Long: `Build a dispatch registry from unit files and invoke a name.

Positional arguments come from --args as a JSON array; keyword arguments
from --kwargs as a JSON object. Integers dispatch as int, decimals as
float. Instance-bound names additionally take --receiver, the registered
type the call is made on.

With --db, registrations and the resolution are recorded to the trace
store, so the call can later be inspected (overload trace) and verified
(overload replay).

Exit codes:
  0 - Call dispatched and returned a value
  1 - No implementation matched the arguments
  2 - Command error (unloadable units, unknown name, bad arguments)

Examples:
  overload invoke combine --units ./units --args '[1,2]'
  overload invoke Calculator.multiply --units ./units --kwargs '{"a":3,"b":4}'
  overload invoke Printer.print --units ./units --receiver Printer --args '[42]'
  overload invoke combine --units ./units --args '[1,2]' --db ./overload.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvoke(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Units, "units", "", "units directory (required)")
	_ = cmd.MarkFlagRequired("units")
	cmd.Flags().StringVar(&opts.Args, "args", "[]", "positional arguments as a JSON array")
	cmd.Flags().StringVar(&opts.Kwargs, "kwargs", "{}", "keyword arguments as a JSON object")
	cmd.Flags().StringVar(&opts.Receiver, "receiver", "", "receiver type for instance-bound calls")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the call to this trace store")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable the resolution cache")

	return cmd
}

func runInvoke(opts *InvokeOptions, name string, cmd *cobra.Command) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := opts.LoadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Flags override config
	dbPath := opts.Database
	if dbPath == "" && cfg.Trace.Enabled {
		dbPath = cfg.Trace.Path
	}
	noCache := opts.NoCache || cfg.Cache.Disabled

	args, err := parseArgs(opts.Args)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --args", err)
	}
	kwargs, err := parseKwargs(opts.Kwargs)
	if err != nil {
		_ = formatter.Error(ErrCodeBadArgs, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid --kwargs", err)
	}

	loadResult, loadErrors := LoadUnits(opts.Units, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	var regOpts []dispatch.Option
	if noCache {
		regOpts = append(regOpts, dispatch.WithCacheDisabled())
	}
	if dbPath != "" {
		st, err := trace.Open(dbPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace store", err)
		}
		defer st.Close()
		regOpts = append(regOpts, dispatch.WithTraceSink(st))
		formatter.VerboseLog("Recording to %s", dbPath)
	}
	if cfg.Metrics.Enabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create metrics sink", err)
		}
		regOpts = append(regOpts, dispatch.WithMetricsSink(sink))
		// The exposition listener lives for the duration of the command;
		// cancel on return shuts it down.
		go func() {
			if err := metrics.StartServer(ctx, cfg.Metrics.Addr); err != nil {
				slog.Error("metrics server", "error", err)
			}
		}()
		formatter.VerboseLog("Serving metrics on %s", cfg.Metrics.Addr)
	}

	unitLabel := filepath.Base(opts.Units)
	reg, err := compiler.BuildRegistry(ctx, loadResult.Decls, unitLabel, regOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build registry", err)
	}

	h, ok := reg.Lookup(name)
	if !ok {
		message := fmt.Sprintf("unknown dispatch name %q", name)
		_ = formatter.Error(ErrCodeUnknownName, message, knownNames(reg))
		return NewExitError(ExitCommandError, message)
	}

	if opts.Receiver != "" {
		receiver := types.RecordValue{TypeName: types.Descriptor(opts.Receiver)}
		args = append([]types.Value{receiver}, args...)
	}

	out, callErr := reg.Invoke(ctx, h, args, kwargs)
	if callErr != nil {
		if dispatch.IsNoMatch(callErr) {
			var de *dispatch.DispatchError
			errors.As(callErr, &de)
			_ = formatter.Error(string(dispatch.ErrCodeNoMatch), de.Message, de.Key)
			// No match is a dispatch outcome, not a broken command
			return NewExitError(ExitFailure, callErr.Error())
		}
		return WrapExitError(ExitCommandError, fmt.Sprintf("invoking %s", name), callErr)
	}

	if formatter.Format == "json" {
		return formatter.Success(InvokeResult{Name: name, Result: out.Inspect()})
	}
	fmt.Fprintln(formatter.Writer, out.Inspect())
	return nil
}

// parseArgs decodes the --args JSON array into runtime values. UseNumber
// keeps integers intact; plain decoding would turn every number into a
// float and change what the call dispatches on.
func parseArgs(raw string) ([]types.Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var plain []any
	if err := dec.Decode(&plain); err != nil {
		return nil, fmt.Errorf("--args must be a JSON array: %w", err)
	}

	out := make([]types.Value, len(plain))
	for i, a := range plain {
		v, err := types.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseKwargs decodes the --kwargs JSON object into runtime values.
func parseKwargs(raw string) (map[string]types.Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var plain map[string]any
	if err := dec.Decode(&plain); err != nil {
		return nil, fmt.Errorf("--kwargs must be a JSON object: %w", err)
	}
	if len(plain) == 0 {
		return nil, nil
	}

	out := make(map[string]types.Value, len(plain))
	for name, a := range plain {
		v, err := types.FromGo(a)
		if err != nil {
			return nil, fmt.Errorf("kwargs[%s]: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// knownNames lists the registered dispatch names for error details.
func knownNames(reg *dispatch.Registry) []string {
	handles := reg.Handles()
	names := make([]string, len(handles))
	for i, h := range handles {
		names[i] = h.QualifiedName()
	}
	return names
}
