package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillon/overload/internal/config"
	"github.com/quillon/overload/internal/types"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional config file path

	cfg *config.Config // resolved once, shared by all subcommands
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the overload CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "overload",
		Version: types.EngineVersion,
		Short:   "Multiple dispatch over declarative unit files",
		Long: `overload compiles CUE unit files into dispatch tables and resolves
calls against them: first implementation whose signature accepts the
arguments wins, in registration order.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := opts.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			// Diagnostic logs (merge overrides, sink failures) go to
			// stderr at the configured level, never into command output.
			slog.SetDefault(cfg.Logging.Logger(cmd.ErrOrStderr()))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to config file (yaml|json)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInvokeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

// LoadConfig resolves the effective runtime configuration: the file named
// by --config when given, built-in defaults otherwise. The result is
// cached so the root and its subcommand see the same instance.
func (o *RootOptions) LoadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	if o.Config == "" {
		o.cfg = config.Default()
		return o.cfg, nil
	}
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
