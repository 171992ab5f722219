package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillon/overload/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled declarations.
type CompilationResult struct {
	Types []compiler.TypeDecl `json:"types,omitempty"`
	Units []compiler.UnitSpec `json:"units,omitempty"`
	Funcs []compiler.FuncDecl `json:"funcs,omitempty"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	TypeCount  int
	UnitCount  int
	FuncCount  int
	TotalImpls int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <units-dir>",
		Short: "Compile CUE unit files to declarations",
		Long: `Compile CUE unit files to their declaration form.

The compiler parses type, unit, and fn blocks, checks each declaration,
and outputs the registration-ordered declarations as JSON.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, unitsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadUnits(unitsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, unitsDir)

	decls := loadResult.Decls
	for _, typeDecl := range decls.Types {
		formatter.VerboseLog("Compiling type: %s", typeDecl.Name)
	}
	for _, unit := range decls.Units {
		formatter.VerboseLog("Compiling unit: %s", unit.Owner)
	}
	for _, fn := range decls.Funcs {
		formatter.VerboseLog("Compiling fn: %s", fn.Name)
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := &CompilationResult{
		Types: decls.Types,
		Units: decls.Units,
		Funcs: decls.Funcs,
	}
	stats := calculateStats(result)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeDeclsToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// calculateStats computes summary statistics from the compiled declarations.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{
		TypeCount: len(result.Types),
		UnitCount: len(result.Units),
		FuncCount: len(result.Funcs),
	}

	for _, unit := range result.Units {
		for _, ov := range unit.Overloads {
			stats.TotalImpls += len(ov.Impls)
		}
	}
	for _, fn := range result.Funcs {
		stats.TotalImpls += len(fn.Impls)
	}

	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d unit(s), %d function(s), %d type(s)\n\n",
		stats.UnitCount, stats.FuncCount, stats.TypeCount)

	if len(result.Types) > 0 {
		fmt.Fprintln(formatter.Writer, "Types:")
		for _, typeDecl := range result.Types {
			if typeDecl.Parent != "" {
				fmt.Fprintf(formatter.Writer, "  %s conforms to %s\n", typeDecl.Name, typeDecl.Parent)
			} else {
				fmt.Fprintf(formatter.Writer, "  %s\n", typeDecl.Name)
			}
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(result.Units) > 0 {
		fmt.Fprintln(formatter.Writer, "Units:")
		for _, unit := range result.Units {
			implCount := 0
			for _, ov := range unit.Overloads {
				implCount += len(ov.Impls)
			}
			fmt.Fprintf(formatter.Writer, "  %s: %d overload(s), %d implementation(s)\n",
				unit.Owner, len(unit.Overloads), implCount)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(result.Funcs) > 0 {
		fmt.Fprintln(formatter.Writer, "Functions:")
		for _, fn := range result.Funcs {
			fmt.Fprintf(formatter.Writer, "  %s: %d implementation(s)\n", fn.Name, len(fn.Impls))
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote declarations to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{
				Code:    code,
				Message: message,
			}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeDeclsToFile writes the compiled declarations to a file as JSON.
func writeDeclsToFile(result *CompilationResult, filename string) error {
	// Indented JSON for readability; canonical JSON is reserved for
	// signatures and match keys.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling declarations: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
