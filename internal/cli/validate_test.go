package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	dir := writeCompileFixture(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "✓ All units valid")
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	dir := writeCompileFixture(t)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
}

func TestValidateCommand_BoundKindOnFreeFunction(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"shout.cue": `package units

fn: shout: [
	{params: {text: "string"}, kind: "instance", body: "upper_string"},
]
`,
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ Validation failed")
	assert.Contains(t, output, "E110")
}

func TestValidateCommand_UnknownBody(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"mystery.cue": `package units

fn: mystery: [
	{params: {value: "any"}, body: "no_such_body"},
]
`,
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E104", resp.Error.Code)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
}

func TestValidateCommand_InvalidKind(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"greeter.cue": `package units

unit: Greeter: {
	overload: greet: [
		{params: {name: "string"}, kind: "banana", body: "greet_name"},
	]
}
`,
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "E103")
}

func TestValidateCommand_DirectoryNotFound(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/units"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E005]")
}

func TestValidateCommand_CompileErrorsReported(t *testing.T) {
	dir := writeUnits(t, map[string]string{
		"bodies.cue": `package units

fn: first: [
	{params: {a: "int"}},
]
`,
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "E008 load:")
	assert.Contains(t, output, "body ref is required")
}

func TestValidateUnitsDir(t *testing.T) {
	valid := writeCompileFixture(t)
	errs, err := ValidateUnitsDir(valid)
	require.NoError(t, err)
	assert.Empty(t, errs)

	invalid := writeUnits(t, map[string]string{
		"greeter.cue": `package units

unit: Greeter: {
	overload: greet: [
		{params: {name: "string"}, kind: "banana", body: "greet_name"},
	]
}
`,
	})
	errs, err = ValidateUnitsDir(invalid)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "E103", errs[0].Code)
}
