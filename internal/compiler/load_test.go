package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUnitFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractDeclsAllBlocks(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		type: Animal: {}
		type: Dog: {parent: "Animal"}

		unit: Printer: {
			overload: print: [
				{params: {value: "int"}, kind: "instance", body: "print_number"},
			]
		}

		fn: echo: [
			{params: {value: "int"}, body: "echo_value"},
		]
	`)
	require.NoError(t, v.Err())

	decls, errs := ExtractDecls(v)
	require.Empty(t, errs)

	require.Len(t, decls.Types, 2)
	assert.Equal(t, "Animal", decls.Types[0].Name)
	assert.Equal(t, "Dog", decls.Types[1].Name)
	assert.Equal(t, "Animal", decls.Types[1].Parent)

	require.Len(t, decls.Units, 1)
	assert.Equal(t, "Printer", decls.Units[0].Owner)

	require.Len(t, decls.Funcs, 1)
	assert.Equal(t, "echo", decls.Funcs[0].Name)
	assert.False(t, decls.Empty())
}

func TestExtractDeclsCollectsErrors(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		unit: Broken: {
			note: "no overloads"
		}
		unit: Fine: {
			overload: run: [
				{params: {value: "int"}, body: "echo_value"},
			]
		}
	`)
	require.NoError(t, v.Err())

	decls, errs := ExtractDecls(v)

	// Compilation continues past the broken unit
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "overload")
	require.Len(t, decls.Units, 1)
	assert.Equal(t, "Fine", decls.Units[0].Owner)
}

func TestExtractDeclsNoBlocks(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`other: 1`)
	require.NoError(t, v.Err())

	decls, errs := ExtractDecls(v)
	require.Empty(t, errs)
	assert.True(t, decls.Empty())
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "calc.cue", `
		package units

		unit: Calculator: {
			overload: multiply: [
				{params: {a: "int", b: "int"}, kind: "static", body: "multiply_ints"},
			]
		}
	`)

	decls, err := LoadFiles([]string{path})
	require.NoError(t, err)

	require.Len(t, decls.Units, 1)
	assert.Equal(t, "Calculator", decls.Units[0].Owner)
	assert.Equal(t, "multiply", decls.Units[0].Overloads[0].Name)
}

func TestLoadFilesUnifiesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	types := writeUnitFile(t, dir, "types.cue", `
		package units

		type: Animal: {}
		type: Dog: {parent: "Animal"}
	`)
	fns := writeUnitFile(t, dir, "fns.cue", `
		package units

		fn: describe: [
			{params: {value: "Animal"}, body: "inspect_value"},
		]
	`)

	decls, err := LoadFiles([]string{types, fns})
	require.NoError(t, err)

	assert.Len(t, decls.Types, 2)
	assert.Len(t, decls.Funcs, 1)
}

func TestLoadFilesEmptyInput(t *testing.T) {
	_, err := LoadFiles(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no unit files")
}

func TestLoadFilesMissingFile(t *testing.T) {
	_, err := LoadFiles([]string{filepath.Join(t.TempDir(), "absent.cue")})
	require.Error(t, err)
}

func TestLoadFilesNothingDeclared(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "other.cue", "package units\n\nother: {a: 1}\n")

	_, err := LoadFiles([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no units, functions, or types declared")
}

func TestLoadFilesFailsFastOnBadDecl(t *testing.T) {
	dir := t.TempDir()
	path := writeUnitFile(t, dir, "bad.cue", `
		package units

		unit: Broken: {
			overload: run: []
		}
	`)

	_, err := LoadFiles([]string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one implementation")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeUnitFile(t, dir, "types.cue", `
		package units

		type: Animal: {}
	`)
	writeUnitFile(t, dir, "units.cue", `
		package units

		unit: Printer: {
			overload: print: [
				{params: {value: "int"}, kind: "instance", body: "print_number"},
			]
		}
	`)

	decls, err := LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, decls.Types, 1)
	assert.Len(t, decls.Units, 1)
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, err := CompileSource(`unit: { this is not cue`)
	require.Error(t, err)
}
