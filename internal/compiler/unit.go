// Package compiler turns CUE unit files into registration declarations.
//
// A unit file declares three kinds of top-level blocks:
//
//	type: Dog: {parent: "Animal"}
//
//	unit: Calculator: {
//		overload: multiply: [
//			{params: {a: "int", b: "int"}, kind: "static", body: "multiply_ints"},
//			{params: {a: "float", b: "float"}, kind: "static", body: "multiply_floats"},
//		]
//	}
//
//	fn: echo: [
//		{params: {value: "int"}, body: "echo_value"},
//		{params: {value: "string"}, body: "upper_string"},
//	]
//
// Implementation lists are ordered: their order is the registration order,
// which is the order resolution scans. A param is either a descriptor
// string or {type: "bool", default: true} for a defaulted parameter.
//
// Unit files carry a package clause (any single name per directory) so
// that directory loading builds them into one instance.
package compiler

import (
	"github.com/quillon/overload/internal/types"
)

// TypeDecl registers a user descriptor, optionally conforming to a parent.
type TypeDecl struct {
	Name   string `json:"name"`
	Parent string `json:"parent,omitempty"`
}

// ParamDecl is one declared parameter of an implementation.
type ParamDecl struct {
	Name    string      `json:"name"`
	Type    string      `json:"type"`
	Default types.Value `json:"default,omitempty"`
}

// ImplDecl is one implementation: signature, binding kind, body ref.
type ImplDecl struct {
	Params []ParamDecl `json:"params,omitempty"`
	Kind   string      `json:"kind,omitempty"`
	Body   string      `json:"body"`
}

// OverloadDecl is one dispatch name inside a unit with its ordered
// implementations.
type OverloadDecl struct {
	Name  string     `json:"name"`
	Impls []ImplDecl `json:"impls"`
}

// UnitSpec is one compiled unit block: a defining scope and its overloads.
type UnitSpec struct {
	Owner     string         `json:"owner"`
	Overloads []OverloadDecl `json:"overloads"`
}

// FuncDecl is a free dispatch name with its ordered implementations.
type FuncDecl struct {
	Name  string     `json:"name"`
	Impls []ImplDecl `json:"impls"`
}

// LoadedDecls is everything compiled from a set of unit files.
type LoadedDecls struct {
	Types []TypeDecl `json:"types,omitempty"`
	Units []UnitSpec `json:"units,omitempty"`
	Funcs []FuncDecl `json:"funcs,omitempty"`
}

// Empty reports whether nothing was declared.
func (d *LoadedDecls) Empty() bool {
	return len(d.Types) == 0 && len(d.Units) == 0 && len(d.Funcs) == 0
}
