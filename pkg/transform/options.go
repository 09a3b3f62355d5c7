// Package transform rewrites analyzed statement sequences into a single expression.
// Loops become recursive closures over an explicit store of the variables they
// mutate; the remaining statements are composed in continuation-passing style.
package transform

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-singleline/pkg/ast"
)

// ErrNotAnalyzed is returned when a loop or function reaches the rewriter without a
// mutation annotation.
var ErrNotAnalyzed = errors.New("missing mutation annotation")

// Default option values.
const (
	DefaultStorePrefix = "__store_"
	DefaultLoopPrefix  = "__loop_"
	DefaultUndefined   = "None"
)

// Options controls the names and values the rewriter introduces.
type Options struct {
	// StorePrefix is prepended to a mutated variable to name its store parameter.
	StorePrefix string
	// LoopPrefix is prepended to a counter to name each loop closure.
	LoopPrefix string
	// Undefined is the literal source used for store variables first bound inside a loop.
	Undefined string
	// RecursionLimit, when positive, prefixes the result with a call raising the
	// interpreter's recursion limit.
	RecursionLimit int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		StorePrefix: DefaultStorePrefix,
		LoopPrefix:  DefaultLoopPrefix,
		Undefined:   DefaultUndefined,
	}
}

// withDefaults fills empty fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StorePrefix == "" {
		o.StorePrefix = d.StorePrefix
	}
	if o.LoopPrefix == "" {
		o.LoopPrefix = d.LoopPrefix
	}
	if o.Undefined == "" {
		o.Undefined = d.Undefined
	}
	return o
}

func (o Options) undefined() *ast.Literal {
	switch o.Undefined {
	case "None":
		return ast.None()
	case "True", "False":
		return &ast.Literal{Kind: ast.LitBool, Raw: o.Undefined}
	}
	return &ast.Literal{Kind: ast.LitString, Raw: o.Undefined}
}

func (o Options) storeName(name string) string {
	return o.StorePrefix + name
}

func (o Options) closureName(n int) string {
	return fmt.Sprintf("%s%d", o.LoopPrefix, n)
}
