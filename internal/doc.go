// Package internal provides the linting engine for CIL listings.
//
// The engine loads a listing, evaluates every method body with the symbolic
// interpreter and hands the resulting routines to each lint rule. A routine
// is one path through a method: the expression trees it built and the
// branch conditions it passed.
//
// Key components:
//
// Engine: loads listings, evaluates methods once and runs the rules over
// them concurrently. Issues are filtered through nolint attributes and
// ignored namespaces, then sorted by file, method and offset.
//
// LintRule: the contract for all lint rules. Check receives a method and
// its routines. An ErrorRule additionally reports methods whose evaluation
// failed.
//
// QueryRootRule: reports calls to configured root methods, such as
// database round trips, with the paths that reach them.
//
// Cache: stores issues per listing keyed by file metadata, so unchanged
// listings are not evaluated again.
//
// Usage:
//
//	engine, err := internal.NewEngine(logger, rules)
//	if err != nil {
//	    // handle error
//	}
//	issues, err := engine.Run("path/to/orders.cil.yaml")
package internal
