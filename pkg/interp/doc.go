// Package interp defines the configuration of the interpreter runtime
// embedded into executable artifacts.
//
// Configuration is layered: an InterpreterConfig profile selects baseline
// defaults for the runtime, explicit fields override them, and a handful of
// path fields are auto-filled at resolution time when unset. The mutable
// OxidizedConfig builder is resolved exactly once, at process bootstrap,
// into an immutable ResolvedOxidizedConfig; resolution is a one-way
// transform and resolved accessors never fail.
//
// Path fields support the literal token $ORIGIN, replaced at resolution
// time with the directory containing the current executable. Substitution
// is textual: "$ORIGIN/../lib" resolves to "<origin>/../lib" without path
// normalization.
package interp
