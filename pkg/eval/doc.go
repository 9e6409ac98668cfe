// Package eval drives Starlark evaluation of oxbuild configuration
// scripts.
//
// Evaluate constructs an engine.EnvironmentContext, executes the script
// against a host-supplied global environment, and returns an
// EvaluationContext exposing target listing, build, and run operations.
// Scripts see exactly one mutation surface: register_target, plus the
// artifact constructors (file_manifest, resource_bundle, executable) that
// produce registrable values. A failed evaluation yields exactly one
// Diagnostic carrying the source spans of the failure.
package eval
