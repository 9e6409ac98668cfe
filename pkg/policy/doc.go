// Package policy gates target builds with Rego policies.
//
// Before oxbuild materializes a target it can submit a BuildRequest to
// the policy engine. Policies are Rego modules whose deny rules produce
// violations; a violation at error severity or above blocks the build.
// A set of built-in policies ships with the engine, and workspaces can
// add their own from .rego or .json files, optionally reloaded on
// change.
package policy
