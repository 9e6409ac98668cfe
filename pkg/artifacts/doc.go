// Package artifacts implements the built-in artifact kinds a configuration
// script can register as build targets: file manifests, packed resource
// bundles, and executables embedding a resolved interpreter configuration.
//
// Every kind satisfies engine.Buildable. Build handlers materialize their
// artifact into the per-target output directory handed to them and return
// an immutable engine.ResolvedTarget; they never touch filesystem state
// outside that directory.
package artifacts
