// Package engine provides the build target registry and resolver at the
// core of oxbuild.
//
// # Overview
//
// One evaluation of a configuration script produces one EnvironmentContext.
// The script evaluator populates the context's target registry through
// RegisterTarget, the only mutation surface exposed to scripts. Callers then
// resolve targets by name, on demand:
//
//	ctx := engine.NewEnvironmentContext(cfg)
//	// ... script evaluation registers targets ...
//	resolved, err := ctx.Build(context.Background(), "install")
//
// # Target Lifecycle
//
// A BuildTarget moves through three states:
//
//   - Unresolved: the name is registered but no artifact is bound
//   - Resolved: a concrete artifact descriptor is bound
//   - Built: the artifact's build handler ran; the result is cached
//
// Built targets stay built for the life of the context. Building a built
// target returns the cached ResolvedTarget without re-invoking the handler.
//
// # Default Target
//
// When the script marks no target as default, the fallback is the
// first-registered target. This rule is deterministic and independent of
// map iteration order.
//
// # Artifact Kinds
//
// Artifact kinds are a closed capability contract, not a string-dispatched
// tag: a descriptor must implement Buildable to be built. Descriptors that
// do not implement it are reported as unsupported when a build is requested.
//
// # Dependencies
//
// The engine resolves targets strictly by name. It does not compute or walk
// an inter-target dependency graph; handlers that need another target's
// output must be composed at the script level.
//
// # Error Classification
//
// Errors carry an ErrorKind encoding recoverability. Only build I/O
// failures are retryable without correcting the script:
//
//	if engine.IsRetryable(err) {
//	    // fix the filesystem and call Build again
//	}
package engine
