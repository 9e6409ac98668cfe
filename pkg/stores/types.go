package stores

import "time"

// BuildStatus is the recorded outcome of a target build.
type BuildStatus string

const (
	BuildStatusSucceeded BuildStatus = "succeeded"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCached    BuildStatus = "cached"
)

// BuildRecord is one row of build history: a single target materialized
// (or attempted) by one build invocation.
type BuildRecord struct {
	// ID is the unique build invocation ID.
	ID string `json:"id"`

	// Target is the build target name.
	Target string `json:"target"`

	// Kind is the artifact kind that was built.
	Kind string `json:"kind"`

	// ConfigPath is the configuration script that declared the target.
	ConfigPath string `json:"config_path"`

	// TargetTriple is the platform the artifact targets.
	TargetTriple string `json:"target_triple"`

	// Release records whether this was a release build.
	Release bool `json:"release"`

	// Status is the build outcome.
	Status BuildStatus `json:"status"`

	// OutputPath is where the artifact landed, when the build succeeded.
	OutputPath string `json:"output_path,omitempty"`

	// Error is the failure message, when the build failed.
	Error string `json:"error,omitempty"`

	// Duration is how long the build handler ran.
	Duration time.Duration `json:"duration"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}
