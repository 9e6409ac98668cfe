package policy

import (
	"time"
)

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = "info"

	// SeverityWarning is for warnings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for violations that block the build.
	SeverityError Severity = "error"
)

// Policy represents a policy rule with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional policy metadata.
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that was violated.
	Policy string `json:"policy"`

	// Target is the build target that violated the policy.
	Target string `json:"target,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`
}

// Result represents the result of evaluating policies against a build
// request.
type Result struct {
	// Allowed indicates if the build may proceed.
	Allowed bool `json:"allowed"`

	// Violations lists all policy violations.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems that did not block the build.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedAt is when the policies were evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// BuildRequest describes one target build submitted for approval.
type BuildRequest struct {
	// Target is the build target name.
	Target string `json:"target"`

	// Kind is the artifact kind (file_manifest, resource_bundle,
	// executable).
	Kind string `json:"kind"`

	// TargetTriple is the platform the artifact targets.
	TargetTriple string `json:"target_triple"`

	// Release indicates a release-mode build.
	Release bool `json:"release"`

	// OptLevel is the optimization level string.
	OptLevel string `json:"opt_level"`

	// Profile is the interpreter configuration profile for executable
	// targets, empty otherwise.
	Profile string `json:"profile,omitempty"`

	// FilesystemImporter reports whether the embedded interpreter may
	// import from the filesystem. Only meaningful for executables.
	FilesystemImporter bool `json:"filesystem_importer,omitempty"`
}

// Input is the document handed to Rego evaluation.
type Input struct {
	// Build is the build request being evaluated.
	Build *BuildRequest `json:"build"`

	// Context provides additional evaluation context.
	Context *Context `json:"context"`
}

// Context provides context information for policy evaluation.
type Context struct {
	// Environment is the environment name (dev, ci, prod).
	Environment string `json:"environment,omitempty"`

	// Timestamp is when the evaluation is occurring.
	Timestamp time.Time `json:"timestamp"`
}
