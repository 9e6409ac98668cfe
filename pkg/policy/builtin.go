package policy

// BuiltinPolicies returns the policies that ship with oxbuild.
func BuiltinPolicies() []Policy {
	return []Policy{
		targetNamingPolicy(),
		releaseOptLevelPolicy(),
		releaseImporterPolicy(),
	}
}

// targetNamingPolicy enforces build target naming conventions.
func targetNamingPolicy() Policy {
	return Policy{
		Name:        "target-naming",
		Description: "Enforces target naming conventions (lowercase, alphanumeric, hyphens and underscores only)",
		Severity:    SeverityError,
		Enabled:     true,
		Tags:        []string{"naming", "conventions"},
		Rego: `package oxbuild.policies.naming

import rego.v1

deny contains violation if {
	name := input.build.target
	lower(name) != name
	violation := {
		"message": sprintf("target name '%s' must be lowercase", [name]),
		"severity": "error",
		"target": name,
	}
}

deny contains violation if {
	name := input.build.target
	not regex.match("^[a-z0-9_-]+$", name)
	violation := {
		"message": sprintf("target name '%s' must contain only lowercase letters, numbers, hyphens, and underscores", [name]),
		"severity": "error",
		"target": name,
	}
}

deny contains violation if {
	name := input.build.target
	count(name) > 64
	violation := {
		"message": sprintf("target name '%s' must be at most 64 characters", [name]),
		"severity": "error",
		"target": name,
	}
}
`,
	}
}

// releaseOptLevelPolicy warns when release builds keep the default
// optimization level.
func releaseOptLevelPolicy() Policy {
	return Policy{
		Name:        "release-opt-level",
		Description: "Release builds should use optimization level 1 or 2",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"release"},
		Rego: `package oxbuild.policies.optlevel

import rego.v1

deny contains violation if {
	input.build.release
	input.build.opt_level == "0"
	violation := {
		"message": sprintf("release build of '%s' uses optimization level 0", [input.build.target]),
		"severity": "warning",
		"target": input.build.target,
	}
}
`,
	}
}

// releaseImporterPolicy warns when a release executable keeps the
// filesystem importer enabled.
func releaseImporterPolicy() Policy {
	return Policy{
		Name:        "release-filesystem-importer",
		Description: "Release executables should not fall back to filesystem imports",
		Severity:    SeverityWarning,
		Enabled:     true,
		Tags:        []string{"release", "executable"},
		Rego: `package oxbuild.policies.importer

import rego.v1

deny contains violation if {
	input.build.release
	input.build.kind == "executable"
	input.build.filesystem_importer
	violation := {
		"message": sprintf("release executable '%s' has the filesystem importer enabled", [input.build.target]),
		"severity": "warning",
		"target": input.build.target,
	}
}
`,
	}
}
