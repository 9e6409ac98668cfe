package interp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolution failures are fatal bootstrap errors; the configuration is
// intended to be resolved once, before any embedded-runtime work begins.
var (
	// ErrCurrentExecutableUnavailable means the current process executable
	// path could not be obtained while defaulting the exe field.
	ErrCurrentExecutableUnavailable = errors.New("could not obtain current executable")

	// ErrNoParentDirectory means the resolved executable path has no parent
	// directory to default the origin field from.
	ErrNoParentDirectory = errors.New("unable to obtain current executable parent directory")
)

// OxidizedConfig is the mutable, partially specified configuration for an
// embedded interpreter runtime. Zero values and nil slices mean "unset";
// NewOxidizedConfig returns the defaults. Resolve consumes the builder.
type OxidizedConfig struct {
	// Exe is the path of the currently executing executable. Defaults to
	// the live process executable at resolution time.
	Exe string `json:"exe,omitempty"`

	// Origin is the directory relative paths are interpreted against.
	// Defaults to the parent directory of Exe at resolution time.
	Origin string `json:"origin,omitempty"`

	// Interpreter is the low-level runtime configuration.
	Interpreter InterpreterConfig `json:"interpreter"`

	// RawAllocator selects the runtime's raw memory allocator.
	RawAllocator RawAllocator `json:"raw_allocator,omitempty"`

	// SetMissingPathConfiguration auto-fills path configuration fields that
	// are unset, e.g. deriving the runtime home from the origin directory.
	SetMissingPathConfiguration bool `json:"set_missing_path_configuration"`

	// OxidizedImporter installs the in-binary module importer.
	OxidizedImporter bool `json:"oxidized_importer"`

	// FilesystemImporter installs the default filesystem module importer.
	FilesystemImporter bool `json:"filesystem_importer"`

	// PackedResources are borrowed packed-resource buffers. The buffers
	// are not copied and must outlive the configuration.
	PackedResources [][]byte `json:"-"`

	// ExtraExtensionModules are statically linked extension modules to
	// register during interpreter initialization.
	ExtraExtensionModules []ExtensionModule `json:"extra_extension_modules,omitempty"`

	// Argv overrides the argument vector the runtime is initialized with.
	// nil means unset. Ignored when Interpreter.Argv is set.
	Argv []string `json:"argv,omitempty"`

	// Argvb additionally exposes byte-form process arguments to the runtime.
	Argvb bool `json:"argvb"`

	// SysFrozen emulates "frozen binary" behavior in the runtime.
	SysFrozen bool `json:"sys_frozen"`

	// SysMeipass sets the frozen-bundle directory attribute to the
	// executable's directory.
	SysMeipass bool `json:"sys_meipass"`

	// TerminfoResolution is the terminfo database policy.
	TerminfoResolution TerminfoResolution `json:"terminfo_resolution"`

	// TclLibrary locates the Tcl runtime library. Supports $ORIGIN.
	TclLibrary string `json:"tcl_library,omitempty"`

	// WriteModulesDirectoryEnv names an environment variable consulted at
	// runtime shutdown; when set, a loaded-modules dump is written to the
	// directory it points at.
	WriteModulesDirectoryEnv string `json:"write_modules_directory_env,omitempty"`
}

// NewOxidizedConfig returns a configuration with the standard defaults.
func NewOxidizedConfig() OxidizedConfig {
	return OxidizedConfig{
		Interpreter:                 InterpreterConfig{Profile: ProfilePython},
		SetMissingPathConfiguration: true,
		OxidizedImporter:            false,
		FilesystemImporter:          true,
		TerminfoResolution:          TerminfoResolution{Kind: TerminfoDynamic},
	}
}

// Resolve consumes the builder and produces the fully concrete form.
//
// Unset exe and origin fields are defaulted from the live process; both
// failures are fatal and not retried. Every $ORIGIN token in templated
// path fields is replaced with the origin directory's textual path. The
// replacement is literal, not path-normalized. All other fields pass
// through unchanged.
func (c OxidizedConfig) Resolve() (*ResolvedOxidizedConfig, error) {
	exe := c.Exe
	if exe == "" {
		current, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCurrentExecutableUnavailable, err)
		}
		exe = current
	}

	origin := c.Origin
	if origin == "" {
		parent := filepath.Dir(exe)
		if parent == exe || parent == "" {
			return nil, ErrNoParentDirectory
		}
		origin = parent
	}

	if c.Interpreter.ModuleSearchPaths != nil {
		paths := make([]string, len(c.Interpreter.ModuleSearchPaths))
		for i, p := range c.Interpreter.ModuleSearchPaths {
			paths[i] = strings.ReplaceAll(p, "$ORIGIN", origin)
		}
		c.Interpreter.ModuleSearchPaths = paths
	}

	if c.TclLibrary != "" {
		c.TclLibrary = strings.ReplaceAll(c.TclLibrary, "$ORIGIN", origin)
	}

	c.Exe = exe
	c.Origin = origin

	return &ResolvedOxidizedConfig{inner: c}, nil
}

// ResolveSysArgv determines the text-form argument vector for the runtime.
//
// The second return is false when the low-level configuration already
// carries an explicit vector, signaling that initialization should leave
// it untouched. Otherwise the builder override, or the live process
// arguments, are returned.
func (c *OxidizedConfig) ResolveSysArgv() ([]string, bool) {
	if c.Interpreter.Argv != nil {
		return nil, false
	}
	if c.Argv != nil {
		return append([]string(nil), c.Argv...), true
	}
	return append([]string(nil), os.Args...), true
}

// ResolveSysArgvb determines the byte-form argument vector. Unlike
// ResolveSysArgv it always yields a concrete vector: the low-level
// explicit vector when present, else the builder override, else the live
// process arguments.
func (c *OxidizedConfig) ResolveSysArgvb() []string {
	if c.Interpreter.Argv != nil {
		return append([]string(nil), c.Interpreter.Argv...)
	}
	if c.Argv != nil {
		return append([]string(nil), c.Argv...)
	}
	return append([]string(nil), os.Args...)
}

// ResolvedOxidizedConfig is an OxidizedConfig with every field concrete.
// It is immutable: the only way to obtain one is OxidizedConfig.Resolve.
type ResolvedOxidizedConfig struct {
	inner OxidizedConfig
}

// Exe returns the current executable path. Total after resolution.
func (c *ResolvedOxidizedConfig) Exe() string {
	return c.inner.Exe
}

// Origin returns the $ORIGIN directory. Total after resolution.
func (c *ResolvedOxidizedConfig) Origin() string {
	return c.inner.Origin
}

// Config returns a copy of the resolved configuration fields.
func (c *ResolvedOxidizedConfig) Config() OxidizedConfig {
	return c.inner
}
