package interp

// Profile selects the baseline defaults applied to the interpreter's
// low-level configuration before explicit fields override them.
type Profile string

const (
	// ProfilePython behaves like a standard interpreter install: it reads
	// environment variables and global state during initialization.
	ProfilePython Profile = "python"

	// ProfileIsolated ignores environment variables and filesystem probing,
	// leaving every setting to the embedding application.
	ProfileIsolated Profile = "isolated"
)

// RawAllocator selects the backend for the runtime's raw memory allocator.
type RawAllocator string

const (
	// RawAllocatorSystem uses the platform malloc family.
	RawAllocatorSystem RawAllocator = "system"

	// RawAllocatorJemalloc uses jemalloc.
	RawAllocatorJemalloc RawAllocator = "jemalloc"

	// RawAllocatorDefault keeps the allocator compiled into the runtime.
	RawAllocatorDefault RawAllocator = "default"
)

// TerminfoResolutionKind discriminates the terminfo database policies.
type TerminfoResolutionKind string

const (
	// TerminfoDynamic probes well-known locations at startup.
	TerminfoDynamic TerminfoResolutionKind = "dynamic"

	// TerminfoNone performs no terminfo resolution.
	TerminfoNone TerminfoResolutionKind = "none"

	// TerminfoStatic uses a fixed directory list.
	TerminfoStatic TerminfoResolutionKind = "static"
)

// TerminfoResolution is how the embedded runtime locates the terminfo
// database.
type TerminfoResolution struct {
	Kind TerminfoResolutionKind `json:"kind"`

	// Path is the directory list used when Kind is TerminfoStatic.
	Path string `json:"path,omitempty"`
}

// ModuleInitFunc is the zero-argument initialization entrypoint of a
// statically linked extension module. The symbol is non-owning and lives
// for the whole process; it must be invoked at most once per interpreter
// initialization.
type ModuleInitFunc func()

// ExtensionModule describes an extra statically linked extension module to
// make available to the interpreter.
type ExtensionModule struct {
	// Name the module is importable under.
	Name string `json:"name"`

	// InitFunc is the module's init entrypoint.
	InitFunc ModuleInitFunc `json:"-"`
}

// InterpreterConfig is the low-level runtime configuration. Profile is the
// only mandatory field; unset optional fields (nil slices, empty strings)
// keep the defaults the profile selects.
type InterpreterConfig struct {
	// Profile selects the baseline defaults.
	Profile Profile `json:"profile"`

	// Argv explicitly initializes the runtime's argument vector. nil means
	// unset; an empty non-nil slice is an explicit empty vector.
	Argv []string `json:"argv,omitempty"`

	// ProgramName overrides the runtime's program name.
	ProgramName string `json:"program_name,omitempty"`

	// Home overrides the runtime's home directory.
	Home string `json:"home,omitempty"`

	// ModuleSearchPaths overrides the module import path list. Entries may
	// contain the literal token $ORIGIN.
	ModuleSearchPaths []string `json:"module_search_paths,omitempty"`
}
