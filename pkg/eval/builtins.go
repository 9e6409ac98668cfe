package eval

import (
	"fmt"
	"sort"
	"strings"

	"go.starlark.net/starlark"

	"github.com/oxbuild/oxbuild/pkg/artifacts"
	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/interp"
)

// environmentKey is the thread-local slot holding the environment context.
const environmentKey = "oxbuild.environment"

func environmentFromThread(thread *starlark.Thread) (*engine.EnvironmentContext, error) {
	env, ok := thread.Local(environmentKey).(*engine.EnvironmentContext)
	if !ok {
		return nil, fmt.Errorf("could not obtain build environment context")
	}
	return env, nil
}

// targetValue is implemented by Starlark values that can be registered as
// build targets.
type targetValue interface {
	starlark.Value
	descriptor() engine.Buildable
}

// builtinRegisterTarget implements register_target(name, target,
// default=False). Registering None leaves the target unresolved.
func builtinRegisterTarget(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var target starlark.Value
	var markDefault bool
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name, "target", &target, "default?", &markDefault); err != nil {
		return nil, err
	}

	env, err := environmentFromThread(thread)
	if err != nil {
		return nil, err
	}

	var descriptor interface{}
	switch v := target.(type) {
	case starlark.NoneType:
		// Registered but unresolved until the script binds a value.
	case targetValue:
		descriptor = v.descriptor()
	default:
		return nil, fmt.Errorf("%s: value of type %s cannot be registered as a target", b.Name(), target.Type())
	}

	if err := env.RegisterTarget(name, descriptor, markDefault); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

// builtinFileManifest implements file_manifest().
func builtinFileManifest(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return &manifestValue{manifest: artifacts.NewFileManifest()}, nil
}

// builtinResourceBundle implements resource_bundle().
func builtinResourceBundle(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if err := starlark.UnpackArgs(b.Name(), args, kwargs); err != nil {
		return nil, err
	}
	return &bundleValue{bundle: artifacts.NewResourceBundle()}, nil
}

// builtinExecutable implements executable(name, resources=None).
func builtinExecutable(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var resources starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs,
		"name", &name, "resources?", &resources); err != nil {
		return nil, err
	}

	exe := artifacts.NewExecutable(name)
	if bv, ok := resources.(*bundleValue); ok {
		exe.Bundle = bv.bundle
	} else if resources != nil && resources != starlark.None {
		return nil, fmt.Errorf("%s: resources must be a resource_bundle, got %s", b.Name(), resources.Type())
	}

	return &executableValue{exe: exe}, nil
}

// manifestValue exposes a FileManifest to Starlark.
type manifestValue struct {
	manifest *artifacts.FileManifest
	frozen   bool
}

var (
	_ targetValue          = (*manifestValue)(nil)
	_ starlark.HasAttrs    = (*manifestValue)(nil)
	_ starlark.HasAttrs    = (*bundleValue)(nil)
	_ starlark.HasSetField = (*executableValue)(nil)
)

func (v *manifestValue) String() string {
	return fmt.Sprintf("<file_manifest with %d files>", len(v.manifest.Entries()))
}
func (v *manifestValue) Type() string                     { return artifacts.KindFileManifest }
func (v *manifestValue) Freeze()                          { v.frozen = true }
func (v *manifestValue) Truth() starlark.Bool             { return starlark.True }
func (v *manifestValue) Hash() (uint32, error)            { return 0, fmt.Errorf("unhashable type: %s", v.Type()) }
func (v *manifestValue) descriptor() engine.Buildable     { return v.manifest }
func (v *manifestValue) AttrNames() []string              { return []string{"add_file"} }
func (v *manifestValue) Attr(name string) (starlark.Value, error) {
	if name != "add_file" {
		return nil, nil
	}
	return starlark.NewBuiltin("add_file", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var path, content string
		var executable bool
		if err := starlark.UnpackArgs(b.Name(), args, kwargs,
			"path", &path, "content", &content, "executable?", &executable); err != nil {
			return nil, err
		}
		if v.frozen {
			return nil, fmt.Errorf("%s: cannot mutate frozen %s", b.Name(), v.Type())
		}
		v.manifest.AddFile(path, []byte(content), executable)
		return starlark.None, nil
	}).BindReceiver(v), nil
}

// bundleValue exposes a ResourceBundle to Starlark.
type bundleValue struct {
	bundle *artifacts.ResourceBundle
	frozen bool
}

func (v *bundleValue) String() string {
	return fmt.Sprintf("<resource_bundle with %d blobs>", len(v.bundle.Resources()))
}
func (v *bundleValue) Type() string                 { return artifacts.KindResourceBundle }
func (v *bundleValue) Freeze()                      { v.frozen = true }
func (v *bundleValue) Truth() starlark.Bool         { return starlark.True }
func (v *bundleValue) Hash() (uint32, error)        { return 0, fmt.Errorf("unhashable type: %s", v.Type()) }
func (v *bundleValue) descriptor() engine.Buildable { return v.bundle }
func (v *bundleValue) AttrNames() []string          { return []string{"add_resource"} }
func (v *bundleValue) Attr(name string) (starlark.Value, error) {
	if name != "add_resource" {
		return nil, nil
	}
	return starlark.NewBuiltin("add_resource", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var data string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "data", &data); err != nil {
			return nil, err
		}
		if v.frozen {
			return nil, fmt.Errorf("%s: cannot mutate frozen %s", b.Name(), v.Type())
		}
		v.bundle.AddResource([]byte(data))
		return starlark.None, nil
	}).BindReceiver(v), nil
}

// executableValue exposes an Executable and its interpreter configuration
// to Starlark through attribute assignment.
type executableValue struct {
	exe    *artifacts.Executable
	frozen bool
}

func (v *executableValue) String() string             { return fmt.Sprintf("<executable %q>", v.exe.Name) }
func (v *executableValue) Type() string               { return artifacts.KindExecutable }
func (v *executableValue) Freeze()                    { v.frozen = true }
func (v *executableValue) Truth() starlark.Bool       { return starlark.True }
func (v *executableValue) Hash() (uint32, error)      { return 0, fmt.Errorf("unhashable type: %s", v.Type()) }
func (v *executableValue) descriptor() engine.Buildable { return v.exe }

var executableFields = []string{
	"argvb",
	"filesystem_importer",
	"module_search_paths",
	"name",
	"oxidized_importer",
	"profile",
	"raw_allocator",
	"set_missing_path_configuration",
	"sys_frozen",
	"sys_meipass",
	"tcl_library",
	"terminfo_resolution",
	"write_modules_directory_env",
}

func (v *executableValue) AttrNames() []string {
	names := append([]string(nil), executableFields...)
	sort.Strings(names)
	return names
}

func (v *executableValue) Attr(name string) (starlark.Value, error) {
	cfg := &v.exe.Config
	switch name {
	case "name":
		return starlark.String(v.exe.Name), nil
	case "profile":
		return starlark.String(cfg.Interpreter.Profile), nil
	case "raw_allocator":
		return starlark.String(cfg.RawAllocator), nil
	case "set_missing_path_configuration":
		return starlark.Bool(cfg.SetMissingPathConfiguration), nil
	case "oxidized_importer":
		return starlark.Bool(cfg.OxidizedImporter), nil
	case "filesystem_importer":
		return starlark.Bool(cfg.FilesystemImporter), nil
	case "argvb":
		return starlark.Bool(cfg.Argvb), nil
	case "sys_frozen":
		return starlark.Bool(cfg.SysFrozen), nil
	case "sys_meipass":
		return starlark.Bool(cfg.SysMeipass), nil
	case "terminfo_resolution":
		return starlark.String(cfg.TerminfoResolution.Kind), nil
	case "tcl_library":
		return starlark.String(cfg.TclLibrary), nil
	case "write_modules_directory_env":
		return starlark.String(cfg.WriteModulesDirectoryEnv), nil
	case "module_search_paths":
		values := make([]starlark.Value, 0, len(cfg.Interpreter.ModuleSearchPaths))
		for _, p := range cfg.Interpreter.ModuleSearchPaths {
			values = append(values, starlark.String(p))
		}
		return starlark.NewList(values), nil
	}
	return nil, nil
}

func (v *executableValue) SetField(name string, val starlark.Value) error {
	if v.frozen {
		return fmt.Errorf("cannot set %s on frozen %s", name, v.Type())
	}

	cfg := &v.exe.Config
	switch name {
	case "name":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		v.exe.Name = s
	case "profile":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		switch interp.Profile(s) {
		case interp.ProfilePython, interp.ProfileIsolated:
			cfg.Interpreter.Profile = interp.Profile(s)
		default:
			return fmt.Errorf("unknown interpreter profile %q", s)
		}
	case "raw_allocator":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		switch interp.RawAllocator(s) {
		case interp.RawAllocatorSystem, interp.RawAllocatorJemalloc, interp.RawAllocatorDefault:
			cfg.RawAllocator = interp.RawAllocator(s)
		default:
			return fmt.Errorf("unknown raw allocator %q", s)
		}
	case "set_missing_path_configuration":
		return asBool(name, val, &cfg.SetMissingPathConfiguration)
	case "oxidized_importer":
		return asBool(name, val, &cfg.OxidizedImporter)
	case "filesystem_importer":
		return asBool(name, val, &cfg.FilesystemImporter)
	case "argvb":
		return asBool(name, val, &cfg.Argvb)
	case "sys_frozen":
		return asBool(name, val, &cfg.SysFrozen)
	case "sys_meipass":
		return asBool(name, val, &cfg.SysMeipass)
	case "terminfo_resolution":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		return setTerminfoResolution(cfg, s)
	case "tcl_library":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		cfg.TclLibrary = s
	case "write_modules_directory_env":
		s, err := asString(name, val)
		if err != nil {
			return err
		}
		cfg.WriteModulesDirectoryEnv = s
	case "module_search_paths":
		paths, err := asStringList(name, val)
		if err != nil {
			return err
		}
		cfg.Interpreter.ModuleSearchPaths = paths
	default:
		return starlark.NoSuchAttrError(fmt.Sprintf("%s has no field %q", v.Type(), name))
	}
	return nil
}

// setTerminfoResolution parses "dynamic", "none", or "static:<paths>".
func setTerminfoResolution(cfg *interp.OxidizedConfig, s string) error {
	switch {
	case s == string(interp.TerminfoDynamic):
		cfg.TerminfoResolution = interp.TerminfoResolution{Kind: interp.TerminfoDynamic}
	case s == string(interp.TerminfoNone):
		cfg.TerminfoResolution = interp.TerminfoResolution{Kind: interp.TerminfoNone}
	case strings.HasPrefix(s, string(interp.TerminfoStatic)+":"):
		cfg.TerminfoResolution = interp.TerminfoResolution{
			Kind: interp.TerminfoStatic,
			Path: strings.TrimPrefix(s, string(interp.TerminfoStatic)+":"),
		}
	default:
		return fmt.Errorf("unknown terminfo resolution %q", s)
	}
	return nil
}

func asString(field string, val starlark.Value) (string, error) {
	s, ok := starlark.AsString(val)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", field, val.Type())
	}
	return s, nil
}

func asBool(field string, val starlark.Value, dest *bool) error {
	b, ok := val.(starlark.Bool)
	if !ok {
		return fmt.Errorf("%s must be a bool, got %s", field, val.Type())
	}
	*dest = bool(b)
	return nil
}

func asStringList(field string, val starlark.Value) ([]string, error) {
	list, ok := val.(*starlark.List)
	if !ok {
		return nil, fmt.Errorf("%s must be a list of strings, got %s", field, val.Type())
	}
	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, ok := starlark.AsString(list.Index(i))
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, got %s", field, i, list.Index(i).Type())
		}
		out = append(out, s)
	}
	return out, nil
}
