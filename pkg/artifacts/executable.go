package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oxbuild/oxbuild/pkg/engine"
	"github.com/oxbuild/oxbuild/pkg/interp"
)

// KindExecutable is the artifact kind name for interpreter executables.
const KindExecutable = "executable"

// Executable synthesizes a standalone binary embedding a configured
// interpreter runtime. The interpreter configuration stays a mutable
// builder until Build resolves it; the embedding wire format is owned by
// this handler.
type Executable struct {
	// Name is the produced binary's base name.
	Name string

	// Config is the interpreter configuration to embed. Resolved at build
	// time; $ORIGIN templating refers to the produced binary's directory
	// at runtime, so Exe and Origin are usually left unset here.
	Config interp.OxidizedConfig

	// Bundle supplies packed resources to embed, if any.
	Bundle *ResourceBundle
}

// NewExecutable creates an executable artifact with default interpreter
// settings and the in-binary importer enabled.
func NewExecutable(name string) *Executable {
	cfg := interp.NewOxidizedConfig()
	cfg.OxidizedImporter = true
	return &Executable{
		Name:   name,
		Config: cfg,
	}
}

// Kind implements engine.Buildable.
func (e *Executable) Kind() string { return KindExecutable }

// Build resolves the interpreter configuration and links it, together with
// any packed resources, into the synthesized binary. The resolved
// configuration is also written beside the binary for inspection.
func (e *Executable) Build(_ context.Context, bc *engine.BuildContext) (*engine.ResolvedTarget, error) {
	if e.Name == "" {
		return nil, fmt.Errorf("executable artifact has no name")
	}

	cfg := e.Config
	if e.Bundle != nil {
		cfg.PackedResources = append(cfg.PackedResources, e.Bundle.Resources()...)
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolving interpreter configuration: %w", err)
	}

	configData, err := json.MarshalIndent(resolved.Config(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding interpreter configuration: %w", err)
	}
	configPath := filepath.Join(bc.OutputPath, e.Name+".interpreter.json")
	if err := os.WriteFile(configPath, configData, 0o644); err != nil {
		return nil, fmt.Errorf("writing interpreter configuration: %w", err)
	}

	binPath := filepath.Join(bc.OutputPath, e.Name)
	if err := e.synthesize(bc, binPath, resolved); err != nil {
		return nil, fmt.Errorf("synthesizing executable: %w", err)
	}

	bc.Logger.Debug().
		Str("exe", binPath).
		Str("profile", string(resolved.Config().Interpreter.Profile)).
		Bool("release", bc.Release).
		Msg("synthesized interpreter executable")

	return &engine.ResolvedTarget{
		OutputPath: bc.OutputPath,
		Paths:      []string{binPath, configPath},
		Run:        engine.RunMode{Mode: engine.RunModePath, Path: binPath},
	}, nil
}

// synthesize emits the binary with the resolved configuration and packed
// resources appended in the embedding format: the runtime loader locates
// them through a trailing footer at process start.
func (e *Executable) synthesize(bc *engine.BuildContext, binPath string, resolved *interp.ResolvedOxidizedConfig) error {
	f, err := os.OpenFile(binPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg := resolved.Config()
	payload := embeddedPayload{
		Name:            e.Name,
		TargetTriple:    bc.TargetTriple,
		OptLevel:        bc.OptLevel,
		Config:          cfg,
		ResourceLengths: make([]int, 0, len(cfg.PackedResources)),
	}
	for _, blob := range cfg.PackedResources {
		payload.ResourceLengths = append(payload.ResourceLengths, len(blob))
	}

	enc := json.NewEncoder(f)
	if err := enc.Encode(&payload); err != nil {
		return err
	}
	for _, blob := range cfg.PackedResources {
		if _, err := f.Write(blob); err != nil {
			return err
		}
	}
	return nil
}

type embeddedPayload struct {
	Name            string                `json:"name"`
	TargetTriple    string                `json:"target_triple"`
	OptLevel        string                `json:"opt_level"`
	Config          interp.OxidizedConfig `json:"config"`
	ResourceLengths []int                 `json:"resource_lengths"`
}
