package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oxbuild/oxbuild/pkg/engine"
)

// KindFileManifest is the artifact kind name for file manifests.
const KindFileManifest = "file_manifest"

// FileEntry is one file in a manifest.
type FileEntry struct {
	// Path is the destination path, relative to the install root.
	Path string `yaml:"path"`

	// Data is the file content.
	Data []byte `yaml:"-"`

	// Executable marks the file executable on install.
	Executable bool `yaml:"executable"`
}

// FileManifest is a collection of files materialized relative to a common
// install root. Entries keep insertion order.
type FileManifest struct {
	entries []FileEntry
}

// NewFileManifest creates an empty manifest.
func NewFileManifest() *FileManifest {
	return &FileManifest{}
}

// AddFile adds or replaces a file at path.
func (m *FileManifest) AddFile(path string, data []byte, executable bool) {
	for i := range m.entries {
		if m.entries[i].Path == path {
			m.entries[i].Data = data
			m.entries[i].Executable = executable
			return
		}
	}
	m.entries = append(m.entries, FileEntry{Path: path, Data: data, Executable: executable})
}

// Entries returns the manifest entries in insertion order.
func (m *FileManifest) Entries() []FileEntry {
	return m.entries
}

// Kind implements engine.Buildable.
func (m *FileManifest) Kind() string { return KindFileManifest }

// Build materializes the manifest under the build output directory and
// writes a manifest.yaml index beside the installed files. The target is
// runnable when the manifest contains exactly one executable entry.
func (m *FileManifest) Build(_ context.Context, bc *engine.BuildContext) (*engine.ResolvedTarget, error) {
	installed := make([]string, 0, len(m.entries))
	var executables []string

	for _, entry := range m.entries {
		dest := filepath.Join(bc.OutputPath, entry.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, fmt.Errorf("creating directory for %s: %w", entry.Path, err)
		}

		mode := os.FileMode(0o644)
		if entry.Executable {
			mode = 0o755
			executables = append(executables, dest)
		}
		if err := os.WriteFile(dest, entry.Data, mode); err != nil {
			return nil, fmt.Errorf("writing %s: %w", entry.Path, err)
		}
		installed = append(installed, dest)
	}

	index := manifestIndex{
		GeneratedAt: time.Now().UTC(),
		Files:       m.entries,
	}
	indexData, err := yaml.Marshal(&index)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest index: %w", err)
	}
	indexPath := filepath.Join(bc.OutputPath, "manifest.yaml")
	if err := os.WriteFile(indexPath, indexData, 0o644); err != nil {
		return nil, fmt.Errorf("writing manifest index: %w", err)
	}

	run := engine.RunMode{Mode: engine.RunModeNone}
	if len(executables) == 1 {
		run = engine.RunMode{Mode: engine.RunModePath, Path: executables[0]}
	}

	return &engine.ResolvedTarget{
		OutputPath: bc.OutputPath,
		Paths:      append(installed, indexPath),
		Run:        run,
	}, nil
}

type manifestIndex struct {
	GeneratedAt time.Time   `yaml:"generated_at"`
	Files       []FileEntry `yaml:"files"`
}
