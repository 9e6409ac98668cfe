package artifacts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oxbuild/oxbuild/pkg/engine"
)

// KindResourceBundle is the artifact kind name for packed resource bundles.
const KindResourceBundle = "resource_bundle"

// ResourceBundle holds packed-resource buffers destined for embedding into
// an executable. The buffers are borrowed, not copied; callers keep them
// alive until the bundle is built. The packed binary layout itself is
// produced upstream and treated as opaque here.
type ResourceBundle struct {
	blobs [][]byte
}

// NewResourceBundle creates an empty bundle.
func NewResourceBundle() *ResourceBundle {
	return &ResourceBundle{}
}

// AddResource appends a packed-resource buffer.
func (b *ResourceBundle) AddResource(blob []byte) {
	b.blobs = append(b.blobs, blob)
}

// Resources returns the borrowed buffers in insertion order.
func (b *ResourceBundle) Resources() [][]byte {
	return b.blobs
}

// Kind implements engine.Buildable.
func (b *ResourceBundle) Kind() string { return KindResourceBundle }

// Build writes each packed-resource buffer into the output directory as
// packed-resources-<n>. Bundles are never runnable.
func (b *ResourceBundle) Build(_ context.Context, bc *engine.BuildContext) (*engine.ResolvedTarget, error) {
	paths := make([]string, 0, len(b.blobs))
	for i, blob := range b.blobs {
		dest := filepath.Join(bc.OutputPath, fmt.Sprintf("packed-resources-%d", i))
		if err := os.WriteFile(dest, blob, 0o644); err != nil {
			return nil, fmt.Errorf("writing packed resources: %w", err)
		}
		paths = append(paths, dest)
	}

	return &engine.ResolvedTarget{
		OutputPath: bc.OutputPath,
		Paths:      paths,
		Run:        engine.RunMode{Mode: engine.RunModeNone},
	}, nil
}
