// Package loader turns model identifiers into parsed IFC models, either with the
// built-in parser or through a WASM plugin.
package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/philipparndt/goifc/pkg/ifc"
)

// Loader loads the model behind an identifier and owns any resources needed for it
type Loader interface {
	Load(ctx context.Context, id string) (*ifc.Model, error)
	Close(ctx context.Context) error
}

// Open returns the WASM loader when pluginPath is set, otherwise the native one
func Open(ctx context.Context, base, pluginPath string, logger *zap.Logger) (Loader, error) {
	if pluginPath != "" {
		return NewWasm(ctx, base, pluginPath, logger)
	}
	return NewNative(base, logger), nil
}
