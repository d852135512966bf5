package loader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/philipparndt/goifc/pkg/ifc"
)

// Native loads models with the built-in STEP parser
type Native struct {
	Base   string
	Client *http.Client
	logger *zap.Logger
}

// NewNative creates a loader resolving identifiers against base
func NewNative(base string, logger *zap.Logger) *Native {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Native{Base: base, logger: logger.Named("loader")}
}

// Load fetches and parses the model for id
func (n *Native) Load(ctx context.Context, id string) (*ifc.Model, error) {
	location := ResolveURL(n.Base, id)
	data, err := Fetch(ctx, n.Client, location)
	if err != nil {
		return nil, err
	}
	n.logger.Debug("fetched model", zap.String("location", location), zap.Int("bytes", len(data)))

	model, err := ifc.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", location, err)
	}
	if len(model.Unsupported) > 0 {
		n.logger.Warn("skipped unsupported geometry",
			zap.String("location", location),
			zap.Any("items", model.Unsupported))
	}
	return model, nil
}

// Close is a no-op
func (n *Native) Close(context.Context) error {
	return nil
}
