package reference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Opener reads an artifact from a local path or object storage location.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Open builds the Store for the configured source. A dataset that cannot be
// read or parsed is logged and replaced by Degraded so the service can still
// start and report its state.
func Open(ctx context.Context, opener Opener, source, location string, scale Scale, logger *slog.Logger) *Store {
	switch source {
	case SourceStatic, "":
		logger.Info("reference data loaded", "source", SourceStatic)
		return NewStatic()
	case SourceDataset:
		store, err := openDataset(ctx, opener, location, scale)
		if err != nil {
			logger.Error("reference dataset unavailable, running degraded",
				"location", location, "error", err)
			return Degraded()
		}
		logger.Info("reference data loaded",
			"source", SourceDataset,
			"location", location,
			"scale", scale,
			"districts", len(store.scores),
		)
		return store
	default:
		logger.Error("unknown reference source, running degraded", "source", source)
		return Degraded()
	}
}

func openDataset(ctx context.Context, opener Opener, location string, scale Scale) (*Store, error) {
	rc, err := opener.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	store, err := LoadDataset(rc, scale)
	if err != nil {
		return nil, fmt.Errorf("load dataset %s: %w", location, err)
	}
	return store, nil
}
