package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/dbdesk/pkg/core"
)

// Catalog is a snapshot of the objects visible through the connection.
type Catalog struct {
	Schemas   []core.SchemaInfo   `json:"schemas"`
	Types     []core.TypeInfo     `json:"types"`
	Sequences []core.SequenceInfo `json:"sequences"`
}

// Catalog fetches schemas, types and sequences concurrently.
func (e *Engine) Catalog(ctx context.Context) (*Catalog, error) {
	var cat Catalog
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s, err := e.db.GetSchemas(gctx, e.conn)
		if err != nil {
			return fmt.Errorf("failed to list schemas: %w", err)
		}
		cat.Schemas = s
		return nil
	})
	g.Go(func() error {
		t, err := e.db.GetTypes(gctx, e.conn)
		if err != nil {
			return fmt.Errorf("failed to list types: %w", err)
		}
		cat.Types = t
		return nil
	})
	g.Go(func() error {
		s, err := e.db.GetSequences(gctx, e.conn)
		if err != nil {
			return fmt.Errorf("failed to list sequences: %w", err)
		}
		cat.Sequences = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Schemas lists schemas with their tables and views.
func (e *Engine) Schemas(ctx context.Context) ([]core.SchemaInfo, error) {
	return e.db.GetSchemas(ctx, e.conn)
}

// Types lists user-visible data types.
func (e *Engine) Types(ctx context.Context) ([]core.TypeInfo, error) {
	return e.db.GetTypes(ctx, e.conn)
}

// Sequences lists sequences.
func (e *Engine) Sequences(ctx context.Context) ([]core.SequenceInfo, error) {
	return e.db.GetSequences(ctx, e.conn)
}
