package aggregates

import (
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

// relationLoader fills one relation for an already loaded set of roots.
type relationLoader func(dbc dbctx.Context) error

// loadRelations runs loaders concurrently when no transaction is bound; a transaction pins
// one connection, so loaders inside one run in order.
func loadRelations(dbc dbctx.Context, loaders ...relationLoader) error {
	if len(loaders) == 0 {
		return nil
	}
	if dbc.Tx != nil || len(loaders) == 1 {
		for _, load := range loaders {
			if err := load(dbc); err != nil {
				return err
			}
		}
		return nil
	}
	g, gctx := errgroup.WithContext(dbc.Ctx)
	for _, load := range loaders {
		load := load
		g.Go(func() error {
			return load(dbctx.Context{Ctx: gctx})
		})
	}
	return g.Wait()
}

func groupBy[T any](rows []*T, key func(*T) string) map[string][]*T {
	out := make(map[string][]*T)
	for _, r := range rows {
		if r == nil {
			continue
		}
		k := key(r)
		out[k] = append(out[k], r)
	}
	return out
}

// orEmpty marks a requested relation as loaded even when it has no rows.
func orEmpty[T any](rows []*T) []*T {
	if rows == nil {
		return []*T{}
	}
	return rows
}

func idsOf[T any](rows []*T, id func(*T) string) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, id(r))
		}
	}
	return out
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// copyIDs returns a non-nil copy so an empty weak list reads back as [] rather than null.
func copyIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
