package edges

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rushhourgame/railnet/internal/observability"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

// Lookup is the batched root read a store exposes. Missing ids are skipped.
type Lookup[T any] interface {
	GetByIDs(ctx context.Context, ids []string) ([]*T, error)
}

type Options struct {
	Cache   Cache
	Metrics *observability.Metrics
	Log     *logger.Logger
}

// Resolver turns weak reference ids into roots. A dangling id is never an error.
type Resolver[T any] struct {
	aggregate string
	lookup    Lookup[T]
	idOf      func(*T) string
	cache     Cache
	metrics   *observability.Metrics
	log       *logger.Logger
}

func NewResolver[T any](aggregate string, lookup Lookup[T], idOf func(*T) string, opts Options) *Resolver[T] {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver[T]{
		aggregate: aggregate,
		lookup:    lookup,
		idOf:      idOf,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		log:       log.With("resolver", aggregate),
	}
}

// Resolve reports found=false for an empty or dangling id.
func (r *Resolver[T]) Resolve(ctx context.Context, id string) (*T, bool, error) {
	out, err := r.ResolveAll(ctx, []string{id})
	if err != nil {
		return nil, false, err
	}
	if len(out) == 0 {
		return nil, false, nil
	}
	return out[0], true, nil
}

// ResolveAll returns the present roots in first-seen order of ids, each at most once.
// Cache misses are fetched with a single batched lookup.
func (r *Resolver[T]) ResolveAll(ctx context.Context, ids []string) ([]*T, error) {
	want := distinct(ids)
	if len(want) == 0 {
		return []*T{}, nil
	}

	found := make(map[string]*T, len(want))
	missing := r.fromCache(ctx, want, found)

	if len(missing) > 0 {
		gens := r.generations(ctx, missing)
		rows, err := r.lookup.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		fresh := make(map[string]*T, len(rows))
		for _, row := range rows {
			if row == nil {
				continue
			}
			id := r.idOf(row)
			found[id] = row
			fresh[id] = row
		}
		r.toCache(ctx, fresh, gens)
	}

	out := make([]*T, 0, len(want))
	for _, id := range want {
		row, ok := found[id]
		r.metrics.IncEdgeResolution(r.aggregate, ok)
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// fromCache fills found and returns the ids still to fetch. Cache failures degrade to misses.
func (r *Resolver[T]) fromCache(ctx context.Context, ids []string, found map[string]*T) []string {
	if r.cache == nil {
		return ids
	}
	hits, err := r.cache.Get(ctx, keys(r.aggregate, ids))
	if err != nil {
		r.log.Warn("edge cache read failed", "error", err)
		hits = nil
	}
	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		raw, ok := hits[Key(r.aggregate, id)]
		if ok {
			var row T
			if err := json.Unmarshal(raw, &row); err == nil {
				found[id] = &row
				r.metrics.IncEdgeCache(r.aggregate, true)
				continue
			}
			r.log.Warn("edge cache entry undecodable", "id", id)
		}
		r.metrics.IncEdgeCache(r.aggregate, false)
		missing = append(missing, id)
	}
	return missing
}

// generations is read before the lookup so that toCache can detect an eviction racing it.
// A nil result disables the fill.
func (r *Resolver[T]) generations(ctx context.Context, ids []string) map[string]int64 {
	if r.cache == nil {
		return nil
	}
	gens, err := r.cache.Generations(ctx, keys(r.aggregate, ids))
	if err != nil {
		r.log.Warn("edge cache generation read failed", "error", err)
		return nil
	}
	return gens
}

func (r *Resolver[T]) toCache(ctx context.Context, rows map[string]*T, gens map[string]int64) {
	if r.cache == nil || len(rows) == 0 || gens == nil {
		return
	}
	items := make(map[string][]byte, len(rows))
	for id, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			r.log.Warn("edge cache encode failed", "id", id, "error", err)
			continue
		}
		items[Key(r.aggregate, id)] = raw
	}
	if err := r.cache.Fill(ctx, items, gens); err != nil {
		r.log.Warn("edge cache write failed", "error", err)
	}
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
