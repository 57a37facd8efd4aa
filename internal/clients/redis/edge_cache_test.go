package redis

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
	"github.com/rushhourgame/railnet/internal/data/edges"
	"github.com/rushhourgame/railnet/internal/platform/logger"
)

func TestNewEdgeCacheUnconfigured(t *testing.T) {
	c, err := NewEdgeCache(logger.Nop(), Config{})
	if err != nil || c != nil {
		t.Fatalf("empty addr should give nil cache: c=%v err=%v", c, err)
	}
	if _, err := NewEdgeCache(nil, Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("nil logger should be rejected")
	}
}

func TestNilEdgeCacheFails(t *testing.T) {
	var c *EdgeCache
	if _, err := c.Get(context.Background(), []string{"k"}); err == nil {
		t.Fatalf("nil cache Get should fail")
	}
	if err := c.Fill(context.Background(), nil, nil); err == nil {
		t.Fatalf("nil cache Fill should fail")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil cache Close: %v", err)
	}
}

func TestEdgeCacheIntegration(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		t.Skip("set REDIS_ADDR to run Redis integration tests")
	}
	c, err := NewEdgeCache(logger.Nop(), Config{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	agg := "it_" + uuid.NewString()
	k1, k2 := edges.Key(agg, "a"), edges.Key(agg, "b")
	gens, err := c.Generations(ctx, []string{k1, k2})
	if err != nil || gens[k1] != 0 || gens[k2] != 0 {
		t.Fatalf("generations: got=%v err=%v", gens, err)
	}
	if err := c.Fill(ctx, map[string][]byte{k1: []byte(`{"id":"a"}`)}, gens); err != nil {
		t.Fatalf("fill: %v", err)
	}
	got, err := c.Get(ctx, []string{k1, k2})
	if err != nil || len(got) != 1 || string(got[k1]) != `{"id":"a"}` {
		t.Fatalf("get: got=%v err=%v", got, err)
	}

	inv := edges.NewInvalidator(c)
	if err := inv.RootChanged(ctx, aggregates.Change{Aggregate: agg, IDs: []string{"a"}}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	got, err = c.Get(ctx, []string{k1})
	if err != nil || len(got) != 0 {
		t.Fatalf("after invalidate: got=%v err=%v", got, err)
	}

	// The generation read before the eviction no longer admits a fill.
	if err := c.Fill(ctx, map[string][]byte{k1: []byte(`{"id":"stale"}`)}, gens); err != nil {
		t.Fatalf("stale fill: %v", err)
	}
	if got, _ := c.Get(ctx, []string{k1}); len(got) != 0 {
		t.Fatalf("stale fill landed: %v", got)
	}
	fresh, err := c.Generations(ctx, []string{k1})
	if err != nil || fresh[k1] != 1 {
		t.Fatalf("generation after evict: got=%v err=%v", fresh, err)
	}
	if err := c.Fill(ctx, map[string][]byte{k1: []byte(`{"id":"a2"}`)}, fresh); err != nil {
		t.Fatalf("fresh fill: %v", err)
	}
	if got, _ := c.Get(ctx, []string{k1}); string(got[k1]) != `{"id":"a2"}` {
		t.Fatalf("fresh fill missing: %v", got)
	}
}
