package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/rushhourgame/railnet/internal/data/aggregates"
	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/logger"
	"github.com/rushhourgame/railnet/internal/platform/neo4jdb"
)

// statement is one parameterized Cypher write.
type statement struct {
	cypher string
	params map[string]any
}

var schemaStatements = []string{
	`CREATE CONSTRAINT rail_track_id_unique IF NOT EXISTS FOR (t:Track) REQUIRE t.id IS UNIQUE`,
	`CREATE CONSTRAINT rail_junction_id_unique IF NOT EXISTS FOR (j:Junction) REQUIRE j.id IS UNIQUE`,
	`CREATE CONSTRAINT rail_signal_id_unique IF NOT EXISTS FOR (s:Signal) REQUIRE s.id IS UNIQUE`,
	`CREATE CONSTRAINT rail_station_id_unique IF NOT EXISTS FOR (s:Station) REQUIRE s.id IS UNIQUE`,
}

// NetworkProjector mirrors committed track and station writes into Neo4j as a traversable graph:
// (:Junction)-[:TRACK]->(:Junction), (:Signal)-[:PROTECTS]->(:Track), (:Station)-[:CONNECTS]->(:Track).
// A nil client makes it a no-op.
type NetworkProjector struct {
	client *neo4jdb.Client
	log    *logger.Logger
	now    func() time.Time
}

var _ aggregates.ChangeListener = (*NetworkProjector)(nil)

func NewNetworkProjector(client *neo4jdb.Client, log *logger.Logger) *NetworkProjector {
	if log == nil {
		log = logger.Nop()
	}
	return &NetworkProjector{
		client: client,
		log:    log.With("projector", "RailNetwork"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (p *NetworkProjector) Enabled() bool {
	return p != nil && p.client != nil && p.client.Driver != nil
}

// EnsureSchema creates uniqueness constraints. Failures are logged; restricted users may lack the privilege.
func (p *NetworkProjector) EnsureSchema(ctx context.Context) {
	if !p.Enabled() {
		return
	}
	for _, cypher := range schemaStatements {
		err := p.client.Write(ctx, func(tx neo4j.ManagedTransaction) error {
			return run(ctx, tx, statement{cypher: cypher})
		})
		if err != nil {
			p.log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	}
}

func (p *NetworkProjector) RootChanged(ctx context.Context, change aggregates.Change) error {
	if !p.Enabled() {
		return nil
	}
	stmts := p.plan(change)
	if len(stmts) == 0 {
		return nil
	}
	return p.client.Write(ctx, func(tx neo4j.ManagedTransaction) error {
		for _, st := range stmts {
			if err := run(ctx, tx, st); err != nil {
				return err
			}
		}
		return nil
	})
}

func run(ctx context.Context, tx neo4j.ManagedTransaction, st statement) error {
	res, err := tx.Run(ctx, st.cypher, st.params)
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func (p *NetworkProjector) plan(change aggregates.Change) []statement {
	switch change.Aggregate {
	case aggregates.AggregateTrack:
		if change.Deleted {
			return []statement{deleteTracks(change.IDs)}
		}
		if t, ok := change.Root.(*types.Track); ok && t != nil {
			return p.upsertTrack(t)
		}
	case aggregates.AggregateStation:
		if change.Deleted {
			return []statement{deleteStations(change.IDs)}
		}
		if s, ok := change.Root.(*types.Station); ok && s != nil {
			return p.upsertStation(s)
		}
	}
	return nil
}

func (p *NetworkProjector) upsertTrack(t *types.Track) []statement {
	synced := p.now().Format(time.RFC3339Nano)
	node := map[string]any{
		"id":        t.ID,
		"owner_id":  t.OwnerID,
		"length":    t.Length,
		"max_speed": t.MaxSpeed,
		"version":   t.Version,
		"synced_at": synced,
	}
	out := []statement{{
		cypher: `
MERGE (t:Track {id: $track.id})
SET t += $track
WITH DISTINCT t
OPTIONAL MATCH ()-[old:TRACK {track_id: t.id}]->()
DELETE old
WITH DISTINCT t
OPTIONAL MATCH (t)-[b:BOUND_BY]->(:Junction)
DELETE b
`,
		params: map[string]any{"track": node},
	}}

	ends := make([]map[string]any, 0, 2)
	if t.StartJunctionID != nil && *t.StartJunctionID != "" {
		ends = append(ends, map[string]any{"junction_id": *t.StartJunctionID, "end": "start"})
	}
	if t.EndJunctionID != nil && *t.EndJunctionID != "" {
		ends = append(ends, map[string]any{"junction_id": *t.EndJunctionID, "end": "end"})
	}
	if len(ends) > 0 {
		out = append(out, statement{
			cypher: `
MATCH (t:Track {id: $track_id})
UNWIND $ends AS e
MERGE (j:Junction {id: e.junction_id})
MERGE (t)-[b:BOUND_BY {end: e.end}]->(j)
`,
			params: map[string]any{"track_id": t.ID, "ends": ends},
		})
	}
	if len(ends) == 2 {
		out = append(out, statement{
			cypher: `
MATCH (a:Junction {id: $from_id})
MATCH (b:Junction {id: $to_id})
MERGE (a)-[e:TRACK {track_id: $track.id}]->(b)
SET e.length = $track.length,
    e.max_speed = $track.max_speed,
    e.synced_at = $track.synced_at
`,
			params: map[string]any{"from_id": *t.StartJunctionID, "to_id": *t.EndJunctionID, "track": node},
		})
	}

	// Signals are only rewritten when the write carried them.
	if t.Signals == nil {
		return out
	}
	signals := make([]map[string]any, 0, len(t.Signals))
	protects := make([]map[string]any, 0)
	for _, s := range t.Signals {
		if s == nil || s.ID == "" {
			continue
		}
		signals = append(signals, map[string]any{
			"id":          s.ID,
			"signal_type": string(s.SignalType),
			"main_line":   s.SignalType.IsMainLine(),
			"synced_at":   synced,
		})
		for i, id := range s.ProtectedTrackIDs {
			protects = append(protects, map[string]any{"signal_id": s.ID, "track_id": id, "sequence_order": int64(i)})
		}
	}
	out = append(out, statement{
		cypher: `
MATCH (t:Track {id: $track_id})
OPTIONAL MATCH (t)-[:HAS_SIGNAL]->(s:Signal)
DETACH DELETE s
`,
		params: map[string]any{"track_id": t.ID},
	})
	if len(signals) > 0 {
		out = append(out, statement{
			cypher: `
MATCH (t:Track {id: $track_id})
UNWIND $signals AS sig
MERGE (s:Signal {id: sig.id})
SET s += sig
MERGE (t)-[:HAS_SIGNAL]->(s)
`,
			params: map[string]any{"track_id": t.ID, "signals": signals},
		})
	}
	if len(protects) > 0 {
		out = append(out, statement{
			cypher: `
UNWIND $protects AS p
MATCH (s:Signal {id: p.signal_id})
MERGE (t:Track {id: p.track_id})
MERGE (s)-[r:PROTECTS {sequence_order: p.sequence_order}]->(t)
`,
			params: map[string]any{"protects": protects},
		})
	}
	return out
}

func (p *NetworkProjector) upsertStation(s *types.Station) []statement {
	connects := make([]map[string]any, 0, len(s.ConnectedTrackIDs))
	for i, id := range s.ConnectedTrackIDs {
		connects = append(connects, map[string]any{"track_id": id, "sequence_order": int64(i)})
	}
	out := []statement{{
		cypher: `
MERGE (s:Station {id: $station.id})
SET s += $station
WITH DISTINCT s
OPTIONAL MATCH (s)-[c:CONNECTS]->(:Track)
DELETE c
`,
		params: map[string]any{"station": map[string]any{
			"id":             s.ID,
			"name":           s.Name,
			"owner_id":       s.OwnerID,
			"total_capacity": int64(s.TotalCapacity),
			"version":        s.Version,
			"synced_at":      p.now().Format(time.RFC3339Nano),
		}},
	}}
	if len(connects) > 0 {
		out = append(out, statement{
			cypher: `
MATCH (s:Station {id: $station_id})
UNWIND $connects AS c
MERGE (t:Track {id: c.track_id})
MERGE (s)-[:CONNECTS {sequence_order: c.sequence_order}]->(t)
`,
			params: map[string]any{"station_id": s.ID, "connects": connects},
		})
	}
	return out
}

// deleteTracks removes the track nodes, their signals and junction edges. Junctions stay, as other
// tracks may end there, and protecting signals on other tracks lose only their edge.
func deleteTracks(ids []string) statement {
	return statement{
		cypher: `
UNWIND $ids AS id
OPTIONAL MATCH ()-[e:TRACK {track_id: id}]->()
DELETE e
WITH DISTINCT id
OPTIONAL MATCH (t:Track {id: id})
OPTIONAL MATCH (t)-[:HAS_SIGNAL]->(s:Signal)
DETACH DELETE s, t
`,
		params: map[string]any{"ids": ids},
	}
}

func deleteStations(ids []string) statement {
	return statement{
		cypher: `
UNWIND $ids AS id
MATCH (s:Station {id: id})
DETACH DELETE s
`,
		params: map[string]any{"ids": ids},
	}
}
