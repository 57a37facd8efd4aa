package observability

import (
	"sync/atomic"

	"gorm.io/gorm"
)

// QueryCounter is a GORM plugin counting every statement the ORM sends to the database.
// Tests use it to assert batched relation loading; in production it feeds Metrics.
type QueryCounter struct {
	total   atomic.Int64
	metrics *Metrics
}

func NewQueryCounter(metrics *Metrics) *QueryCounter {
	return &QueryCounter{metrics: metrics}
}

func (c *QueryCounter) Name() string { return "railnet:query_counter" }

func (c *QueryCounter) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().After("gorm:query").Register("railnet:count_query", c.observe("query")); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("railnet:count_create", c.observe("create")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("railnet:count_update", c.observe("update")); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("railnet:count_delete", c.observe("delete")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("railnet:count_row", c.observe("row")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("railnet:count_raw", c.observe("raw"))
}

func (c *QueryCounter) observe(kind string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.DryRun || db.Statement == nil || db.Statement.SQL.Len() == 0 {
			return
		}
		c.total.Add(1)
		c.metrics.IncDBStatement(kind)
	}
}

// Count returns the number of statements seen since the last Reset.
func (c *QueryCounter) Count() int64 { return c.total.Load() }

func (c *QueryCounter) Reset() { c.total.Store(0) }
