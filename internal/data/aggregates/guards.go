package aggregates

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

// CASGuard provides optimistic/concurrency guard helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateByVersion updates a row only when id+version match.
// It implements compare-and-set semantics commonly used for optimistic locking.
func (g CASGuard) UpdateByVersion(dbc dbctx.Context, table, id string, expectedVersion int64, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || strings.TrimSpace(id) == "" {
		return false, ValidationError("table and id are required for UpdateByVersion")
	}
	if expectedVersion < 1 {
		return false, ValidationError("expected version must be >= 1")
	}
	res := db.Table(table).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RowExists reports whether table holds a row with id.
func (g CASGuard) RowExists(dbc dbctx.Context, table, id string) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	var n int64
	if err := db.Table(strings.TrimSpace(table)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateRoot applies updates to an aggregate root guarded by its version. A missing row
// yields gorm.ErrRecordNotFound; a version mismatch yields a conflict.
func (g CASGuard) UpdateRoot(dbc dbctx.Context, table, id string, expectedVersion int64, updates map[string]any) error {
	ok, err := g.UpdateByVersion(dbc, table, id, expectedVersion, updates)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	exists, err := g.RowExists(dbc, table, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s %s: %w", table, id, gorm.ErrRecordNotFound)
	}
	return RequireCASSuccess(false, fmt.Sprintf("%s %s: stale version %d", table, id, expectedVersion))
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
