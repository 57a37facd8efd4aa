package railway

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/rushhourgame/railnet/internal/domain"
	"github.com/rushhourgame/railnet/internal/platform/dbctx"
)

// InChunkSize bounds the number of ids bound into one IN (...) list.
const InChunkSize = 500

// Chunk splits ids into IN-list sized batches.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 {
		size = InChunkSize
	}
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// Dedupe drops blanks and repeats while keeping first-seen order.
func Dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
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

func applyOrder(q *gorm.DB, orders []types.Order, allowed map[string]bool, defaults ...string) (*gorm.DB, error) {
	if len(orders) == 0 {
		for _, col := range defaults {
			q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}})
		}
		return q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}), nil
	}
	for _, o := range orders {
		col := strings.ToLower(strings.TrimSpace(o.Column))
		if !allowed[col] {
			return nil, fmt.Errorf("%w: unsupported order column %q", types.ErrInvalid, o.Column)
		}
		q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: o.Desc})
	}
	return q.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}), nil
}

func applyPage(q *gorm.DB, p types.Page) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// ownedRows is the shared persistence for child tables keyed by their owning root.
type ownedRows[T any] struct {
	db          *gorm.DB
	ownerColumn string
	orderColumn string
}

func (o ownedRows[T]) create(dbc dbctx.Context, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(o.db).Omit(clause.Associations).Create(&rows).Error
}

func (o ownedRows[T]) listByOwnerIDs(dbc dbctx.Context, ownerIDs []string) ([]*T, error) {
	var out []*T
	ownerIDs = Dedupe(ownerIDs)
	if len(ownerIDs) == 0 {
		return out, nil
	}
	for _, ids := range Chunk(ownerIDs, InChunkSize) {
		var rows []*T
		q := dbc.DB(o.db).Where(o.ownerColumn+" IN ?", ids).Order(o.ownerColumn)
		if o.orderColumn != "" {
			q = q.Order(o.orderColumn)
		}
		if err := q.Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (o ownedRows[T]) deleteByOwnerIDs(dbc dbctx.Context, ownerIDs []string) (int64, error) {
	ownerIDs = Dedupe(ownerIDs)
	if len(ownerIDs) == 0 {
		return 0, nil
	}
	var total int64
	for _, ids := range Chunk(ownerIDs, InChunkSize) {
		res := dbc.DB(o.db).Where(o.ownerColumn+" IN ?", ids).Delete(new(T))
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

// roots is the shared persistence for aggregate root tables.
type roots[T any] struct {
	db *gorm.DB
}

func (r roots[T]) create(dbc dbctx.Context, rows []*T) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Omit(clause.Associations).Create(&rows).Error
}

func (r roots[T]) getByIDs(dbc dbctx.Context, ids []string) ([]*T, error) {
	var out []*T
	ids = Dedupe(ids)
	if len(ids) == 0 {
		return out, nil
	}
	for _, part := range Chunk(ids, InChunkSize) {
		var rows []*T
		if err := dbc.DB(r.db).Where("id IN ?", part).Order("id").Find(&rows).Error; err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func (r roots[T]) existsByID(dbc dbctx.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	var count int64
	if err := dbc.DB(r.db).Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r roots[T]) deleteByIDs(dbc dbctx.Context, ids []string) (int64, error) {
	ids = Dedupe(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("id IN ?", ids).Delete(new(T))
	return res.RowsAffected, res.Error
}

func (r roots[T]) find(dbc dbctx.Context, build func(q *gorm.DB) (*gorm.DB, error)) ([]*T, error) {
	q, err := build(dbc.DB(r.db).Model(new(T)))
	if err != nil {
		return nil, err
	}
	var out []*T
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// subquery starts a condition-free statement on the same connection for IN (SELECT ...) filters.
func subquery(q *gorm.DB) *gorm.DB {
	return q.Session(&gorm.Session{NewDB: true})
}
