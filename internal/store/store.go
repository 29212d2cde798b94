// Package store is a small document-collection layer over gorm: insert with
// generated ids, get by id, partial update, delete and filtered queries with a
// single ordering field.
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned by Update and Delete when no document has the id.
	ErrNotFound = errors.New("store: document not found")
	// ErrUnknownOp is returned for a filter with an unsupported operator.
	ErrUnknownOp = errors.New("store: unknown filter operator")
	// ErrBadField is returned when a filter or ordering names an invalid column.
	ErrBadField = errors.New("store: invalid field name")
)

var fieldRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Identified is implemented by every document (through models.Base).
type Identified interface {
	GetID() string
}

// Collection gives typed access to one table.
type Collection[T any] struct {
	db *gorm.DB
}

// New returns a collection for T backed by db.
func New[T any](db *gorm.DB) *Collection[T] {
	return &Collection[T]{db: db}
}

// Insert writes doc and returns its generated id.
func (c *Collection[T]) Insert(ctx context.Context, doc *T) (string, error) {
	if err := c.db.WithContext(ctx).Create(doc).Error; err != nil {
		return "", fmt.Errorf("insert %s: %w", c.name(), err)
	}
	if d, ok := any(doc).(Identified); ok {
		return d.GetID(), nil
	}
	return "", nil
}

// Get returns the document with id, or nil when it does not exist.
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.db.WithContext(ctx).Where("id = ?", id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", c.name(), id, err)
	}
	return &doc, nil
}

// Update merges fields (column name to value) into the document with id.
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) error {
	for k := range fields {
		if !fieldRe.MatchString(k) {
			return fmt.Errorf("%w: %q", ErrBadField, k)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	res := c.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update %s %s: %w", c.name(), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update %s %s: %w", c.name(), id, ErrNotFound)
	}
	return nil
}

// Delete removes the document with id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s %s: %w", c.name(), id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete %s %s: %w", c.name(), id, ErrNotFound)
	}
	return nil
}

// DeleteWhere removes every document matching filters and returns the count.
func (c *Collection[T]) DeleteWhere(ctx context.Context, filters ...Filter) (int64, error) {
	if len(filters) == 0 {
		return 0, fmt.Errorf("delete %s: refusing to delete without filters", c.name())
	}
	tx := c.db.WithContext(ctx)
	for _, f := range filters {
		expr, err := f.expr()
		if err != nil {
			return 0, err
		}
		tx = tx.Where(expr)
	}
	res := tx.Delete(new(T))
	if res.Error != nil {
		return 0, fmt.Errorf("delete %s: %w", c.name(), res.Error)
	}
	return res.RowsAffected, nil
}

// Query returns the documents matching q.
func (c *Collection[T]) Query(ctx context.Context, q Query) ([]T, error) {
	tx := c.db.WithContext(ctx).Model(new(T))
	for _, f := range q.Filters {
		expr, err := f.expr()
		if err != nil {
			return nil, err
		}
		tx = tx.Where(expr)
	}
	if q.OrderBy != "" {
		if !fieldRe.MatchString(q.OrderBy) {
			return nil, fmt.Errorf("%w: %q", ErrBadField, q.OrderBy)
		}
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.OrderBy}, Desc: q.Desc})
		// id breaks ties so results are deterministic
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	var out []T
	if err := tx.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", c.name(), err)
	}
	return out, nil
}

// All returns every document ordered by orderBy (ascending).
func (c *Collection[T]) All(ctx context.Context, orderBy string) ([]T, error) {
	return c.Query(ctx, Query{OrderBy: orderBy})
}

func (c *Collection[T]) name() string {
	if t, ok := any(new(T)).(interface{ TableName() string }); ok {
		return t.TableName()
	}
	return fmt.Sprintf("%T", *new(T))
}
