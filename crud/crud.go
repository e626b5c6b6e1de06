/*
 * Copyright 2025 the dbkit authors.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package crud

import (
	"context"
	"database/sql"
	"errors"
	"reflect"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/greenthumb/dbkit/dberr"
	"github.com/greenthumb/dbkit/query"
)

func tableOf[T any](db bun.IDB) *schema.Table {
	return db.Dialect().Tables().Get(reflect.TypeFor[T]())
}

// Get returns every entity matching the filters, sorted by orderBy.
// An optional column list restricts the projection. A query matching
// nothing returns an empty slice, not an error.
func Get[T any](ctx context.Context, db bun.IDB, filters query.Filters, orderBy []string, columns ...string) ([]*T, error) {
	table := tableOf[T](db)
	entities := make([]*T, 0)

	q := db.NewSelect().Model(&entities)
	for _, c := range columns {
		field, ok := query.ResolveField(table, c)
		if !ok {
			return nil, dberr.Validation("field %q not found on %s", c, table.TypeName)
		}
		q = q.Column(field.Name)
	}

	q, err := filters.Apply(q, table)
	if err != nil {
		return nil, err
	}
	if len(orderBy) > 0 {
		terms, err := query.Order(table, orderBy)
		if err != nil {
			return nil, err
		}
		q = q.Order(terms...)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, dberr.Wrap(err)
	}
	return entities, nil
}

// GetOne returns the single entity matching the filters, or nil when
// nothing matches. More than one match is a generic database failure.
func GetOne[T any](ctx context.Context, db bun.IDB, filters query.Filters, orderBy []string) (*T, error) {
	table := tableOf[T](db)
	entities := make([]*T, 0, 2)

	q := db.NewSelect().Model(&entities)
	q, err := filters.Apply(q, table)
	if err != nil {
		return nil, err
	}
	if len(orderBy) > 0 {
		terms, err := query.Order(table, orderBy)
		if err != nil {
			return nil, err
		}
		q = q.Order(terms...)
	}

	if err := q.Limit(2).Scan(ctx); err != nil {
		return nil, dberr.Wrap(err)
	}
	switch len(entities) {
	case 0:
		return nil, nil
	case 1:
		return entities[0], nil
	default:
		return nil, dberr.Database("expected at most one %s, found several", table.TypeName)
	}
}

// GetByID looks an entity up by primary key. Composite keys take one
// value per key column, in declaration order. Absence is not an
// error; the entity is nil when no row exists.
func GetByID[T any](ctx context.Context, db bun.IDB, id ...interface{}) (*T, error) {
	table := tableOf[T](db)
	if len(id) != len(table.PKs) {
		return nil, dberr.Validation("%s has %d primary key column(s), got %d value(s)",
			table.TypeName, len(table.PKs), len(id))
	}

	entity := new(T)
	q := db.NewSelect().Model(entity)
	for i, pk := range table.PKs {
		q = q.Where("? = ?", bun.Ident(pk.Name), id[i])
	}

	err := q.Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return entity, nil
}

// Save inserts a single entity and refreshes it by primary key so
// generated fields (autoincrement ids, column defaults) are populated
// before return.
func Save[T any](ctx context.Context, db bun.IDB, entity *T) (*T, error) {
	if _, err := db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, dberr.Wrap(err)
	}
	if err := refresh(ctx, db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// SaveAll inserts a batch of entities in one statement and refreshes
// each of them.
func SaveAll[T any](ctx context.Context, db bun.IDB, entities []*T) ([]*T, error) {
	if len(entities) == 0 {
		return entities, nil
	}
	if _, err := db.NewInsert().Model(&entities).Exec(ctx); err != nil {
		return nil, dberr.Wrap(err)
	}
	for _, entity := range entities {
		if err := refresh(ctx, db, entity); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

func refresh[T any](ctx context.Context, db bun.IDB, entity *T) error {
	if err := db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		return dberr.Wrap(err)
	}
	return nil
}

// Update loads the entity by primary key and merges only the fields
// the patch carries; everything else, the primary key included, is
// left untouched. The merged entity is written back, refreshed, and
// returned. A missing id fails with a not-found error.
func Update[T any](ctx context.Context, db bun.IDB, patch *Patch, id ...interface{}) (*T, error) {
	table := tableOf[T](db)

	entity, err := GetByID[T](ctx, db, id...)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, dberr.NotFound("%s not found", table.TypeName)
	}

	columns, err := patch.apply(table, entity)
	if err != nil {
		return nil, err
	}
	if len(columns) > 0 {
		if _, err := db.NewUpdate().Model(entity).Column(columns...).WherePK().Exec(ctx); err != nil {
			return nil, dberr.Wrap(err)
		}
	}

	if err := refresh(ctx, db, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

// Delete removes the entity with the given primary key and reports
// success. A missing id fails with a not-found error.
func Delete[T any](ctx context.Context, db bun.IDB, id ...interface{}) (bool, error) {
	table := tableOf[T](db)

	entity, err := GetByID[T](ctx, db, id...)
	if err != nil {
		return false, err
	}
	if entity == nil {
		return false, dberr.NotFound("%s not found", table.TypeName)
	}

	if _, err := db.NewDelete().Model(entity).WherePK().Exec(ctx); err != nil {
		return false, dberr.Wrap(err)
	}
	return true, nil
}

// GetOrCreate returns the entity matching the filters, inserting vals
// as a new row when nothing matches. A nil or empty-string filter
// value short-circuits to nil so blank keys never create rows.
func GetOrCreate[T any](ctx context.Context, db bun.IDB, vals *T, filters query.Filters) (*T, error) {
	if hasBlankValue(filters) {
		return nil, nil
	}
	existing, err := lookup[T](ctx, db, filters)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return Save(ctx, db, vals)
}

// GetOrConvert returns the entity matching the filters, or vals
// itself, untouched and unsaved, when nothing matches. Useful for
// validation and preview flows that decide later whether to persist.
func GetOrConvert[T any](ctx context.Context, db bun.IDB, vals *T, filters query.Filters) (*T, error) {
	if hasBlankValue(filters) {
		return nil, nil
	}
	existing, err := lookup[T](ctx, db, filters)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return vals, nil
}

func lookup[T any](ctx context.Context, db bun.IDB, filters query.Filters) (*T, error) {
	if id, ok := filters.Get("id"); ok {
		return GetByID[T](ctx, db, id)
	}
	return GetOne[T](ctx, db, filters, nil)
}

func hasBlankValue(filters query.Filters) bool {
	for _, f := range filters {
		if f.Value == nil || f.Value == "" {
			return true
		}
	}
	return false
}
