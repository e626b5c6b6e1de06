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

// Package dbkit is a generic CRUD helper layer over Bun: filterable,
// orderable get/save/update/delete primitives, idempotent
// get-or-create lookups, and commit-or-rollback transaction wrapping
// for arbitrary mapped entity types.
package dbkit

import (
	"context"
	"sync"

	"github.com/uptrace/bun"

	"github.com/greenthumb/dbkit/crud"
	"github.com/greenthumb/dbkit/database"
	"github.com/greenthumb/dbkit/query"
	"github.com/greenthumb/dbkit/types"
)

// Service binds the crud primitives for one entity type to a database
// handle, so application code does not pass the session around.
type Service[T any] interface {
	// Get returns entities matching the filters, in orderBy order.
	Get(ctx context.Context, filters query.Filters, orderBy []string) ([]*T, error)

	// GetOne returns the single matching entity, or nil on no match.
	GetOne(ctx context.Context, filters query.Filters, orderBy []string) (*T, error)

	// GetByID returns the entity with the given primary key, or nil.
	GetByID(ctx context.Context, id ...interface{}) (*T, error)

	// All returns every entity of the type.
	All(ctx context.Context) ([]*T, error)

	// Page returns a paginated window of matching entities.
	Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error)

	// Save inserts a new entity and refreshes its generated fields.
	Save(ctx context.Context, entity *T) (*T, error)

	// SaveAll inserts a batch of entities.
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)

	// Update applies a partial patch to the entity with the given id.
	Update(ctx context.Context, patch *crud.Patch, id ...interface{}) (*T, error)

	// Delete removes the entity with the given id.
	Delete(ctx context.Context, id ...interface{}) (bool, error)

	// GetOrCreate returns the matching entity, inserting vals on a miss.
	GetOrCreate(ctx context.Context, vals *T, filters query.Filters) (*T, error)

	// GetOrConvert returns the matching entity, or vals unsaved on a miss.
	GetOrConvert(ctx context.Context, vals *T, filters query.Filters) (*T, error)

	// Atomic runs fn in a transaction, committing on success and
	// rolling back on error.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error

	// SelectBuilder returns a Bun select query builder for advanced use.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for advanced use.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for advanced use.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for advanced use.
	DeleteBuilder() *bun.DeleteQuery
}

type baseServiceImpl[T any] struct {
	db   *bun.DB
	once sync.Once
}

// NewService returns a Service bound lazily to the global database
// connection initialized via the database package.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

// NewServiceWithDB returns a Service bound to an explicit handle.
func NewServiceWithDB[T any](db *bun.DB) Service[T] {
	s := &baseServiceImpl[T]{db: db}
	s.once.Do(func() {})
	return s
}

func (s *baseServiceImpl[T]) handle() *bun.DB {
	s.once.Do(func() { s.db = database.GetDB() })
	return s.db
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, filters query.Filters, orderBy []string) ([]*T, error) {
	return crud.Get[T](ctx, s.handle(), filters, orderBy)
}

func (s *baseServiceImpl[T]) GetOne(ctx context.Context, filters query.Filters, orderBy []string) (*T, error) {
	return crud.GetOne[T](ctx, s.handle(), filters, orderBy)
}

func (s *baseServiceImpl[T]) GetByID(ctx context.Context, id ...interface{}) (*T, error) {
	return crud.GetByID[T](ctx, s.handle(), id...)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return crud.Get[T](ctx, s.handle(), nil, nil)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[T], error) {
	return crud.Page[T](ctx, s.handle(), req)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, entity *T) (*T, error) {
	return crud.Save(ctx, s.handle(), entity)
}

func (s *baseServiceImpl[T]) SaveAll(ctx context.Context, entities []*T) ([]*T, error) {
	return crud.SaveAll(ctx, s.handle(), entities)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, patch *crud.Patch, id ...interface{}) (*T, error) {
	return crud.Update[T](ctx, s.handle(), patch, id...)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id ...interface{}) (bool, error) {
	return crud.Delete[T](ctx, s.handle(), id...)
}

func (s *baseServiceImpl[T]) GetOrCreate(ctx context.Context, vals *T, filters query.Filters) (*T, error) {
	return crud.GetOrCreate(ctx, s.handle(), vals, filters)
}

func (s *baseServiceImpl[T]) GetOrConvert(ctx context.Context, vals *T, filters query.Filters) (*T, error) {
	return crud.GetOrConvert(ctx, s.handle(), vals, filters)
}

func (s *baseServiceImpl[T]) Atomic(ctx context.Context, fn func(ctx context.Context, tx bun.Tx) error) error {
	return crud.Atomic(ctx, s.handle(), fn)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.handle().NewSelect()
}

func (s *baseServiceImpl[T]) InsertBuilder() *bun.InsertQuery {
	return s.handle().NewInsert()
}

func (s *baseServiceImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return s.handle().NewUpdate()
}

func (s *baseServiceImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return s.handle().NewDelete()
}
