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

	"github.com/uptrace/bun"

	"github.com/greenthumb/dbkit/dberr"
	"github.com/greenthumb/dbkit/query"
	"github.com/greenthumb/dbkit/types"
)

// Page returns one window of entities matching the request's filters,
// along with the total match count.
func Page[T any](ctx context.Context, db bun.IDB, req *types.PageRequest) (*types.Pagination[T], error) {
	table := tableOf[T](db)
	entities := make([]*T, 0)

	q := db.NewSelect().Model(&entities)
	q, err := req.Filters().Apply(q, table)
	if err != nil {
		return nil, err
	}

	pagination := types.NewDefaultPagination[T](req.Page(), req.PageSize())
	total, err := q.Count(ctx)
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	if total == 0 {
		return pagination, nil
	}

	if orderBy := req.OrderBy(); len(orderBy) > 0 {
		terms, err := query.Order(table, orderBy)
		if err != nil {
			return nil, err
		}
		q = q.Order(terms...)
	}

	if err := q.Offset(req.Offset()).Limit(req.PageSize()).Scan(ctx); err != nil {
		return nil, dberr.Wrap(err)
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}
