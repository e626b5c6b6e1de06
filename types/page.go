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

package types

import "github.com/greenthumb/dbkit/query"

// PageRequest describes one result window: page number, page size,
// optional filters, and order fields in the '-' prefix notation.
type PageRequest struct {
	page     int
	pageSize int
	filters  query.Filters
	orderBy  []string
}

func (p *PageRequest) PageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) Page() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) Offset() int {
	return (p.Page() - 1) * p.PageSize()
}

func (p *PageRequest) Filters() query.Filters {
	return p.filters
}

func (p *PageRequest) OrderBy() []string {
	return p.orderBy
}

// NewPageRequest constructs a PageRequest with filter and order settings.
func NewPageRequest(page int, pageSize int, filters query.Filters, orderBy []string) *PageRequest {
	return &PageRequest{page, pageSize, filters, orderBy}
}

// NewPageRequestWithFilters constructs a PageRequest with filters only.
func NewPageRequestWithFilters(page int, pageSize int, filters query.Filters) *PageRequest {
	return NewPageRequest(page, pageSize, filters, nil)
}

// NewPageRequestWithOrder constructs a PageRequest with ordering only.
func NewPageRequestWithOrder(page int, pageSize int, orderBy []string) *PageRequest {
	return NewPageRequest(page, pageSize, nil, orderBy)
}

// NewDefaultPageRequest constructs a PageRequest with no filter or ordering.
func NewDefaultPageRequest(page int, pageSize int) *PageRequest {
	return NewPageRequest(page, pageSize, nil, nil)
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}
