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

package query

import (
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"

	"github.com/greenthumb/dbkit/dberr"
)

// Filter is a single restriction: a DSL key ("field" or
// "field__operator") and the value compared against it.
type Filter struct {
	Key   string
	Value interface{}
}

// Filters is an ordered set of restrictions. Clauses are applied in
// slice order and AND-ed together; there is no OR and no nesting.
type Filters []Filter

// F is a shorthand constructor for a single filter entry.
func F(key string, value interface{}) Filter {
	return Filter{Key: key, Value: value}
}

// With returns a copy of the filters with one more entry appended.
func (fs Filters) With(key string, value interface{}) Filters {
	out := make(Filters, len(fs), len(fs)+1)
	copy(out, fs)
	return append(out, F(key, value))
}

// Get returns the value stored under the exact DSL key.
func (fs Filters) Get(key string) (interface{}, bool) {
	for _, f := range fs {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// ParseKey splits a DSL key into its field name and operator. A key
// without "__" means equality.
func ParseKey(key string) (field string, op Operator) {
	if name, rest, ok := strings.Cut(key, "__"); ok {
		return name, Operator(rest)
	}
	return key, OpEq
}

// ResolveField finds the schema field for a DSL field name, accepting
// either the database column name or the Go struct field name.
func ResolveField(table *schema.Table, name string) (*schema.Field, bool) {
	if f, ok := table.FieldMap[name]; ok {
		return f, true
	}
	for _, f := range table.Fields {
		if f.GoName == name {
			return f, true
		}
	}
	return nil, false
}

// Apply compiles every filter into a WHERE clause on q, validating
// field names and operators against the table schema.
func (fs Filters) Apply(q *bun.SelectQuery, table *schema.Table) (*bun.SelectQuery, error) {
	for _, f := range fs {
		name, op := ParseKey(f.Key)

		field, ok := ResolveField(table, name)
		if !ok {
			return nil, dberr.Validation("field %q not found on %s", name, table.TypeName)
		}
		clause, ok := operators[op]
		if !ok {
			return nil, dberr.Validation("unsupported filter operation: %s", op)
		}

		var err error
		q, err = clause(q, bun.Ident(field.Name), f.Value)
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}
