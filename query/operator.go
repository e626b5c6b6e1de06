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
	"fmt"
	"reflect"

	"github.com/uptrace/bun"

	"github.com/greenthumb/dbkit/dberr"
)

// Operator is a comparison operator of the filter DSL. The supported
// set is fixed at compile time; every operator maps to a clause
// function registered in the operators table below.
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
	OpLike     Operator = "like"
)

// clauseFunc appends one WHERE condition for a resolved column.
type clauseFunc func(q *bun.SelectQuery, col bun.Ident, value interface{}) (*bun.SelectQuery, error)

var operators = map[Operator]clauseFunc{
	OpEq:  comparison("="),
	OpNe:  comparison("!="),
	OpLt:  comparison("<"),
	OpLte: comparison("<="),
	OpGt:  comparison(">"),
	OpGte: comparison(">="),
	OpIn: func(q *bun.SelectQuery, col bun.Ident, value interface{}) (*bun.SelectQuery, error) {
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return nil, dberr.Validation("value for '%s__in' must be a slice", string(col))
		}
		return q.Where("? IN (?)", col, bun.In(value)), nil
	},
	OpContains: func(q *bun.SelectQuery, col bun.Ident, value interface{}) (*bun.SelectQuery, error) {
		return q.Where("? LIKE ?", col, "%"+fmt.Sprintf("%v", value)+"%"), nil
	},
	OpLike: func(q *bun.SelectQuery, col bun.Ident, value interface{}) (*bun.SelectQuery, error) {
		return q.Where("? LIKE ?", col, value), nil
	},
}

func comparison(symbol string) clauseFunc {
	expr := "? " + symbol + " ?"
	return func(q *bun.SelectQuery, col bun.Ident, value interface{}) (*bun.SelectQuery, error) {
		return q.Where(expr, col, value), nil
	}
}

// Valid reports whether the operator is part of the supported set.
func (op Operator) Valid() bool {
	_, ok := operators[op]
	return ok
}
