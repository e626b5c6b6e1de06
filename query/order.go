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

	"github.com/uptrace/bun/schema"

	"github.com/greenthumb/dbkit/dberr"
)

// Order compiles a list of field names into sort terms for
// bun.SelectQuery.Order. A leading '-' means descending; the first
// field is the primary sort key.
func Order(table *schema.Table, fields []string) ([]string, error) {
	terms := make([]string, 0, len(fields))
	for _, o := range fields {
		name := o
		direction := "ASC"
		if strings.HasPrefix(o, "-") {
			name = o[1:]
			direction = "DESC"
		}

		field, ok := ResolveField(table, name)
		if !ok {
			return nil, dberr.Validation("order field %q not found", name)
		}
		terms = append(terms, field.Name+" "+direction)
	}
	return terms, nil
}
