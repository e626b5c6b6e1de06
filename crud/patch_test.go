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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenthumb/dbkit/dberr"
)

func TestPatchSetKeepsOrderAndDedupes(t *testing.T) {
	patch := NewPatch().Set("name", "Fern").Set("age", 3).Set("name", "Aloe")
	assert.Equal(t, 2, patch.Len())

	var keys []string
	var values []interface{}
	patch.Each(func(name string, value interface{}) {
		keys = append(keys, name)
		values = append(values, value)
	})
	assert.Equal(t, []string{"name", "age"}, keys)
	assert.Equal(t, []interface{}{"Aloe", 3}, values)
}

func TestPatchFromJSON(t *testing.T) {
	patch, err := PatchFromJSON([]byte(`{"name": "Fern", "age": 4, "species": null}`))
	require.NoError(t, err)
	assert.Equal(t, 3, patch.Len())

	var keys []string
	patch.Each(func(name string, value interface{}) {
		keys = append(keys, name)
		if name == "species" {
			assert.Nil(t, value)
		}
	})
	assert.Equal(t, []string{"name", "age", "species"}, keys)
}

func TestPatchFromJSONInvalid(t *testing.T) {
	_, err := PatchFromJSON([]byte(`{"name": `))
	require.Error(t, err)
	assert.True(t, dberr.IsValidation(err))
}

func TestPatchNullClearsField(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPlants(t, db)

	patch, err := PatchFromJSON([]byte(`{"species": null}`))
	require.NoError(t, err)

	updated, err := Update[Plant](t.Context(), db, patch, seeded[0].ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Species)
	assert.Equal(t, seeded[0].Name, updated.Name)
}

func TestPatchTypeMismatch(t *testing.T) {
	db := newTestDB(t)
	seeded := seedPlants(t, db)

	_, err := Update[Plant](t.Context(), db, NewPatch().Set("age", "old"), seeded[0].ID)
	require.Error(t, err)
	assert.True(t, dberr.IsValidation(err))
}
