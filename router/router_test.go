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

package router

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type Plant struct {
	bun.BaseModel `bun:"table:plants,alias:p"`

	ID      int64  `bun:"id,pk,autoincrement" json:"id"`
	Name    string `bun:"name,notnull" json:"name"`
	Species string `bun:"species" json:"species"`
	Age     int    `bun:"age" json:"age"`
}

type PlantCreate struct {
	Name    string `json:"name" binding:"required"`
	Species string `json:"species"`
	Age     int    `json:"age"`
}

type PlantUpdate struct {
	Name    string `json:"name"`
	Species string `json:"species"`
	Age     int    `json:"age"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sqlDB, err := sql.Open(sqliteshim.ShimName, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.NewCreateTable().Model((*Plant)(nil)).IfNotExists().Exec(context.Background())
	require.NoError(t, err)

	r := gin.New()
	Register[Plant, PlantCreate, PlantUpdate](r.Group("/plants"), db)
	return r
}

func perform(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createPlant(t *testing.T, r *gin.Engine, body string) Plant {
	t.Helper()
	w := perform(r, http.MethodPost, "/plants/", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var plant Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plant))
	require.NotZero(t, plant.ID)
	return plant
}

func TestCreateAndRead(t *testing.T) {
	r := newTestRouter(t)

	created := createPlant(t, r, `{"name": "Fern", "species": "Fern sp.", "age": 2}`)
	assert.Equal(t, "Fern", created.Name)

	w := perform(r, http.MethodGet, fmt.Sprintf("/plants/%d", created.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var fetched Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created, fetched)
}

func TestReadMissing(t *testing.T) {
	r := newTestRouter(t)

	w := perform(r, http.MethodGet, "/plants/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestListOrdered(t *testing.T) {
	r := newTestRouter(t)
	createPlant(t, r, `{"name": "Monstera", "age": 3}`)
	createPlant(t, r, `{"name": "Aloe", "age": 1}`)
	createPlant(t, r, `{"name": "Cactus", "age": 2}`)

	w := perform(r, http.MethodGet, "/plants/?order_by=-age", "")
	require.Equal(t, http.StatusOK, w.Code)

	var plants []Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plants))
	require.Len(t, plants, 3)
	assert.Equal(t, "Monstera", plants[0].Name)
	assert.Equal(t, "Aloe", plants[2].Name)
}

func TestListBadOrderField(t *testing.T) {
	r := newTestRouter(t)

	w := perform(r, http.MethodGet, "/plants/?order_by=-height", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateValidation(t *testing.T) {
	r := newTestRouter(t)

	w := perform(r, http.MethodPost, "/plants/", `{"species": "no name"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestPartialUpdate(t *testing.T) {
	r := newTestRouter(t)
	created := createPlant(t, r, `{"name": "Fern", "species": "Fern sp.", "age": 2}`)

	w := perform(r, http.MethodPut, fmt.Sprintf("/plants/%d", created.ID), `{"age": 7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, 7, updated.Age)
	assert.Equal(t, "Fern", updated.Name)
	assert.Equal(t, "Fern sp.", updated.Species)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdateDropsNonUpdatableKeys(t *testing.T) {
	r := newTestRouter(t)
	created := createPlant(t, r, `{"name": "Fern", "age": 2}`)

	// "id" is not a field of the update shape, so it never reaches
	// the patch; unknown keys are dropped the same way.
	w := perform(r, http.MethodPut, fmt.Sprintf("/plants/%d", created.ID), `{"id": 99, "color": "green", "age": 3}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated Plant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 3, updated.Age)
}

func TestUpdateMissing(t *testing.T) {
	r := newTestRouter(t)

	w := perform(r, http.MethodPut, "/plants/424242", `{"age": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete(t *testing.T) {
	r := newTestRouter(t)
	created := createPlant(t, r, `{"name": "Fern"}`)

	w := perform(r, http.MethodDelete, fmt.Sprintf("/plants/%d", created.ID), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = perform(r, http.MethodGet, fmt.Sprintf("/plants/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(r, http.MethodDelete, fmt.Sprintf("/plants/%d", created.ID), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
