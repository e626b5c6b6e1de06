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

// Package router builds gin REST routers from entity types. One call
// wires the five standard CRUD endpoints for an entity, with writes
// wrapped in a commit-or-rollback transaction and taxonomy errors
// mapped to their HTTP status.
package router

import (
	"context"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/uptrace/bun"

	"github.com/greenthumb/dbkit/crud"
	"github.com/greenthumb/dbkit/dberr"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Register wires CRUD endpoints for entity type T onto the given
// route group:
//
//	GET    /          list all (orderable via ?order_by=)
//	GET    /:id       fetch by key
//	GET    /:id/:id2  fetch by composite key
//	POST   /          create from a C payload (201)
//	PUT    /:id       partial update from a U payload (200)
//	DELETE /:id       delete (204)
//
// C is the create shape and U the update shape; both must share their
// JSON field names with T. Writes run inside a transaction that
// commits on success and rolls back on failure.
func Register[T, C, U any](r gin.IRouter, db *bun.DB) {
	r.GET("/", listHandler[T](db))
	r.GET("/:id", readHandler[T](db))
	r.GET("/:id/:id2", readHandler[T](db))
	r.POST("/", createHandler[T, C](db))
	r.PUT("/:id", updateHandler[T, U](db))
	r.DELETE("/:id", deleteHandler[T](db))
}

func listHandler[T any](db *bun.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orderBy []string
		if raw := c.Query("order_by"); raw != "" {
			orderBy = strings.Split(raw, ",")
		}
		items, err := crud.Get[T](c.Request.Context(), db, nil, orderBy)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

func readHandler[T any](db *bun.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := crud.GetByID[T](c.Request.Context(), db, pathIDs(c)...)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if item == nil {
			abortWithError(c, dberr.NotFound("%s not found", typeName[T]()))
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

func createHandler[T, C any](db *bun.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload C
		if err := c.ShouldBindJSON(&payload); err != nil {
			abortWithError(c, dberr.Validation("invalid request body: %s", err))
			return
		}
		entity, err := convert[T](payload)
		if err != nil {
			abortWithError(c, err)
			return
		}

		err = crud.Atomic(c.Request.Context(), db, func(ctx context.Context, tx bun.Tx) error {
			_, err := crud.Save(ctx, tx, entity)
			return err
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entity)
	}
}

func updateHandler[T, U any](db *bun.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortWithError(c, dberr.Validation("failed to read request body: %s", err))
			return
		}
		patch, err := payloadPatch[U](body)
		if err != nil {
			abortWithError(c, err)
			return
		}

		var updated *T
		err = crud.Atomic(c.Request.Context(), db, func(ctx context.Context, tx bun.Tx) error {
			var err error
			updated, err = crud.Update[T](ctx, tx, patch, pathIDs(c)...)
			return err
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func deleteHandler[T any](db *bun.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := crud.Atomic(c.Request.Context(), db, func(ctx context.Context, tx bun.Tx) error {
			_, err := crud.Delete[T](ctx, tx, pathIDs(c)...)
			return err
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// convert maps a create payload onto a fresh entity through their
// shared JSON representation.
func convert[T any](payload interface{}) (*T, error) {
	data, err := jsonAPI.Marshal(payload)
	if err != nil {
		return nil, dberr.Validation("invalid payload: %s", err)
	}
	entity := new(T)
	if err := jsonAPI.Unmarshal(data, entity); err != nil {
		return nil, dberr.Validation("payload does not match %s: %s", typeName[T](), err)
	}
	return entity, nil
}

// payloadPatch builds a patch from the request body, keeping only the
// keys that are JSON fields of the update shape U. Keys outside U are
// not updatable through this endpoint and are dropped.
func payloadPatch[U any](body []byte) (*crud.Patch, error) {
	raw, err := crud.PatchFromJSON(body)
	if err != nil {
		return nil, err
	}

	allowed := jsonFieldSet(reflect.TypeFor[U]())
	patch := crud.NewPatch()
	raw.Each(func(name string, value interface{}) {
		if _, ok := allowed[name]; ok {
			patch.Set(name, value)
		}
	})
	return patch, nil
}

func jsonFieldSet(t reflect.Type) map[string]struct{} {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fields := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tagName, _, _ := strings.Cut(tag, ","); tagName != "" && tagName != "-" {
				name = tagName
			} else if tagName == "-" {
				continue
			}
		}
		fields[name] = struct{}{}
	}
	return fields
}

// pathIDs collects the key values from the path, parsing integers
// where possible so numeric primary keys bind correctly.
func pathIDs(c *gin.Context) []interface{} {
	ids := make([]interface{}, 0, 2)
	for _, name := range []string{"id", "id2"} {
		raw := c.Param(name)
		if raw == "" {
			continue
		}
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			ids = append(ids, n)
		} else {
			ids = append(ids, raw)
		}
	}
	return ids
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(dberr.StatusCode(err), gin.H{"error": err.Error()})
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().Name()
}
