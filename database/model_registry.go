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

package database

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/uptrace/bun"
)

var defaultRegistry = newModelRegistry()

// Model declares an entity schema for automatic table creation.
// Instance returns a struct pointer compatible with Bun, and Priority
// controls creation order (lower values first, so referenced tables
// can be created before referencing ones).
type Model interface {
	Instance() interface{}
	Priority() int
}

// ModelRegistry stores declared models in a deterministic order.
type ModelRegistry interface {
	Register(model Model)
	Models() []Model
}

type modelRegistry struct {
	models []Model
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{models: make([]Model, 0)}
}

func (r *modelRegistry) Register(model Model) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []Model {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]Model, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelAdapter struct {
	instance interface{}
	priority int
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }

// NewModel wraps a struct instance and priority into a Model.
func NewModel(instance interface{}, priority int) Model {
	return &modelAdapter{instance: instance, priority: priority}
}

// RegisterModel adds a model to the default registry.
func RegisterModel(model Model) {
	defaultRegistry.Register(model)
}

// RegisteredModels returns all models in the default registry sorted
// by ascending priority.
func RegisteredModels() []Model {
	return defaultRegistry.Models()
}

// RegisteredModelInstances returns the struct instances of all
// registered models, in creation order.
func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

// CreateTables idempotently ensures a table exists for every
// registered model. Safe to run on every startup.
func CreateTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModels() {
		if _, err := db.NewCreateTable().Model(model.Instance()).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model.Instance(), err)
		}
	}
	return nil
}
