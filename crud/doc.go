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

// Package crud provides generic get/save/update/delete primitives for
// Bun-mapped entity types, idempotent get-or-create lookups, partial
// updates via an explicit patch type, and a commit-or-rollback
// transaction wrapper. Every operation takes the active bun.IDB as an
// explicit first argument and only ever returns dberr taxonomy errors.
package crud
