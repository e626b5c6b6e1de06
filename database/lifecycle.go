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

	"github.com/uptrace/bun"
)

// Startup connects the global engine and ensures every registered
// model has its table. Meant to be called once from the application's
// startup hook.
func Startup(ctx context.Context, cfg *Config) (*bun.DB, error) {
	db, err := InitDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := CreateTables(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	GetLogger().Info("Database initialization completed!")
	return db, nil
}

// Shutdown disposes the global connection pool. Meant to be called
// from the application's shutdown hook.
func Shutdown() error {
	return CloseDB()
}
