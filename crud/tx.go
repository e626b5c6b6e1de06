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
	"context"

	"github.com/uptrace/bun"

	"github.com/greenthumb/dbkit/dberr"
)

// Atomic runs fn inside a transaction: commit when fn returns nil,
// rollback otherwise. Exactly one commit or rollback happens per
// call, and a failed rollback never masks fn's error.
func Atomic(ctx context.Context, db bun.IDB, fn func(ctx context.Context, tx bun.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return dberr.Wrap(err)
	}
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return dberr.Wrap(err)
	}
	return nil
}
