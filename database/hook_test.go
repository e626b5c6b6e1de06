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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type recordingLogger struct {
	warns []string
}

func (l *recordingLogger) SetLevel(LogLevel)            {}
func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Error(string, ...interface{}) {}

func (l *recordingLogger) Warn(msg string, _ ...interface{}) {
	l.warns = append(l.warns, msg)
}

func TestSlowQueryHook(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(100*time.Millisecond, logger)
	ctx := context.Background()

	hook.AfterQuery(ctx, &bun.QueryEvent{
		Query:     "SELECT * FROM plants",
		StartTime: time.Now().Add(-time.Second),
	})
	require.Len(t, logger.warns, 1)
	assert.Equal(t, "Slow query detected", logger.warns[0])
}

func TestSlowQueryHookIgnoresFastQueries(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(time.Minute, logger)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT 1",
		StartTime: time.Now(),
	})
	assert.Empty(t, logger.warns)
}

func TestSlowQueryHookIgnoresFailedQueries(t *testing.T) {
	logger := &recordingLogger{}
	hook := NewSlowQueryHook(time.Nanosecond, logger)

	hook.AfterQuery(context.Background(), &bun.QueryEvent{
		Query:     "SELECT 1",
		StartTime: time.Now().Add(-time.Second),
		Err:       errors.New("boom"),
	})
	assert.Empty(t, logger.warns)
}
