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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonObjectValueScan(t *testing.T) {
	obj := JsonObject{"light": "indirect", "waterings": 3.0}

	raw, err := obj.Value()
	require.NoError(t, err)
	data, ok := raw.([]byte)
	require.True(t, ok)

	var got JsonObject
	require.NoError(t, got.Scan(data))
	assert.Equal(t, obj, got)
}

func TestJsonObjectNil(t *testing.T) {
	var obj JsonObject
	raw, err := obj.Value()
	require.NoError(t, err)
	assert.Nil(t, raw)

	// A NULL column scans to an empty, writable map.
	require.NoError(t, obj.Scan(nil))
	assert.NotNil(t, obj)
	assert.Empty(t, obj)
}

func TestJsonObjectScanRejectsNonBytes(t *testing.T) {
	var obj JsonObject
	assert.Error(t, obj.Scan(42))
}

func TestJsonArrayValueScan(t *testing.T) {
	arr := JsonArray{{"day": 1.0}, {"day": 2.0}}

	raw, err := arr.Value()
	require.NoError(t, err)
	data, ok := raw.([]byte)
	require.True(t, ok)

	var got JsonArray
	require.NoError(t, got.Scan(data))
	assert.Equal(t, arr, got)
}

func TestJsonArrayNil(t *testing.T) {
	var arr JsonArray
	raw, err := arr.Value()
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, arr.Scan(nil))
	assert.NotNil(t, arr)
	assert.Empty(t, arr)

	assert.Error(t, arr.Scan("not bytes"))
}
