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
	"reflect"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/uptrace/bun/schema"

	"github.com/greenthumb/dbkit/dberr"
	"github.com/greenthumb/dbkit/query"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Patch holds only the fields a partial update explicitly sets, in
// the order they were set. Fields absent from the patch are never
// touched by Update, which is what gives it PATCH semantics instead
// of full replacement.
type Patch struct {
	fields []patchField
}

type patchField struct {
	name  string
	value interface{}
}

// NewPatch returns an empty patch.
func NewPatch() *Patch {
	return &Patch{}
}

// Set records a field value, replacing any earlier value for the same
// field. It returns the patch for chaining.
func (p *Patch) Set(name string, value interface{}) *Patch {
	for i := range p.fields {
		if p.fields[i].name == name {
			p.fields[i].value = value
			return p
		}
	}
	p.fields = append(p.fields, patchField{name: name, value: value})
	return p
}

// Len reports how many fields the patch carries.
func (p *Patch) Len() int {
	return len(p.fields)
}

// Each visits the patch fields in the order they were set.
func (p *Patch) Each(fn func(name string, value interface{})) {
	for _, pf := range p.fields {
		fn(pf.name, pf.value)
	}
}

// PatchFromJSON builds a patch from a JSON object, keeping exactly the
// keys present in the document (including keys set to null) in their
// document order.
func PatchFromJSON(data []byte) (*Patch, error) {
	p := NewPatch()
	iter := jsoniter.ParseBytes(jsonAPI, data)
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		p.Set(key, it.Read())
		return true
	})
	if iter.Error != nil {
		return nil, dberr.Validation("invalid patch document: %s", iter.Error)
	}
	return p, nil
}

// apply merges the patch onto the loaded entity and returns the
// database columns that were set. Primary key fields are silently
// skipped so a patch can never rewrite an identity.
func (p *Patch) apply(table *schema.Table, entity interface{}) ([]string, error) {
	strct := reflect.ValueOf(entity).Elem()

	columns := make([]string, 0, len(p.fields))
	for _, pf := range p.fields {
		field, ok := query.ResolveField(table, pf.name)
		if !ok {
			return nil, dberr.Validation("field %q not found on %s", pf.name, table.TypeName)
		}
		if field.IsPK {
			continue
		}
		if err := setValue(field.Value(strct), pf.value); err != nil {
			return nil, dberr.Validation("field %q on %s: %s", pf.name, table.TypeName, err)
		}
		columns = append(columns, field.Name)
	}
	return columns, nil
}

func setValue(dst reflect.Value, value interface{}) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return setValue(dst.Elem(), value)
	}

	// JSON decoding hands timestamps over as strings.
	if dst.Type() == timeType {
		if s, ok := value.(string); ok {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}

	rv := reflect.ValueOf(value)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case rv.Kind() == reflect.Float64 && isNumeric(dst.Kind()):
		// jsoniter decodes every JSON number as float64.
		dst.Set(rv.Convert(dst.Type()))
	case rv.Type().ConvertibleTo(dst.Type()) && rv.Kind() != reflect.String:
		dst.Set(rv.Convert(dst.Type()))
	default:
		return &typeMismatchError{got: rv.Type(), want: dst.Type()}
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

type typeMismatchError struct {
	got  reflect.Type
	want reflect.Type
}

func (e *typeMismatchError) Error() string {
	return "cannot assign " + e.got.String() + " to " + e.want.String()
}
