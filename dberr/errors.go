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

// Package dberr defines the error taxonomy surfaced by the CRUD layer.
// Every error leaving a dbkit operation is one of three kinds: a
// validation failure (the caller built a bad filter or patch), a
// not-found failure (an operation that requires existence missed), or
// a generic database failure wrapping whatever the engine reported.
package dberr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindDatabase Kind = iota
	KindNotFound
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	default:
		return "database"
	}
}

// Error is the single error type of the taxonomy. Callers match the
// whole taxonomy with errors.As and a specific kind via the helpers.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
}

func (e *Error) Error() string { return e.Message }

// Database returns a generic database failure (HTTP 500).
func Database(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindDatabase,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusInternalServerError,
	}
}

// NotFound returns a missing-identity failure (HTTP 404).
func NotFound(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindNotFound,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusNotFound,
	}
}

// Validation returns a malformed-input failure (HTTP 400).
func Validation(format string, args ...interface{}) *Error {
	return &Error{
		Kind:       KindValidation,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}

// Wrap normalizes an arbitrary error into the taxonomy. Errors already
// in the taxonomy (possibly wrapped) pass through unchanged, so a
// validation or not-found failure never gets demoted to a generic one.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Database("%s", err.Error())
}

// StatusCode reports the HTTP status carried by err, or 500 when err
// is not part of the taxonomy.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindValidation
}
