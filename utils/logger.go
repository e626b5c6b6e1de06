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

// Package utils provides named logrus loggers and small environment
// helpers shared across the library.
package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the concrete logger type handed out by NewLogger.
type Logger = logrus.Logger

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
)

type namedFormatter struct {
	name string
}

func (f *namedFormatter) Format(e *logrus.Entry) ([]byte, error) {
	ts := e.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(e.Level.String())
	return []byte(fmt.Sprintf("%s [%s] %-5s %s\n", ts, f.name, level, e.Message)), nil
}

// NewLogger returns the named logger, creating it on first use. The
// level comes from LOG_LEVEL (or <NAME>_LOG_LEVEL for one logger).
func NewLogger(name string) *Logger {
	loggerRegistryMu.RLock()
	if l, ok := loggerRegistry[name]; ok {
		loggerRegistryMu.RUnlock()
		return l
	}
	loggerRegistryMu.RUnlock()

	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}

	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&namedFormatter{name: name})
	l.SetLevel(levelFromEnv(name))
	loggerRegistry[name] = l
	return l
}

// SetLoggerLevel changes the level of a named logger; unknown level
// strings fall back to info.
func SetLoggerLevel(name, level string) {
	l := NewLogger(name)
	l.SetLevel(parseLevel(level))
}

func levelFromEnv(name string) logrus.Level {
	if s := os.Getenv(strings.ToUpper(name) + "_LOG_LEVEL"); s != "" {
		return parseLevel(s)
	}
	return parseLevel(EnvDefaultString("LOG_LEVEL", "info"))
}

func parseLevel(s string) logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// EnvDefaultString reads an environment variable with a fallback.
func EnvDefaultString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// EnvDefaultBool reads a boolean environment variable with a fallback.
func EnvDefaultBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
