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
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/greenthumb/dbkit/utils"
)

// DefaultURL is used when neither the configuration file nor the
// DATABASE_URL environment variable names a database. It points at a
// local file-backed SQLite database for development.
const DefaultURL = "sqlite://database.db"

// Config describes how to reach the database and tune its pool.
type Config struct {
	URL             string        `yaml:"url" json:"url"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
	EnableQueryLog  bool          `yaml:"enable_query_log" json:"enable_query_log"`
	SlowQueryTime   time.Duration `yaml:"slow_query_time" json:"slow_query_time"`
}

// DefaultConfig returns a configuration with sensible defaults and
// environment overrides already applied.
func DefaultConfig() *Config {
	cfg := &Config{
		URL:             DefaultURL,
		MaxIdleConns:    10,
		MaxOpenConns:    100,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: time.Minute * 30,
		ConnectTimeout:  time.Second * 10,
		EnableQueryLog:  false,
		SlowQueryTime:   time.Second * 2,
	}
	cfg.overrideFromEnv()
	return cfg
}

// LoadConfig reads a YAML configuration file and applies environment
// overrides on top of it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.overrideFromEnv()
	return cfg, nil
}

// overrideFromEnv overrides configuration values from environment variables.
func (c *Config) overrideFromEnv() {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.URL = url
	}
	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil {
			c.MaxIdleConns = val
		}
	}
	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil {
			c.MaxOpenConns = val
		}
	}
	if maxLifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); maxLifetime != "" {
		if val, err := strconv.Atoi(maxLifetime); err == nil {
			c.ConnMaxLifetime = time.Duration(val) * time.Second
		}
	}
	c.EnableQueryLog = utils.EnvDefaultBool("DB_ENABLE_QUERY_LOG", c.EnableQueryLog)
	if slowQuery := os.Getenv("DB_SLOW_QUERY_TIME"); slowQuery != "" {
		if val, err := strconv.Atoi(slowQuery); err == nil {
			c.SlowQueryTime = time.Duration(val) * time.Millisecond
		}
	}
}
