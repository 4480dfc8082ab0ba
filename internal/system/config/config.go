/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package config provides structures and functions for loading and managing server configurations.
package config

import (
	"os"
	"path/filepath"

	"github.com/asgardeo/dagserde/internal/system/log"

	yaml "gopkg.in/yaml.v3"
)

const (
	// DefaultMaxDepth is the nesting limit applied when serialization.max_depth is not set.
	DefaultMaxDepth = 256
	// DefaultCacheSize is the number of decoded DAGs kept when cache.size is not set.
	DefaultCacheSize = 128
	// DefaultCacheTTL is the cache entry lifetime in seconds when cache.ttl is not set.
	DefaultCacheTTL = 600
)

// ServerConfig holds the server configuration details.
type ServerConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	HTTPOnly bool   `yaml:"http_only"`
}

// SecurityConfig holds the TLS certificate and key of the server, relative to the home directory.
type SecurityConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DataSource holds the individual database connection details.
type DataSource struct {
	Type            string `yaml:"type"`
	Hostname        string `yaml:"hostname"`
	Port            int    `yaml:"port"`
	Name            string `yaml:"name"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"sslmode"`
	Path            string `yaml:"path"`
	Options         string `yaml:"options"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
	ConnectTimeout  int    `yaml:"connect_timeout"`
}

// DatabaseConfig holds the different database configuration details.
type DatabaseConfig struct {
	Runtime DataSource `yaml:"runtime"`
}

// SerializationConfig holds the settings of the DAG serialization engine.
type SerializationConfig struct {
	MaxDepth           int    `yaml:"max_depth"`
	DagsFolder         string `yaml:"dags_folder"`
	DependencyDetector string `yaml:"dependency_detector"`
	PodCodecEnabled    bool   `yaml:"pod_codec_enabled"`
}

// CacheConfig holds the settings of the decoded DAG cache.
type CacheConfig struct {
	Disabled bool `yaml:"disabled"`
	Size     int  `yaml:"size"`
	TTL      int  `yaml:"ttl"`
}

// CORSConfig holds the origins allowed to call the HTTP API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Config holds the complete configuration details of the server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Security      SecurityConfig      `yaml:"security"`
	CORS          CORSConfig          `yaml:"cors"`
	Database      DatabaseConfig      `yaml:"database"`
	Serialization SerializationConfig `yaml:"serialization"`
	Cache         CacheConfig         `yaml:"cache"`
}

// LoadConfig loads the configurations from the specified YAML file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	path = filepath.Clean(path)

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if ferr := file.Close(); ferr != nil {
			log.GetLogger().Error("Failed to close config file", log.Error(ferr))
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero values with their defaults.
func (c *Config) applyDefaults() {
	if c.Serialization.MaxDepth <= 0 {
		c.Serialization.MaxDepth = DefaultMaxDepth
	}
	if c.Cache.Size <= 0 {
		c.Cache.Size = DefaultCacheSize
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
}
