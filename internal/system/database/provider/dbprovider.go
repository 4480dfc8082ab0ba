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

// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"database/sql"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/asgardeo/dagserde/internal/system/config"
	"github.com/asgardeo/dagserde/internal/system/database/client"
	"github.com/asgardeo/dagserde/internal/system/database/model"
	"github.com/asgardeo/dagserde/internal/system/log"
)

const (
	dataSourceTypePostgres = "postgres"
	dataSourceTypeSQLite   = "sqlite"
	maxPingRetries         = 5
)

// dbConfig represents the local database configuration.
type dbConfig struct {
	dsn        string
	driverName string
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
	Close() error
}

// DBProvider is the implementation of DBProviderInterface. It owns a single lazily opened
// client for the runtime database.
type DBProvider struct {
	dataSource config.DataSource
	home       string
	dbClient   client.DBClientInterface
	mutex      sync.RWMutex
	open       func(driverName, dsn string) (*sql.DB, error)
}

var (
	instance *DBProvider
	once     sync.Once
)

// GetDBProvider returns the provider for the runtime database configured in the runtime config.
func GetDBProvider() DBProviderInterface {
	once.Do(func() {
		runtime := config.GetDagserdeRuntime()
		instance = NewDBProvider(runtime.Config.Database.Runtime, runtime.DagserdeHome)
	})
	return instance
}

// NewDBProvider creates a provider for the given data source. Relative sqlite paths are resolved
// against the home directory.
func NewDBProvider(dataSource config.DataSource, home string) *DBProvider {
	return &DBProvider{
		dataSource: dataSource,
		home:       home,
		open:       sql.Open,
	}
}

// GetDBClient returns the database client, opening the connection on first use.
// Not required to close the returned client manually since it manages its own connection pool.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {
	d.mutex.RLock()
	if d.dbClient != nil {
		dbClient := d.dbClient
		d.mutex.RUnlock()
		return dbClient, nil
	}
	d.mutex.RUnlock()

	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.dbClient != nil {
		return d.dbClient, nil
	}

	dbClient, err := d.initializeClient()
	if err != nil {
		return nil, err
	}
	d.dbClient = dbClient
	return dbClient, nil
}

// initializeClient opens the database and waits for it to answer a ping.
func (d *DBProvider) initializeClient() (client.DBClientInterface, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	cfg, err := d.getDBConfig()
	if err != nil {
		return nil, err
	}
	dbName := d.dataSource.Name
	if dbName == "" {
		dbName = d.dataSource.Path
	}

	sqlDB, err := d.open(cfg.driverName, cfg.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s: %w", dbName, err)
	}

	if d.dataSource.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(d.dataSource.MaxOpenConns)
	}
	if d.dataSource.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(d.dataSource.MaxIdleConns)
	}
	if d.dataSource.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(d.dataSource.ConnMaxLifetime) * time.Second)
	}

	db := model.NewDB(sqlDB)
	if err := pingWithRetry(db, d.connectTimeout(), logger); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database %s: %w (close error: %w)", dbName, err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database %s: %w", dbName, err)
	}

	if cfg.driverName == dataSourceTypeSQLite {
		if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to enable foreign key constraints for %s: %w (close error: %w)",
					dbName, err, closeErr)
			}
			return nil, fmt.Errorf("failed to enable foreign key constraints for %s: %w", dbName, err)
		}
	}

	logger.Debug("Database client initialized", log.String("type", cfg.driverName))
	return client.NewDBClient(db, cfg.driverName), nil
}

// pingWithRetry pings the database with exponential backoff until it answers or the timeout runs out.
func pingWithRetry(db model.DBInterface, timeout time.Duration, logger *log.Logger) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	operation := func() error {
		err := db.Ping()
		if err != nil {
			logger.Warn("Database ping failed, retrying", log.Error(err))
		}
		return err
	}
	return backoff.Retry(operation, backoff.WithMaxRetries(b, maxPingRetries))
}

func (d *DBProvider) connectTimeout() time.Duration {
	if d.dataSource.ConnectTimeout > 0 {
		return time.Duration(d.dataSource.ConnectTimeout) * time.Second
	}
	return 30 * time.Second
}

// getDBConfig returns the driver and DSN for the data source.
func (d *DBProvider) getDBConfig() (dbConfig, error) {
	var cfg dbConfig
	switch d.dataSource.Type {
	case dataSourceTypePostgres:
		cfg.driverName = dataSourceTypePostgres
		cfg.dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.dataSource.Hostname, d.dataSource.Port, d.dataSource.Username, d.dataSource.Password,
			d.dataSource.Name, d.dataSource.SSLMode)
	case dataSourceTypeSQLite:
		cfg.driverName = dataSourceTypeSQLite
		options := d.dataSource.Options
		if options != "" && options[0] != '?' {
			options = "?" + options
		}
		dbPath := d.dataSource.Path
		if !path.IsAbs(dbPath) {
			dbPath = path.Join(d.home, dbPath)
		}
		cfg.dsn = dbPath + options
	default:
		return cfg, fmt.Errorf("unsupported database type: %s", d.dataSource.Type)
	}
	return cfg, nil
}

// Close closes the database client if it was opened.
func (d *DBProvider) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.dbClient == nil {
		return nil
	}
	err := d.dbClient.Close()
	d.dbClient = nil
	if err != nil {
		return fmt.Errorf("failed to close runtime database client: %w", err)
	}
	return nil
}
