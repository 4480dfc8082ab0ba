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

package serializeddag

import (
	"fmt"
	"time"

	"github.com/asgardeo/dagserde/internal/system/database/provider"
	"github.com/asgardeo/dagserde/internal/system/log"
)

// serializedDAGStoreInterface defines the persistence operations of serialized DAGs.
type serializedDAGStoreInterface interface {
	EnsureSchema() error
	WriteDAG(record *SerializedDAG) (bool, error)
	GetDocument(dagID string) (*SerializedDAG, error)
	ListDAGIDs() ([]string, error)
	DeleteDAG(dagID string) (bool, error)
}

// serializedDAGStore stores serialized DAGs in the serialized_dag table of the runtime database.
type serializedDAGStore struct {
	dbProvider provider.DBProviderInterface
}

// newSerializedDAGStore creates a store backed by the given database provider.
func newSerializedDAGStore(dbProvider provider.DBProviderInterface) serializedDAGStoreInterface {
	return &serializedDAGStore{
		dbProvider: dbProvider,
	}
}

// EnsureSchema creates the serialized_dag table when it does not exist.
func (s *serializedDAGStore) EnsureSchema() error {
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return fmt.Errorf("failed to get database client: %w", err)
	}
	if _, err := dbClient.Execute(queryCreateSerializedDAGTable); err != nil {
		return fmt.Errorf("failed to create serialized_dag table: %w", err)
	}
	return nil
}

// WriteDAG stores the record unless a record with the same hash is already stored. It reports
// whether a write happened. When nothing is written the record takes the stored version id.
func (s *serializedDAGStore) WriteDAG(record *SerializedDAG) (bool, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SerializedDAGStore"),
		log.String(log.LoggerKeyDagID, record.DagID))

	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return false, fmt.Errorf("failed to get database client: %w", err)
	}

	results, err := dbClient.Query(queryGetDAGHash, record.DagID)
	if err != nil {
		return false, fmt.Errorf("failed to execute query: %w", err)
	}
	if len(results) > 1 {
		return false, fmt.Errorf("unexpected number of results: %d", len(results))
	}

	if len(results) == 1 {
		storedHash, err := stringColumn(results[0], "dag_hash")
		if err != nil {
			return false, err
		}
		if storedHash == record.DagHash {
			versionID, err := stringColumn(results[0], "version_id")
			if err != nil {
				return false, err
			}
			record.VersionID = versionID
			logger.Debug("Serialized DAG is unchanged, skipping write")
			return false, nil
		}
		_, err = dbClient.Execute(queryUpdateDAG, record.DagID, record.VersionID, record.Fileloc,
			record.DagHash, record.Data, record.LastUpdated)
		if err != nil {
			return false, fmt.Errorf("failed to execute query: %w", err)
		}
		logger.Debug("Serialized DAG updated", log.String("versionId", record.VersionID))
		return true, nil
	}

	_, err = dbClient.Execute(queryInsertDAG, record.DagID, record.VersionID, record.Fileloc,
		record.DagHash, record.Data, record.LastUpdated)
	if err != nil {
		return false, fmt.Errorf("failed to execute query: %w", err)
	}
	logger.Debug("Serialized DAG stored", log.String("versionId", record.VersionID))
	return true, nil
}

// GetDocument retrieves a stored serialized DAG.
func (s *serializedDAGStore) GetDocument(dagID string) (*SerializedDAG, error) {
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get database client: %w", err)
	}

	results, err := dbClient.Query(queryGetDAG, dagID)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrDAGNotFound
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("unexpected number of results: %d", len(results))
	}
	return buildSerializedDAGFromResultRow(results[0])
}

// ListDAGIDs returns the ids of all stored DAGs in lexicographic order.
func (s *serializedDAGStore) ListDAGIDs() ([]string, error) {
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get database client: %w", err)
	}

	results, err := dbClient.Query(queryListDAGIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	dagIDs := make([]string, 0, len(results))
	for _, row := range results {
		dagID, err := stringColumn(row, "dag_id")
		if err != nil {
			return nil, err
		}
		dagIDs = append(dagIDs, dagID)
	}
	return dagIDs, nil
}

// DeleteDAG deletes a stored DAG and reports whether it existed.
func (s *serializedDAGStore) DeleteDAG(dagID string) (bool, error) {
	dbClient, err := s.dbProvider.GetDBClient()
	if err != nil {
		return false, fmt.Errorf("failed to get database client: %w", err)
	}

	rowsAffected, err := dbClient.Execute(queryDeleteDAG, dagID)
	if err != nil {
		return false, fmt.Errorf("failed to execute query: %w", err)
	}
	return rowsAffected > 0, nil
}

func buildSerializedDAGFromResultRow(row map[string]any) (*SerializedDAG, error) {
	record := &SerializedDAG{}
	columns := []struct {
		name   string
		target *string
	}{
		{"dag_id", &record.DagID},
		{"version_id", &record.VersionID},
		{"fileloc", &record.Fileloc},
		{"dag_hash", &record.DagHash},
		{"data", &record.Data},
	}
	for _, column := range columns {
		value, err := stringColumn(row, column.name)
		if err != nil {
			return nil, err
		}
		*column.target = value
	}

	lastUpdated, err := timeColumn(row, "last_updated")
	if err != nil {
		return nil, err
	}
	record.LastUpdated = lastUpdated
	return record, nil
}

// stringColumn reads a text column, which drivers return either as string or as bytes.
func stringColumn(row map[string]any, name string) (string, error) {
	switch value := row[name].(type) {
	case string:
		return value, nil
	case []byte:
		return string(value), nil
	default:
		return "", fmt.Errorf("failed to parse %s as string", name)
	}
}

// timeColumn reads a timestamp column, which sqlite may return as text.
func timeColumn(row map[string]any, name string) (time.Time, error) {
	switch value := row[name].(type) {
	case time.Time:
		return value.UTC(), nil
	case string:
		return parseTimestamp(name, value)
	case []byte:
		return parseTimestamp(name, string(value))
	default:
		return time.Time{}, fmt.Errorf("failed to parse %s as time", name)
	}
}

func parseTimestamp(name, value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse %s as time: %q", name, value)
}
