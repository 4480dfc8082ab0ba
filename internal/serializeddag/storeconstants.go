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

import "github.com/asgardeo/dagserde/internal/system/database/model"

var (
	// queryCreateSerializedDAGTable creates the serialized DAG table when it does not exist.
	queryCreateSerializedDAGTable = model.DBQuery{
		ID: "SDQ-SD_MGT-00",
		PostgresQuery: "CREATE TABLE IF NOT EXISTS serialized_dag (dag_id VARCHAR(250) PRIMARY KEY, " +
			"version_id VARCHAR(36) NOT NULL, fileloc VARCHAR(2000) NOT NULL, dag_hash VARCHAR(64) NOT NULL, " +
			"data TEXT NOT NULL, last_updated TIMESTAMPTZ NOT NULL)",
		SQLiteQuery: "CREATE TABLE IF NOT EXISTS serialized_dag (dag_id VARCHAR(250) PRIMARY KEY, " +
			"version_id VARCHAR(36) NOT NULL, fileloc VARCHAR(2000) NOT NULL, dag_hash VARCHAR(64) NOT NULL, " +
			"data TEXT NOT NULL, last_updated DATETIME NOT NULL)",
	}
	// queryGetDAGHash is the query to get the hash and version of a stored DAG.
	queryGetDAGHash = model.DBQuery{
		ID:    "SDQ-SD_MGT-01",
		Query: "SELECT dag_hash, version_id FROM serialized_dag WHERE dag_id = $1",
	}
	// queryInsertDAG is the query to store a new serialized DAG.
	queryInsertDAG = model.DBQuery{
		ID: "SDQ-SD_MGT-02",
		Query: "INSERT INTO serialized_dag (dag_id, version_id, fileloc, dag_hash, data, last_updated) " +
			"VALUES ($1, $2, $3, $4, $5, $6)",
	}
	// queryUpdateDAG is the query to replace a stored serialized DAG.
	queryUpdateDAG = model.DBQuery{
		ID: "SDQ-SD_MGT-03",
		Query: "UPDATE serialized_dag SET version_id = $2, fileloc = $3, dag_hash = $4, data = $5, " +
			"last_updated = $6 WHERE dag_id = $1",
	}
	// queryGetDAG is the query to get a stored serialized DAG.
	queryGetDAG = model.DBQuery{
		ID: "SDQ-SD_MGT-04",
		Query: "SELECT dag_id, version_id, fileloc, dag_hash, data, last_updated FROM serialized_dag " +
			"WHERE dag_id = $1",
	}
	// queryListDAGIDs is the query to list the ids of all stored DAGs.
	queryListDAGIDs = model.DBQuery{
		ID:    "SDQ-SD_MGT-05",
		Query: "SELECT dag_id FROM serialized_dag ORDER BY dag_id",
	}
	// queryDeleteDAG is the query to delete a stored serialized DAG.
	queryDeleteDAG = model.DBQuery{
		ID:    "SDQ-SD_MGT-06",
		Query: "DELETE FROM serialized_dag WHERE dag_id = $1",
	}
)
