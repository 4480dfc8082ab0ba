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

import "time"

// SerializedDAG is a stored serialized DAG document.
type SerializedDAG struct {
	DagID       string
	VersionID   string
	Fileloc     string
	DagHash     string
	Data        string
	LastUpdated time.Time
}

// serializedDAGResponse is the summary returned for a stored DAG.
type serializedDAGResponse struct {
	DagID       string    `json:"dag_id"`
	VersionID   string    `json:"version_id"`
	Fileloc     string    `json:"fileloc"`
	DagHash     string    `json:"dag_hash"`
	LastUpdated time.Time `json:"last_updated"`
	Written     bool      `json:"written"`
}

// dagListResponse is the body returned when listing stored DAGs.
type dagListResponse struct {
	TotalResults int      `json:"total_results"`
	DagIDs       []string `json:"dag_ids"`
}
