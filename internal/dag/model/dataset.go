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

package model

// Dataset is a named external data resource that couples DAGs through the data they produce.
type Dataset struct {
	URI   string
	Extra map[string]any
}

// DagDependency is a directed coupling between two DAGs, or between a DAG and a dataset.
type DagDependency struct {
	Source         string `json:"source"`
	Target         string `json:"target"`
	DependencyType string `json:"dependency_type"`
	DependencyID   string `json:"dependency_id"`
}

// NodeID returns the identifier of the dependency node shown in dependency graphs.
func (d DagDependency) NodeID() string {
	if d.DependencyType == "dataset" {
		return "dataset:" + d.DependencyID
	}
	return d.DependencyType + ":" + d.Source + ":" + d.Target + ":" + d.DependencyID
}

// Less orders dependencies by source, target, type and id.
func (d DagDependency) Less(other DagDependency) bool {
	if d.Source != other.Source {
		return d.Source < other.Source
	}
	if d.Target != other.Target {
		return d.Target < other.Target
	}
	if d.DependencyType != other.DependencyType {
		return d.DependencyType < other.DependencyType
	}
	return d.DependencyID < other.DependencyID
}

// EdgeInfo holds display metadata of an edge between two tasks.
type EdgeInfo struct {
	Label string `json:"label,omitempty"`
}
