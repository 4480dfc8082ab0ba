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

package plugin

import (
	"github.com/asgardeo/dagserde/internal/dag/model"
)

// Dependency types produced by the default detector.
const (
	DependencyTypeTrigger = "trigger"
	DependencyTypeSensor  = "sensor"
	DependencyTypeDataset = "dataset"
)

// DefaultDetector finds trigger, sensor and dataset dependencies of a task.
//
// A task with a "trigger_dag_id" attribute triggers that DAG, a task with an "external_dag_id"
// attribute waits on that DAG, and every dataset outlet feeds the dataset node.
type DefaultDetector struct{}

// DetectTaskDependencies returns the dependencies of a single task.
func (d *DefaultDetector) DetectTaskDependencies(task model.TaskInterface) []model.DagDependency {
	common := task.Common()
	attrs, outlets := taskAttributes(task)

	var deps []model.DagDependency
	if target, ok := attrs["trigger_dag_id"].(string); ok && target != "" {
		deps = append(deps, model.DagDependency{
			Source:         common.DagID,
			Target:         target,
			DependencyType: DependencyTypeTrigger,
			DependencyID:   common.TaskID,
		})
	}
	if source, ok := attrs["external_dag_id"].(string); ok && source != "" {
		deps = append(deps, model.DagDependency{
			Source:         source,
			Target:         common.DagID,
			DependencyType: DependencyTypeSensor,
			DependencyID:   common.TaskID,
		})
	}
	for _, outlet := range outlets {
		dataset, ok := asDataset(outlet)
		if !ok {
			continue
		}
		deps = append(deps, model.DagDependency{
			Source:         common.DagID,
			Target:         DependencyTypeDataset,
			DependencyType: DependencyTypeDataset,
			DependencyID:   dataset.URI,
		})
	}
	return deps
}

// taskAttributes returns the operator specific attributes and outlets of either task variant.
func taskAttributes(task model.TaskInterface) (map[string]any, []any) {
	switch t := task.(type) {
	case *model.Operator:
		return t.Attrs, t.Outlets
	case *model.MappedOperator:
		outlets, _ := t.PartialKwargs["outlets"].([]any)
		return t.PartialKwargs, outlets
	default:
		return nil, nil
	}
}

func asDataset(value any) (model.Dataset, bool) {
	switch v := value.(type) {
	case model.Dataset:
		return v, true
	case *model.Dataset:
		if v == nil {
			return model.Dataset{}, false
		}
		return *v, true
	default:
		return model.Dataset{}, false
	}
}
