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

package serialization

import (
	"fmt"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

// linkDAG runs once after every task and group of a decoded DAG is in the arena. It attaches
// tasks to their groups, rebuilds upstream ids from downstream ids and binds output references.
func (s *Serializer) linkDAG(dag *model.DAG) error {
	if err := linkTaskGroups(dag); err != nil {
		return err
	}
	if err := linkUpstream(dag); err != nil {
		return err
	}
	return resolveDAGReferences(dag)
}

func linkTaskGroups(dag *model.DAG) error {
	owners := map[string]string{}
	for _, group := range dag.TaskGroups() {
		for _, child := range group.Children {
			switch child.Kind {
			case model.ChildKindOperator:
				task, ok := dag.GetTask(child.ID)
				if !ok {
					return &DeserializationError{
						Field: dagKeyTaskGroup,
						Msg:   fmt.Sprintf("task group %q references unknown task %q", group.GroupID, child.ID),
					}
				}
				if owner, seen := owners[child.ID]; seen {
					return &DeserializationError{
						Field: dagKeyTaskGroup,
						Msg: fmt.Sprintf("task %q belongs to task groups %q and %q", child.ID, owner,
							group.GroupID),
					}
				}
				owners[child.ID] = group.GroupID
				task.Common().TaskGroupID = group.GroupID
			case model.ChildKindTaskGroup:
				sub, ok := dag.GetTaskGroup(child.ID)
				if !ok || sub.IsRoot() {
					return &DeserializationError{
						Field: dagKeyTaskGroup,
						Msg:   fmt.Sprintf("task group %q references unknown task group %q", group.GroupID, child.ID),
					}
				}
				sub.ParentGroupID = group.GroupID
			}
		}
	}

	root := dag.RootTaskGroup()
	for _, taskID := range dag.TaskIDs() {
		if _, owned := owners[taskID]; owned {
			continue
		}
		task, _ := dag.GetTask(taskID)
		task.Common().TaskGroupID = ""
		root.Children = append(root.Children, model.ChildRef{Kind: model.ChildKindOperator, ID: taskID})
	}
	return nil
}

func linkUpstream(dag *model.DAG) error {
	for _, task := range dag.Tasks() {
		for _, downstreamID := range task.Common().DownstreamTaskIDs.Sorted() {
			downstream, ok := dag.GetTask(downstreamID)
			if !ok {
				return &DeserializationError{
					TaskID: task.GetID(),
					Field:  taskKeyDownstream,
					Msg:    fmt.Sprintf("unknown downstream task %q", downstreamID),
				}
			}
			downstream.Common().UpstreamTaskIDs.Add(task.GetID())
		}
	}
	return nil
}

func resolveDAGReferences(dag *model.DAG) error {
	for _, task := range dag.Tasks() {
		mapped, ok := task.(*model.MappedOperator)
		if !ok {
			continue
		}
		value, err := resolveReferences(dag, mapped.ExpandInput.Value)
		if err != nil {
			return &DeserializationError{TaskID: mapped.TaskID, Field: mapped.ExpandInputAttr, Msg: err.Error()}
		}
		mapped.ExpandInput.Value = value
		for key, raw := range mapped.PartialKwargs {
			value, err := resolveReferences(dag, raw)
			if err != nil {
				return &DeserializationError{TaskID: mapped.TaskID, Field: taskKeyPartialKwargs, Msg: err.Error()}
			}
			mapped.PartialKwargs[key] = value
		}
	}
	for _, group := range dag.TaskGroups() {
		if group.ExpandInput == nil {
			continue
		}
		value, err := resolveReferences(dag, group.ExpandInput.Value)
		if err != nil {
			return &DeserializationError{Field: dagKeyTaskGroup, Msg: err.Error()}
		}
		group.ExpandInput.Value = value
	}
	return nil
}

// resolveReferences replaces every model.XComRef inside a value with a bound model.PlainXComArg.
func resolveReferences(dag *model.DAG, value any) (any, error) {
	switch v := value.(type) {
	case model.XComRef:
		task, ok := dag.GetTask(v.TaskID)
		if !ok {
			return nil, fmt.Errorf("output reference to unknown task %q", v.TaskID)
		}
		return &model.PlainXComArg{Operator: task, Key: v.Key}, nil
	case map[string]any:
		for key, item := range v {
			resolved, err := resolveReferences(dag, item)
			if err != nil {
				return nil, err
			}
			v[key] = resolved
		}
		return v, nil
	case []any:
		for i, item := range v {
			resolved, err := resolveReferences(dag, item)
			if err != nil {
				return nil, err
			}
			v[i] = resolved
		}
		return v, nil
	case model.Tuple:
		for i, item := range v {
			resolved, err := resolveReferences(dag, item)
			if err != nil {
				return nil, err
			}
			v[i] = resolved
		}
		return v, nil
	}
	return value, nil
}
