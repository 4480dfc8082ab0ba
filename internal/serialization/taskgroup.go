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

func (s *Serializer) encodeTaskGroup(dag *model.DAG, group *model.TaskGroup, depth int) (map[string]any, error) {
	if depth > s.maxDepth {
		return nil, &SerializationError{Field: dagKeyTaskGroup, Msg: ErrDepthExceeded.Error(), Err: ErrDepthExceeded}
	}

	out := map[string]any{
		groupKeyPrefixGroupID:  group.PrefixGroupID,
		groupKeyTooltip:        group.Tooltip,
		groupKeyUIColor:        group.UIColor,
		groupKeyUIFgColor:      group.UIFgColor,
		groupKeyUpstreamGroups: stringList(group.UpstreamGroupIDs.Sorted()),
		groupKeyDownstreamGrps: stringList(group.DownstreamGroupIDs.Sorted()),
		groupKeyUpstreamTasks:  stringList(group.UpstreamTaskIDs.Sorted()),
		groupKeyDownstreamTsks: stringList(group.DownstreamTaskIDs.Sorted()),
	}
	if group.IsRoot() {
		out[groupKeyID] = nil
	} else {
		out[groupKeyID] = group.GroupID
	}

	children := make(map[string]any, len(group.Children))
	for _, child := range group.Children {
		switch child.Kind {
		case model.ChildKindOperator:
			if _, ok := dag.GetTask(child.ID); !ok {
				return nil, &SerializationError{
					Field: dagKeyTaskGroup,
					Msg:   fmt.Sprintf("task group %q references unknown task %q", group.GroupID, child.ID),
				}
			}
			children[child.ID] = []any{string(model.ChildKindOperator), child.ID}
		case model.ChildKindTaskGroup:
			sub, ok := dag.GetTaskGroup(child.ID)
			if !ok || sub.IsRoot() {
				return nil, &SerializationError{
					Field: dagKeyTaskGroup,
					Msg:   fmt.Sprintf("task group %q references unknown task group %q", group.GroupID, child.ID),
				}
			}
			encoded, err := s.encodeTaskGroup(dag, sub, depth+1)
			if err != nil {
				return nil, err
			}
			children[child.ID] = []any{string(model.ChildKindTaskGroup), encoded}
		default:
			return nil, &SerializationError{Field: dagKeyTaskGroup, Msg: fmt.Sprintf("unknown child kind %q", child.Kind)}
		}
	}
	out[groupKeyChildren] = children

	if group.IsMapped {
		if group.ExpandInput == nil {
			return nil, &SerializationError{
				Field: dagKeyTaskGroup,
				Msg:   fmt.Sprintf("mapped task group %q has no expand input", group.GroupID),
			}
		}
		expandInput, err := s.encodeExpandInput(*group.ExpandInput, fieldPath{group.GroupID, groupKeyExpandInput})
		if err != nil {
			return nil, encodeFailure(err, "", "", dagKeyTaskGroup)
		}
		out[groupKeyIsMapped] = true
		out[groupKeyExpandInput] = expandInput
	}
	return out, nil
}

// decodeTaskGroup places a group and its nested groups into the DAG's arena. Children stay as
// (kind, id) references until the DAG is linked.
func (s *Serializer) decodeTaskGroup(dag *model.DAG, data map[string]any, parentID string, isRoot bool,
	depth int) error {
	if depth > s.maxDepth {
		return &DeserializationError{Field: dagKeyTaskGroup, Msg: ErrDepthExceeded.Error(), Err: ErrDepthExceeded}
	}

	var groupID string
	if raw := data[groupKeyID]; raw != nil {
		id, ok := raw.(string)
		if !ok {
			return &DeserializationError{Field: dagKeyTaskGroup, Msg: fmt.Sprintf("invalid group id %v", raw)}
		}
		groupID = id
	}
	if isRoot != (groupID == "") {
		if isRoot {
			return &DeserializationError{Field: dagKeyTaskGroup, Msg: fmt.Sprintf("root task group has id %q", groupID)}
		}
		return &DeserializationError{Field: dagKeyTaskGroup, Msg: "nested task group has no id"}
	}

	group := model.NewTaskGroup(groupID)
	if !isRoot {
		group.ParentGroupID = parentID
	}
	if prefix, ok := data[groupKeyPrefixGroupID].(bool); ok {
		group.PrefixGroupID = prefix
	}
	if tooltip, ok := data[groupKeyTooltip].(string); ok {
		group.Tooltip = tooltip
	}
	if color, ok := data[groupKeyUIColor].(string); ok {
		group.UIColor = color
	}
	if color, ok := data[groupKeyUIFgColor].(string); ok {
		group.UIFgColor = color
	}

	idSets := []struct {
		key    string
		target *model.IDSet
	}{
		{groupKeyUpstreamGroups, &group.UpstreamGroupIDs},
		{groupKeyDownstreamGrps, &group.DownstreamGroupIDs},
		{groupKeyUpstreamTasks, &group.UpstreamTaskIDs},
		{groupKeyDownstreamTsks, &group.DownstreamTaskIDs},
	}
	for _, idSet := range idSets {
		ids, err := decodeStringList(data[idSet.key], idSet.key)
		if err != nil {
			return decodeFailure(err, "", "", dagKeyTaskGroup)
		}
		*idSet.target = model.NewIDSet(ids...)
	}

	if mapped, _ := data[groupKeyIsMapped].(bool); mapped {
		expandInput, err := s.decodeExpandInput(data[groupKeyExpandInput], fieldPath{groupID, groupKeyExpandInput})
		if err != nil {
			return decodeFailure(err, "", "", dagKeyTaskGroup)
		}
		group.IsMapped = true
		group.ExpandInput = &expandInput
	}

	children, _ := data[groupKeyChildren].(map[string]any)
	var nested []map[string]any
	for _, childID := range sortedKeys(children) {
		pair, ok := children[childID].([]any)
		if !ok || len(pair) != 2 {
			return &DeserializationError{
				Field: dagKeyTaskGroup,
				Msg:   fmt.Sprintf("child %q of task group %q must be a [kind, value] pair", childID, groupID),
			}
		}
		kind, _ := pair[0].(string)
		switch model.ChildKind(kind) {
		case model.ChildKindOperator:
			group.Children = append(group.Children, model.ChildRef{Kind: model.ChildKindOperator, ID: childID})
		case model.ChildKindTaskGroup:
			childData, ok := pair[1].(map[string]any)
			if !ok {
				return &DeserializationError{
					Field: dagKeyTaskGroup,
					Msg:   fmt.Sprintf("child group %q of task group %q must be an object", childID, groupID),
				}
			}
			if nestedID, _ := childData[groupKeyID].(string); nestedID != childID {
				return &DeserializationError{
					Field: dagKeyTaskGroup,
					Msg: fmt.Sprintf("child group %q of task group %q has %s %q", childID, groupID,
						groupKeyID, nestedID),
				}
			}
			group.Children = append(group.Children, model.ChildRef{Kind: model.ChildKindTaskGroup, ID: childID})
			nested = append(nested, childData)
		default:
			return &DeserializationError{
				Field: dagKeyTaskGroup,
				Msg:   fmt.Sprintf("child %q of task group %q has unknown kind %q", childID, groupID, kind),
			}
		}
	}

	if err := dag.InsertTaskGroup(group); err != nil {
		return &DeserializationError{Field: dagKeyTaskGroup, Msg: err.Error(), Err: err}
	}
	for _, childData := range nested {
		if err := s.decodeTaskGroup(dag, childData, groupID, false, depth+1); err != nil {
			return err
		}
	}
	return nil
}
