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

// Task group defaults.
const (
	DefaultGroupUIColor   = "CornflowerBlue"
	DefaultGroupUIFgColor = "#000"
)

// ChildKind tells whether a group child is a task or a nested group.
type ChildKind string

const (
	// ChildKindOperator marks a task child.
	ChildKindOperator ChildKind = "operator"
	// ChildKindTaskGroup marks a nested group child.
	ChildKindTaskGroup ChildKind = "taskgroup"
)

// ChildRef references a group child by kind and id.
type ChildRef struct {
	Kind ChildKind
	ID   string
}

// TaskGroup is a node of the task group tree. Groups reference their parent and DAG by id.
type TaskGroup struct {
	// GroupID is empty for the root group.
	GroupID       string
	ParentGroupID string
	DagID         string

	PrefixGroupID bool
	Tooltip       string
	UIColor       string
	UIFgColor     string
	Children      []ChildRef

	UpstreamGroupIDs   IDSet
	DownstreamGroupIDs IDSet
	UpstreamTaskIDs    IDSet
	DownstreamTaskIDs  IDSet

	IsMapped    bool
	ExpandInput *ExpandInput
}

// NewTaskGroup creates a group with default display settings.
func NewTaskGroup(groupID string) *TaskGroup {
	return &TaskGroup{
		GroupID:            groupID,
		PrefixGroupID:      true,
		UIColor:            DefaultGroupUIColor,
		UIFgColor:          DefaultGroupUIFgColor,
		Children:           []ChildRef{},
		UpstreamGroupIDs:   IDSet{},
		DownstreamGroupIDs: IDSet{},
		UpstreamTaskIDs:    IDSet{},
		DownstreamTaskIDs:  IDSet{},
	}
}

// NewMappedTaskGroup creates a group whose tasks fan out over the given input.
func NewMappedTaskGroup(groupID string, expandInput ExpandInput) *TaskGroup {
	group := NewTaskGroup(groupID)
	group.IsMapped = true
	group.ExpandInput = &expandInput
	return group
}

// IsRoot reports whether the group is the root of the tree.
func (g *TaskGroup) IsRoot() bool {
	return g.GroupID == ""
}

// HasChild reports whether the group holds a child with the given kind and id.
func (g *TaskGroup) HasChild(kind ChildKind, id string) bool {
	for _, child := range g.Children {
		if child.Kind == kind && child.ID == id {
			return true
		}
	}
	return false
}
