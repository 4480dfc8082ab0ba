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

import (
	"fmt"
	"sort"
	"time"
)

// DAG defaults.
const (
	DefaultMaxActiveTasks   = 16
	DefaultMaxActiveRuns    = 16
	DefaultScheduleInterval = 24 * time.Hour
)

// Timetable is a schedule rule of a DAG.
type Timetable interface {
	// QualifiedName identifies the rule class in documents and in the registry.
	QualifiedName() string
	// Serialize returns the rule's own state.
	Serialize() map[string]any
	// Summary describes the rule for display.
	Summary() string
}

// DAG is a workflow graph. It owns its tasks and task groups, which reference each other by id.
type DAG struct {
	DagID               string
	Fileloc             string
	ProcessorDagsFolder string
	Description         string
	DocMD               string
	DefaultArgs         map[string]any
	StartDate           *time.Time
	EndDate             *time.Time
	Timezone            *time.Location

	// ScheduleInterval holds the legacy schedule expression the timetable was derived from:
	// a cron expression or preset string, a time.Duration or a RelativeDelta. It is nil when
	// the DAG was given a timetable directly.
	ScheduleInterval any
	Timetable        Timetable
	DatasetTriggers  []Dataset

	Catchup                   bool
	MaxActiveTasks            int
	MaxActiveRuns             int
	DagrunTimeout             *time.Duration
	IsPausedUponCreation      *bool
	RenderTemplateAsNativeObj bool
	FailStop                  bool
	Tags                      []string
	OwnerLinks                map[string]string
	HasOnSuccessCallback      bool
	HasOnFailureCallback      bool
	AccessControl             map[string]Set
	Params                    ParamsDict
	EdgeInfo                  map[string]map[string]EdgeInfo
	DagDependencies           []DagDependency

	tasks      map[string]TaskInterface
	taskGroups map[string]*TaskGroup
}

// NewDAG creates a DAG with default settings and an empty root task group.
func NewDAG(dagID string) *DAG {
	root := NewTaskGroup("")
	root.DagID = dagID
	return &DAG{
		DagID:            dagID,
		DefaultArgs:      map[string]any{},
		Timezone:         time.UTC,
		ScheduleInterval: DefaultScheduleInterval,
		Catchup:          true,
		MaxActiveTasks:   DefaultMaxActiveTasks,
		MaxActiveRuns:    DefaultMaxActiveRuns,
		Params:           ParamsDict{},
		EdgeInfo:         map[string]map[string]EdgeInfo{},
		tasks:            map[string]TaskInterface{},
		taskGroups:       map[string]*TaskGroup{"": root},
	}
}

// RootTaskGroup returns the root of the task group tree.
func (d *DAG) RootTaskGroup() *TaskGroup {
	return d.taskGroups[""]
}

// GetTask returns the task with the given id.
func (d *DAG) GetTask(taskID string) (TaskInterface, bool) {
	task, ok := d.tasks[taskID]
	return task, ok
}

// GetTaskGroup returns the group with the given id. The empty id returns the root group.
func (d *DAG) GetTaskGroup(groupID string) (*TaskGroup, bool) {
	group, ok := d.taskGroups[groupID]
	return group, ok
}

// TaskIDs returns the ids of all tasks in lexicographic order.
func (d *DAG) TaskIDs() []string {
	ids := make([]string, 0, len(d.tasks))
	for id := range d.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Tasks returns all tasks ordered by id.
func (d *DAG) Tasks() []TaskInterface {
	tasks := make([]TaskInterface, 0, len(d.tasks))
	for _, id := range d.TaskIDs() {
		tasks = append(tasks, d.tasks[id])
	}
	return tasks
}

// TaskGroups returns all groups, the root included, ordered by id.
func (d *DAG) TaskGroups() []*TaskGroup {
	ids := make([]string, 0, len(d.taskGroups))
	for id := range d.taskGroups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	groups := make([]*TaskGroup, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, d.taskGroups[id])
	}
	return groups
}

// AddTaskGroup adds a group under the given parent group.
func (d *DAG) AddTaskGroup(group *TaskGroup, parentGroupID string) error {
	if group.IsRoot() {
		return fmt.Errorf("DAG %q already has a root task group", d.DagID)
	}
	if _, exists := d.taskGroups[group.GroupID]; exists {
		return fmt.Errorf("task group %q already exists in DAG %q", group.GroupID, d.DagID)
	}
	if _, exists := d.tasks[group.GroupID]; exists {
		return fmt.Errorf("task group id %q clashes with a task in DAG %q", group.GroupID, d.DagID)
	}
	parent, ok := d.taskGroups[parentGroupID]
	if !ok {
		return fmt.Errorf("parent task group %q not found in DAG %q", parentGroupID, d.DagID)
	}

	group.DagID = d.DagID
	group.ParentGroupID = parentGroupID
	d.taskGroups[group.GroupID] = group
	parent.Children = append(parent.Children, ChildRef{Kind: ChildKindTaskGroup, ID: group.GroupID})
	return nil
}

// AddTask adds a task to the given group. The task's start date becomes the later of its own
// and the DAG's; its end date the earlier of the two.
func (d *DAG) AddTask(task TaskInterface, groupID string) error {
	common := task.Common()
	if common.TaskID == "" {
		return fmt.Errorf("task in DAG %q has no task id", d.DagID)
	}
	if _, exists := d.tasks[common.TaskID]; exists {
		return fmt.Errorf("task id %q has already been added to DAG %q", common.TaskID, d.DagID)
	}
	if _, exists := d.taskGroups[common.TaskID]; exists {
		return fmt.Errorf("task id %q clashes with a task group in DAG %q", common.TaskID, d.DagID)
	}
	group, ok := d.taskGroups[groupID]
	if !ok {
		return fmt.Errorf("task group %q not found in DAG %q", groupID, d.DagID)
	}

	if op, ok := task.(*Operator); ok {
		d.mergeDates(op)
	}
	common.DagID = d.DagID
	common.TaskGroupID = groupID
	d.tasks[common.TaskID] = task
	group.Children = append(group.Children, ChildRef{Kind: ChildKindOperator, ID: common.TaskID})
	return nil
}

func (d *DAG) mergeDates(op *Operator) {
	if d.StartDate != nil && (op.StartDate == nil || op.StartDate.Before(*d.StartDate)) {
		start := *d.StartDate
		op.StartDate = &start
	}
	if d.EndDate != nil && (op.EndDate == nil || op.EndDate.After(*d.EndDate)) {
		end := *d.EndDate
		op.EndDate = &end
	}
}

// SetDownstream adds an edge from the upstream task to the downstream task.
func (d *DAG) SetDownstream(upstreamID, downstreamID string) error {
	upstream, ok := d.tasks[upstreamID]
	if !ok {
		return fmt.Errorf("task %q not found in DAG %q", upstreamID, d.DagID)
	}
	downstream, ok := d.tasks[downstreamID]
	if !ok {
		return fmt.Errorf("task %q not found in DAG %q", downstreamID, d.DagID)
	}
	if upstreamID == downstreamID {
		return fmt.Errorf("task %q cannot depend on itself", upstreamID)
	}
	upstream.Common().DownstreamTaskIDs.Add(downstreamID)
	downstream.Common().UpstreamTaskIDs.Add(upstreamID)
	return nil
}

// SetEdgeLabel attaches a label to the edge between two tasks.
func (d *DAG) SetEdgeLabel(upstreamID, downstreamID, label string) {
	if d.EdgeInfo == nil {
		d.EdgeInfo = map[string]map[string]EdgeInfo{}
	}
	if d.EdgeInfo[upstreamID] == nil {
		d.EdgeInfo[upstreamID] = map[string]EdgeInfo{}
	}
	d.EdgeInfo[upstreamID][downstreamID] = EdgeInfo{Label: label}
}

// ParentGroup returns the parent of a group, or false for the root.
func (d *DAG) ParentGroup(group *TaskGroup) (*TaskGroup, bool) {
	if group.IsRoot() {
		return nil, false
	}
	parent, ok := d.taskGroups[group.ParentGroupID]
	return parent, ok
}

// TaskGroupOf returns the group a task belongs to.
func (d *DAG) TaskGroupOf(task TaskInterface) (*TaskGroup, bool) {
	group, ok := d.taskGroups[task.Common().TaskGroupID]
	return group, ok
}

// InsertTask places an already linked task into the arena. It is used by decoders, which
// attach tasks to groups in a later pass.
func (d *DAG) InsertTask(task TaskInterface) error {
	id := task.GetID()
	if _, exists := d.tasks[id]; exists {
		return fmt.Errorf("duplicate task id %q in DAG %q", id, d.DagID)
	}
	task.Common().DagID = d.DagID
	d.tasks[id] = task
	return nil
}

// InsertTaskGroup places a decoded group into the arena, replacing the root when the group
// id is empty.
func (d *DAG) InsertTaskGroup(group *TaskGroup) error {
	if !group.IsRoot() {
		if _, exists := d.taskGroups[group.GroupID]; exists {
			return fmt.Errorf("duplicate task group id %q in DAG %q", group.GroupID, d.DagID)
		}
	}
	group.DagID = d.DagID
	d.taskGroups[group.GroupID] = group
	return nil
}
