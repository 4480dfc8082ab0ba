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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DAGModelTestSuite struct {
	suite.Suite
}

func TestDAGModelTestSuite(t *testing.T) {
	suite.Run(t, new(DAGModelTestSuite))
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func (suite *DAGModelTestSuite) TestNewDAGDefaults() {
	dag := NewDAG("example")
	assert.Equal(suite.T(), DefaultScheduleInterval, dag.ScheduleInterval)
	assert.True(suite.T(), dag.Catchup)
	assert.Equal(suite.T(), time.UTC, dag.Timezone)
	root := dag.RootTaskGroup()
	require.NotNil(suite.T(), root)
	assert.True(suite.T(), root.IsRoot())
	assert.Equal(suite.T(), "example", root.DagID)
}

func (suite *DAGModelTestSuite) TestAddTaskMergesDates() {
	dag := NewDAG("example")
	dag.StartDate = date(2020, time.January, 1)
	dag.EndDate = date(2021, time.January, 1)

	early := NewOperator("early", "EmptyOperator", "m")
	early.StartDate = date(2019, time.January, 1)
	late := NewOperator("late", "EmptyOperator", "m")
	late.StartDate = date(2020, time.June, 1)
	late.EndDate = date(2020, time.July, 1)

	require.NoError(suite.T(), dag.AddTask(early, ""))
	require.NoError(suite.T(), dag.AddTask(late, ""))

	assert.Equal(suite.T(), dag.StartDate, early.StartDate)
	assert.Equal(suite.T(), dag.EndDate, early.EndDate)
	assert.Equal(suite.T(), date(2020, time.June, 1), late.StartDate)
	assert.Equal(suite.T(), date(2020, time.July, 1), late.EndDate)
	assert.Equal(suite.T(), "example", early.DagID)
}

func (suite *DAGModelTestSuite) TestAddTaskErrors() {
	dag := NewDAG("example")
	require.NoError(suite.T(), dag.AddTaskGroup(NewTaskGroup("group"), ""))
	require.NoError(suite.T(), dag.AddTask(NewOperator("task", "EmptyOperator", "m"), ""))

	assert.Error(suite.T(), dag.AddTask(NewOperator("", "EmptyOperator", "m"), ""))
	assert.Error(suite.T(), dag.AddTask(NewOperator("task", "EmptyOperator", "m"), ""))
	assert.Error(suite.T(), dag.AddTask(NewOperator("group", "EmptyOperator", "m"), ""))
	assert.Error(suite.T(), dag.AddTask(NewOperator("other", "EmptyOperator", "m"), "missing"))
	assert.Error(suite.T(), dag.AddTaskGroup(NewTaskGroup("task"), ""))
	assert.Error(suite.T(), dag.AddTaskGroup(NewTaskGroup("group"), ""))
	assert.Error(suite.T(), dag.AddTaskGroup(NewTaskGroup(""), ""))
	assert.Error(suite.T(), dag.AddTaskGroup(NewTaskGroup("nested"), "missing"))
}

func (suite *DAGModelTestSuite) TestTaskGroupTree() {
	dag := NewDAG("example")
	outer := NewTaskGroup("outer")
	inner := NewTaskGroup("outer.inner")
	require.NoError(suite.T(), dag.AddTaskGroup(outer, ""))
	require.NoError(suite.T(), dag.AddTaskGroup(inner, "outer"))
	task := NewOperator("outer.inner.task", "EmptyOperator", "m")
	require.NoError(suite.T(), dag.AddTask(task, "outer.inner"))

	parent, ok := dag.ParentGroup(inner)
	require.True(suite.T(), ok)
	assert.Same(suite.T(), outer, parent)
	_, ok = dag.ParentGroup(dag.RootTaskGroup())
	assert.False(suite.T(), ok)

	group, ok := dag.TaskGroupOf(task)
	require.True(suite.T(), ok)
	assert.Same(suite.T(), inner, group)
	assert.True(suite.T(), outer.HasChild(ChildKindTaskGroup, "outer.inner"))
	assert.True(suite.T(), inner.HasChild(ChildKindOperator, "outer.inner.task"))

	ids := make([]string, 0)
	for _, g := range dag.TaskGroups() {
		ids = append(ids, g.GroupID)
	}
	assert.Equal(suite.T(), []string{"", "outer", "outer.inner"}, ids)
}

func (suite *DAGModelTestSuite) TestSetDownstream() {
	dag := NewDAG("example")
	require.NoError(suite.T(), dag.AddTask(NewOperator("a", "EmptyOperator", "m"), ""))
	require.NoError(suite.T(), dag.AddTask(NewOperator("b", "EmptyOperator", "m"), ""))

	require.NoError(suite.T(), dag.SetDownstream("a", "b"))
	a, _ := dag.GetTask("a")
	b, _ := dag.GetTask("b")
	assert.True(suite.T(), a.Common().DownstreamTaskIDs.Has("b"))
	assert.True(suite.T(), b.Common().UpstreamTaskIDs.Has("a"))

	assert.Error(suite.T(), dag.SetDownstream("a", "a"))
	assert.Error(suite.T(), dag.SetDownstream("a", "missing"))
	assert.Error(suite.T(), dag.SetDownstream("missing", "a"))
}

func (suite *DAGModelTestSuite) TestInsertForDecoders() {
	dag := NewDAG("example")
	task := NewOperator("a", "EmptyOperator", "m")
	require.NoError(suite.T(), dag.InsertTask(task))
	assert.Error(suite.T(), dag.InsertTask(NewOperator("a", "EmptyOperator", "m")))
	assert.Equal(suite.T(), "example", task.DagID)

	root := NewTaskGroup("")
	require.NoError(suite.T(), dag.InsertTaskGroup(root))
	assert.Same(suite.T(), root, dag.RootTaskGroup())
	require.NoError(suite.T(), dag.InsertTaskGroup(NewTaskGroup("g")))
	assert.Error(suite.T(), dag.InsertTaskGroup(NewTaskGroup("g")))
}

func (suite *DAGModelTestSuite) TestEffectiveDeps() {
	op := NewOperator("a", "EmptyOperator", "m")
	assert.Equal(suite.T(), DefaultTIDeps(), op.EffectiveDeps())
	op.Deps = []TIDep{ReadyToRescheduleDep}
	assert.Equal(suite.T(), []TIDep{ReadyToRescheduleDep}, op.EffectiveDeps())
}

func (suite *DAGModelTestSuite) TestSetRescheduleMode() {
	sensor := NewOperator("wait", "ExternalTaskSensor", "m")
	sensor.SetRescheduleMode()
	assert.Equal(suite.T(), "reschedule", sensor.Attrs["mode"])
	assert.Equal(suite.T(), append(DefaultTIDeps(), ReadyToRescheduleDep), sensor.Deps)

	sensor.SetRescheduleMode()
	assert.Len(suite.T(), sensor.Deps, len(DefaultTIDeps())+1)

	mapped := NewMappedOperator("wait_each", "ExternalTaskSensor", "m", ExpandInput{
		Kind:  ExpandInputDictOfLists,
		Value: map[string]any{"external_dag_id": []any{"a", "b"}},
	})
	mapped.SetRescheduleMode()
	assert.Equal(suite.T(), "reschedule", mapped.PartialKwargs["mode"])
	assert.Contains(suite.T(), mapped.Deps, TIDep(ReadyToRescheduleDep))
}

func (suite *DAGModelTestSuite) TestMappedOperatorDefaults() {
	m := NewMappedOperator("m", "BashOperator", "mod", ExpandInput{
		Kind:  ExpandInputDictOfLists,
		Value: map[string]any{"b": []any{1}, "a": []any{2}},
	})
	assert.True(suite.T(), m.IsMapped())
	assert.Equal(suite.T(), DefaultExpandInputKey, m.ExpandInputAttr)
	assert.Equal(suite.T(), []string{"a", "b"}, m.ExpandInput.Keys())
	assert.Nil(suite.T(), ExpandInput{Kind: ExpandInputListOfDicts, Value: []any{}}.Keys())
}

func (suite *DAGModelTestSuite) TestDagDependencyOrdering() {
	trigger := DagDependency{Source: "a", Target: "b", DependencyType: "trigger", DependencyID: "t"}
	dataset := DagDependency{Source: "a", Target: "dataset", DependencyType: "dataset", DependencyID: "s3://x"}
	assert.True(suite.T(), trigger.Less(dataset))
	assert.False(suite.T(), dataset.Less(trigger))
	assert.Equal(suite.T(), "trigger:a:b:t", trigger.NodeID())
	assert.Equal(suite.T(), "dataset:s3://x", dataset.NodeID())
}
