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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/dag/timetable"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (suite *RegistryTestSuite) TestDefaultRegistryHoldsBuiltins() {
	registry, err := NewDefaultRegistry()
	require.NoError(suite.T(), err)

	for _, name := range []string{
		timetable.NullTimetableName, timetable.OnceTimetableName, timetable.ContinuousTimetableName,
		timetable.DatasetTriggeredTimetableName, timetable.CronDataIntervalTimetableName,
		timetable.DeltaDataIntervalTimetableName,
	} {
		_, ok := registry.ResolveTimetable(name)
		assert.True(suite.T(), ok, name)
	}
	for _, dep := range model.DefaultTIDeps() {
		_, ok := registry.ResolveTIDep(dep.QualifiedName())
		assert.True(suite.T(), ok, dep.QualifiedName())
	}
	_, ok := registry.ResolveOperatorLink(TriggerDagRunLinkName)
	assert.True(suite.T(), ok)
	_, ok = registry.ResolveOperatorLink(ExternalDagLinkName)
	assert.True(suite.T(), ok)
	detector, ok := registry.ResolveDependencyDetector(DefaultDependencyDetector)
	assert.True(suite.T(), ok)
	assert.IsType(suite.T(), &DefaultDetector{}, detector)
	assert.False(suite.T(), registry.IsFrozen())
}

func (suite *RegistryTestSuite) TestRegisterRejectsDuplicatesAndEmptyNames() {
	registry := NewRegistry()
	factory := StaticOperatorLinkFactory("tests.Link", "Link")

	require.NoError(suite.T(), registry.RegisterOperatorLink("tests.Link", factory))
	err := registry.RegisterOperatorLink("tests.Link", factory)
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), `operator link "tests.Link" is already registered`)

	assert.Error(suite.T(), registry.RegisterTimetable("", timetable.NewNullTimetable))
}

func (suite *RegistryTestSuite) TestFrozenRegistryRejectsRegistration() {
	registry := NewRegistry()
	registry.Freeze()
	assert.True(suite.T(), registry.IsFrozen())

	err := registry.RegisterTIDep(model.NamedTIDep("tests.Dep"))
	assert.ErrorIs(suite.T(), err, ErrRegistryFrozen)
	_, ok := registry.ResolveTIDep("tests.Dep")
	assert.False(suite.T(), ok)
}

func (suite *RegistryTestSuite) TestStaticOperatorLink() {
	factory := StaticOperatorLinkFactory("tests.Link", "Docs")
	link, err := factory(map[string]any{"index": 1})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "tests.Link", link.QualifiedName())
	assert.Equal(suite.T(), "Docs", link.Name())
	assert.Equal(suite.T(), map[string]any{"index": 1}, link.Attributes())

	empty := &StaticOperatorLink{ClassName: "tests.Link"}
	assert.Equal(suite.T(), map[string]any{}, empty.Attributes())
}

type DetectorTestSuite struct {
	suite.Suite
}

func TestDetectorTestSuite(t *testing.T) {
	suite.Run(t, new(DetectorTestSuite))
}

func (suite *DetectorTestSuite) TestTriggerAndSensor() {
	dag := model.NewDAG("main")
	trigger := model.NewOperator("fire", "TriggerDagRunOperator", "m")
	trigger.Attrs["trigger_dag_id"] = "downstream"
	sensor := model.NewOperator("wait", "ExternalTaskSensor", "m")
	sensor.Attrs["external_dag_id"] = "upstream"
	require.NoError(suite.T(), dag.AddTask(trigger, ""))
	require.NoError(suite.T(), dag.AddTask(sensor, ""))

	detector := &DefaultDetector{}
	assert.Equal(suite.T(), []model.DagDependency{
		{Source: "main", Target: "downstream", DependencyType: DependencyTypeTrigger, DependencyID: "fire"},
	}, detector.DetectTaskDependencies(trigger))
	assert.Equal(suite.T(), []model.DagDependency{
		{Source: "upstream", Target: "main", DependencyType: DependencyTypeSensor, DependencyID: "wait"},
	}, detector.DetectTaskDependencies(sensor))
}

func (suite *DetectorTestSuite) TestDatasetOutlets() {
	dag := model.NewDAG("producer")
	op := model.NewOperator("write", "EmptyOperator", "m")
	op.Outlets = []any{model.Dataset{URI: "s3://a"}, &model.Dataset{URI: "s3://b"}, (*model.Dataset)(nil), "ignored"}
	require.NoError(suite.T(), dag.AddTask(op, ""))

	deps := (&DefaultDetector{}).DetectTaskDependencies(op)
	require.Len(suite.T(), deps, 2)
	assert.Equal(suite.T(), "s3://a", deps[0].DependencyID)
	assert.Equal(suite.T(), "dataset:s3://b", deps[1].NodeID())
}

func (suite *DetectorTestSuite) TestMappedTaskUsesPartialArguments() {
	dag := model.NewDAG("main")
	m := model.NewMappedOperator("fire", "TriggerDagRunOperator", "m", model.ExpandInput{
		Kind: model.ExpandInputDictOfLists, Value: map[string]any{"conf": []any{1}},
	})
	m.PartialKwargs["trigger_dag_id"] = "downstream"
	require.NoError(suite.T(), dag.AddTask(m, ""))

	deps := (&DefaultDetector{}).DetectTaskDependencies(m)
	require.Len(suite.T(), deps, 1)
	assert.Equal(suite.T(), "downstream", deps[0].Target)
}
