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

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/plugin"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/system/cache"
)

type storeMock struct {
	mock.Mock
}

func (m *storeMock) EnsureSchema() error {
	args := m.Called()
	return args.Error(0)
}

func (m *storeMock) WriteDAG(record *SerializedDAG) (bool, error) {
	args := m.Called(record)
	return args.Bool(0), args.Error(1)
}

func (m *storeMock) GetDocument(dagID string) (*SerializedDAG, error) {
	args := m.Called(dagID)
	record, _ := args.Get(0).(*SerializedDAG)
	return record, args.Error(1)
}

func (m *storeMock) ListDAGIDs() ([]string, error) {
	args := m.Called()
	dagIDs, _ := args.Get(0).([]string)
	return dagIDs, args.Error(1)
}

func (m *storeMock) DeleteDAG(dagID string) (bool, error) {
	args := m.Called(dagID)
	return args.Bool(0), args.Error(1)
}

func newTestSerializer(t *testing.T) *serialization.Serializer {
	registry, err := plugin.NewDefaultRegistry()
	require.NoError(t, err)
	serializer, err := serialization.NewSerializer(registry)
	require.NoError(t, err)
	return serializer
}

func exampleDocument(t *testing.T, serializer *serialization.Serializer) serialization.Document {
	dag := model.NewDAG("example")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dag.StartDate = &start
	dag.Fileloc = "/dags/example.py"
	require.NoError(t, dag.AddTask(model.NewOperator("extract", "EmptyOperator", "dagserde.operators.empty"), ""))
	require.NoError(t, dag.AddTask(model.NewOperator("load", "EmptyOperator", "dagserde.operators.empty"), ""))
	require.NoError(t, dag.SetDownstream("extract", "load"))

	doc, err := serializer.ToDocument(dag)
	require.NoError(t, err)
	return doc
}

type SerializedDAGServiceTestSuite struct {
	suite.Suite
	store      *storeMock
	serializer *serialization.Serializer
	service    SerializedDAGServiceInterface
	now        time.Time
}

func TestSerializedDAGServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SerializedDAGServiceTestSuite))
}

func (suite *SerializedDAGServiceTestSuite) SetupTest() {
	suite.store = &storeMock{}
	suite.serializer = newTestSerializer(suite.T())
	suite.now = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	service := newSerializedDAGService(suite.store, suite.serializer,
		cache.NewInMemoryCache[*model.DAG](true, 8, time.Minute)).(*serializedDAGService)
	service.now = func() time.Time { return suite.now }
	suite.service = service
}

func (suite *SerializedDAGServiceTestSuite) TearDownTest() {
	suite.store.AssertExpectations(suite.T())
}

func (suite *SerializedDAGServiceTestSuite) TestWriteDAGStoresCanonicalText() {
	doc := exampleDocument(suite.T(), suite.serializer)
	decoded, err := suite.serializer.FromDocument(doc)
	require.NoError(suite.T(), err)
	expectedText, err := suite.serializer.ToText(decoded)
	require.NoError(suite.T(), err)

	suite.store.On("WriteDAG", mock.AnythingOfType("*serializeddag.SerializedDAG")).Return(true, nil).Once()

	record, written, svcErr := suite.service.WriteDAG(doc)

	require.Nil(suite.T(), svcErr)
	assert.True(suite.T(), written)
	assert.Equal(suite.T(), "example", record.DagID)
	assert.Equal(suite.T(), "/dags/example.py", record.Fileloc)
	assert.Equal(suite.T(), expectedText, record.Data)
	assert.Equal(suite.T(), hashText(record.Data), record.DagHash)
	assert.Len(suite.T(), record.DagHash, 64)
	assert.Equal(suite.T(), suite.now, record.LastUpdated)
	_, err = uuid.Parse(record.VersionID)
	assert.NoError(suite.T(), err)

	suite.store.On("GetDocument", "example").Return(record, nil).Once()
	dag, svcErr := suite.service.GetDAG("example")
	require.Nil(suite.T(), svcErr)
	assert.Equal(suite.T(), []string{"extract", "load"}, dag.TaskIDs())
}

func (suite *SerializedDAGServiceTestSuite) TestWriteDAGUnchanged() {
	doc := exampleDocument(suite.T(), suite.serializer)
	stored := &SerializedDAG{DagID: "example", VersionID: "stored-version"}

	suite.store.On("WriteDAG", mock.Anything).Return(false, nil).Once()
	suite.store.On("GetDocument", "example").Return(stored, nil).Once()

	record, written, svcErr := suite.service.WriteDAG(doc)

	assert.Nil(suite.T(), svcErr)
	assert.False(suite.T(), written)
	assert.Same(suite.T(), stored, record)
}

func (suite *SerializedDAGServiceTestSuite) TestWriteDAGStoreError() {
	suite.store.On("WriteDAG", mock.Anything).Return(false, errors.New("disk full")).Once()

	_, _, svcErr := suite.service.WriteDAG(exampleDocument(suite.T(), suite.serializer))

	assert.Equal(suite.T(), &ErrorInternalServerError, svcErr)
}

func (suite *SerializedDAGServiceTestSuite) TestWriteDAGRejectsInvalidDocuments() {
	newer := exampleDocument(suite.T(), suite.serializer)
	newer["__version"] = 2
	withoutDAG := serialization.Document{"__version": 1}
	missingTimetable := exampleDocument(suite.T(), suite.serializer)
	dagData := missingTimetable["dag"].(map[string]any)
	delete(dagData, "schedule_interval")
	dagData["timetable"] = map[string]any{"__type": "tests.missing.Timetable", "__var": map[string]any{}}

	testCases := []struct {
		name string
		doc  serialization.Document
		code string
	}{
		{name: "NewerVersion", doc: newer, code: ErrorUnsupportedVersion.Code},
		{name: "SchemaViolation", doc: withoutDAG, code: ErrorSchemaValidation.Code},
		{name: "UnregisteredTimetable", doc: missingTimetable, code: ErrorUnresolvedClass.Code},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			record, written, svcErr := suite.service.WriteDAG(tc.doc)
			require.NotNil(t, svcErr)
			assert.Equal(t, tc.code, svcErr.Code)
			assert.NotEmpty(t, svcErr.ErrorDescription)
			assert.Nil(t, record)
			assert.False(t, written)
		})
	}
}

func (suite *SerializedDAGServiceTestSuite) TestGetDAGDecodesOncePerVersion() {
	doc := exampleDocument(suite.T(), suite.serializer)
	text, err := serialization.EncodeJSON(doc)
	require.NoError(suite.T(), err)
	record := &SerializedDAG{DagID: "example", DagHash: hashText(string(text)), Data: string(text)}
	suite.store.On("GetDocument", "example").Return(record, nil).Twice()

	first, svcErr := suite.service.GetDAG("example")
	require.Nil(suite.T(), svcErr)
	second, svcErr := suite.service.GetDAG("example")
	require.Nil(suite.T(), svcErr)

	assert.Same(suite.T(), first, second)
	assert.Equal(suite.T(), "example", first.DagID)
}

func (suite *SerializedDAGServiceTestSuite) TestGetDAGWithUndecodableDocument() {
	record := &SerializedDAG{DagID: "broken", DagHash: "h", Data: `{"__version":1}`}
	suite.store.On("GetDocument", "broken").Return(record, nil).Once()

	dag, svcErr := suite.service.GetDAG("broken")

	assert.Nil(suite.T(), dag)
	require.NotNil(suite.T(), svcErr)
	assert.Equal(suite.T(), ErrorInternalServerError.Code, svcErr.Code)
}

func (suite *SerializedDAGServiceTestSuite) TestGetDocument() {
	suite.store.On("GetDocument", "missing").Return(nil, ErrDAGNotFound).Once()
	suite.store.On("GetDocument", "failing").Return(nil, errors.New("down")).Once()

	_, svcErr := suite.service.GetDocument("  ")
	assert.Equal(suite.T(), &ErrorInvalidDAGID, svcErr)
	_, svcErr = suite.service.GetDocument("missing")
	assert.Equal(suite.T(), &ErrorDAGNotFound, svcErr)
	_, svcErr = suite.service.GetDocument("failing")
	assert.Equal(suite.T(), &ErrorInternalServerError, svcErr)
}

func (suite *SerializedDAGServiceTestSuite) TestListDAGIDs() {
	suite.store.On("ListDAGIDs").Return([]string{"a", "b"}, nil).Once()
	dagIDs, svcErr := suite.service.ListDAGIDs()
	assert.Nil(suite.T(), svcErr)
	assert.Equal(suite.T(), []string{"a", "b"}, dagIDs)

	suite.store.On("ListDAGIDs").Return(nil, errors.New("down")).Once()
	_, svcErr = suite.service.ListDAGIDs()
	assert.Equal(suite.T(), &ErrorInternalServerError, svcErr)
}

func (suite *SerializedDAGServiceTestSuite) TestDeleteDAG() {
	suite.store.On("DeleteDAG", "example").Return(true, nil).Once()
	suite.store.On("DeleteDAG", "missing").Return(false, nil).Once()
	suite.store.On("DeleteDAG", "failing").Return(false, errors.New("down")).Once()

	assert.Nil(suite.T(), suite.service.DeleteDAG("example"))
	assert.Equal(suite.T(), &ErrorDAGNotFound, suite.service.DeleteDAG("missing"))
	assert.Equal(suite.T(), &ErrorInternalServerError, suite.service.DeleteDAG("failing"))
	assert.Equal(suite.T(), &ErrorInvalidDAGID, suite.service.DeleteDAG(""))
}
