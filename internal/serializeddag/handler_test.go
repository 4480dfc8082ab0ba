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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/system/error/apierror"
	"github.com/asgardeo/dagserde/internal/system/error/serviceerror"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) WriteDAG(doc serialization.Document) (*SerializedDAG, bool, *serviceerror.ServiceError) {
	args := m.Called(doc)
	record, _ := args.Get(0).(*SerializedDAG)
	svcErr, _ := args.Get(2).(*serviceerror.ServiceError)
	return record, args.Bool(1), svcErr
}

func (m *serviceMock) GetDocument(dagID string) (*SerializedDAG, *serviceerror.ServiceError) {
	args := m.Called(dagID)
	record, _ := args.Get(0).(*SerializedDAG)
	svcErr, _ := args.Get(1).(*serviceerror.ServiceError)
	return record, svcErr
}

func (m *serviceMock) GetDAG(dagID string) (*model.DAG, *serviceerror.ServiceError) {
	args := m.Called(dagID)
	dag, _ := args.Get(0).(*model.DAG)
	svcErr, _ := args.Get(1).(*serviceerror.ServiceError)
	return dag, svcErr
}

func (m *serviceMock) ListDAGIDs() ([]string, *serviceerror.ServiceError) {
	args := m.Called()
	dagIDs, _ := args.Get(0).([]string)
	svcErr, _ := args.Get(1).(*serviceerror.ServiceError)
	return dagIDs, svcErr
}

func (m *serviceMock) DeleteDAG(dagID string) *serviceerror.ServiceError {
	args := m.Called(dagID)
	svcErr, _ := args.Get(0).(*serviceerror.ServiceError)
	return svcErr
}

type SerializedDAGHandlerTestSuite struct {
	suite.Suite
	service *serviceMock
	handler *serializedDAGHandler
	record  *SerializedDAG
}

func TestSerializedDAGHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SerializedDAGHandlerTestSuite))
}

func (suite *SerializedDAGHandlerTestSuite) SetupTest() {
	suite.service = &serviceMock{}
	suite.handler = newSerializedDAGHandler(suite.service)
	suite.record = &SerializedDAG{
		DagID:       "example",
		VersionID:   "3f1c2d84-7f0e-4d55-9d7a-3d1b8e1f6a10",
		Fileloc:     "/dags/example.py",
		DagHash:     "abc123",
		Data:        `{"__version":1,"dag":{"_dag_id":"example"}}`,
		LastUpdated: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (suite *SerializedDAGHandlerTestSuite) TearDownTest() {
	suite.service.AssertExpectations(suite.T())
}

func decodeErrorResponse(t *testing.T, rr *httptest.ResponseRecorder) apierror.ErrorResponse {
	var resp apierror.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func (suite *SerializedDAGHandlerTestSuite) TestPostJSONDocument() {
	suite.service.On("WriteDAG", mock.MatchedBy(func(doc serialization.Document) bool {
		return doc["__version"] == 1
	})).Return(suite.record, true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/serialized-dags",
		strings.NewReader(`{"__version": 1, "dag": {"_dag_id": "example"}}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGPostRequest(rr, req)

	assert.Equal(suite.T(), http.StatusCreated, rr.Code)
	assert.Equal(suite.T(), "application/json", rr.Header().Get("Content-Type"))
	var resp serializedDAGResponse
	require.NoError(suite.T(), json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(suite.T(), "example", resp.DagID)
	assert.Equal(suite.T(), suite.record.VersionID, resp.VersionID)
	assert.Equal(suite.T(), "abc123", resp.DagHash)
	assert.True(suite.T(), resp.Written)
}

func (suite *SerializedDAGHandlerTestSuite) TestPostYAMLDocumentUnchanged() {
	suite.service.On("WriteDAG", mock.MatchedBy(func(doc serialization.Document) bool {
		dag, ok := doc["dag"].(map[string]any)
		return ok && dag["_dag_id"] == "example"
	})).Return(suite.record, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/serialized-dags",
		strings.NewReader("__version: 1\ndag:\n  _dag_id: example\n"))
	req.Header.Set("Content-Type", "application/yaml; charset=utf-8")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGPostRequest(rr, req)

	assert.Equal(suite.T(), http.StatusOK, rr.Code)
	assert.Contains(suite.T(), rr.Body.String(), `"written":false`)
}

func (suite *SerializedDAGHandlerTestSuite) TestPostUnparsableBody() {
	testCases := []struct {
		name string
		body string
	}{
		{name: "Empty", body: ""},
		{name: "MalformedJSON", body: `{"__version": `},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/serialized-dags", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			suite.handler.HandleDAGPostRequest(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, ErrorInvalidRequestFormat.Code, decodeErrorResponse(t, rr).Code)
		})
	}
}

func (suite *SerializedDAGHandlerTestSuite) TestPostServiceErrors() {
	testCases := []struct {
		name   string
		svcErr *serviceerror.ServiceError
		status int
	}{
		{name: "UnsupportedVersion", svcErr: ErrorUnsupportedVersion.WithDescription("version 2"),
			status: http.StatusBadRequest},
		{name: "Schema", svcErr: &ErrorSchemaValidation, status: http.StatusUnprocessableEntity},
		{name: "UnresolvedClass", svcErr: &ErrorUnresolvedClass, status: http.StatusUnprocessableEntity},
		{name: "InvalidDocument", svcErr: &ErrorInvalidDocument, status: http.StatusUnprocessableEntity},
		{name: "Internal", svcErr: &ErrorInternalServerError, status: http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			suite.service.On("WriteDAG", mock.Anything).Return(nil, false, tc.svcErr).Once()

			req := httptest.NewRequest(http.MethodPost, "/serialized-dags", strings.NewReader(`{"__version": 1}`))
			rr := httptest.NewRecorder()
			suite.handler.HandleDAGPostRequest(rr, req)

			assert.Equal(t, tc.status, rr.Code)
			resp := decodeErrorResponse(t, rr)
			assert.Equal(t, tc.svcErr.Code, resp.Code)
			assert.Equal(t, tc.svcErr.Error, resp.Message)
			assert.Equal(t, tc.svcErr.ErrorDescription, resp.Description)
		})
	}
}

func (suite *SerializedDAGHandlerTestSuite) TestListDAGs() {
	suite.service.On("ListDAGIDs").Return([]string{"a", "b"}, nil).Once()

	rr := httptest.NewRecorder()
	suite.handler.HandleDAGListRequest(rr, httptest.NewRequest(http.MethodGet, "/serialized-dags", nil))

	assert.Equal(suite.T(), http.StatusOK, rr.Code)
	assert.JSONEq(suite.T(), `{"total_results": 2, "dag_ids": ["a", "b"]}`, rr.Body.String())
}

func (suite *SerializedDAGHandlerTestSuite) TestGetDocumentAsJSON() {
	suite.service.On("GetDocument", "example").Return(suite.record, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/serialized-dags/example", nil)
	req.SetPathValue("id", "example")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGGetRequest(rr, req)

	assert.Equal(suite.T(), http.StatusOK, rr.Code)
	assert.Equal(suite.T(), suite.record.Data, rr.Body.String())
	assert.Equal(suite.T(), `"abc123"`, rr.Header().Get("ETag"))
	assert.Equal(suite.T(), "application/json", rr.Header().Get("Content-Type"))
}

func (suite *SerializedDAGHandlerTestSuite) TestGetDocumentAsYAML() {
	suite.service.On("GetDocument", "example").Return(suite.record, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/serialized-dags/example", nil)
	req.SetPathValue("id", "example")
	req.Header.Set("Accept", "text/html, application/yaml")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGGetRequest(rr, req)

	assert.Equal(suite.T(), http.StatusOK, rr.Code)
	assert.Equal(suite.T(), "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(suite.T(), rr.Body.String(), "__version: 1")

	doc, err := serialization.DecodeYAML(rr.Body.Bytes())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "example", doc["dag"].(map[string]any)["_dag_id"])
}

func (suite *SerializedDAGHandlerTestSuite) TestGetMissingDocument() {
	suite.service.On("GetDocument", "missing").Return(nil, &ErrorDAGNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/serialized-dags/missing", nil)
	req.SetPathValue("id", "missing")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGGetRequest(rr, req)

	assert.Equal(suite.T(), http.StatusNotFound, rr.Code)
	assert.Equal(suite.T(), ErrorDAGNotFound.Code, decodeErrorResponse(suite.T(), rr).Code)
}

func (suite *SerializedDAGHandlerTestSuite) TestDeleteDAG() {
	suite.service.On("DeleteDAG", "example").Return(nil).Once()
	suite.service.On("DeleteDAG", "missing").Return(&ErrorDAGNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/serialized-dags/example", nil)
	req.SetPathValue("id", "example")
	rr := httptest.NewRecorder()
	suite.handler.HandleDAGDeleteRequest(rr, req)
	assert.Equal(suite.T(), http.StatusNoContent, rr.Code)
	assert.Empty(suite.T(), rr.Body.String())

	req = httptest.NewRequest(http.MethodDelete, "/serialized-dags/missing", nil)
	req.SetPathValue("id", "missing")
	rr = httptest.NewRecorder()
	suite.handler.HandleDAGDeleteRequest(rr, req)
	assert.Equal(suite.T(), http.StatusNotFound, rr.Code)
}

func (suite *SerializedDAGHandlerTestSuite) TestRoutesThroughMux() {
	suite.service.On("GetDocument", "example").Return(suite.record, nil).Once()

	mux := http.NewServeMux()
	registerRoutes(mux, suite.handler, []string{"https://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/serialized-dags/example", nil)
	req.Header.Set("Origin", "https://localhost:3000")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(suite.T(), http.StatusOK, rr.Code)
	assert.Equal(suite.T(), "https://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/serialized-dags", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(suite.T(), http.StatusNoContent, rr.Code)
}
