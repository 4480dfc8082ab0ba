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

package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type AccessLogTestSuite struct {
	suite.Suite
}

func TestAccessLogSuite(t *testing.T) {
	suite.Run(t, new(AccessLogTestSuite))
}

func (suite *AccessLogTestSuite) TestAccessLogHandler() {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := AccessLogHandler(NewLogger(core), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/serialized-dags", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(suite.T(), http.StatusCreated, rr.Code)
	entries := logs.All()
	assert.Len(suite.T(), entries, 1)
	assert.Contains(suite.T(), entries[0].Message, "10.0.0.7 - - [")
	assert.Contains(suite.T(), entries[0].Message, `"POST /serialized-dags HTTP/1.1" 201 5 `)
}

func (suite *AccessLogTestSuite) TestAccessLogHandlerDefaultsToOK() {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := AccessLogHandler(NewLogger(core), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/serialized-dags", nil)
	req.RemoteAddr = "local"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	assert.Len(suite.T(), entries, 1)
	assert.Contains(suite.T(), entries[0].Message, `local - - [`)
	assert.Contains(suite.T(), entries[0].Message, `" 200 0 `)
}
