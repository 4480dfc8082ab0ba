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

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/system/config"
)

type CommandsTestSuite struct {
	suite.Suite
	dir      string
	jsonPath string
	text     string
}

func TestCommandsTestSuite(t *testing.T) {
	suite.Run(t, new(CommandsTestSuite))
}

func (suite *CommandsTestSuite) SetupTest() {
	serializer, err := newSerializer(config.SerializationConfig{})
	require.NoError(suite.T(), err)

	dag := model.NewDAG("example")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	dag.StartDate = &start
	require.NoError(suite.T(), dag.AddTask(model.NewOperator("extract", "EmptyOperator", "dagserde.operators.empty"), ""))
	require.NoError(suite.T(), dag.AddTask(model.NewOperator("load", "EmptyOperator", "dagserde.operators.empty"), ""))
	require.NoError(suite.T(), dag.SetDownstream("extract", "load"))

	suite.text, err = serializer.ToText(dag)
	require.NoError(suite.T(), err)
	suite.dir = suite.T().TempDir()
	suite.jsonPath = suite.writeFile("example.json", suite.text)
}

func (suite *CommandsTestSuite) writeFile(name, content string) string {
	path := filepath.Join(suite.dir, name)
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (suite *CommandsTestSuite) TestValidate() {
	var out bytes.Buffer
	err := runValidate([]string{suite.jsonPath}, &out)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "example: valid (2 tasks, 0 task groups)\n", out.String())
}

func (suite *CommandsTestSuite) TestValidateFailures() {
	newer := suite.writeFile("newer.json", strings.Replace(suite.text, `"__version":1`, `"__version":2`, 1))
	noDAG := suite.writeFile("nodag.json", `{"__version": 1}`)
	cfgPath := suite.writeFile("deployment.yaml", "serialization:\n  dependency_detector: tests.Missing\n")

	testCases := []struct {
		name    string
		args    []string
		message string
	}{
		{name: "NoFile", args: []string{}, message: "validate expects exactly one document file"},
		{name: "NewerVersion", args: []string{newer}, message: "unsupported version: "},
		{name: "SchemaViolation", args: []string{noDAG}, message: "schema violation: "},
		{name: "UnknownFormat", args: []string{"-format", "toml", suite.jsonPath},
			message: `unsupported document format "toml"`},
		{name: "UnknownDetector", args: []string{"-config", cfgPath, suite.jsonPath},
			message: `dependency detector "tests.Missing" is not registered`},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			err := runValidate(tc.args, &out)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
			assert.Empty(t, out.String())
		})
	}
}

func (suite *CommandsTestSuite) TestRoundtrip() {
	var out bytes.Buffer
	require.NoError(suite.T(), runRoundtrip([]string{suite.jsonPath}, &out))
	assert.Equal(suite.T(), suite.text+"\n", out.String())
}

func (suite *CommandsTestSuite) TestConvertBothWays() {
	var yamlOut bytes.Buffer
	require.NoError(suite.T(), runConvert([]string{suite.jsonPath}, &yamlOut))
	assert.Contains(suite.T(), yamlOut.String(), "__version: 1")
	yamlPath := suite.writeFile("example.yaml", yamlOut.String())

	var jsonOut bytes.Buffer
	require.NoError(suite.T(), runConvert([]string{yamlPath}, &jsonOut))
	assert.Equal(suite.T(), suite.text+"\n", jsonOut.String())

	var roundtripOut bytes.Buffer
	require.NoError(suite.T(), runRoundtrip([]string{yamlPath}, &roundtripOut))
	assert.Equal(suite.T(), suite.text+"\n", roundtripOut.String())
}

func (suite *CommandsTestSuite) TestConvertRejectsUnknownOutput() {
	var out bytes.Buffer
	err := runConvert([]string{"-to", "xml", suite.jsonPath}, &out)
	assert.EqualError(suite.T(), err, `unsupported output format "xml"`)
}

func (suite *CommandsTestSuite) TestNewSerializerWithPodCodec() {
	serializer, err := newSerializer(config.SerializationConfig{PodCodecEnabled: true, MaxDepth: 8})
	require.NoError(suite.T(), err)

	deep := map[string]any{}
	current := deep
	for i := 0; i < 10; i++ {
		next := map[string]any{}
		current["nested"] = next
		current = next
	}
	_, err = serializer.Serialize(deep)
	assert.ErrorIs(suite.T(), err, serialization.ErrDepthExceeded)
}

func (suite *CommandsTestSuite) TestFormatFromPath() {
	assert.Equal(suite.T(), formatYAML, formatFromPath("dag.YML"))
	assert.Equal(suite.T(), formatYAML, formatFromPath("dag.yaml"))
	assert.Equal(suite.T(), formatJSON, formatFromPath("dag.json"))
	assert.Equal(suite.T(), formatJSON, formatFromPath("-"))
}
