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

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testResourceDir = "../../../tests/resources"

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) getFilePath(filename string) string {
	return filepath.Join(testResourceDir, filename)
}

func (suite *ConfigTestSuite) TestLoadConfigValid() {
	config, err := LoadConfig(suite.getFilePath("deployment.yaml"))

	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), config)

	assert.Equal(suite.T(), "localhost", config.Server.Hostname)
	assert.Equal(suite.T(), 8090, config.Server.Port)
	assert.False(suite.T(), config.Server.HTTPOnly)
	assert.Equal(suite.T(), "repository/resources/security/server.cert", config.Security.CertFile)
	assert.Equal(suite.T(), "repository/resources/security/server.key", config.Security.KeyFile)
	assert.Equal(suite.T(), []string{"https://localhost:3000"}, config.CORS.AllowedOrigins)

	assert.Equal(suite.T(), "sqlite", config.Database.Runtime.Type)
	assert.Equal(suite.T(), "/data/runtime.db", config.Database.Runtime.Path)
	assert.Equal(suite.T(), 10, config.Database.Runtime.MaxOpenConns)
	assert.Equal(suite.T(), 5, config.Database.Runtime.ConnectTimeout)

	assert.Equal(suite.T(), 64, config.Serialization.MaxDepth)
	assert.Equal(suite.T(), "/opt/dags", config.Serialization.DagsFolder)
	assert.True(suite.T(), config.Serialization.PodCodecEnabled)

	assert.False(suite.T(), config.Cache.Disabled)
	assert.Equal(suite.T(), 32, config.Cache.Size)
	assert.Equal(suite.T(), DefaultCacheTTL, config.Cache.TTL)
}

func (suite *ConfigTestSuite) TestApplyDefaults() {
	config := &Config{}
	config.applyDefaults()

	assert.Equal(suite.T(), DefaultMaxDepth, config.Serialization.MaxDepth)
	assert.Equal(suite.T(), DefaultCacheSize, config.Cache.Size)
	assert.Equal(suite.T(), DefaultCacheTTL, config.Cache.TTL)
}

func (suite *ConfigTestSuite) TestLoadConfigFileNotFound() {
	config, err := LoadConfig(suite.getFilePath("non_existent_config.yaml"))

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), config)
	assert.Contains(suite.T(), err.Error(), "no such file or directory")
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidYAML() {
	config, err := LoadConfig(suite.getFilePath("invalid_deployment.yaml"))

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), config)
}
