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

import "sync"

// DagserdeRuntime holds the runtime configuration for the server.
type DagserdeRuntime struct {
	DagserdeHome string `yaml:"dagserde_home"`
	Config       Config `yaml:"config"`
}

var (
	runtimeConfig *DagserdeRuntime
	once          sync.Once
)

// InitializeDagserdeRuntime initializes the DagserdeRuntime configuration.
func InitializeDagserdeRuntime(dagserdeHome string, config *Config) error {
	once.Do(func() {
		runtimeConfig = &DagserdeRuntime{
			DagserdeHome: dagserdeHome,
			Config:       *config,
		}
	})

	return nil
}

// GetDagserdeRuntime returns the DagserdeRuntime configuration.
func GetDagserdeRuntime() *DagserdeRuntime {
	if runtimeConfig == nil {
		panic("DagserdeRuntime is not initialized")
	}
	return runtimeConfig
}

// ResetDagserdeRuntime resets the DagserdeRuntime.
// This should only be used in tests to reset the singleton state.
func ResetDagserdeRuntime() {
	runtimeConfig = nil
	once = sync.Once{}
}
