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

// Resource is a single resource request of a task.
type Resource struct {
	Name     string
	Qty      float64
	UnitsStr string
}

// Resources holds the resource requests of a task.
type Resources struct {
	CPUs Resource
	RAM  Resource
	Disk Resource
	GPUs Resource
}

// Default resource quantities.
const (
	DefaultCPUs = 1
	DefaultRAM  = 512
	DefaultDisk = 512
	DefaultGPUs = 0
)

// NewResources creates a resource request with the given quantities.
func NewResources(cpus, ram, disk, gpus float64) *Resources {
	return &Resources{
		CPUs: Resource{Name: "CPU", Qty: cpus, UnitsStr: "core(s)"},
		RAM:  Resource{Name: "RAM", Qty: ram, UnitsStr: "MB"},
		Disk: Resource{Name: "Disk", Qty: disk, UnitsStr: "MB"},
		GPUs: Resource{Name: "GPU", Qty: gpus, UnitsStr: "gpu(s)"},
	}
}
