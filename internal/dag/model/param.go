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

// ParamClassName is the qualified name recorded for structured parameters.
const ParamClassName = "dagserde.models.param.Param"

// ParamInterface is implemented by values stored in a ParamsDict.
type ParamInterface interface {
	GetValue() any
}

// Param is a structured parameter with a default value and validation constraints.
type Param struct {
	Value       any
	Description *string
	Schema      map[string]any
}

// NewParam creates a parameter holding the given default value.
func NewParam(value any) *Param {
	return &Param{
		Value:  value,
		Schema: map[string]any{},
	}
}

// GetValue returns the default value of the parameter.
func (p *Param) GetValue() any {
	return p.Value
}

// ParamsDict holds the parameters of a DAG or task by name.
type ParamsDict map[string]ParamInterface

// Set stores a parameter, wrapping bare values into a Param.
func (p ParamsDict) Set(name string, value any) {
	if param, ok := value.(ParamInterface); ok {
		p[name] = param
		return
	}
	p[name] = NewParam(value)
}

// Dump returns the default value of every parameter.
func (p ParamsDict) Dump() map[string]any {
	out := make(map[string]any, len(p))
	for name, param := range p {
		out[name] = param.GetValue()
	}
	return out
}
