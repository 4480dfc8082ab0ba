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

import "sort"

// XComReturnKey is the key under which a task's return value is stored.
const XComReturnKey = "return_value"

// XComRef is an unresolved reference to the output of another task, identified by task id.
type XComRef struct {
	TaskID string
	Key    string
}

// PlainXComArg is a resolved reference to the output of a task in the same DAG.
type PlainXComArg struct {
	Operator TaskInterface
	Key      string
}

// ExpandInputKind tells how the values of a mapped task are laid out.
type ExpandInputKind string

const (
	// ExpandInputDictOfLists maps each argument name to the values it expands over.
	ExpandInputDictOfLists ExpandInputKind = "dict-of-lists"
	// ExpandInputListOfDicts lists one argument mapping per expanded instance.
	ExpandInputListOfDicts ExpandInputKind = "list-of-dicts"
)

// ExpandInput is the expand specification of a mapped task or task group.
type ExpandInput struct {
	Kind  ExpandInputKind
	Value any
}

// Keys returns the sorted argument names of a dict-of-lists expand input.
func (e ExpandInput) Keys() []string {
	values, ok := e.Value.(map[string]any)
	if e.Kind != ExpandInputDictOfLists || !ok {
		return nil
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
