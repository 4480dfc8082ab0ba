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

// Package podcodec converts Kubernetes pod specifications stored in task executor configs.
package podcodec

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
)

// Codec encodes *corev1.Pod values into their Kubernetes JSON form and back.
type Codec struct{}

// New returns a pod codec.
func New() *Codec {
	return &Codec{}
}

// CanEncode reports whether the value is a pod.
func (c *Codec) CanEncode(value any) bool {
	switch value.(type) {
	case *corev1.Pod, corev1.Pod:
		return true
	}
	return false
}

// EncodePod turns a pod into a JSON compatible map using the Kubernetes field names.
func (c *Codec) EncodePod(value any) (any, error) {
	var pod *corev1.Pod
	switch v := value.(type) {
	case *corev1.Pod:
		pod = v
	case corev1.Pod:
		pod = &v
	default:
		return nil, fmt.Errorf("expected a pod, got %T", value)
	}
	if pod == nil {
		return nil, nil
	}
	fields, err := runtime.DefaultUnstructuredConverter.ToUnstructured(pod)
	if err != nil {
		return nil, fmt.Errorf("failed to convert pod: %w", err)
	}
	return normalize(fields), nil
}

// DecodePod rebuilds a *corev1.Pod from the value EncodePod returned.
func (c *Codec) DecodePod(value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("pod payload must be an object, got %T", value)
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to read pod payload: %w", err)
	}
	pod := &corev1.Pod{}
	if err := json.Unmarshal(data, pod); err != nil {
		return nil, fmt.Errorf("failed to decode pod: %w", err)
	}
	return pod, nil
}

// normalize replaces the int64 values of unstructured objects with int.
func normalize(value any) any {
	switch v := value.(type) {
	case int64:
		return int(v)
	case map[string]any:
		for key, item := range v {
			v[key] = normalize(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalize(item)
		}
		return v
	}
	return value
}
