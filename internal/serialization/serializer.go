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

// Package serialization converts DAGs to and from versioned, schema-validated documents.
package serialization

import (
	"fmt"

	"github.com/asgardeo/dagserde/internal/plugin"
	"github.com/asgardeo/dagserde/internal/system/log"
)

const loggerComponentName = "DagSerializer"

// DefaultMaxDepth is the nesting limit used when no other limit is configured.
const DefaultMaxDepth = 256

// PodCodec converts pod specifications stored in executor configs.
type PodCodec interface {
	// CanEncode reports whether the value is a pod the codec understands.
	CanEncode(value any) bool
	// EncodePod turns a pod into a JSON compatible value.
	EncodePod(value any) (any, error)
	// DecodePod rebuilds a pod from the value EncodePod returned.
	DecodePod(value any) (any, error)
}

// Serializer encodes and decodes DAGs. It is safe for concurrent use once constructed,
// provided the registry is no longer being written to.
type Serializer struct {
	registry   *plugin.Registry
	detector   plugin.DependencyDetector
	podCodec   PodCodec
	maxDepth   int
	dagsFolder string
	logger     *log.Logger
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithPodCodec sets the codec used for pod specifications.
func WithPodCodec(codec PodCodec) Option {
	return func(s *Serializer) {
		s.podCodec = codec
	}
}

// WithMaxDepth sets the maximum nesting depth accepted in either direction.
func WithMaxDepth(depth int) Option {
	return func(s *Serializer) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithDagsFolder sets the folder recorded as the processor DAGs folder of encoded DAGs.
func WithDagsFolder(folder string) Option {
	return func(s *Serializer) {
		s.dagsFolder = folder
	}
}

// WithDependencyDetector sets the detector used for cross-DAG dependencies.
func WithDependencyDetector(detector plugin.DependencyDetector) Option {
	return func(s *Serializer) {
		s.detector = detector
	}
}

// WithLogger sets the logger used for soft failures.
func WithLogger(logger *log.Logger) Option {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// NewSerializer creates a serializer resolving extension classes through the registry.
func NewSerializer(registry *plugin.Registry, opts ...Option) (*Serializer, error) {
	if registry == nil {
		return nil, fmt.Errorf("serializer requires a plugin registry")
	}
	s := &Serializer{
		registry: registry,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLogger()
	}
	s.logger = s.logger.With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	if s.detector == nil {
		detector, ok := registry.ResolveDependencyDetector(plugin.DefaultDependencyDetector)
		if !ok {
			detector = &plugin.DefaultDetector{}
		}
		s.detector = detector
	}
	return s, nil
}

// NewSerializerWithDetector creates a serializer using the dependency detector registered under
// the given qualified name. An empty name selects the default detector.
func NewSerializerWithDetector(registry *plugin.Registry, detectorName string,
	opts ...Option) (*Serializer, error) {
	if detectorName != "" {
		detector, ok := registry.ResolveDependencyDetector(detectorName)
		if !ok {
			return nil, &ResolutionError{
				Kind:      "dependency detector",
				ClassName: detectorName,
				Msg:       fmt.Sprintf("dependency detector %q is not registered", detectorName),
			}
		}
		opts = append(opts, WithDependencyDetector(detector))
	}
	return NewSerializer(registry, opts...)
}
