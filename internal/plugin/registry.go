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

// Package plugin provides the registry of extension classes resolved by qualified name.
package plugin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

// ErrRegistryFrozen is returned when registering into a registry that has been frozen.
var ErrRegistryFrozen = errors.New("plugin registry is frozen")

// TimetableFactory rebuilds a timetable from its serialized state.
type TimetableFactory func(data map[string]any) (model.Timetable, error)

// OperatorLinkFactory rebuilds an operator link from its serialized attributes.
type OperatorLinkFactory func(attrs map[string]any) (model.OperatorLink, error)

// DependencyDetector extracts cross-DAG dependencies from a task.
type DependencyDetector interface {
	DetectTaskDependencies(task model.TaskInterface) []model.DagDependency
}

// Registry maps qualified names to extension classes. It is populated during start up and
// frozen before use; lookups do not lock.
type Registry struct {
	mu            sync.Mutex
	frozen        atomic.Bool
	timetables    map[string]TimetableFactory
	tiDeps        map[string]model.TIDep
	operatorLinks map[string]OperatorLinkFactory
	detectors     map[string]DependencyDetector
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		timetables:    map[string]TimetableFactory{},
		tiDeps:        map[string]model.TIDep{},
		operatorLinks: map[string]OperatorLinkFactory{},
		detectors:     map[string]DependencyDetector{},
	}
}

// RegisterTimetable registers a timetable class.
func (r *Registry) RegisterTimetable(qualifiedName string, factory TimetableFactory) error {
	return register(r, r.timetables, "timetable", qualifiedName, factory)
}

// RegisterTIDep registers a task instance dependency check.
func (r *Registry) RegisterTIDep(dep model.TIDep) error {
	return register(r, r.tiDeps, "ti dep", dep.QualifiedName(), dep)
}

// RegisterOperatorLink registers an operator link class.
func (r *Registry) RegisterOperatorLink(qualifiedName string, factory OperatorLinkFactory) error {
	return register(r, r.operatorLinks, "operator link", qualifiedName, factory)
}

// RegisterDependencyDetector registers a dependency detector.
func (r *Registry) RegisterDependencyDetector(qualifiedName string, detector DependencyDetector) error {
	return register(r, r.detectors, "dependency detector", qualifiedName, detector)
}

func register[T any](r *Registry, entries map[string]T, kind, qualifiedName string, value T) error {
	if qualifiedName == "" {
		return fmt.Errorf("cannot register %s without a qualified name", kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return fmt.Errorf("cannot register %s %q: %w", kind, qualifiedName, ErrRegistryFrozen)
	}
	if _, exists := entries[qualifiedName]; exists {
		return fmt.Errorf("%s %q is already registered", kind, qualifiedName)
	}
	entries[qualifiedName] = value
	return nil
}

// Freeze stops further registration.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen.Store(true)
}

// IsFrozen reports whether the registry has been frozen.
func (r *Registry) IsFrozen() bool {
	return r.frozen.Load()
}

// ResolveTimetable returns the factory of a timetable class.
func (r *Registry) ResolveTimetable(qualifiedName string) (TimetableFactory, bool) {
	factory, ok := r.timetables[qualifiedName]
	return factory, ok
}

// ResolveTIDep returns a registered dependency check.
func (r *Registry) ResolveTIDep(qualifiedName string) (model.TIDep, bool) {
	dep, ok := r.tiDeps[qualifiedName]
	return dep, ok
}

// ResolveOperatorLink returns the factory of an operator link class.
func (r *Registry) ResolveOperatorLink(qualifiedName string) (OperatorLinkFactory, bool) {
	factory, ok := r.operatorLinks[qualifiedName]
	return factory, ok
}

// ResolveDependencyDetector returns a registered dependency detector.
func (r *Registry) ResolveDependencyDetector(qualifiedName string) (DependencyDetector, bool) {
	detector, ok := r.detectors[qualifiedName]
	return detector, ok
}
