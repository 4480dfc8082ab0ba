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

package plugin

import (
	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/dag/timetable"
)

// Qualified names of the built-in operator links and dependency detector.
const (
	TriggerDagRunLinkName     = "dagserde.operators.trigger_dagrun.TriggerDagRunLink"
	ExternalDagLinkName       = "dagserde.sensors.external_task.ExternalDagLink"
	DefaultDependencyDetector = "dagserde.serialization.DependencyDetector"
)

// StaticOperatorLink is an operator link defined by its class name, display name and attributes.
type StaticOperatorLink struct {
	ClassName string
	LinkName  string
	Attrs     map[string]any
}

// QualifiedName returns the class name of the link.
func (l *StaticOperatorLink) QualifiedName() string { return l.ClassName }

// Name returns the display name of the link.
func (l *StaticOperatorLink) Name() string { return l.LinkName }

// Attributes returns the serialized attributes of the link.
func (l *StaticOperatorLink) Attributes() map[string]any {
	if l.Attrs == nil {
		return map[string]any{}
	}
	return l.Attrs
}

// StaticOperatorLinkFactory returns a factory building links of the given class and name.
func StaticOperatorLinkFactory(className, linkName string) OperatorLinkFactory {
	return func(attrs map[string]any) (model.OperatorLink, error) {
		return &StaticOperatorLink{ClassName: className, LinkName: linkName, Attrs: attrs}, nil
	}
}

// RegisterBuiltins registers the built-in timetables, dependency checks, operator links and the
// default dependency detector.
func RegisterBuiltins(r *Registry) error {
	timetables := map[string]TimetableFactory{
		timetable.NullTimetableName:              timetable.NewNullTimetable,
		timetable.OnceTimetableName:              timetable.NewOnceTimetable,
		timetable.ContinuousTimetableName:        timetable.NewContinuousTimetable,
		timetable.DatasetTriggeredTimetableName:  timetable.NewDatasetTriggeredTimetable,
		timetable.CronDataIntervalTimetableName:  timetable.DeserializeCronDataIntervalTimetable,
		timetable.DeltaDataIntervalTimetableName: timetable.DeserializeDeltaDataIntervalTimetable,
	}
	for name, factory := range timetables {
		if err := r.RegisterTimetable(name, factory); err != nil {
			return err
		}
	}

	deps := []model.TIDep{
		model.NotInRetryPeriodDep, model.NotPreviouslySkippedDep, model.PrevDagrunDep,
		model.TriggerRuleDep, model.ReadyToRescheduleDep, model.MappedTaskUpstreamDep,
	}
	for _, dep := range deps {
		if err := r.RegisterTIDep(dep); err != nil {
			return err
		}
	}

	if err := r.RegisterOperatorLink(TriggerDagRunLinkName,
		StaticOperatorLinkFactory(TriggerDagRunLinkName, "Triggered DAG")); err != nil {
		return err
	}
	if err := r.RegisterOperatorLink(ExternalDagLinkName,
		StaticOperatorLinkFactory(ExternalDagLinkName, "External DAG")); err != nil {
		return err
	}

	return r.RegisterDependencyDetector(DefaultDependencyDetector, &DefaultDetector{})
}

// NewDefaultRegistry creates a registry holding the built-ins. It is not frozen.
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		return nil, err
	}
	return r, nil
}
