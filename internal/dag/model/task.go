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

import "time"

// Operator defaults.
const (
	DefaultPool           = "default_pool"
	DefaultQueue          = "default"
	DefaultTriggerRule    = "all_success"
	DefaultWeightRule     = "downstream"
	DefaultUIColor        = "#fff"
	DefaultUIFgColor      = "#000"
	DefaultRetryDelay     = 300 * time.Second
	DefaultExpandInputKey = "expand_input"
)

// TaskInterface is implemented by the concrete and mapped task variants.
type TaskInterface interface {
	GetID() string
	GetTaskType() string
	IsMapped() bool
	Common() *TaskCommon
}

// OperatorLink is an extra link shown for a task.
type OperatorLink interface {
	QualifiedName() string
	Name() string
	Attributes() map[string]any
}

// TaskCommon holds the fields shared by every task variant.
type TaskCommon struct {
	TaskID       string
	TaskType     string
	TaskModule   string
	OperatorName string

	// DagID and TaskGroupID reference the owning DAG and group by id. An empty TaskGroupID
	// means the root group.
	DagID       string
	TaskGroupID string

	UpstreamTaskIDs   IDSet
	DownstreamTaskIDs IDSet

	TemplateFields          []string
	TemplateExt             []string
	TemplateFieldsRenderers map[string]string

	UIColor            string
	UIFgColor          string
	IsEmpty            bool
	OperatorExtraLinks []OperatorLink

	// Deps is nil when the task uses the default dependency checks.
	Deps   []TIDep
	Params ParamsDict
}

func newTaskCommon(taskID, taskType, taskModule string) TaskCommon {
	return TaskCommon{
		TaskID:                  taskID,
		TaskType:                taskType,
		TaskModule:              taskModule,
		UpstreamTaskIDs:         IDSet{},
		DownstreamTaskIDs:       IDSet{},
		TemplateFields:          []string{},
		TemplateExt:             []string{},
		TemplateFieldsRenderers: map[string]string{},
		UIColor:                 DefaultUIColor,
		UIFgColor:               DefaultUIFgColor,
		Params:                  ParamsDict{},
	}
}

// GetID returns the task id.
func (c *TaskCommon) GetID() string {
	return c.TaskID
}

// GetTaskType returns the operator class name of the task.
func (c *TaskCommon) GetTaskType() string {
	return c.TaskType
}

// Common returns the shared task fields.
func (c *TaskCommon) Common() *TaskCommon {
	return c
}

// EffectiveDeps returns the dependency checks of the task, falling back to the defaults.
func (c *TaskCommon) EffectiveDeps() []TIDep {
	if c.Deps == nil {
		return DefaultTIDeps()
	}
	return c.Deps
}

// Operator is a concrete task with a fixed field set.
type Operator struct {
	TaskCommon

	Owner                            string
	Email                            any
	EmailOnRetry                     bool
	EmailOnFailure                   bool
	StartDate                        *time.Time
	EndDate                          *time.Time
	TriggerRule                      string
	DependsOnPast                    bool
	IgnoreFirstDependsOnPast         bool
	WaitForPastDependsBeforeSkipping bool
	WaitForDownstream                bool
	Retries                          int
	Queue                            string
	Pool                             string
	PoolSlots                        int
	ExecutionTimeout                 *time.Duration
	RetryDelay                       time.Duration
	MaxRetryDelay                    *time.Duration
	RetryExponentialBackoff          bool
	PriorityWeight                   int
	WeightRule                       string
	SLA                              *time.Duration
	MaxActiveTIsPerDag               *int
	MaxActiveTIsPerDagrun            *int
	RunAsUser                        string
	DoXComPush                       bool
	MultipleOutputs                  bool
	ExecutorConfig                   map[string]any
	Resources                        *Resources
	Doc                              string
	DocMD                            string
	DocJSON                          string
	DocYAML                          string
	DocRST                           string
	HasOnExecuteCallback             bool
	HasOnFailureCallback             bool
	HasOnSuccessCallback             bool
	HasOnRetryCallback               bool
	IsSetup                          bool
	IsTeardown                       bool
	OnFailureFailDagrun              bool
	Inlets                           []any
	Outlets                          []any

	// Attrs holds operator specific attributes such as templated arguments.
	Attrs map[string]any
}

// NewOperator creates a concrete task with default field values.
func NewOperator(taskID, taskType, taskModule string) *Operator {
	return &Operator{
		TaskCommon:               newTaskCommon(taskID, taskType, taskModule),
		EmailOnRetry:             true,
		EmailOnFailure:           true,
		TriggerRule:              DefaultTriggerRule,
		IgnoreFirstDependsOnPast: true,
		Queue:                    DefaultQueue,
		Pool:                     DefaultPool,
		PoolSlots:                1,
		RetryDelay:               DefaultRetryDelay,
		PriorityWeight:           1,
		WeightRule:               DefaultWeightRule,
		DoXComPush:               true,
		ExecutorConfig:           map[string]any{},
		Attrs:                    map[string]any{},
	}
}

// IsMapped reports false for concrete tasks.
func (o *Operator) IsMapped() bool {
	return false
}

// SetRescheduleMode switches a sensor to reschedule mode, which adds the reschedule readiness
// check to its dependency checks.
func (o *Operator) SetRescheduleMode() {
	o.Attrs["mode"] = "reschedule"
	o.addDep(ReadyToRescheduleDep)
}

func (c *TaskCommon) addDep(dep TIDep) {
	deps := append([]TIDep{}, c.EffectiveDeps()...)
	for _, existing := range deps {
		if existing.QualifiedName() == dep.QualifiedName() {
			c.Deps = deps
			return
		}
	}
	c.Deps = append(deps, dep)
}

// MappedOperator is a task that fans out into many instances at run time.
type MappedOperator struct {
	TaskCommon

	ExpandInput ExpandInput
	// ExpandInputAttr is the document key of the expand input, such as "op_kwargs_expand_input".
	ExpandInputAttr        string
	PartialKwargs          map[string]any
	DisallowKwargsOverride bool
}

// NewMappedOperator creates a mapped task expanding over the given input.
func NewMappedOperator(taskID, taskType, taskModule string, expandInput ExpandInput) *MappedOperator {
	return &MappedOperator{
		TaskCommon:      newTaskCommon(taskID, taskType, taskModule),
		ExpandInput:     expandInput,
		ExpandInputAttr: DefaultExpandInputKey,
		PartialKwargs:   map[string]any{},
	}
}

// IsMapped reports true for mapped tasks.
func (m *MappedOperator) IsMapped() bool {
	return true
}

// SetRescheduleMode switches a mapped sensor to reschedule mode through its partial arguments.
func (m *MappedOperator) SetRescheduleMode() {
	m.PartialKwargs["mode"] = "reschedule"
	m.addDep(ReadyToRescheduleDep)
}
