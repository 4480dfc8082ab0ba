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

package serialization

import (
	"fmt"
	"math"
	"time"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
	// kindDuration is written as plain float seconds.
	kindDuration
	// kindDate is written as plain epoch seconds.
	kindDate
	kindResources
	// kindValue goes through the generic value codec.
	kindValue
)

// operatorField describes one fixed field of a concrete task.
type operatorField struct {
	name         string
	kind         fieldKind
	defaultValue any
	// always fields are written even when they hold their default value.
	always bool
	// fromDAG returns the reference value taken from the DAG instead of the default args.
	fromDAG func(dag *model.DAG) any
	get     func(op *model.Operator) any
	set     func(op *model.Operator, value any) error
}

func stringField(name, def string, get func(*model.Operator) *string) operatorField {
	return operatorField{
		name: name, kind: kindString, defaultValue: def,
		get: func(op *model.Operator) any { return *get(op) },
		set: func(op *model.Operator, value any) error {
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("expected a string, got %T", value)
			}
			*get(op) = s
			return nil
		},
	}
}

func boolField(name string, def bool, get func(*model.Operator) *bool) operatorField {
	return operatorField{
		name: name, kind: kindBool, defaultValue: def,
		get: func(op *model.Operator) any { return *get(op) },
		set: func(op *model.Operator, value any) error {
			b, ok := value.(bool)
			if !ok {
				return fmt.Errorf("expected a boolean, got %T", value)
			}
			*get(op) = b
			return nil
		},
	}
}

func intField(name string, def int, get func(*model.Operator) *int) operatorField {
	return operatorField{
		name: name, kind: kindInt, defaultValue: def,
		get: func(op *model.Operator) any { return *get(op) },
		set: func(op *model.Operator, value any) error {
			i, ok := model.ToInt(value)
			if !ok {
				return fmt.Errorf("expected an integer, got %v", value)
			}
			*get(op) = i
			return nil
		},
	}
}

func optionalIntField(name string, get func(*model.Operator) **int) operatorField {
	return operatorField{
		name: name, kind: kindInt,
		get: func(op *model.Operator) any {
			if p := *get(op); p != nil {
				return *p
			}
			return nil
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				*get(op) = nil
				return nil
			}
			i, ok := model.ToInt(value)
			if !ok {
				return fmt.Errorf("expected an integer, got %v", value)
			}
			*get(op) = &i
			return nil
		},
	}
}

func optionalDurationField(name string, get func(*model.Operator) **time.Duration) operatorField {
	return operatorField{
		name: name, kind: kindDuration,
		get: func(op *model.Operator) any {
			if p := *get(op); p != nil {
				return *p
			}
			return nil
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				*get(op) = nil
				return nil
			}
			d, ok := value.(time.Duration)
			if !ok {
				return fmt.Errorf("expected a duration, got %T", value)
			}
			*get(op) = &d
			return nil
		},
	}
}

func dateField(name string, get func(*model.Operator) **time.Time, fromDAG func(*model.DAG) any) operatorField {
	return operatorField{
		name: name, kind: kindDate, fromDAG: fromDAG,
		get: func(op *model.Operator) any {
			if p := *get(op); p != nil {
				return *p
			}
			return nil
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				*get(op) = nil
				return nil
			}
			t, ok := value.(time.Time)
			if !ok {
				return fmt.Errorf("expected a datetime, got %T", value)
			}
			*get(op) = &t
			return nil
		},
	}
}

func listField(name string, get func(*model.Operator) *[]any) operatorField {
	return operatorField{
		name: name, kind: kindValue,
		get: func(op *model.Operator) any {
			if items := *get(op); len(items) > 0 {
				return items
			}
			return nil
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				*get(op) = nil
				return nil
			}
			items, ok := value.([]any)
			if !ok {
				return fmt.Errorf("expected a list, got %T", value)
			}
			*get(op) = items
			return nil
		},
	}
}

func dagStartDate(dag *model.DAG) any {
	if dag == nil || dag.StartDate == nil {
		return nil
	}
	return *dag.StartDate
}

func dagEndDate(dag *model.DAG) any {
	if dag == nil || dag.EndDate == nil {
		return nil
	}
	return *dag.EndDate
}

// operatorFields lists the fixed fields of concrete tasks in document order.
var operatorFields = []operatorField{
	stringField("owner", "", func(op *model.Operator) *string { return &op.Owner }),
	{
		name: "email", kind: kindValue,
		get:  func(op *model.Operator) any { return op.Email },
		set:  func(op *model.Operator, value any) error { op.Email = value; return nil },
	},
	boolField("email_on_retry", true, func(op *model.Operator) *bool { return &op.EmailOnRetry }),
	boolField("email_on_failure", true, func(op *model.Operator) *bool { return &op.EmailOnFailure }),
	dateField("start_date", func(op *model.Operator) **time.Time { return &op.StartDate }, dagStartDate),
	dateField("end_date", func(op *model.Operator) **time.Time { return &op.EndDate }, dagEndDate),
	stringField("trigger_rule", model.DefaultTriggerRule, func(op *model.Operator) *string { return &op.TriggerRule }),
	boolField("depends_on_past", false, func(op *model.Operator) *bool { return &op.DependsOnPast }),
	boolField("ignore_first_depends_on_past", true,
		func(op *model.Operator) *bool { return &op.IgnoreFirstDependsOnPast }),
	boolField("wait_for_past_depends_before_skipping", false,
		func(op *model.Operator) *bool { return &op.WaitForPastDependsBeforeSkipping }),
	boolField("wait_for_downstream", false, func(op *model.Operator) *bool { return &op.WaitForDownstream }),
	intField("retries", 0, func(op *model.Operator) *int { return &op.Retries }),
	stringField("queue", model.DefaultQueue, func(op *model.Operator) *string { return &op.Queue }),
	withAlways(stringField(taskKeyPool, model.DefaultPool, func(op *model.Operator) *string { return &op.Pool })),
	intField("pool_slots", 1, func(op *model.Operator) *int { return &op.PoolSlots }),
	optionalDurationField("execution_timeout", func(op *model.Operator) **time.Duration { return &op.ExecutionTimeout }),
	{
		name: "retry_delay", kind: kindDuration, defaultValue: model.DefaultRetryDelay,
		get: func(op *model.Operator) any { return op.RetryDelay },
		set: func(op *model.Operator, value any) error {
			d, ok := value.(time.Duration)
			if !ok {
				return fmt.Errorf("expected a duration, got %T", value)
			}
			op.RetryDelay = d
			return nil
		},
	},
	optionalDurationField("max_retry_delay", func(op *model.Operator) **time.Duration { return &op.MaxRetryDelay }),
	boolField("retry_exponential_backoff", false,
		func(op *model.Operator) *bool { return &op.RetryExponentialBackoff }),
	intField("priority_weight", 1, func(op *model.Operator) *int { return &op.PriorityWeight }),
	stringField("weight_rule", model.DefaultWeightRule, func(op *model.Operator) *string { return &op.WeightRule }),
	optionalDurationField("sla", func(op *model.Operator) **time.Duration { return &op.SLA }),
	optionalIntField("max_active_tis_per_dag", func(op *model.Operator) **int { return &op.MaxActiveTIsPerDag }),
	optionalIntField("max_active_tis_per_dagrun",
		func(op *model.Operator) **int { return &op.MaxActiveTIsPerDagrun }),
	stringField("run_as_user", "", func(op *model.Operator) *string { return &op.RunAsUser }),
	boolField("do_xcom_push", true, func(op *model.Operator) *bool { return &op.DoXComPush }),
	boolField("multiple_outputs", false, func(op *model.Operator) *bool { return &op.MultipleOutputs }),
	{
		name: "executor_config", kind: kindValue,
		get: func(op *model.Operator) any {
			if len(op.ExecutorConfig) == 0 {
				return nil
			}
			return op.ExecutorConfig
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				op.ExecutorConfig = map[string]any{}
				return nil
			}
			config, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("expected a dict, got %T", value)
			}
			op.ExecutorConfig = config
			return nil
		},
	},
	{
		name: taskKeyResources, kind: kindResources,
		get: func(op *model.Operator) any {
			if op.Resources == nil {
				return nil
			}
			return op.Resources
		},
		set: func(op *model.Operator, value any) error {
			if value == nil {
				op.Resources = nil
				return nil
			}
			resources, ok := value.(*model.Resources)
			if !ok {
				return fmt.Errorf("expected resources, got %T", value)
			}
			op.Resources = resources
			return nil
		},
	},
	stringField("doc", "", func(op *model.Operator) *string { return &op.Doc }),
	stringField("doc_md", "", func(op *model.Operator) *string { return &op.DocMD }),
	stringField("doc_json", "", func(op *model.Operator) *string { return &op.DocJSON }),
	stringField("doc_yaml", "", func(op *model.Operator) *string { return &op.DocYAML }),
	stringField("doc_rst", "", func(op *model.Operator) *string { return &op.DocRST }),
	boolField("has_on_execute_callback", false, func(op *model.Operator) *bool { return &op.HasOnExecuteCallback }),
	boolField("has_on_failure_callback", false, func(op *model.Operator) *bool { return &op.HasOnFailureCallback }),
	boolField("has_on_success_callback", false, func(op *model.Operator) *bool { return &op.HasOnSuccessCallback }),
	boolField("has_on_retry_callback", false, func(op *model.Operator) *bool { return &op.HasOnRetryCallback }),
	withAlways(boolField("is_setup", false, func(op *model.Operator) *bool { return &op.IsSetup })),
	withAlways(boolField("is_teardown", false, func(op *model.Operator) *bool { return &op.IsTeardown })),
	withAlways(boolField("on_failure_fail_dagrun", false,
		func(op *model.Operator) *bool { return &op.OnFailureFailDagrun })),
	listField("inlets", func(op *model.Operator) *[]any { return &op.Inlets }),
	listField("outlets", func(op *model.Operator) *[]any { return &op.Outlets }),
}

var operatorFieldsByName = func() map[string]*operatorField {
	byName := make(map[string]*operatorField, len(operatorFields))
	for i := range operatorFields {
		byName[operatorFields[i].name] = &operatorFields[i]
	}
	return byName
}()

func withAlways(field operatorField) operatorField {
	field.always = true
	return field
}

// isBaseOperatorField reports whether the name is a fixed field of every task.
func isBaseOperatorField(name string) bool {
	if _, ok := operatorFieldsByName[name]; ok {
		return true
	}
	switch name {
	case taskKeyID, "owner", "params", "deps", "ui_color", "ui_fgcolor", "template_fields",
		"template_ext", "template_fields_renderers", "downstream_task_ids", "task_group",
		"dag", "dag_id":
		return true
	}
	return false
}

// reference returns the value a field is compared against for omission and filled with when absent.
func (f *operatorField) reference(dag *model.DAG) any {
	if f.fromDAG != nil {
		return f.fromDAG(dag)
	}
	if dag != nil {
		if value, ok := dag.DefaultArgs[f.name]; ok {
			if coerced, ok := coerceFieldValue(f.kind, value); ok {
				return coerced
			}
		}
	}
	return f.defaultValue
}

// coerceFieldValue converts a default args value to the Go representation of a field kind.
func coerceFieldValue(kind fieldKind, value any) (any, bool) {
	if value == nil {
		return nil, true
	}
	switch kind {
	case kindString:
		s, ok := value.(string)
		return s, ok
	case kindInt:
		return model.ToInt(value)
	case kindBool:
		b, ok := value.(bool)
		return b, ok
	case kindDuration:
		if d, ok := value.(time.Duration); ok {
			return d, true
		}
		seconds, ok := model.ToFloat(value)
		if !ok {
			return nil, false
		}
		return secondsToDuration(seconds), true
	case kindDate:
		t, ok := value.(time.Time)
		return t, ok
	case kindResources:
		r, ok := value.(*model.Resources)
		return r, ok
	default:
		return value, true
	}
}

func fieldValuesEqual(kind fieldKind, a, b any) bool {
	if kind == kindResources {
		ra, _ := a.(*model.Resources)
		rb, _ := b.(*model.Resources)
		if ra == nil || rb == nil {
			return ra == nil && rb == nil
		}
		return *ra == *rb
	}
	return model.ValuesEqual(a, b)
}

// encodeField writes a field value in its kind's wire form.
func (s *Serializer) encodeField(f *operatorField, value any, path fieldPath) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch f.kind {
	case kindString, kindBool:
		return value, nil
	case kindInt:
		return encodeInteger(value, path)
	case kindDuration:
		d, ok := value.(time.Duration)
		if !ok {
			return nil, s.encodeError(path, "expected a duration, got %T", value)
		}
		return d.Seconds(), nil
	case kindDate:
		t, ok := value.(time.Time)
		if !ok {
			return nil, s.encodeError(path, "expected a datetime, got %T", value)
		}
		return epochSeconds(t), nil
	case kindResources:
		resources, ok := value.(*model.Resources)
		if !ok {
			return nil, s.encodeError(path, "expected resources, got %T", value)
		}
		return encodeResources(resources), nil
	default:
		return s.encodeValue(value, path, 0)
	}
}

// decodeField reads a field value from its kind's wire form.
func (s *Serializer) decodeField(f *operatorField, raw any, path fieldPath) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch f.kind {
	case kindString, kindBool, kindInt:
		return raw, nil
	case kindDuration:
		seconds, ok := model.ToFloat(raw)
		if !ok {
			return nil, s.decodeError(path, "expected seconds, got %v", raw)
		}
		return secondsToDuration(seconds), nil
	case kindDate:
		seconds, ok := model.ToFloat(raw)
		if !ok {
			return nil, s.decodeError(path, "expected epoch seconds, got %v", raw)
		}
		return epochToTime(seconds), nil
	case kindResources:
		fields, ok := raw.(map[string]any)
		if !ok {
			return nil, s.decodeError(path, "resources must be an object")
		}
		return decodeResources(fields)
	default:
		return s.decodeValue(raw, path, 0)
	}
}

var resourceKeys = []string{"cpus", "ram", "disk", "gpus"}

func resourceByKey(resources *model.Resources, key string) *model.Resource {
	switch key {
	case "cpus":
		return &resources.CPUs
	case "ram":
		return &resources.RAM
	case "disk":
		return &resources.Disk
	default:
		return &resources.GPUs
	}
}

func encodeResources(resources *model.Resources) map[string]any {
	out := make(map[string]any, len(resourceKeys))
	for _, key := range resourceKeys {
		resource := resourceByKey(resources, key)
		var qty any = resource.Qty
		if resource.Qty == math.Trunc(resource.Qty) && math.Abs(resource.Qty) < 1<<53 {
			qty = int(resource.Qty)
		}
		out[key] = map[string]any{"name": resource.Name, "qty": qty, "units_str": resource.UnitsStr}
	}
	return out
}

func decodeResources(fields map[string]any) (*model.Resources, error) {
	resources := model.NewResources(model.DefaultCPUs, model.DefaultRAM, model.DefaultDisk, model.DefaultGPUs)
	for _, key := range resourceKeys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		values, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("resource %q must be an object", key)
		}
		resource := resourceByKey(resources, key)
		if name, ok := values["name"].(string); ok {
			resource.Name = name
		}
		if units, ok := values["units_str"].(string); ok {
			resource.UnitsStr = units
		}
		qty, ok := model.ToFloat(values["qty"])
		if !ok {
			return nil, fmt.Errorf("resource %q requires a numeric qty", key)
		}
		resource.Qty = qty
	}
	return resources, nil
}
