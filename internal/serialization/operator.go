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
	"strings"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/system/log"
)

// reservedTaskKeys are task document keys that never hold operator specific attributes.
var reservedTaskKeys = map[string]struct{}{
	taskKeyID: {}, taskKeyType: {}, taskKeyModule: {}, taskKeyOperatorName: {}, taskKeyDownstream: {},
	taskKeyLegacyDownstream: {}, taskKeyTemplateFields: {}, taskKeyTemplateExt: {},
	taskKeyTemplateRenderers: {}, taskKeyUIColor: {}, taskKeyUIFgColor: {}, taskKeyIsEmpty: {},
	taskKeyExtraLinks: {}, taskKeyDeps: {}, taskKeyParams: {}, taskKeyIsMapped: {},
	taskKeyExpandInputAttr: {}, taskKeyPartialKwargs: {}, taskKeyDisallowKwargsOverride: {},
}

// SerializeOperator encodes a single task. The DAG supplies the default args and dates the task
// is compared against; it may be nil.
func (s *Serializer) SerializeOperator(task model.TaskInterface, dag *model.DAG) (map[string]any, error) {
	dagID := ""
	if dag != nil {
		dagID = dag.DagID
	}
	out, err := s.encodeTask(task, dag)
	if err != nil {
		return nil, encodeFailure(err, dagID, task.GetID(), "")
	}
	return out, nil
}

func (s *Serializer) encodeTask(task model.TaskInterface, dag *model.DAG) (map[string]any, error) {
	out := map[string]any{}
	if err := s.encodeTaskCommon(task.Common(), out); err != nil {
		return nil, err
	}

	switch t := task.(type) {
	case *model.Operator:
		if err := s.encodeOperatorFields(t, dag, out); err != nil {
			return nil, err
		}
		if err := s.encodeTemplatedAttrs(t, out); err != nil {
			return nil, err
		}
	case *model.MappedOperator:
		if err := s.encodeMappedFields(t, out); err != nil {
			return nil, err
		}
	default:
		return nil, &SerializationError{TaskID: task.GetID(), Msg: fmt.Sprintf("unsupported task type %T", task)}
	}
	return out, nil
}

func (s *Serializer) encodeTaskCommon(common *model.TaskCommon, out map[string]any) error {
	if common.TaskID == "" {
		return &SerializationError{Field: taskKeyID, Msg: "task has no task id"}
	}
	out[taskKeyID] = common.TaskID
	out[taskKeyType] = common.TaskType
	out[taskKeyModule] = common.TaskModule
	if common.OperatorName != "" && common.OperatorName != common.TaskType {
		out[taskKeyOperatorName] = common.OperatorName
	}
	out[taskKeyUIColor] = common.UIColor
	out[taskKeyUIFgColor] = common.UIFgColor
	out[taskKeyTemplateExt] = stringList(common.TemplateExt)
	out[taskKeyTemplateFields] = stringList(common.TemplateFields)
	renderers := make(map[string]any, len(common.TemplateFieldsRenderers))
	for field, renderer := range common.TemplateFieldsRenderers {
		renderers[field] = renderer
	}
	out[taskKeyTemplateRenderers] = renderers
	out[taskKeyDownstream] = stringList(common.DownstreamTaskIDs.Sorted())
	out[taskKeyIsEmpty] = common.IsEmpty

	for _, field := range common.TemplateFields {
		if field != "email" && isBaseOperatorField(field) {
			return &SerializationError{
				TaskID: common.TaskID,
				Field:  taskKeyTemplateFields,
				Msg:    "cannot template base operator fields: " + field,
			}
		}
	}

	if len(common.OperatorExtraLinks) > 0 {
		links := make([]any, 0, len(common.OperatorExtraLinks))
		for _, link := range common.OperatorExtraLinks {
			attrs := link.Attributes()
			if !isJSONable(attrs) {
				return &SerializationError{
					Field: taskKeyExtraLinks,
					Msg:   fmt.Sprintf("attributes of operator link %q are not JSON serializable", link.QualifiedName()),
				}
			}
			if attrs == nil {
				attrs = map[string]any{}
			}
			links = append(links, map[string]any{link.QualifiedName(): attrs})
		}
		out[taskKeyExtraLinks] = links
	}

	deps, err := s.encodeDeps(common.Deps)
	if err != nil {
		return err
	}
	if deps != nil {
		out[taskKeyDeps] = deps
	}

	if len(common.Params) > 0 {
		params, err := s.encodeParams(common.Params)
		if err != nil {
			return err
		}
		out[taskKeyParams] = params
	}
	return nil
}

// encodeDeps returns the sorted dependency names, or nil when the task uses the default checks.
func (s *Serializer) encodeDeps(deps []model.TIDep) ([]any, error) {
	if deps == nil {
		return nil, nil
	}
	names := depNames(deps)
	if strings.Join(names, ",") == strings.Join(depNames(model.DefaultTIDeps()), ",") {
		return nil, nil
	}
	out := make([]any, 0, len(names))
	for _, name := range names {
		if _, ok := s.registry.ResolveTIDep(name); !ok {
			return nil, &SerializationError{
				Field: taskKeyDeps,
				Msg:   fmt.Sprintf("Custom dep class %q is not registered", name),
			}
		}
		out = append(out, name)
	}
	return out, nil
}

func depNames(deps []model.TIDep) []string {
	seen := model.NewIDSet()
	for _, dep := range deps {
		seen.Add(dep.QualifiedName())
	}
	return seen.Sorted()
}

func (s *Serializer) encodeParams(params model.ParamsDict) (map[string]any, error) {
	out := make(map[string]any, len(params))
	for _, name := range sortedKeys(params) {
		param, ok := params[name].(*model.Param)
		if !ok {
			return nil, &SerializationError{
				Field: taskKeyParams,
				Path:  name,
				Msg: fmt.Sprintf("param %q is a %T, only %s can be serialized", name, params[name],
					model.ParamClassName),
			}
		}
		encoded, err := s.encodeParam(param, fieldPath{name}, 1)
		if err != nil {
			return nil, err
		}
		out[name] = encoded
	}
	return out, nil
}

func (s *Serializer) encodeOperatorFields(op *model.Operator, dag *model.DAG, out map[string]any) error {
	for i := range operatorFields {
		field := &operatorFields[i]
		value := field.get(op)
		if !field.always && fieldValuesEqual(field.kind, value, field.reference(dag)) {
			continue
		}
		encoded, err := s.encodeField(field, value, fieldPath{field.name})
		if err != nil {
			return encodeFailure(err, "", op.TaskID, field.name)
		}
		out[field.name] = encoded
	}
	return nil
}

// encodeTemplatedAttrs writes the rendered value of each templated attribute.
func (s *Serializer) encodeTemplatedAttrs(op *model.Operator, out map[string]any) error {
	for _, field := range op.TemplateFields {
		if field == "email" {
			continue
		}
		value, ok := op.Attrs[field]
		if !ok {
			continue
		}
		switch {
		case isJSONable(value):
			out[field] = value
		default:
			stringer, ok := value.(fmt.Stringer)
			if !ok {
				return &SerializationError{
					TaskID: op.TaskID,
					Field:  field,
					Msg:    fmt.Sprintf("templated field value of type %T cannot be serialized", value),
				}
			}
			out[field] = stringer.String()
		}
	}
	return nil
}

func (s *Serializer) encodeMappedFields(m *model.MappedOperator, out map[string]any) error {
	out[taskKeyIsMapped] = true

	attr := m.ExpandInputAttr
	if attr == "" {
		attr = model.DefaultExpandInputKey
	}
	expandInput, err := s.encodeExpandInput(m.ExpandInput, fieldPath{attr})
	if err != nil {
		return encodeFailure(err, "", m.TaskID, attr)
	}
	out[attr] = expandInput
	out[taskKeyExpandInputAttr] = attr

	mappedKeys := model.NewIDSet(m.ExpandInput.Keys()...)
	var overlap []string
	partial := map[string]any{}
	for _, key := range sortedKeys(m.PartialKwargs) {
		value := m.PartialKwargs[key]
		if mappedKeys.Has(key) {
			overlap = append(overlap, key)
			continue
		}
		if field, ok := operatorFieldsByName[key]; ok && !field.always {
			if coerced, ok := coerceFieldValue(field.kind, value); ok &&
				fieldValuesEqual(field.kind, coerced, field.defaultValue) {
				continue
			}
		}
		encoded, err := s.encodeValue(value, fieldPath{taskKeyPartialKwargs, key}, 1)
		if err != nil {
			return encodeFailure(err, "", m.TaskID, taskKeyPartialKwargs)
		}
		partial[key] = encoded
	}
	if len(overlap) > 0 {
		return &SerializationError{
			TaskID: m.TaskID,
			Field:  taskKeyPartialKwargs,
			Msg:    "mapped arguments overlap partial arguments: " + strings.Join(overlap, ", "),
		}
	}
	out[taskKeyPartialKwargs] = partial
	out[taskKeyDisallowKwargsOverride] = m.DisallowKwargsOverride
	return nil
}

func (s *Serializer) encodeExpandInput(input model.ExpandInput, path fieldPath) (map[string]any, error) {
	kind := input.Kind
	if kind == "" {
		kind = model.ExpandInputDictOfLists
	}
	if kind != model.ExpandInputDictOfLists && kind != model.ExpandInputListOfDicts {
		return nil, s.encodeError(path, "unknown expand input type %q", kind)
	}
	value, err := s.encodeValue(input.Value, path.with("value"), 1)
	if err != nil {
		return nil, err
	}
	return map[string]any{"type": string(kind), "value": value}, nil
}

// DeserializeOperator rebuilds a single task. References to other tasks' outputs are left as
// model.XComRef values until the owning DAG is decoded. The DAG may be nil.
func (s *Serializer) DeserializeOperator(data map[string]any, dag *model.DAG) (model.TaskInterface, error) {
	dagID := ""
	if dag != nil {
		dagID = dag.DagID
	}
	taskID, _ := data[taskKeyID].(string)
	task, err := s.decodeTask(data, dag)
	if err != nil {
		return nil, decodeFailure(err, dagID, taskID, "")
	}
	return task, nil
}

func (s *Serializer) decodeTask(data map[string]any, dag *model.DAG) (model.TaskInterface, error) {
	taskID, ok := data[taskKeyID].(string)
	if !ok || taskID == "" {
		return nil, &DeserializationError{Field: taskKeyID, Msg: "task requires a task_id"}
	}
	taskType, ok := data[taskKeyType].(string)
	if !ok {
		return nil, &DeserializationError{TaskID: taskID, Field: taskKeyType, Msg: "task requires a _task_type"}
	}
	taskModule, _ := data[taskKeyModule].(string)

	var task model.TaskInterface
	if mapped, _ := data[taskKeyIsMapped].(bool); mapped {
		m := model.NewMappedOperator(taskID, taskType, taskModule, model.ExpandInput{})
		if err := s.decodeMappedFields(m, data); err != nil {
			return nil, err
		}
		task = m
	} else {
		op := model.NewOperator(taskID, taskType, taskModule)
		if err := s.decodeOperatorFields(op, data, dag); err != nil {
			return nil, err
		}
		task = op
	}

	if err := s.decodeTaskCommon(task.Common(), data); err != nil {
		return nil, err
	}
	if op, ok := task.(*model.Operator); ok {
		s.decodeAttrs(op, data)
	}
	return task, nil
}

func (s *Serializer) decodeTaskCommon(common *model.TaskCommon, data map[string]any) error {
	if name, ok := data[taskKeyOperatorName].(string); ok {
		common.OperatorName = name
	} else {
		common.OperatorName = common.TaskType
	}
	if color, ok := data[taskKeyUIColor].(string); ok {
		common.UIColor = color
	}
	if color, ok := data[taskKeyUIFgColor].(string); ok {
		common.UIFgColor = color
	}
	common.IsEmpty, _ = data[taskKeyIsEmpty].(bool)

	var err error
	if common.TemplateExt, err = decodeStringList(data[taskKeyTemplateExt], taskKeyTemplateExt); err != nil {
		return err
	}
	if common.TemplateFields, err = decodeStringList(data[taskKeyTemplateFields], taskKeyTemplateFields); err != nil {
		return err
	}
	if renderers, ok := data[taskKeyTemplateRenderers].(map[string]any); ok {
		for field, renderer := range renderers {
			if name, ok := renderer.(string); ok {
				common.TemplateFieldsRenderers[field] = name
			}
		}
	}

	downstream, ok := data[taskKeyDownstream]
	if !ok {
		downstream = data[taskKeyLegacyDownstream]
	}
	ids, err := decodeStringList(downstream, taskKeyDownstream)
	if err != nil {
		return err
	}
	common.DownstreamTaskIDs = model.NewIDSet(ids...)

	if raw, ok := data[taskKeyExtraLinks]; ok {
		links, err := s.decodeOperatorLinks(common.TaskID, raw)
		if err != nil {
			return err
		}
		common.OperatorExtraLinks = links
	}

	if raw, ok := data[taskKeyDeps]; ok {
		deps, err := s.decodeDeps(common.TaskID, raw)
		if err != nil {
			return err
		}
		common.Deps = deps
	}

	if raw, ok := data[taskKeyParams]; ok {
		params, err := s.decodeParams(raw)
		if err != nil {
			return err
		}
		common.Params = params
	}
	return nil
}

func (s *Serializer) decodeOperatorLinks(taskID string, raw any) ([]model.OperatorLink, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, &DeserializationError{Field: taskKeyExtraLinks, Msg: "operator links must be a list"}
	}
	links := make([]model.OperatorLink, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &DeserializationError{Field: taskKeyExtraLinks, Msg: "operator link must be an object"}
		}
		for _, className := range sortedKeys(entry) {
			factory, ok := s.registry.ResolveOperatorLink(className)
			if !ok {
				s.logger.Error(fmt.Sprintf("Operator Link class %q not registered", className),
					log.String(log.LoggerKeyTaskID, taskID))
				continue
			}
			attrs, _ := entry[className].(map[string]any)
			if attrs == nil {
				attrs = map[string]any{}
			}
			link, err := factory(attrs)
			if err != nil {
				return nil, &DeserializationError{
					Field: taskKeyExtraLinks,
					Msg:   fmt.Sprintf("cannot build operator link %q", className),
					Err:   err,
				}
			}
			links = append(links, link)
		}
	}
	return links, nil
}

func (s *Serializer) decodeDeps(taskID string, raw any) ([]model.TIDep, error) {
	names, err := decodeStringList(raw, taskKeyDeps)
	if err != nil {
		return nil, err
	}
	deps := make([]model.TIDep, 0, len(names))
	for _, name := range names {
		dep, ok := s.registry.ResolveTIDep(name)
		if ok {
			deps = append(deps, dep)
			continue
		}
		if strings.HasPrefix(name, model.TIDepCoreNamespace) {
			s.logger.Warn(fmt.Sprintf("Dependency class %q is not available, skipping it", name),
				log.String(log.LoggerKeyTaskID, taskID))
			continue
		}
		return nil, &SerializationError{
			TaskID: taskID,
			Field:  taskKeyDeps,
			Msg:    fmt.Sprintf("Custom dep class %q is not registered", name),
		}
	}
	return deps, nil
}

// decodeParams reads a params mapping. Bare values written by older versions become Params.
func (s *Serializer) decodeParams(raw any) (model.ParamsDict, error) {
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, &DeserializationError{Field: taskKeyParams, Msg: "params must be an object"}
	}
	params := make(model.ParamsDict, len(values))
	for name, value := range values {
		path := fieldPath{name}
		if fields, ok := value.(map[string]any); ok {
			if _, structured := fields[KeyClass]; structured {
				param, err := s.decodeParam(fields, path, 1)
				if err != nil {
					return nil, decodeFailure(err, "", "", taskKeyParams)
				}
				params[name] = param
				continue
			}
		}
		decoded, err := s.decodeLoose(value, path, 1)
		if err != nil {
			return nil, decodeFailure(err, "", "", taskKeyParams)
		}
		params[name] = model.NewParam(decoded)
	}
	return params, nil
}

func (s *Serializer) decodeOperatorFields(op *model.Operator, data map[string]any, dag *model.DAG) error {
	for i := range operatorFields {
		field := &operatorFields[i]
		raw, present := data[field.name]
		var value any
		if present {
			decoded, err := s.decodeField(field, raw, fieldPath{field.name})
			if err != nil {
				return decodeFailure(err, "", op.TaskID, field.name)
			}
			value = decoded
		} else {
			value = field.reference(dag)
		}
		if value == nil && field.defaultValue != nil {
			continue
		}
		if err := field.set(op, value); err != nil {
			return &DeserializationError{TaskID: op.TaskID, Field: field.name, Msg: err.Error()}
		}
	}
	return nil
}

// decodeAttrs keeps templated values and any other operator specific keys as attributes.
func (s *Serializer) decodeAttrs(op *model.Operator, data map[string]any) {
	for key, value := range data {
		if _, reserved := reservedTaskKeys[key]; reserved {
			continue
		}
		if _, fixed := operatorFieldsByName[key]; fixed {
			continue
		}
		op.Attrs[key] = value
	}
}

func (s *Serializer) decodeMappedFields(m *model.MappedOperator, data map[string]any) error {
	attr, _ := data[taskKeyExpandInputAttr].(string)
	if attr == "" {
		attr = model.DefaultExpandInputKey
	}
	raw, ok := data[attr]
	if !ok {
		return &DeserializationError{TaskID: m.TaskID, Field: attr, Msg: "mapped task has no expand input"}
	}
	expandInput, err := s.decodeExpandInput(raw, fieldPath{attr})
	if err != nil {
		return decodeFailure(err, "", m.TaskID, attr)
	}
	m.ExpandInput = expandInput
	m.ExpandInputAttr = attr

	if raw, ok := data[taskKeyPartialKwargs]; ok && raw != nil {
		values, ok := raw.(map[string]any)
		if !ok {
			return &DeserializationError{TaskID: m.TaskID, Field: taskKeyPartialKwargs, Msg: "must be an object"}
		}
		for _, key := range sortedKeys(values) {
			decoded, err := s.decodeValue(values[key], fieldPath{taskKeyPartialKwargs, key}, 1)
			if err != nil {
				return decodeFailure(err, "", m.TaskID, taskKeyPartialKwargs)
			}
			m.PartialKwargs[key] = decoded
		}
	}
	m.DisallowKwargsOverride, _ = data[taskKeyDisallowKwargsOverride].(bool)
	return nil
}

func (s *Serializer) decodeExpandInput(raw any, path fieldPath) (model.ExpandInput, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return model.ExpandInput{}, s.decodeError(path, "expand input must be an object")
	}
	kind, _ := fields["type"].(string)
	switch model.ExpandInputKind(kind) {
	case model.ExpandInputDictOfLists, model.ExpandInputListOfDicts:
	default:
		return model.ExpandInput{}, s.decodeError(path, "unknown expand input type %q", kind)
	}
	value, err := s.decodeValue(fields["value"], path.with("value"), 1)
	if err != nil {
		return model.ExpandInput{}, err
	}
	return model.ExpandInput{Kind: model.ExpandInputKind(kind), Value: value}, nil
}

func stringList(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}
	return out
}

func decodeStringList(raw any, field string) ([]string, error) {
	if raw == nil {
		return []string{}, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &DeserializationError{Field: field, Msg: "must be a list of strings"}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		value, ok := item.(string)
		if !ok {
			return nil, &DeserializationError{Field: field, Msg: fmt.Sprintf("unexpected list item %v", item)}
		}
		out = append(out, value)
	}
	return out, nil
}
