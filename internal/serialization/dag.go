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
	"sort"
	"time"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/dag/timetable"
	"github.com/asgardeo/dagserde/internal/plugin"
	"github.com/asgardeo/dagserde/internal/system/log"
)

// ToDocument encodes a DAG into a versioned document.
func (s *Serializer) ToDocument(dag *model.DAG) (Document, error) {
	body, err := s.SerializeDAG(dag)
	if err != nil {
		return nil, err
	}
	return Document{KeyVersion: CurrentVersion, KeyDAG: body}, nil
}

// FromDocument checks the version and the shape of a document and rebuilds its DAG.
func (s *Serializer) FromDocument(doc Document) (*model.DAG, error) {
	if err := checkVersion(doc); err != nil {
		return nil, err
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, err
	}
	body, ok := doc[KeyDAG].(map[string]any)
	if !ok {
		return nil, &SchemaError{Msg: "document has no dag object"}
	}
	return s.DeserializeDAG(body)
}

func checkVersion(doc Document) error {
	raw, ok := doc[KeyVersion]
	if !ok {
		return &SchemaError{Msg: "document has no " + KeyVersion}
	}
	var version int
	switch v := raw.(type) {
	case int:
		version = v
	case int64:
		version = int(v)
	default:
		return &SchemaError{Msg: fmt.Sprintf("%s must be an integer, got %v", KeyVersion, raw)}
	}
	if version < 1 {
		return &SchemaError{Msg: fmt.Sprintf("%s must be at least 1, got %d", KeyVersion, version)}
	}
	if version > CurrentVersion {
		return &VersionError{Version: version, Supported: CurrentVersion}
	}
	return nil
}

// SerializeDAG encodes the body of a DAG document.
func (s *Serializer) SerializeDAG(dag *model.DAG) (map[string]any, error) {
	if dag == nil {
		return nil, &SerializationError{Msg: "no DAG given"}
	}
	out, err := s.encodeDAG(dag)
	if err != nil {
		return nil, encodeFailure(err, dag.DagID, "", "")
	}
	return out, nil
}

func (s *Serializer) encodeDAG(dag *model.DAG) (map[string]any, error) {
	if dag.DagID == "" {
		return nil, &SerializationError{Field: dagKeyID, Msg: "DAG has no dag id"}
	}
	out := map[string]any{
		dagKeyID:         dag.DagID,
		dagKeyFileloc:    nullableString(dag.Fileloc),
		dagKeyDagsFolder: nullableString(s.processorDagsFolder(dag)),
		dagKeyTimezone:   encodeLocation(dag.Timezone),
	}

	if len(dag.DefaultArgs) > 0 {
		defaultArgs, err := s.encodeValue(dag.DefaultArgs, fieldPath{dagKeyDefaultArgs}, 0)
		if err != nil {
			return nil, encodeFailure(err, "", "", dagKeyDefaultArgs)
		}
		out[dagKeyDefaultArgs] = defaultArgs
	}
	if dag.StartDate != nil {
		out[dagKeyStartDate] = epochSeconds(*dag.StartDate)
	}
	if dag.EndDate != nil {
		out[dagKeyEndDate] = epochSeconds(*dag.EndDate)
	}
	if err := s.encodeSchedule(dag, out); err != nil {
		return nil, err
	}

	triggers := make([]any, 0, len(dag.DatasetTriggers))
	for i, dataset := range dag.DatasetTriggers {
		encoded, err := s.encodeDataset(dataset, fieldPath{dagKeyDatasetTriggers, fmt.Sprintf("list[%d]", i)})
		if err != nil {
			return nil, encodeFailure(err, "", "", dagKeyDatasetTriggers)
		}
		triggers = append(triggers, encoded)
	}
	out[dagKeyDatasetTriggers] = triggers

	if err := s.encodeDAGSettings(dag, out); err != nil {
		return nil, err
	}

	params, err := s.encodeParams(dag.Params)
	if err != nil {
		return nil, encodeFailure(err, "", "", dagKeyParams)
	}
	out[dagKeyParams] = params
	out[dagKeyEdgeInfo] = encodeEdgeInfo(dag.EdgeInfo)

	tasks := make([]any, 0, len(dag.TaskIDs()))
	for _, task := range dag.Tasks() {
		encoded, err := s.encodeTask(task, dag)
		if err != nil {
			return nil, encodeFailure(err, "", task.GetID(), "")
		}
		tasks = append(tasks, encoded)
	}
	out[dagKeyTasks] = tasks

	group, err := s.encodeTaskGroup(dag, dag.RootTaskGroup(), 0)
	if err != nil {
		return nil, err
	}
	out[dagKeyTaskGroup] = group

	deps := s.collectDependencies(dag)
	encodedDeps := make([]any, 0, len(deps))
	for _, dep := range deps {
		encodedDeps = append(encodedDeps, map[string]any{
			"source":          dep.Source,
			"target":          dep.Target,
			"dependency_type": dep.DependencyType,
			"dependency_id":   dep.DependencyID,
		})
	}
	out[dagKeyDagDependencies] = encodedDeps
	return out, nil
}

func (s *Serializer) processorDagsFolder(dag *model.DAG) string {
	if dag.ProcessorDagsFolder != "" {
		return dag.ProcessorDagsFolder
	}
	return s.dagsFolder
}

func (s *Serializer) encodeSchedule(dag *model.DAG, out map[string]any) error {
	if dag.ScheduleInterval != nil {
		switch interval := dag.ScheduleInterval.(type) {
		case string:
			out[dagKeyScheduleInterval] = interval
		case time.Duration, model.RelativeDelta:
			encoded, err := s.encodeValue(interval, fieldPath{dagKeyScheduleInterval}, 0)
			if err != nil {
				return err
			}
			out[dagKeyScheduleInterval] = encoded
		default:
			return &SerializationError{
				Field: dagKeyScheduleInterval,
				Msg:   fmt.Sprintf("unsupported schedule interval type %T", dag.ScheduleInterval),
			}
		}
		return nil
	}

	rule := dag.Timetable
	if rule == nil {
		rule = timetable.NullTimetable{}
	}
	className := rule.QualifiedName()
	if _, ok := s.registry.ResolveTimetable(className); !ok {
		resolutionErr := newTimetableNotRegisteredError(className)
		return &SerializationError{Msg: resolutionErr.Msg, Err: resolutionErr}
	}
	state := rule.Serialize()
	if state == nil {
		state = map[string]any{}
	}
	if !isJSONable(state) {
		return &SerializationError{
			Field: dagKeyTimetable,
			Msg:   fmt.Sprintf("state of timetable %q is not JSON serializable", className),
		}
	}
	out[dagKeyTimetable] = map[string]any{KeyType: className, KeyVar: state}
	return nil
}

func (s *Serializer) encodeDAGSettings(dag *model.DAG, out map[string]any) error {
	if dag.Description != "" {
		out[dagKeyDescription] = dag.Description
	}
	if dag.DocMD != "" {
		out[dagKeyDocMD] = dag.DocMD
	}
	if !dag.Catchup {
		out[dagKeyCatchup] = false
	}
	if dag.MaxActiveTasks != model.DefaultMaxActiveTasks {
		out[dagKeyMaxActiveTasks] = dag.MaxActiveTasks
	}
	if dag.MaxActiveRuns != model.DefaultMaxActiveRuns {
		out[dagKeyMaxActiveRuns] = dag.MaxActiveRuns
	}
	if dag.DagrunTimeout != nil {
		out[dagKeyDagrunTimeout] = wrap(TagTimedelta, dag.DagrunTimeout.Seconds())
	}
	if dag.IsPausedUponCreation != nil {
		out[dagKeyPausedUponCreation] = *dag.IsPausedUponCreation
	}
	if dag.RenderTemplateAsNativeObj {
		out[dagKeyNativeObj] = true
	}
	if dag.FailStop {
		out[dagKeyFailStop] = true
	}
	if len(dag.Tags) > 0 {
		out[dagKeyTags] = stringList(model.NewIDSet(dag.Tags...).Sorted())
	}
	if len(dag.OwnerLinks) > 0 {
		links := make(map[string]any, len(dag.OwnerLinks))
		for owner, link := range dag.OwnerLinks {
			links[owner] = link
		}
		out[dagKeyOwnerLinks] = links
	}
	if dag.HasOnSuccessCallback {
		out[dagKeyHasOnSuccess] = true
	}
	if dag.HasOnFailureCallback {
		out[dagKeyHasOnFailure] = true
	}
	if dag.AccessControl != nil {
		roles := make(map[string]any, len(dag.AccessControl))
		for role, permissions := range dag.AccessControl {
			roles[role] = permissions
		}
		encoded, err := s.encodeValue(roles, fieldPath{dagKeyAccessControl}, 0)
		if err != nil {
			return encodeFailure(err, "", "", dagKeyAccessControl)
		}
		out[dagKeyAccessControl] = encoded
	}
	return nil
}

func encodeEdgeInfo(edges map[string]map[string]model.EdgeInfo) map[string]any {
	out := make(map[string]any, len(edges))
	for upstream, targets := range edges {
		encoded := make(map[string]any, len(targets))
		for downstream, info := range targets {
			entry := map[string]any{}
			if info.Label != "" {
				entry["label"] = info.Label
			}
			encoded[downstream] = entry
		}
		out[upstream] = encoded
	}
	return out
}

// collectDependencies runs the dependency detector over every task and adds the DAG's dataset
// triggers. Dependencies read from a decoded document are not consulted.
func (s *Serializer) collectDependencies(dag *model.DAG) []model.DagDependency {
	seen := map[model.DagDependency]struct{}{}
	var deps []model.DagDependency
	add := func(dep model.DagDependency) {
		if _, ok := seen[dep]; ok {
			return
		}
		seen[dep] = struct{}{}
		deps = append(deps, dep)
	}

	for _, task := range dag.Tasks() {
		for _, dep := range s.detector.DetectTaskDependencies(task) {
			add(dep)
		}
	}
	for _, dataset := range dag.DatasetTriggers {
		add(model.DagDependency{
			Source:         plugin.DependencyTypeDataset,
			Target:         dag.DagID,
			DependencyType: plugin.DependencyTypeDataset,
			DependencyID:   dataset.URI,
		})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Less(deps[j]) })
	return deps
}

// DeserializeDAG rebuilds a DAG from the body of a document.
func (s *Serializer) DeserializeDAG(data map[string]any) (*model.DAG, error) {
	dagID, _ := data[dagKeyID].(string)
	dag, err := s.decodeDAG(data)
	if err != nil {
		return nil, decodeFailure(err, dagID, "", "")
	}
	return dag, nil
}

func (s *Serializer) decodeDAG(data map[string]any) (*model.DAG, error) {
	dagID, ok := data[dagKeyID].(string)
	if !ok || dagID == "" {
		return nil, &DeserializationError{Field: dagKeyID, Msg: "DAG requires a dag id"}
	}
	dag := model.NewDAG(dagID)
	dag.Fileloc, _ = data[dagKeyFileloc].(string)
	dag.ProcessorDagsFolder, _ = data[dagKeyDagsFolder].(string)

	if raw, ok := data[dagKeyTimezone]; ok && raw != nil {
		location, err := decodeTimezone(raw, fieldPath{dagKeyTimezone})
		if err != nil {
			return nil, err
		}
		dag.Timezone = location
	}
	if raw, ok := data[dagKeyDefaultArgs]; ok && raw != nil {
		decoded, err := s.decodeValue(raw, fieldPath{dagKeyDefaultArgs}, 0)
		if err != nil {
			return nil, decodeFailure(err, "", "", dagKeyDefaultArgs)
		}
		defaultArgs, ok := decoded.(map[string]any)
		if !ok {
			return nil, &DeserializationError{Field: dagKeyDefaultArgs, Msg: "default args must be a dict"}
		}
		dag.DefaultArgs = defaultArgs
	}
	var err error
	if dag.StartDate, err = decodeDate(data, dagKeyStartDate); err != nil {
		return nil, err
	}
	if dag.EndDate, err = decodeDate(data, dagKeyEndDate); err != nil {
		return nil, err
	}
	if err := s.decodeSchedule(dag, data); err != nil {
		return nil, err
	}
	if err := s.decodeDAGSettings(dag, data); err != nil {
		return nil, err
	}

	tasks, _ := data[dagKeyTasks].([]any)
	for i, raw := range tasks {
		taskData, ok := raw.(map[string]any)
		if !ok {
			return nil, &DeserializationError{Field: dagKeyTasks, Msg: fmt.Sprintf("task %d must be an object", i)}
		}
		task, err := s.decodeTask(taskData, dag)
		if err != nil {
			taskID, _ := taskData[taskKeyID].(string)
			return nil, decodeFailure(err, "", taskID, "")
		}
		if err := dag.InsertTask(task); err != nil {
			return nil, &DeserializationError{Field: dagKeyTasks, Msg: err.Error(), Err: err}
		}
	}

	if raw, ok := data[dagKeyTaskGroup].(map[string]any); ok {
		if err := s.decodeTaskGroup(dag, raw, "", true, 0); err != nil {
			return nil, err
		}
	}

	if err := s.linkDAG(dag); err != nil {
		return nil, err
	}
	s.logger.Debug("Decoded DAG", log.String(log.LoggerKeyDagID, dagID), log.Int("tasks", len(tasks)))
	return dag, nil
}

func decodeDate(data map[string]any, key string) (*time.Time, error) {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil, nil
	}
	seconds, ok := model.ToFloat(raw)
	if !ok {
		return nil, &DeserializationError{Field: key, Msg: fmt.Sprintf("expected epoch seconds, got %v", raw)}
	}
	t := epochToTime(seconds)
	return &t, nil
}

func (s *Serializer) decodeSchedule(dag *model.DAG, data map[string]any) error {
	if raw, ok := data[dagKeyTimetable]; ok && raw != nil {
		rule, err := s.decodeTimetable(raw)
		if err != nil {
			return err
		}
		dag.ScheduleInterval = nil
		dag.Timetable = rule
		return nil
	}

	raw, ok := data[dagKeyScheduleInterval]
	if !ok {
		dag.ScheduleInterval = model.DefaultScheduleInterval
		dag.Timetable = &timetable.DeltaDataIntervalTimetable{Delta: model.DefaultScheduleInterval}
		return nil
	}
	var interval any
	switch v := raw.(type) {
	case nil, string:
		interval = v
	default:
		decoded, err := s.decodeValue(raw, fieldPath{dagKeyScheduleInterval}, 0)
		if err != nil {
			return decodeFailure(err, "", "", dagKeyScheduleInterval)
		}
		interval = decoded
	}
	rule, err := timetable.FromScheduleInterval(interval, locationName(dag.Timezone))
	if err != nil {
		return &DeserializationError{Field: dagKeyScheduleInterval, Msg: err.Error(), Err: err}
	}
	dag.ScheduleInterval = interval
	dag.Timetable = rule
	return nil
}

func (s *Serializer) decodeTimetable(raw any) (model.Timetable, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, &DeserializationError{Field: dagKeyTimetable, Msg: "timetable must be an object"}
	}
	className, _ := fields[KeyType].(string)
	factory, ok := s.registry.ResolveTimetable(className)
	if !ok {
		resolutionErr := newTimetableNotRegisteredError(className)
		return nil, &DeserializationError{Field: dagKeyTimetable, Msg: resolutionErr.Msg, Err: resolutionErr}
	}
	state, _ := fields[KeyVar].(map[string]any)
	if state == nil {
		state = map[string]any{}
	}
	rule, err := factory(state)
	if err != nil {
		return nil, &DeserializationError{
			Field: dagKeyTimetable,
			Msg:   fmt.Sprintf("cannot build timetable %q: %v", className, err),
			Err:   err,
		}
	}
	return rule, nil
}

func (s *Serializer) decodeDAGSettings(dag *model.DAG, data map[string]any) error {
	dag.Description, _ = data[dagKeyDescription].(string)
	dag.DocMD, _ = data[dagKeyDocMD].(string)
	if catchup, ok := data[dagKeyCatchup].(bool); ok {
		dag.Catchup = catchup
	}
	if raw, ok := data[dagKeyMaxActiveTasks]; ok {
		value, ok := model.ToInt(raw)
		if !ok {
			return &DeserializationError{Field: dagKeyMaxActiveTasks, Msg: "must be an integer"}
		}
		dag.MaxActiveTasks = value
	}
	if raw, ok := data[dagKeyMaxActiveRuns]; ok {
		value, ok := model.ToInt(raw)
		if !ok {
			return &DeserializationError{Field: dagKeyMaxActiveRuns, Msg: "must be an integer"}
		}
		dag.MaxActiveRuns = value
	}
	if raw, ok := data[dagKeyDagrunTimeout]; ok && raw != nil {
		decoded, err := s.decodeValue(raw, fieldPath{dagKeyDagrunTimeout}, 0)
		if err != nil {
			return decodeFailure(err, "", "", dagKeyDagrunTimeout)
		}
		timeout, ok := decoded.(time.Duration)
		if !ok {
			return &DeserializationError{Field: dagKeyDagrunTimeout, Msg: "must be a timedelta"}
		}
		dag.DagrunTimeout = &timeout
	}
	if paused, ok := data[dagKeyPausedUponCreation].(bool); ok {
		dag.IsPausedUponCreation = &paused
	}
	dag.RenderTemplateAsNativeObj, _ = data[dagKeyNativeObj].(bool)
	dag.FailStop, _ = data[dagKeyFailStop].(bool)
	dag.HasOnSuccessCallback, _ = data[dagKeyHasOnSuccess].(bool)
	dag.HasOnFailureCallback, _ = data[dagKeyHasOnFailure].(bool)

	if raw, ok := data[dagKeyTags]; ok {
		tags, err := decodeStringList(raw, dagKeyTags)
		if err != nil {
			return err
		}
		dag.Tags = tags
	}
	if links, ok := data[dagKeyOwnerLinks].(map[string]any); ok {
		dag.OwnerLinks = make(map[string]string, len(links))
		for owner, link := range links {
			if value, ok := link.(string); ok {
				dag.OwnerLinks[owner] = value
			}
		}
	}
	if raw, ok := data[dagKeyAccessControl]; ok && raw != nil {
		if err := s.decodeAccessControl(dag, raw); err != nil {
			return err
		}
	}
	if raw, ok := data[dagKeyDatasetTriggers].([]any); ok {
		for i, item := range raw {
			decoded, err := s.decodeValue(item, fieldPath{dagKeyDatasetTriggers, fmt.Sprintf("list[%d]", i)}, 0)
			if err != nil {
				return decodeFailure(err, "", "", dagKeyDatasetTriggers)
			}
			dataset, ok := decoded.(model.Dataset)
			if !ok {
				return &DeserializationError{Field: dagKeyDatasetTriggers, Msg: "dataset trigger must be a dataset"}
			}
			dag.DatasetTriggers = append(dag.DatasetTriggers, dataset)
		}
	}
	if raw, ok := data[dagKeyParams]; ok && raw != nil {
		params, err := s.decodeParams(raw)
		if err != nil {
			return decodeFailure(err, "", "", dagKeyParams)
		}
		dag.Params = params
	}
	if err := decodeEdgeInfo(dag, data[dagKeyEdgeInfo]); err != nil {
		return err
	}
	return decodeDagDependencies(dag, data[dagKeyDagDependencies])
}

func (s *Serializer) decodeAccessControl(dag *model.DAG, raw any) error {
	decoded, err := s.decodeValue(raw, fieldPath{dagKeyAccessControl}, 0)
	if err != nil {
		return decodeFailure(err, "", "", dagKeyAccessControl)
	}
	roles, ok := decoded.(map[string]any)
	if !ok {
		return &DeserializationError{Field: dagKeyAccessControl, Msg: "access control must be a dict"}
	}
	dag.AccessControl = make(map[string]model.Set, len(roles))
	for role, permissions := range roles {
		switch v := permissions.(type) {
		case model.Set:
			dag.AccessControl[role] = v
		case []any:
			dag.AccessControl[role] = model.NewSet(v...)
		default:
			return &DeserializationError{
				Field: dagKeyAccessControl,
				Msg:   fmt.Sprintf("permissions of role %q must be a set", role),
			}
		}
	}
	return nil
}

func decodeEdgeInfo(dag *model.DAG, raw any) error {
	if raw == nil {
		return nil
	}
	edges, ok := raw.(map[string]any)
	if !ok {
		return &DeserializationError{Field: dagKeyEdgeInfo, Msg: "edge info must be an object"}
	}
	for upstream, targets := range edges {
		downstreams, ok := targets.(map[string]any)
		if !ok {
			return &DeserializationError{Field: dagKeyEdgeInfo, Msg: fmt.Sprintf("edges of %q must be an object", upstream)}
		}
		for downstream, info := range downstreams {
			entry, _ := info.(map[string]any)
			label, _ := entry["label"].(string)
			dag.SetEdgeLabel(upstream, downstream, label)
		}
	}
	return nil
}

func decodeDagDependencies(dag *model.DAG, raw any) error {
	if raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return &DeserializationError{Field: dagKeyDagDependencies, Msg: "dag dependencies must be a list"}
	}
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return &DeserializationError{Field: dagKeyDagDependencies, Msg: "dag dependency must be an object"}
		}
		dep := model.DagDependency{}
		dep.Source, _ = entry["source"].(string)
		dep.Target, _ = entry["target"].(string)
		dep.DependencyType, _ = entry["dependency_type"].(string)
		dep.DependencyID, _ = entry["dependency_id"].(string)
		dag.DagDependencies = append(dag.DagDependencies, dep)
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// encodeLocation writes a zone name, or the UTC offset in seconds for unnamed fixed zones.
func encodeLocation(location *time.Location) any {
	if location == nil {
		return time.UTC.String()
	}
	if name := location.String(); name != "" {
		return name
	}
	_, offset := time.Date(2000, 1, 1, 0, 0, 0, 0, location).Zone()
	return offset
}

func locationName(location *time.Location) string {
	if location == nil {
		return time.UTC.String()
	}
	return location.String()
}
