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

// CurrentVersion is the document format version written by this package.
const CurrentVersion = 1

// Document is the top level serialized form of a DAG: {"__version": 1, "dag": {...}}.
type Document map[string]any

// Document keys.
const (
	KeyVersion = "__version"
	KeyDAG     = "dag"
	KeyType    = "__type"
	KeyVar     = "__var"
	KeyClass   = "__class"
)

// Type tags of wrapped values.
const (
	TagDict          = "dict"
	TagSet           = "set"
	TagTuple         = "tuple"
	TagTimedelta     = "timedelta"
	TagRelativedelta = "relativedelta"
	TagDatetime      = "datetime"
	TagTimezone      = "timezone"
	TagDataset       = "dataset"
	TagXComRef       = "xcomref"
	TagParam         = "param"
	TagPod           = "k8s.V1Pod"
)

// DAG document keys.
const (
	dagKeyID                  = "_dag_id"
	dagKeyFileloc             = "fileloc"
	dagKeyDagsFolder          = "_processor_dags_folder"
	dagKeyDefaultArgs         = "default_args"
	dagKeyStartDate           = "start_date"
	dagKeyEndDate             = "end_date"
	dagKeyTimezone            = "timezone"
	dagKeyScheduleInterval    = "schedule_interval"
	dagKeyTimetable           = "timetable"
	dagKeyDatasetTriggers     = "dataset_triggers"
	dagKeyDescription         = "description"
	dagKeyDocMD               = "doc_md"
	dagKeyCatchup             = "catchup"
	dagKeyMaxActiveTasks      = "max_active_tasks"
	dagKeyMaxActiveRuns       = "max_active_runs"
	dagKeyDagrunTimeout       = "dagrun_timeout"
	dagKeyPausedUponCreation  = "is_paused_upon_creation"
	dagKeyNativeObj           = "render_template_as_native_obj"
	dagKeyFailStop            = "fail_stop"
	dagKeyTags                = "tags"
	dagKeyOwnerLinks          = "owner_links"
	dagKeyHasOnSuccess        = "has_on_success_callback"
	dagKeyHasOnFailure        = "has_on_failure_callback"
	dagKeyAccessControl       = "_access_control"
	dagKeyParams              = "params"
	dagKeyEdgeInfo            = "edge_info"
	dagKeyDagDependencies     = "dag_dependencies"
	dagKeyTaskGroup           = "_task_group"
	dagKeyTasks               = "tasks"
)

// Task document keys.
const (
	taskKeyID                     = "task_id"
	taskKeyType                   = "_task_type"
	taskKeyModule                 = "_task_module"
	taskKeyOperatorName           = "_operator_name"
	taskKeyDownstream             = "downstream_task_ids"
	taskKeyLegacyDownstream       = "_downstream_task_ids"
	taskKeyTemplateFields         = "template_fields"
	taskKeyTemplateExt            = "template_ext"
	taskKeyTemplateRenderers      = "template_fields_renderers"
	taskKeyUIColor                = "ui_color"
	taskKeyUIFgColor              = "ui_fgcolor"
	taskKeyIsEmpty                = "_is_empty"
	taskKeyExtraLinks             = "_operator_extra_links"
	taskKeyDeps                   = "deps"
	taskKeyParams                 = "params"
	taskKeyPool                   = "pool"
	taskKeyResources              = "resources"
	taskKeyIsMapped               = "_is_mapped"
	taskKeyExpandInputAttr        = "_expand_input_attr"
	taskKeyPartialKwargs          = "partial_kwargs"
	taskKeyDisallowKwargsOverride = "_disallow_kwargs_override"
)

// Task group document keys.
const (
	groupKeyID             = "_group_id"
	groupKeyPrefixGroupID  = "prefix_group_id"
	groupKeyTooltip        = "tooltip"
	groupKeyUIColor        = "ui_color"
	groupKeyUIFgColor      = "ui_fgcolor"
	groupKeyChildren       = "children"
	groupKeyUpstreamGroups = "upstream_group_ids"
	groupKeyDownstreamGrps = "downstream_group_ids"
	groupKeyUpstreamTasks  = "upstream_task_ids"
	groupKeyDownstreamTsks = "downstream_task_ids"
	groupKeyIsMapped       = "is_mapped"
	groupKeyExpandInput    = "expand_input"
)
