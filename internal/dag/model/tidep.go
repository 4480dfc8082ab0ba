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

// TIDepCoreNamespace prefixes the qualified names of the built-in dependency checks.
const TIDepCoreNamespace = "dagserde.ti_deps.deps."

// TIDep is a task instance dependency check, identified by its qualified name.
type TIDep interface {
	QualifiedName() string
}

// NamedTIDep is a dependency check that carries nothing but its qualified name.
type NamedTIDep string

// QualifiedName returns the qualified name of the check.
func (d NamedTIDep) QualifiedName() string {
	return string(d)
}

// Built-in dependency checks.
const (
	NotInRetryPeriodDep     NamedTIDep = TIDepCoreNamespace + "not_in_retry_period_dep.NotInRetryPeriodDep"
	NotPreviouslySkippedDep NamedTIDep = TIDepCoreNamespace + "not_previously_skipped_dep.NotPreviouslySkippedDep"
	PrevDagrunDep           NamedTIDep = TIDepCoreNamespace + "prev_dagrun_dep.PrevDagrunDep"
	TriggerRuleDep          NamedTIDep = TIDepCoreNamespace + "trigger_rule_dep.TriggerRuleDep"
	ReadyToRescheduleDep    NamedTIDep = TIDepCoreNamespace + "ready_to_reschedule.ReadyToRescheduleDep"
	MappedTaskUpstreamDep   NamedTIDep = TIDepCoreNamespace + "mapped_task_upstream_dep.MappedTaskUpstreamDep"
)

// DefaultTIDeps returns the dependency checks every task runs unless it declares its own.
func DefaultTIDeps() []TIDep {
	return []TIDep{NotInRetryPeriodDep, NotPreviouslySkippedDep, PrevDagrunDep, TriggerRuleDep}
}
