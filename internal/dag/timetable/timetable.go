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

// Package timetable provides the built-in schedule rules of a DAG.
package timetable

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

// Namespace prefixes the qualified names of the built-in timetables.
const Namespace = "dagserde.timetables."

// Qualified names of the built-in timetables.
const (
	NullTimetableName              = Namespace + "simple.NullTimetable"
	OnceTimetableName              = Namespace + "simple.OnceTimetable"
	ContinuousTimetableName        = Namespace + "simple.ContinuousTimetable"
	DatasetTriggeredTimetableName  = Namespace + "simple.DatasetTriggeredTimetable"
	CronDataIntervalTimetableName  = Namespace + "interval.CronDataIntervalTimetable"
	DeltaDataIntervalTimetableName = Namespace + "interval.DeltaDataIntervalTimetable"
)

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NullTimetable never schedules a run.
type NullTimetable struct{}

// QualifiedName returns the qualified name of the timetable.
func (NullTimetable) QualifiedName() string { return NullTimetableName }

// Serialize returns an empty state.
func (NullTimetable) Serialize() map[string]any { return map[string]any{} }

// Summary describes the timetable.
func (NullTimetable) Summary() string { return "None" }

// OnceTimetable schedules a single run.
type OnceTimetable struct{}

// QualifiedName returns the qualified name of the timetable.
func (OnceTimetable) QualifiedName() string { return OnceTimetableName }

// Serialize returns an empty state.
func (OnceTimetable) Serialize() map[string]any { return map[string]any{} }

// Summary describes the timetable.
func (OnceTimetable) Summary() string { return "@once" }

// ContinuousTimetable schedules a new run as soon as the previous one finishes.
type ContinuousTimetable struct{}

// QualifiedName returns the qualified name of the timetable.
func (ContinuousTimetable) QualifiedName() string { return ContinuousTimetableName }

// Serialize returns an empty state.
func (ContinuousTimetable) Serialize() map[string]any { return map[string]any{} }

// Summary describes the timetable.
func (ContinuousTimetable) Summary() string { return "@continuous" }

// DatasetTriggeredTimetable schedules a run whenever the DAG's trigger datasets are updated.
// The datasets themselves are stored on the DAG.
type DatasetTriggeredTimetable struct{}

// QualifiedName returns the qualified name of the timetable.
func (DatasetTriggeredTimetable) QualifiedName() string { return DatasetTriggeredTimetableName }

// Serialize returns an empty state.
func (DatasetTriggeredTimetable) Serialize() map[string]any { return map[string]any{} }

// Summary describes the timetable.
func (DatasetTriggeredTimetable) Summary() string { return "Dataset" }

// CronDataIntervalTimetable schedules runs on a cron expression evaluated in a timezone.
type CronDataIntervalTimetable struct {
	Expression string
	Timezone   string
	schedule   cron.Schedule
}

// NewCronDataIntervalTimetable parses the expression and returns the timetable.
func NewCronDataIntervalTimetable(expression, timezone string) (*CronDataIntervalTimetable, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	schedule, err := cronParser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	if specSchedule, ok := schedule.(*cron.SpecSchedule); ok {
		specSchedule.Location = location
	}
	return &CronDataIntervalTimetable{
		Expression: expression,
		Timezone:   timezone,
		schedule:   schedule,
	}, nil
}

// QualifiedName returns the qualified name of the timetable.
func (t *CronDataIntervalTimetable) QualifiedName() string { return CronDataIntervalTimetableName }

// Serialize returns the expression and timezone.
func (t *CronDataIntervalTimetable) Serialize() map[string]any {
	return map[string]any{"expression": t.Expression, "timezone": t.Timezone}
}

// Summary describes the timetable.
func (t *CronDataIntervalTimetable) Summary() string { return t.Expression }

// Next returns the first scheduled time strictly after the given time.
func (t *CronDataIntervalTimetable) Next(after time.Time) time.Time {
	return t.schedule.Next(after)
}

// DeltaDataIntervalTimetable schedules runs a fixed duration or calendar offset apart.
type DeltaDataIntervalTimetable struct {
	// Delta is a time.Duration or a model.RelativeDelta.
	Delta any
}

// QualifiedName returns the qualified name of the timetable.
func (t *DeltaDataIntervalTimetable) QualifiedName() string { return DeltaDataIntervalTimetableName }

// Serialize returns the delta as seconds, or as relative delta fields.
func (t *DeltaDataIntervalTimetable) Serialize() map[string]any {
	switch delta := t.Delta.(type) {
	case model.RelativeDelta:
		return map[string]any{"delta": delta.ToMap()}
	case time.Duration:
		return map[string]any{"delta": delta.Seconds()}
	default:
		return map[string]any{"delta": nil}
	}
}

// Summary describes the timetable.
func (t *DeltaDataIntervalTimetable) Summary() string {
	if duration, ok := t.Delta.(time.Duration); ok {
		return duration.String()
	}
	return fmt.Sprintf("%v", t.Delta)
}

// NewNullTimetable rebuilds a NullTimetable from its serialized state.
func NewNullTimetable(map[string]any) (model.Timetable, error) { return NullTimetable{}, nil }

// NewOnceTimetable rebuilds a OnceTimetable from its serialized state.
func NewOnceTimetable(map[string]any) (model.Timetable, error) { return OnceTimetable{}, nil }

// NewContinuousTimetable rebuilds a ContinuousTimetable from its serialized state.
func NewContinuousTimetable(map[string]any) (model.Timetable, error) {
	return ContinuousTimetable{}, nil
}

// NewDatasetTriggeredTimetable rebuilds a DatasetTriggeredTimetable from its serialized state.
func NewDatasetTriggeredTimetable(map[string]any) (model.Timetable, error) {
	return DatasetTriggeredTimetable{}, nil
}

// DeserializeCronDataIntervalTimetable rebuilds a cron timetable from its serialized state.
func DeserializeCronDataIntervalTimetable(data map[string]any) (model.Timetable, error) {
	expression, ok := data["expression"].(string)
	if !ok {
		return nil, errors.New("cron timetable requires a string expression")
	}
	timezone, _ := data["timezone"].(string)
	return NewCronDataIntervalTimetable(expression, timezone)
}

// DeserializeDeltaDataIntervalTimetable rebuilds a delta timetable from its serialized state.
func DeserializeDeltaDataIntervalTimetable(data map[string]any) (model.Timetable, error) {
	switch delta := data["delta"].(type) {
	case map[string]any:
		relativeDelta, err := model.RelativeDeltaFromMap(delta)
		if err != nil {
			return nil, err
		}
		return &DeltaDataIntervalTimetable{Delta: relativeDelta}, nil
	default:
		seconds, ok := model.ToFloat(delta)
		if !ok {
			return nil, fmt.Errorf("delta timetable requires seconds or relative delta fields, got %v", delta)
		}
		return &DeltaDataIntervalTimetable{Delta: secondsToDuration(seconds)}, nil
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// cronPresets expands schedule presets into cron expressions.
var cronPresets = map[string]string{
	"@hourly":    "0 * * * *",
	"@daily":     "0 0 * * *",
	"@weekly":    "0 0 * * 0",
	"@monthly":   "0 0 1 * *",
	"@quarterly": "0 0 1 */3 *",
	"@yearly":    "0 0 1 1 *",
	"@annually":  "0 0 1 1 *",
}

// FromScheduleInterval translates a legacy schedule expression into a timetable. The
// expression may be nil, a preset or cron string, a time.Duration or a model.RelativeDelta.
func FromScheduleInterval(interval any, timezone string) (model.Timetable, error) {
	switch value := interval.(type) {
	case nil:
		return NullTimetable{}, nil
	case string:
		switch value {
		case "@once":
			return OnceTimetable{}, nil
		case "@continuous":
			return ContinuousTimetable{}, nil
		}
		if expression, ok := cronPresets[value]; ok {
			return NewCronDataIntervalTimetable(expression, timezone)
		}
		if strings.HasPrefix(value, "@") {
			return nil, fmt.Errorf("unknown schedule preset %q", value)
		}
		return NewCronDataIntervalTimetable(value, timezone)
	case time.Duration:
		if value <= 0 {
			return nil, fmt.Errorf("schedule interval must be positive, got %s", value)
		}
		return &DeltaDataIntervalTimetable{Delta: value}, nil
	case model.RelativeDelta:
		return &DeltaDataIntervalTimetable{Delta: value}, nil
	default:
		return nil, fmt.Errorf("unsupported schedule interval type %T", interval)
	}
}
