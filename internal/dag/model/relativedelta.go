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

import (
	"fmt"
	"sort"
)

// Weekday is a weekday with an optional occurrence index, such as "second Friday" (Day 4, N 2).
// Day counts from Monday (0) to Sunday (6). N is zero when no occurrence is set.
type Weekday struct {
	Day int
	N   int
}

// RelativeDelta is a calendar-aware date offset. Plural fields are added to a date; singular
// fields, when set, replace the corresponding component.
type RelativeDelta struct {
	Years        int
	Months       int
	Days         int
	Leapdays     int
	Hours        int
	Minutes      int
	Seconds      int
	Microseconds int

	Year        *int
	Month       *int
	Day         *int
	Hour        *int
	Minute      *int
	Second      *int
	Microsecond *int
	Weekday     *Weekday
}

// ToMap returns the non-zero relative fields and the set absolute fields of the offset.
func (r RelativeDelta) ToMap() map[string]any {
	out := map[string]any{}
	relative := []struct {
		key   string
		value int
	}{
		{"years", r.Years}, {"months", r.Months}, {"days", r.Days}, {"leapdays", r.Leapdays},
		{"hours", r.Hours}, {"minutes", r.Minutes}, {"seconds", r.Seconds},
		{"microseconds", r.Microseconds},
	}
	for _, field := range relative {
		if field.value != 0 {
			out[field.key] = field.value
		}
	}
	absolute := []struct {
		key   string
		value *int
	}{
		{"year", r.Year}, {"month", r.Month}, {"day", r.Day}, {"hour", r.Hour},
		{"minute", r.Minute}, {"second", r.Second}, {"microsecond", r.Microsecond},
	}
	for _, field := range absolute {
		if field.value != nil {
			out[field.key] = *field.value
		}
	}
	if r.Weekday != nil {
		if r.Weekday.N != 0 {
			out["weekday"] = []any{r.Weekday.Day, r.Weekday.N}
		} else {
			out["weekday"] = []any{r.Weekday.Day}
		}
	}
	return out
}

// RelativeDeltaFromMap rebuilds an offset from the output of ToMap.
func RelativeDeltaFromMap(data map[string]any) (RelativeDelta, error) {
	var r RelativeDelta
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "weekday" {
			weekday, err := weekdayFromValue(data[key])
			if err != nil {
				return RelativeDelta{}, err
			}
			r.Weekday = weekday
			continue
		}
		value, ok := ToInt(data[key])
		if !ok {
			return RelativeDelta{}, fmt.Errorf("relativedelta field %q is not an integer: %v", key, data[key])
		}
		if err := r.setField(key, value); err != nil {
			return RelativeDelta{}, err
		}
	}
	return r, nil
}

func (r *RelativeDelta) setField(key string, value int) error {
	ptr := func(v int) *int { return &v }
	switch key {
	case "years":
		r.Years = value
	case "months":
		r.Months = value
	case "days":
		r.Days = value
	case "leapdays":
		r.Leapdays = value
	case "hours":
		r.Hours = value
	case "minutes":
		r.Minutes = value
	case "seconds":
		r.Seconds = value
	case "microseconds":
		r.Microseconds = value
	case "year":
		r.Year = ptr(value)
	case "month":
		r.Month = ptr(value)
	case "day":
		r.Day = ptr(value)
	case "hour":
		r.Hour = ptr(value)
	case "minute":
		r.Minute = ptr(value)
	case "second":
		r.Second = ptr(value)
	case "microsecond":
		r.Microsecond = ptr(value)
	default:
		return fmt.Errorf("unknown relativedelta field %q", key)
	}
	return nil
}

func weekdayFromValue(value any) (*Weekday, error) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 || len(items) > 2 {
		return nil, fmt.Errorf("relativedelta weekday must be [day] or [day, n]: %v", value)
	}
	day, ok := ToInt(items[0])
	if !ok || day < 0 || day > 6 {
		return nil, fmt.Errorf("invalid relativedelta weekday: %v", items[0])
	}
	weekday := &Weekday{Day: day}
	if len(items) == 2 {
		n, ok := ToInt(items[1])
		if !ok {
			return nil, fmt.Errorf("invalid relativedelta weekday occurrence: %v", items[1])
		}
		weekday.N = n
	}
	return weekday, nil
}

// ToInt converts an integral Go number to int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case int32:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
