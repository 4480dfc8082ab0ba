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

// Package model defines the in-memory representation of a DAG, its tasks and task groups.
package model

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Set is an unordered collection of unique values.
type Set []any

// NewSet creates a set from the given items, dropping duplicates. The result is sorted.
func NewSet(items ...any) Set {
	set := make(Set, 0, len(items))
	for _, item := range items {
		if !set.Contains(item) {
			set = append(set, item)
		}
	}
	return set.Sorted()
}

// Contains reports whether the set holds a value equal to item.
func (s Set) Contains(item any) bool {
	for _, existing := range s {
		if ValuesEqual(existing, item) {
			return true
		}
	}
	return false
}

// Sorted returns a sorted copy of the set.
func (s Set) Sorted() Set {
	sorted := make(Set, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareValues(sorted[i], sorted[j]) < 0
	})
	return sorted
}

// Tuple is a fixed sequence of values that is kept distinct from a list on the wire.
type Tuple []any

// IDSet is a set of task or group identifiers.
type IDSet map[string]struct{}

// NewIDSet creates an IDSet holding the given ids.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts an id into the set.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether the id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexicographic order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CompareValues orders two arbitrary values. Values of different kinds are ordered by kind
// (null, bool, number, string, time, other); values of the same kind by their natural order.
func CompareValues(a, b any) int {
	rankA, rankB := valueRank(a), valueRank(b)
	if rankA != rankB {
		return rankA - rankB
	}
	switch rankA {
	case 0:
		return 0
	case 1:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		af, _ := ToFloat(a)
		bf, _ := ToFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 2
	case string:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

// ToFloat converts any Go numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// ValuesEqual compares two values, treating equal instants in different locations as equal.
func ValuesEqual(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}
