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
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/asgardeo/dagserde/internal/dag/model"
)

// fieldPath is the chain of containers leading to the value being processed.
type fieldPath []string

func (p fieldPath) with(segment string) fieldPath {
	next := make(fieldPath, len(p), len(p)+1)
	copy(next, p)
	return append(next, segment)
}

func (p fieldPath) String() string {
	return strings.Join(p, " -> ")
}

// Serialize encodes a value into its wire form. Values that need their type preserved are
// wrapped as {"__type": tag, "__var": payload}.
func (s *Serializer) Serialize(value any) (any, error) {
	return s.encodeValue(value, nil, 0)
}

// Deserialize rebuilds a value from its wire form.
func (s *Serializer) Deserialize(value any) (any, error) {
	return s.decodeValue(value, nil, 0)
}

func wrap(tag string, payload any) map[string]any {
	return map[string]any{KeyType: tag, KeyVar: payload}
}

func (s *Serializer) encodeError(path fieldPath, format string, args ...any) error {
	return &SerializationError{Path: path.String(), Msg: fmt.Sprintf(format, args...)}
}

func (s *Serializer) checkEncodeDepth(path fieldPath, depth int) error {
	if depth > s.maxDepth {
		return &SerializationError{Path: path.String(), Msg: ErrDepthExceeded.Error(), Err: ErrDepthExceeded}
	}
	return nil
}

func (s *Serializer) encodeValue(value any, path fieldPath, depth int) (any, error) {
	if err := s.checkEncodeDepth(path, depth); err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return encodeInteger(v, path)
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case []any:
		return s.encodeList(v, "list", path, depth)
	case []string:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = item
		}
		return items, nil
	case map[string]any:
		payload, err := s.encodeMap(v, path, depth)
		if err != nil {
			return nil, err
		}
		return wrap(TagDict, payload), nil
	case model.Set:
		items, err := s.encodeList(v.Sorted(), "set", path, depth)
		if err != nil {
			return nil, err
		}
		return wrap(TagSet, items), nil
	case model.Tuple:
		items, err := s.encodeList(v, "tuple", path, depth)
		if err != nil {
			return nil, err
		}
		return wrap(TagTuple, items), nil
	case time.Duration:
		return wrap(TagTimedelta, v.Seconds()), nil
	case time.Time:
		return wrap(TagDatetime, epochSeconds(v)), nil
	case *time.Location:
		if v == nil {
			return nil, nil
		}
		return wrap(TagTimezone, v.String()), nil
	case model.RelativeDelta:
		return wrap(TagRelativedelta, v.ToMap()), nil
	case *model.RelativeDelta:
		if v == nil {
			return nil, nil
		}
		return wrap(TagRelativedelta, v.ToMap()), nil
	case model.Dataset:
		return s.encodeDataset(v, path)
	case *model.Dataset:
		if v == nil {
			return nil, nil
		}
		return s.encodeDataset(*v, path)
	case model.XComRef:
		return wrap(TagXComRef, map[string]any{"task_id": v.TaskID, "key": v.Key}), nil
	case *model.PlainXComArg:
		if v == nil || v.Operator == nil {
			return nil, s.encodeError(path, "xcom argument is not bound to a task")
		}
		return wrap(TagXComRef, map[string]any{"task_id": v.Operator.GetID(), "key": v.Key}), nil
	case *model.Param:
		payload, err := s.encodeParam(v, path, depth)
		if err != nil {
			return nil, err
		}
		return wrap(TagParam, payload), nil
	}

	return s.encodeOther(value, path, depth)
}

// encodeOther handles pods, string-convertible values, containers of other Go types and
// named basic types. A type with a String method encodes as its string even when it is a map or slice.
func (s *Serializer) encodeOther(value any, path fieldPath, depth int) (any, error) {
	if s.podCodec != nil && s.podCodec.CanEncode(value) {
		payload, err := s.podCodec.EncodePod(value)
		if err != nil {
			return nil, s.encodeError(path, "cannot encode pod: %v", err)
		}
		return wrap(TagPod, payload), nil
	}

	if stringer, ok := value.(fmt.Stringer); ok {
		return stringer.String(), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		payload := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := mapKeyString(iter.Key())
			if err != nil {
				return nil, s.encodeError(path, "%v", err)
			}
			encoded, err := s.encodeValue(iter.Value().Interface(), path.with(fmt.Sprintf("dict[%q]", key)),
				depth+1)
			if err != nil {
				return nil, err
			}
			payload[key] = encoded
		}
		return wrap(TagDict, payload), nil
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return s.encodeList(items, "list", path, depth)
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil, nil
		}
		return s.encodeValue(rv.Elem().Interface(), path, depth)
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}

	return nil, s.encodeError(path, "cannot serialize value of type %T", value)
}

func encodeInteger(value any, path fieldPath) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			break
		}
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt64 {
			break
		}
		return int(v), nil
	}
	return nil, &SerializationError{Path: path.String(), Msg: fmt.Sprintf("integer %v overflows int64", value)}
}

func mapKeyString(key reflect.Value) (string, error) {
	switch key.Kind() {
	case reflect.String:
		return key.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(key.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(key.Bool()), nil
	}
	return "", fmt.Errorf("cannot serialize mapping key of type %s", key.Type())
}

func (s *Serializer) encodeList(items []any, kind string, path fieldPath, depth int) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		encoded, err := s.encodeValue(item, path.with(fmt.Sprintf("%s[%d]", kind, i)), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = encoded
	}
	return out, nil
}

func (s *Serializer) encodeMap(values map[string]any, path fieldPath, depth int) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for _, key := range sortedKeys(values) {
		encoded, err := s.encodeValue(values[key], path.with(fmt.Sprintf("dict[%q]", key)), depth+1)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}
	return out, nil
}

func (s *Serializer) encodeDataset(dataset model.Dataset, path fieldPath) (any, error) {
	if dataset.URI == "" {
		return nil, s.encodeError(path, "dataset has no uri")
	}
	extra := map[string]any{}
	if dataset.Extra != nil {
		if !isJSONable(dataset.Extra) {
			return nil, s.encodeError(path, "extra of dataset %q is not JSON serializable", dataset.URI)
		}
		extra = dataset.Extra
	}
	return wrap(TagDataset, map[string]any{"uri": dataset.URI, "extra": extra}), nil
}

func (s *Serializer) encodeParam(param *model.Param, path fieldPath, depth int) (map[string]any, error) {
	value, err := s.encodeValue(param.Value, path.with("default"), depth+1)
	if err != nil {
		return nil, err
	}
	schemaValues := param.Schema
	if schemaValues == nil {
		schemaValues = map[string]any{}
	}
	schema, err := s.encodeValue(schemaValues, path.with("schema"), depth+1)
	if err != nil {
		return nil, err
	}
	var description any
	if param.Description != nil {
		description = *param.Description
	}
	return map[string]any{
		KeyClass:      model.ParamClassName,
		"default":     value,
		"description": description,
		"schema":      schema,
	}, nil
}

func (s *Serializer) decodeError(path fieldPath, format string, args ...any) error {
	return &DeserializationError{Path: path.String(), Msg: fmt.Sprintf(format, args...)}
}

func (s *Serializer) checkDecodeDepth(path fieldPath, depth int) error {
	if depth > s.maxDepth {
		return &DeserializationError{Path: path.String(), Msg: ErrDepthExceeded.Error(), Err: ErrDepthExceeded}
	}
	return nil
}

func (s *Serializer) decodeValue(value any, path fieldPath, depth int) (any, error) {
	if err := s.checkDecodeDepth(path, depth); err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case nil, bool, string, float64:
		return v, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float32:
		return float64(v), nil
	case []any:
		return s.decodeList(v, "list", path, depth)
	case map[string]any:
		return s.decodeTagged(v, path, depth)
	}
	return nil, s.decodeError(path, "unexpected value of type %T", value)
}

func (s *Serializer) decodeTagged(value map[string]any, path fieldPath, depth int) (any, error) {
	tag, ok := value[KeyType].(string)
	if !ok {
		return nil, s.decodeError(path, "object without %q tag", KeyType)
	}
	payload := value[KeyVar]

	switch tag {
	case TagDict:
		values, ok := payload.(map[string]any)
		if !ok {
			return nil, s.decodeError(path, "dict payload must be an object")
		}
		out := make(map[string]any, len(values))
		for key, item := range values {
			decoded, err := s.decodeValue(item, path.with(fmt.Sprintf("dict[%q]", key)), depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = decoded
		}
		return out, nil
	case TagSet, TagTuple:
		items, ok := payload.([]any)
		if !ok {
			return nil, s.decodeError(path, "%s payload must be an array", tag)
		}
		decoded, err := s.decodeList(items, tag, path, depth)
		if err != nil {
			return nil, err
		}
		if tag == TagSet {
			return model.NewSet(decoded...), nil
		}
		return model.Tuple(decoded), nil
	case TagTimedelta:
		seconds, ok := model.ToFloat(payload)
		if !ok {
			return nil, s.decodeError(path, "timedelta payload must be a number")
		}
		return secondsToDuration(seconds), nil
	case TagDatetime:
		seconds, ok := model.ToFloat(payload)
		if !ok {
			return nil, s.decodeError(path, "datetime payload must be a number")
		}
		return epochToTime(seconds), nil
	case TagTimezone:
		return decodeTimezone(payload, path)
	case TagRelativedelta:
		fields, ok := payload.(map[string]any)
		if !ok {
			return nil, s.decodeError(path, "relativedelta payload must be an object")
		}
		delta, err := model.RelativeDeltaFromMap(fields)
		if err != nil {
			return nil, s.decodeError(path, "%v", err)
		}
		return delta, nil
	case TagDataset:
		return s.decodeDataset(payload, path)
	case TagXComRef:
		return decodeXComRef(payload, path)
	case TagParam:
		fields, ok := payload.(map[string]any)
		if !ok {
			return nil, s.decodeError(path, "param payload must be an object")
		}
		return s.decodeParam(fields, path, depth)
	case TagPod:
		if s.podCodec == nil {
			return nil, s.decodeError(path, "cannot decode %s: no pod codec is configured", TagPod)
		}
		pod, err := s.podCodec.DecodePod(payload)
		if err != nil {
			return nil, s.decodeError(path, "cannot decode %s: %v", TagPod, err)
		}
		return pod, nil
	}
	return nil, s.decodeError(path, "unknown type tag %q", tag)
}

func (s *Serializer) decodeList(items []any, kind string, path fieldPath, depth int) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		decoded, err := s.decodeValue(item, path.with(fmt.Sprintf("%s[%d]", kind, i)), depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = decoded
	}
	return out, nil
}

// decodeLoose decodes tagged values and keeps untagged objects as plain maps.
func (s *Serializer) decodeLoose(value any, path fieldPath, depth int) (any, error) {
	if err := s.checkDecodeDepth(path, depth); err != nil {
		return nil, err
	}
	switch v := value.(type) {
	case map[string]any:
		if _, tagged := v[KeyType]; tagged {
			return s.decodeTagged(v, path, depth)
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			decoded, err := s.decodeLoose(item, path.with(fmt.Sprintf("dict[%q]", key)), depth+1)
			if err != nil {
				return nil, err
			}
			out[key] = decoded
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			decoded, err := s.decodeLoose(item, path.with(fmt.Sprintf("list[%d]", i)), depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	}
	return s.decodeValue(value, path, depth)
}

func (s *Serializer) decodeDataset(payload any, path fieldPath) (model.Dataset, error) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return model.Dataset{}, s.decodeError(path, "dataset payload must be an object")
	}
	uri, ok := fields["uri"].(string)
	if !ok || uri == "" {
		return model.Dataset{}, s.decodeError(path, "dataset requires a uri")
	}
	dataset := model.Dataset{URI: uri, Extra: map[string]any{}}
	if extra, ok := fields["extra"].(map[string]any); ok {
		dataset.Extra = extra
	}
	return dataset, nil
}

func decodeXComRef(payload any, path fieldPath) (model.XComRef, error) {
	fields, ok := payload.(map[string]any)
	if !ok {
		return model.XComRef{}, &DeserializationError{Path: path.String(), Msg: "xcomref payload must be an object"}
	}
	taskID, ok := fields["task_id"].(string)
	if !ok || taskID == "" {
		return model.XComRef{}, &DeserializationError{Path: path.String(), Msg: "xcomref requires a task_id"}
	}
	key, ok := fields["key"].(string)
	if !ok {
		key = model.XComReturnKey
	}
	return model.XComRef{TaskID: taskID, Key: key}, nil
}

func decodeTimezone(payload any, path fieldPath) (*time.Location, error) {
	switch v := payload.(type) {
	case string:
		location, err := time.LoadLocation(v)
		if err != nil {
			return nil, &DeserializationError{Path: path.String(), Msg: fmt.Sprintf("unknown timezone %q", v), Err: err}
		}
		return location, nil
	default:
		offset, ok := model.ToInt(payload)
		if !ok {
			return nil, &DeserializationError{Path: path.String(), Msg: "timezone must be a name or an offset"}
		}
		return time.FixedZone("", offset), nil
	}
}

func (s *Serializer) decodeParam(fields map[string]any, path fieldPath, depth int) (*model.Param, error) {
	if className, _ := fields[KeyClass].(string); className != model.ParamClassName {
		return nil, s.decodeError(path, "unsupported param class %q", className)
	}
	value, err := s.decodeLoose(fields["default"], path.with("default"), depth+1)
	if err != nil {
		return nil, err
	}
	param := model.NewParam(value)
	if description, ok := fields["description"].(string); ok {
		param.Description = &description
	}
	if raw, ok := fields["schema"]; ok && raw != nil {
		schema, err := s.decodeLoose(raw, path.with("schema"), depth+1)
		if err != nil {
			return nil, err
		}
		schemaValues, ok := schema.(map[string]any)
		if !ok {
			return nil, s.decodeError(path, "param schema must be an object")
		}
		param.Schema = schemaValues
	}
	return param, nil
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

func epochToTime(seconds float64) time.Time {
	whole := math.Floor(seconds)
	nanos := math.Round((seconds - whole) * 1e9)
	return time.Unix(int64(whole), int64(nanos)).UTC()
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// isJSONable reports whether a value is made of JSON primitives, lists and string keyed maps.
func isJSONable(value any) bool {
	switch v := value.(type) {
	case nil, bool, string, int, int64, float64:
		return true
	case []any:
		for _, item := range v {
			if !isJSONable(item) {
				return false
			}
		}
		return true
	case []string:
		return true
	case map[string]any:
		for _, item := range v {
			if !isJSONable(item) {
				return false
			}
		}
		return true
	case map[string]string:
		return true
	}
	return false
}
