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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. The typed errors below unwrap to these so callers can use errors.Is.
var (
	ErrSerialization      = errors.New("serialization error")
	ErrDeserialization    = errors.New("deserialization error")
	ErrSchema             = errors.New("schema error")
	ErrResolution         = errors.New("resolution error")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrDepthExceeded      = errors.New("maximum nesting depth exceeded")
)

// SerializationError reports a value that cannot be encoded. No document is produced.
type SerializationError struct {
	DagID  string
	TaskID string
	Field  string
	Path   string
	Msg    string
	Err    error
}

func (e *SerializationError) Error() string {
	return formatError("Failed to serialize DAG", e.DagID, e.TaskID, e.Field, e.Path, e.Msg)
}

// Unwrap returns ErrSerialization and the underlying cause.
func (e *SerializationError) Unwrap() []error {
	return joinCauses(ErrSerialization, e.Err)
}

// DeserializationError reports a document that cannot be turned back into a DAG.
type DeserializationError struct {
	DagID  string
	TaskID string
	Field  string
	Path   string
	Msg    string
	Err    error
}

func (e *DeserializationError) Error() string {
	return formatError("Failed to deserialize DAG", e.DagID, e.TaskID, e.Field, e.Path, e.Msg)
}

// Unwrap returns ErrDeserialization and the underlying cause.
func (e *DeserializationError) Unwrap() []error {
	return joinCauses(ErrDeserialization, e.Err)
}

// SchemaError reports a document that does not match the document schema.
type SchemaError struct {
	Msg string
	Err error
}

func (e *SchemaError) Error() string {
	return "invalid document: " + e.Msg
}

// Unwrap returns ErrSchema and the underlying cause.
func (e *SchemaError) Unwrap() []error {
	return joinCauses(ErrSchema, e.Err)
}

// ResolutionError reports a required extension class missing from the registry.
type ResolutionError struct {
	Kind      string
	ClassName string
	Msg       string
}

func (e *ResolutionError) Error() string {
	return e.Msg
}

// Unwrap returns ErrResolution.
func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}

// VersionError reports a document written by a newer format version.
type VersionError struct {
	Version   int
	Supported int
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("document version %d is newer than the supported version %d", e.Version, e.Supported)
}

// Unwrap returns ErrUnsupportedVersion.
func (e *VersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

func newTimetableNotRegisteredError(className string) *ResolutionError {
	return &ResolutionError{
		Kind:      "timetable",
		ClassName: className,
		Msg: fmt.Sprintf("Timetable class %q is not registered or you have a top level database access "+
			"that disrupted the session. Please check the best practices documentation.", className),
	}
}

func formatError(prefix, dagID, taskID, field, path, msg string) string {
	var b strings.Builder
	if dagID != "" {
		fmt.Fprintf(&b, "%s %q: ", prefix, dagID)
	}
	if taskID != "" {
		fmt.Fprintf(&b, "task %q: ", taskID)
	}
	if field != "" {
		fmt.Fprintf(&b, "field %q: ", field)
	}
	if path != "" {
		fmt.Fprintf(&b, "at %s: ", path)
	}
	b.WriteString(msg)
	return b.String()
}

func joinCauses(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

// encodeFailure annotates an encode error with the DAG, task and field it occurred in.
func encodeFailure(err error, dagID, taskID, field string) error {
	var serErr *SerializationError
	if !errors.As(err, &serErr) {
		return &SerializationError{DagID: dagID, TaskID: taskID, Field: field, Msg: err.Error(), Err: err}
	}
	if serErr.DagID == "" {
		serErr.DagID = dagID
	}
	if serErr.TaskID == "" {
		serErr.TaskID = taskID
	}
	if serErr.Field == "" {
		serErr.Field = field
	}
	return err
}

// decodeFailure annotates a decode error with the DAG, task and field it occurred in.
func decodeFailure(err error, dagID, taskID, field string) error {
	var schemaErr *SchemaError
	var versionErr *VersionError
	if errors.As(err, &schemaErr) || errors.As(err, &versionErr) {
		return err
	}
	var serErr *SerializationError
	if errors.As(err, &serErr) {
		if serErr.DagID == "" {
			serErr.DagID = dagID
		}
		if serErr.TaskID == "" {
			serErr.TaskID = taskID
		}
		return err
	}
	var desErr *DeserializationError
	if !errors.As(err, &desErr) {
		return &DeserializationError{DagID: dagID, TaskID: taskID, Field: field, Msg: err.Error(), Err: err}
	}
	if desErr.DagID == "" {
		desErr.DagID = dagID
	}
	if desErr.TaskID == "" {
		desErr.TaskID = taskID
	}
	if desErr.Field == "" {
		desErr.Field = field
	}
	return err
}
