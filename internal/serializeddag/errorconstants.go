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

package serializeddag

import (
	"errors"

	"github.com/asgardeo/dagserde/internal/system/error/serviceerror"
)

// ErrDAGNotFound is returned when no serialized DAG is stored under the requested id.
var ErrDAGNotFound = errors.New("serialized DAG not found")

// Client errors for serialized DAG operations.
var (
	// ErrorDAGNotFound is the error returned when a serialized DAG is not found.
	ErrorDAGNotFound = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60001",
		Error:            "Serialized DAG not found",
		ErrorDescription: "No serialized DAG is stored under the requested id",
	}
	// ErrorInvalidDAGID is the error returned when the DAG id is empty.
	ErrorInvalidDAGID = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60002",
		Error:            "Invalid DAG id",
		ErrorDescription: "The provided DAG id is invalid or empty",
	}
	// ErrorInvalidRequestFormat is the error returned when the request body cannot be parsed.
	ErrorInvalidRequestFormat = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60003",
		Error:            "Invalid request format",
		ErrorDescription: "The request body is not a valid JSON or YAML document",
	}
	// ErrorSchemaValidation is the error returned when a document violates the document schema.
	ErrorSchemaValidation = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60004",
		Error:            "Schema validation failed",
		ErrorDescription: "The document does not conform to the serialized DAG schema",
	}
	// ErrorUnsupportedVersion is the error returned when a document was written by a newer format.
	ErrorUnsupportedVersion = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60005",
		Error:            "Unsupported document version",
		ErrorDescription: "The document version is newer than the supported version",
	}
	// ErrorUnresolvedClass is the error returned when a document names an unregistered class.
	ErrorUnresolvedClass = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60006",
		Error:            "Unresolved extension class",
		ErrorDescription: "The document references a class that is not registered",
	}
	// ErrorInvalidDocument is the error returned when a document cannot be decoded into a DAG.
	ErrorInvalidDocument = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60007",
		Error:            "Invalid serialized DAG",
		ErrorDescription: "The document cannot be decoded into a DAG",
	}
	// ErrorSerializationFailed is the error returned when a decoded DAG cannot be encoded again.
	ErrorSerializationFailed = serviceerror.ServiceError{
		Type:             serviceerror.ClientErrorType,
		Code:             "SDS-60008",
		Error:            "DAG cannot be serialized",
		ErrorDescription: "The DAG holds values that cannot be serialized",
	}
)

// Server errors for serialized DAG operations.
var (
	// ErrorInternalServerError is the error returned when an internal server error occurs.
	ErrorInternalServerError = serviceerror.ServiceError{
		Type:             serviceerror.ServerErrorType,
		Code:             "SDS-50001",
		Error:            "Internal server error",
		ErrorDescription: "An unexpected error occurred while processing the request",
	}
)
