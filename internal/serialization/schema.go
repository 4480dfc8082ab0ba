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
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaResource         = "schema.json"
	operatorSchemaResource = schemaResource + "#/definitions/operator"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	documentSchema *jsonschema.Schema
	operatorSchema *jsonschema.Schema
	schemaErr      error
)

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(schemaResource, bytes.NewReader(schemaJSON)); err != nil {
		schemaErr = fmt.Errorf("failed to load document schema: %w", err)
		return
	}
	if documentSchema, schemaErr = compiler.Compile(schemaResource); schemaErr != nil {
		schemaErr = fmt.Errorf("failed to compile document schema: %w", schemaErr)
		return
	}
	if operatorSchema, schemaErr = compiler.Compile(operatorSchemaResource); schemaErr != nil {
		schemaErr = fmt.Errorf("failed to compile operator schema: %w", schemaErr)
	}
}

// SchemaJSON returns the JSON schema documents are validated against.
func SchemaJSON() []byte {
	return append([]byte(nil), schemaJSON...)
}

// ValidateSchema checks the structure of a document. Registry classes named in the document are
// not resolved.
func ValidateSchema(doc Document) error {
	return validateAgainst(func() *jsonschema.Schema { return documentSchema }, map[string]any(doc))
}

// ValidateOperatorSchema checks the structure of a single task document.
func ValidateOperatorSchema(task map[string]any) error {
	return validateAgainst(func() *jsonschema.Schema { return operatorSchema }, task)
}

func validateAgainst(schema func() *jsonschema.Schema, value map[string]any) error {
	schemaOnce.Do(compileSchemas)
	if schemaErr != nil {
		return &SchemaError{Msg: schemaErr.Error(), Err: schemaErr}
	}
	instance, err := toJSONInstance(value)
	if err != nil {
		return &SchemaError{Msg: err.Error(), Err: err}
	}
	if err := schema().Validate(instance); err != nil {
		return &SchemaError{Msg: err.Error(), Err: err}
	}
	return nil
}

// toJSONInstance round-trips a value through JSON so the validator sees plain JSON types.
func toJSONInstance(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("document is not JSON serializable: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var instance any
	if err := decoder.Decode(&instance); err != nil {
		return nil, fmt.Errorf("document is not valid JSON: %w", err)
	}
	return instance, nil
}
