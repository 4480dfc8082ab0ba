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

// Package utils provides utility functions for HTTP operations.
package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/asgardeo/dagserde/internal/system/constants"
	"github.com/asgardeo/dagserde/internal/system/error/apierror"
	"github.com/asgardeo/dagserde/internal/system/log"
)

// MaxRequestBodySize is the largest request body accepted by DecodeJSONBody and ReadBody.
const MaxRequestBodySize = 10 << 20

// DecodeJSONBody decodes the JSON body of the request into a value of type T.
func DecodeJSONBody[T any](r *http.Request) (*T, error) {
	if r.Body == nil {
		return nil, errors.New("request body is empty")
	}
	var value T
	decoder := json.NewDecoder(io.LimitReader(r.Body, MaxRequestBodySize))
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to decode request body: %w", err)
	}
	return &value, nil
}

// ReadBody reads the raw request body.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("request body is empty")
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("request body is empty")
	}
	return data, nil
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set(constants.ContentTypeHeaderName, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.GetLogger().Error("Error encoding response", log.Error(err))
	}
}

// WriteJSONError writes an error response with the given details.
func WriteJSONError(w http.ResponseWriter, statusCode int, resp apierror.ErrorResponse) {
	logger := log.GetLogger()
	logger.Debug("Error in HTTP response", log.String("code", resp.Code), log.String("message", resp.Message))
	WriteJSON(w, statusCode, resp)
}
