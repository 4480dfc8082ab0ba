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
	"mime"
	"net/http"
	"strings"

	"github.com/asgardeo/dagserde/internal/serialization"
	serverconst "github.com/asgardeo/dagserde/internal/system/constants"
	"github.com/asgardeo/dagserde/internal/system/error/apierror"
	"github.com/asgardeo/dagserde/internal/system/error/serviceerror"
	"github.com/asgardeo/dagserde/internal/system/log"
	sysutils "github.com/asgardeo/dagserde/internal/system/utils"
)

// serializedDAGHandler is the handler for serialized DAG operations.
type serializedDAGHandler struct {
	service SerializedDAGServiceInterface
}

// newSerializedDAGHandler creates a new instance of serializedDAGHandler.
func newSerializedDAGHandler(service SerializedDAGServiceInterface) *serializedDAGHandler {
	return &serializedDAGHandler{
		service: service,
	}
}

// HandleDAGPostRequest stores the JSON or YAML document in the request body.
func (h *serializedDAGHandler) HandleDAGPostRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SerializedDAGHandler"))

	body, err := sysutils.ReadBody(r)
	if err != nil {
		writeServiceErrorResponse(w, ErrorInvalidRequestFormat.WithDescription(err.Error()))
		return
	}

	var doc serialization.Document
	if isYAML(r.Header.Get(serverconst.ContentTypeHeaderName)) {
		doc, err = serialization.DecodeYAML(body)
	} else {
		doc, err = serialization.DecodeJSON(body)
	}
	if err != nil {
		logger.Debug("Failed to parse serialized DAG", log.Error(err))
		writeServiceErrorResponse(w, ErrorInvalidRequestFormat.WithDescription(err.Error()))
		return
	}

	record, written, svcErr := h.service.WriteDAG(doc)
	if svcErr != nil {
		writeServiceErrorResponse(w, svcErr)
		return
	}

	statusCode := http.StatusOK
	if written {
		statusCode = http.StatusCreated
	}
	sysutils.WriteJSON(w, statusCode, toResponse(record, written))
}

// HandleDAGListRequest lists the ids of the stored DAGs.
func (h *serializedDAGHandler) HandleDAGListRequest(w http.ResponseWriter, r *http.Request) {
	dagIDs, svcErr := h.service.ListDAGIDs()
	if svcErr != nil {
		writeServiceErrorResponse(w, svcErr)
		return
	}
	sysutils.WriteJSON(w, http.StatusOK, dagListResponse{
		TotalResults: len(dagIDs),
		DagIDs:       dagIDs,
	})
}

// HandleDAGGetRequest returns the stored document of a DAG, as YAML when the client accepts it.
func (h *serializedDAGHandler) HandleDAGGetRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SerializedDAGHandler"))

	record, svcErr := h.service.GetDocument(r.PathValue("id"))
	if svcErr != nil {
		writeServiceErrorResponse(w, svcErr)
		return
	}

	contentType := serverconst.ContentTypeJSON
	body := []byte(record.Data)
	if isYAML(r.Header.Get("Accept")) {
		doc, err := serialization.DecodeJSON(body)
		if err == nil {
			body, err = serialization.EncodeYAML(doc)
		}
		if err != nil {
			logger.Error("Failed to convert serialized DAG to YAML", log.String(log.LoggerKeyDagID, record.DagID),
				log.Error(err))
			writeServiceErrorResponse(w, &ErrorInternalServerError)
			return
		}
		contentType = serverconst.ContentTypeYAML
	}

	w.Header().Set(serverconst.ContentTypeHeaderName, contentType)
	w.Header().Set("ETag", `"`+record.DagHash+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Error("Error writing response", log.Error(err))
	}
}

// HandleDAGDeleteRequest deletes a stored DAG.
func (h *serializedDAGHandler) HandleDAGDeleteRequest(w http.ResponseWriter, r *http.Request) {
	if svcErr := h.service.DeleteDAG(r.PathValue("id")); svcErr != nil {
		writeServiceErrorResponse(w, svcErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeServiceErrorResponse writes the HTTP error response of a service error.
func writeServiceErrorResponse(w http.ResponseWriter, svcErr *serviceerror.ServiceError) {
	statusCode := http.StatusInternalServerError
	if svcErr.Type == serviceerror.ClientErrorType {
		statusCode = getClientErrorStatusCode(svcErr.Code)
	}
	sysutils.WriteJSONError(w, statusCode, apierror.ErrorResponse{
		Code:        svcErr.Code,
		Message:     svcErr.Error,
		Description: svcErr.ErrorDescription,
	})
}

// getClientErrorStatusCode returns the HTTP status code of a client error.
func getClientErrorStatusCode(errorCode string) int {
	switch errorCode {
	case ErrorDAGNotFound.Code:
		return http.StatusNotFound
	case ErrorUnresolvedClass.Code, ErrorSchemaValidation.Code, ErrorInvalidDocument.Code,
		ErrorSerializationFailed.Code:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func isYAML(headerValue string) bool {
	for _, part := range strings.Split(headerValue, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == serverconst.ContentTypeYAML || mediaType == "application/x-yaml" || mediaType == "text/yaml" {
			return true
		}
	}
	return false
}

func toResponse(record *SerializedDAG, written bool) serializedDAGResponse {
	return serializedDAGResponse{
		DagID:       record.DagID,
		VersionID:   record.VersionID,
		Fileloc:     record.Fileloc,
		DagHash:     record.DagHash,
		LastUpdated: record.LastUpdated,
		Written:     written,
	}
}
