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

// Package serializeddag stores serialized DAG documents and serves them over HTTP.
package serializeddag

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/system/cache"
	"github.com/asgardeo/dagserde/internal/system/error/serviceerror"
	"github.com/asgardeo/dagserde/internal/system/log"
)

const loggerComponentName = "SerializedDAGService"

// SerializedDAGServiceInterface defines the operations on stored serialized DAGs.
type SerializedDAGServiceInterface interface {
	WriteDAG(doc serialization.Document) (*SerializedDAG, bool, *serviceerror.ServiceError)
	GetDocument(dagID string) (*SerializedDAG, *serviceerror.ServiceError)
	GetDAG(dagID string) (*model.DAG, *serviceerror.ServiceError)
	ListDAGIDs() ([]string, *serviceerror.ServiceError)
	DeleteDAG(dagID string) *serviceerror.ServiceError
}

// serializedDAGService is the default implementation of SerializedDAGServiceInterface.
type serializedDAGService struct {
	store      serializedDAGStoreInterface
	serializer *serialization.Serializer
	dagCache   cache.CacheInterface[*model.DAG]
	now        func() time.Time
}

// newSerializedDAGService creates the service. Decoded DAGs handed out by GetDAG are shared
// through the cache and must not be modified.
func newSerializedDAGService(store serializedDAGStoreInterface, serializer *serialization.Serializer,
	dagCache cache.CacheInterface[*model.DAG]) SerializedDAGServiceInterface {
	return &serializedDAGService{
		store:      store,
		serializer: serializer,
		dagCache:   dagCache,
		now:        time.Now,
	}
}

// WriteDAG validates and decodes the document, encodes the DAG into its canonical text and stores
// it. It reports whether the stored text changed.
func (s *serializedDAGService) WriteDAG(doc serialization.Document) (*SerializedDAG, bool,
	*serviceerror.ServiceError) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	dag, err := s.serializer.FromDocument(doc)
	if err != nil {
		logger.Debug("Rejected serialized DAG", log.Error(err))
		return nil, false, mapSerializationError(err)
	}
	text, err := s.serializer.ToText(dag)
	if err != nil {
		logger.Debug("Failed to encode decoded DAG", log.String(log.LoggerKeyDagID, dag.DagID), log.Error(err))
		return nil, false, mapSerializationError(err)
	}

	record := &SerializedDAG{
		DagID:       dag.DagID,
		VersionID:   uuid.NewString(),
		Fileloc:     dag.Fileloc,
		DagHash:     hashText(text),
		Data:        text,
		LastUpdated: s.now().UTC(),
	}
	written, err := s.store.WriteDAG(record)
	if err != nil {
		logger.Error("Failed to store serialized DAG", log.String(log.LoggerKeyDagID, dag.DagID), log.Error(err))
		return nil, false, &ErrorInternalServerError
	}
	if !written {
		stored, err := s.store.GetDocument(dag.DagID)
		if err != nil {
			logger.Error("Failed to read unchanged serialized DAG", log.String(log.LoggerKeyDagID, dag.DagID),
				log.Error(err))
			return nil, false, &ErrorInternalServerError
		}
		return stored, false, nil
	}

	if err := s.dagCache.Set(cacheKey(record.DagID, record.DagHash), dag); err != nil {
		logger.Warn("Failed to cache decoded DAG", log.String(log.LoggerKeyDagID, dag.DagID), log.Error(err))
	}
	logger.Info("Serialized DAG stored", log.String(log.LoggerKeyDagID, record.DagID),
		log.String("versionId", record.VersionID))
	return record, true, nil
}

// GetDocument returns the stored document of a DAG.
func (s *serializedDAGService) GetDocument(dagID string) (*SerializedDAG, *serviceerror.ServiceError) {
	if strings.TrimSpace(dagID) == "" {
		return nil, &ErrorInvalidDAGID
	}

	record, err := s.store.GetDocument(dagID)
	if err != nil {
		if errors.Is(err, ErrDAGNotFound) {
			return nil, &ErrorDAGNotFound
		}
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Failed to get serialized DAG", log.String(log.LoggerKeyDagID, dagID), log.Error(err))
		return nil, &ErrorInternalServerError
	}
	return record, nil
}

// GetDAG returns the decoded DAG of a stored document, serving repeated reads of the same
// document version from the cache.
func (s *serializedDAGService) GetDAG(dagID string) (*model.DAG, *serviceerror.ServiceError) {
	record, svcErr := s.GetDocument(dagID)
	if svcErr != nil {
		return nil, svcErr
	}

	key := cacheKey(record.DagID, record.DagHash)
	if dag, ok := s.dagCache.Get(key); ok {
		return dag, nil
	}

	dag, err := s.serializer.FromText(record.Data)
	if err != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Stored serialized DAG cannot be decoded", log.String(log.LoggerKeyDagID, dagID), log.Error(err))
		return nil, ErrorInternalServerError.WithDescription(err.Error())
	}
	if err := s.dagCache.Set(key, dag); err != nil {
		log.GetLogger().Warn("Failed to cache decoded DAG", log.String(log.LoggerKeyDagID, dagID), log.Error(err))
	}
	return dag, nil
}

// ListDAGIDs returns the ids of all stored DAGs.
func (s *serializedDAGService) ListDAGIDs() ([]string, *serviceerror.ServiceError) {
	dagIDs, err := s.store.ListDAGIDs()
	if err != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Failed to list serialized DAGs", log.Error(err))
		return nil, &ErrorInternalServerError
	}
	return dagIDs, nil
}

// DeleteDAG deletes a stored DAG.
func (s *serializedDAGService) DeleteDAG(dagID string) *serviceerror.ServiceError {
	if strings.TrimSpace(dagID) == "" {
		return &ErrorInvalidDAGID
	}

	deleted, err := s.store.DeleteDAG(dagID)
	if err != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Failed to delete serialized DAG", log.String(log.LoggerKeyDagID, dagID), log.Error(err))
		return &ErrorInternalServerError
	}
	if !deleted {
		return &ErrorDAGNotFound
	}
	return nil
}

// mapSerializationError maps engine errors to the client error catalog.
func mapSerializationError(err error) *serviceerror.ServiceError {
	switch {
	case errors.Is(err, serialization.ErrUnsupportedVersion):
		return ErrorUnsupportedVersion.WithDescription(err.Error())
	case errors.Is(err, serialization.ErrSchema):
		return ErrorSchemaValidation.WithDescription(err.Error())
	case errors.Is(err, serialization.ErrResolution):
		return ErrorUnresolvedClass.WithDescription(err.Error())
	case errors.Is(err, serialization.ErrDeserialization), errors.Is(err, serialization.ErrDepthExceeded):
		return ErrorInvalidDocument.WithDescription(err.Error())
	case errors.Is(err, serialization.ErrSerialization):
		return ErrorSerializationFailed.WithDescription(err.Error())
	default:
		return &ErrorInternalServerError
	}
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func cacheKey(dagID, dagHash string) cache.CacheKey {
	return cache.CacheKey{Key: dagID + "@" + dagHash}
}
