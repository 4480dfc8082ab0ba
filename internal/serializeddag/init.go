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
	"net/http"
	"time"

	"github.com/asgardeo/dagserde/internal/dag/model"
	"github.com/asgardeo/dagserde/internal/serialization"
	"github.com/asgardeo/dagserde/internal/system/cache"
	"github.com/asgardeo/dagserde/internal/system/config"
	"github.com/asgardeo/dagserde/internal/system/database/provider"
	"github.com/asgardeo/dagserde/internal/system/middleware"
)

// Initialize creates the serialized DAG service, makes sure its table exists and registers its
// routes.
func Initialize(mux *http.ServeMux, serializer *serialization.Serializer, dbProvider provider.DBProviderInterface,
	cfg *config.Config) (SerializedDAGServiceInterface, error) {
	store := newSerializedDAGStore(dbProvider)
	if err := store.EnsureSchema(); err != nil {
		return nil, err
	}

	dagCache := cache.NewInMemoryCache[*model.DAG](!cfg.Cache.Disabled, cfg.Cache.Size,
		time.Duration(cfg.Cache.TTL)*time.Second)
	service := newSerializedDAGService(store, serializer, dagCache)
	registerRoutes(mux, newSerializedDAGHandler(service), cfg.CORS.AllowedOrigins)
	return service, nil
}

// registerRoutes registers the routes for serialized DAG operations.
func registerRoutes(mux *http.ServeMux, handler *serializedDAGHandler, allowedOrigins []string) {
	opts1 := middleware.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: "GET, POST",
		AllowedHeaders: "Content-Type, Accept",
	}
	mux.HandleFunc(middleware.WithCORS("POST /serialized-dags", handler.HandleDAGPostRequest, opts1))
	mux.HandleFunc(middleware.WithCORS("GET /serialized-dags", handler.HandleDAGListRequest, opts1))
	mux.HandleFunc(middleware.WithCORS("OPTIONS /serialized-dags",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, opts1))

	opts2 := middleware.CORSOptions{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: "GET, DELETE",
		AllowedHeaders: "Content-Type, Accept",
	}
	mux.HandleFunc(middleware.WithCORS("GET /serialized-dags/{id}", handler.HandleDAGGetRequest, opts2))
	mux.HandleFunc(middleware.WithCORS("DELETE /serialized-dags/{id}", handler.HandleDAGDeleteRequest, opts2))
	mux.HandleFunc(middleware.WithCORS("OPTIONS /serialized-dags/{id}",
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}, opts2))
}
