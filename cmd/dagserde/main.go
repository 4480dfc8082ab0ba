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

// Package main is the entry point of the dagserde command line tool and server.
package main

import (
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	_ "time/tzdata"

	"github.com/asgardeo/dagserde/internal/serializeddag"
	"github.com/asgardeo/dagserde/internal/system/cert"
	"github.com/asgardeo/dagserde/internal/system/config"
	"github.com/asgardeo/dagserde/internal/system/constants"
	"github.com/asgardeo/dagserde/internal/system/database/provider"
	"github.com/asgardeo/dagserde/internal/system/log"
)

const usage = `Usage: dagserde <command> [flags] [file]

Commands:
  validate   Check that a serialized DAG document decodes
  roundtrip  Decode a document and print its canonical JSON text
  convert    Convert a document between JSON and YAML
  serve      Start the serialized DAG HTTP server
`

func main() {
	logger := log.GetLogger()
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:], os.Stdout)
	case "roundtrip":
		err = runRoundtrip(os.Args[2:], os.Stdout)
	case "convert":
		err = runConvert(os.Args[2:], os.Stdout)
	case "serve":
		runServe(logger, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runServe loads the server configuration and serves the HTTP API until the server stops.
func runServe(logger *log.Logger, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	homeFlag := fs.String("dagserdeHome", "", "Path to the dagserde home directory")
	_ = fs.Parse(args)

	dagserdeHome := getDagserdeHome(logger, *homeFlag)
	cfg := initDagserdeConfigurations(logger, dagserdeHome)

	mux := initMultiplexer(logger, cfg)
	if cfg.Server.HTTPOnly {
		logger.Info("TLS is not enabled, starting server without TLS")
		startHTTPServer(logger, cfg, mux)
	} else {
		startTLSServer(logger, cfg, mux, dagserdeHome)
	}
}

// getDagserdeHome returns the home directory from the flag, the environment or the working directory.
func getDagserdeHome(logger *log.Logger, homeFlag string) string {
	if homeFlag != "" {
		logger.Info("Using dagserdeHome from command line argument", log.String("dagserdeHome", homeFlag))
		return homeFlag
	}
	if home := os.Getenv(constants.HomeEnvironmentVariable); home != "" {
		logger.Info("Using dagserdeHome from environment", log.String("dagserdeHome", home))
		return home
	}

	dir, err := os.Getwd()
	if err != nil {
		logger.Fatal("Failed to get current working directory", log.Error(err))
	}
	return dir
}

// initDagserdeConfigurations loads the configurations and initializes the runtime.
func initDagserdeConfigurations(logger *log.Logger, dagserdeHome string) *config.Config {
	configFilePath := path.Join(dagserdeHome, "repository/conf/deployment.yaml")
	cfg, err := config.LoadConfig(configFilePath)
	if err != nil {
		logger.Fatal("Failed to load configurations", log.Error(err))
	}

	if err := config.InitializeDagserdeRuntime(dagserdeHome, cfg); err != nil {
		logger.Fatal("Failed to initialize dagserde runtime", log.Error(err))
	}
	return cfg
}

// initMultiplexer creates the HTTP multiplexer and registers the services.
func initMultiplexer(logger *log.Logger, cfg *config.Config) *http.ServeMux {
	serializer, err := newSerializer(cfg.Serialization)
	if err != nil {
		logger.Fatal("Failed to create the DAG serializer", log.Error(err))
	}

	mux := http.NewServeMux()
	if _, err := serializeddag.Initialize(mux, serializer, provider.GetDBProvider(), cfg); err != nil {
		logger.Fatal("Failed to initialize the serialized DAG service", log.Error(err))
	}
	return mux
}

// startTLSServer starts the HTTPS server.
func startTLSServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux, dagserdeHome string) {
	server, serverAddr := createHTTPServer(logger, cfg, mux)

	tlsConfig, err := cert.GetTLSConfig(cfg, dagserdeHome)
	if err != nil {
		logger.Fatal("Failed to load TLS configuration", log.Error(err))
	}
	ln, err := tls.Listen("tcp", serverAddr, tlsConfig)
	if err != nil {
		logger.Fatal("Failed to start TLS listener", log.Error(err))
	}

	logger.Info("dagserde server started (HTTPS)", log.String("address", serverAddr))
	if err := server.Serve(ln); err != nil {
		logger.Fatal("Failed to serve requests", log.Error(err))
	}
}

// startHTTPServer starts the HTTP server without TLS.
func startHTTPServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) {
	server, serverAddr := createHTTPServer(logger, cfg, mux)

	logger.Info("dagserde server started (HTTP)", log.String("address", serverAddr))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("Failed to serve HTTP requests", log.Error(err))
	}
}

// createHTTPServer creates an HTTP server that logs every request.
func createHTTPServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) (*http.Server, string) {
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           log.AccessLogHandler(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return server, serverAddr
}

// closeQuietly closes c and logs a failure.
func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		log.GetLogger().Warn("Failed to close file", log.Error(err))
	}
}
