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

package cert

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/asgardeo/dagserde/internal/system/config"
)

type CertTestSuite struct {
	suite.Suite
	home string
}

func TestCertSuite(t *testing.T) {
	suite.Run(t, new(CertTestSuite))
}

func (suite *CertTestSuite) SetupTest() {
	suite.home = suite.T().TempDir()
}

// writeTestCertificate writes a self-signed certificate and its key under the home directory.
func (suite *CertTestSuite) writeTestCertificate(certName, keyName string) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(suite.T(), err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		DNSNames:     []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	require.NoError(suite.T(), err)
	keyDER, err := x509.MarshalECPrivateKey(privateKey)
	require.NoError(suite.T(), err)

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.home, certName), certPEM, 0o600))
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.home, keyName), keyPEM, 0o600))
}

func (suite *CertTestSuite) TestGetTLSConfig() {
	suite.writeTestCertificate("server.cert", "server.key")
	cfg := &config.Config{Security: config.SecurityConfig{CertFile: "server.cert", KeyFile: "server.key"}}

	tlsConfig, err := GetTLSConfig(cfg, suite.home)

	require.NoError(suite.T(), err)
	assert.Len(suite.T(), tlsConfig.Certificates, 1)
	assert.Equal(suite.T(), uint16(tls.VersionTLS12), tlsConfig.MinVersion)
}

func (suite *CertTestSuite) TestGetTLSConfigWithAbsolutePaths() {
	suite.writeTestCertificate("abs.cert", "abs.key")
	cfg := &config.Config{Security: config.SecurityConfig{
		CertFile: filepath.Join(suite.home, "abs.cert"),
		KeyFile:  filepath.Join(suite.home, "abs.key"),
	}}

	_, err := GetTLSConfig(cfg, "/does/not/matter")
	assert.NoError(suite.T(), err)
}

func (suite *CertTestSuite) TestGetTLSConfigErrors() {
	suite.writeTestCertificate("server.cert", "server.key")
	require.NoError(suite.T(), os.WriteFile(filepath.Join(suite.home, "broken.key"), []byte("not a key"), 0o600))

	testCases := []struct {
		name     string
		security config.SecurityConfig
		message  string
	}{
		{name: "NotConfigured", security: config.SecurityConfig{},
			message: "security.cert_file and security.key_file must be set unless server.http_only is true"},
		{name: "MissingCertificate", security: config.SecurityConfig{CertFile: "missing.cert", KeyFile: "server.key"},
			message: "certificate file not found at " + filepath.Join(suite.home, "missing.cert")},
		{name: "MissingKey", security: config.SecurityConfig{CertFile: "server.cert", KeyFile: "missing.key"},
			message: "key file not found at " + filepath.Join(suite.home, "missing.key")},
		{name: "BrokenKey", security: config.SecurityConfig{CertFile: "server.cert", KeyFile: "broken.key"},
			message: "failed to load key pair: "},
	}

	for _, tc := range testCases {
		suite.T().Run(tc.name, func(t *testing.T) {
			tlsConfig, err := GetTLSConfig(&config.Config{Security: tc.security}, suite.home)
			assert.Nil(t, tlsConfig)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}
