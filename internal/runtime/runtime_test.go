package runtime

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
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

	"github.com/ua-stack/opcua/internal/config"
	"github.com/ua-stack/opcua/pkg/ua/security/policies"
)

func TestNewWithNonePolicyRequiresNoCertificate(t *testing.T) {
	cfg := config.Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}

	r, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Nil(t, r.ServerCertificate)
	assert.True(t, r.AllowsPolicy(policies.NoneURI))
	assert.False(t, r.AllowsPolicy(policies.Basic256Sha256URI))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.ListenAddress = ""

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNextChannelIDSkipsZeroAndIncrements(t *testing.T) {
	cfg := config.Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}

	r, err := New(context.Background(), cfg)
	require.NoError(t, err)

	first := r.NextChannelID()
	second := r.NextChannelID()
	assert.NotZero(t, first)
	assert.Equal(t, first+1, second)
}

func TestNewLoadsServerCertificateWhenSecurePolicyConfigured(t *testing.T) {
	certPath, keyPath := writeSelfSignedCert(t)

	cfg := config.Default()
	cfg.SecurityPolicies = []string{policies.Basic256Sha256URI}
	cfg.Certificate.CertPath = certPath
	cfg.Certificate.KeyPath = keyPath

	r, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, r.ServerCertificate)
	assert.True(t, r.AllowsPolicy(policies.Basic256Sha256URI))
	require.Len(t, r.Policies(), 1)
	assert.Equal(t, policies.Basic256Sha256URI, r.Policies()[0].URI)
}

func TestShutdownWithoutTelemetryIsNoOp(t *testing.T) {
	cfg := config.Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}

	r, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, r.Shutdown(context.Background()))
}

// writeSelfSignedCert generates a throwaway self-signed certificate
// and key pair for Runtime construction tests that need
// tls.LoadX509KeyPair to succeed.
func writeSelfSignedCert(t *testing.T) (certPath, keyPath string) {
	t.Helper()
	dir := t.TempDir()
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")

	certPEM, keyPEM := generateSelfSignedPEM(t)
	require.NoError(t, os.WriteFile(certPath, certPEM, 0o644))
	require.NoError(t, os.WriteFile(keyPath, keyPEM, 0o600))
	return certPath, keyPath
}

func generateSelfSignedPEM(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "opcuad-test"},
		NotBefore:    now.Add(-time.Hour),
		NotAfter:     now.Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM
}
