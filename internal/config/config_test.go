package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ua-stack/opcua/pkg/ua/security/policies"
)

func TestLoadNoConfigFileReturnsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	nonExistent := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0:4840", cfg.ListenAddress)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Contains(t, cfg.SecurityPolicies, policies.Basic256Sha256URI)
}

func TestLoadAppliesFileOverridesOnTopOfDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
listen_address: "127.0.0.1:4840"
logging:
  level: "DEBUG"
security_policies:
  - "http://opcfoundation.org/UA/SecurityPolicy#None"
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4840", cfg.ListenAddress)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, []string{policies.NoneURI}, cfg.SecurityPolicies)
	// Unset fields still fall back to defaults.
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestValidateRejectsEmptyListenAddress(t *testing.T) {
	cfg := Default()
	cfg.ListenAddress = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownSecurityPolicy(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = []string{"http://example.com/bogus"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptySecurityPolicyList(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = nil
	assert.Error(t, cfg.Validate())
}

func TestValidatePassesWithNoneOnlyAndNoCertificate(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresCertificateForSecurePolicies(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = []string{policies.Basic256Sha256URI}
	cfg.Certificate.CertPath = ""
	cfg.Certificate.KeyPath = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateAcceptsCertificateFilesThatExist(t *testing.T) {
	tmpDir := t.TempDir()
	certPath := filepath.Join(tmpDir, "cert.pem")
	keyPath := filepath.Join(tmpDir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("cert"), 0o644))
	require.NoError(t, os.WriteFile(keyPath, []byte("key"), 0o600))

	cfg := Default()
	cfg.SecurityPolicies = []string{policies.Basic256Sha256URI}
	cfg.Certificate.CertPath = certPath
	cfg.Certificate.KeyPath = keyPath

	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsInvalidLoggingLevel(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}
	cfg.Logging.Level = "TRACE"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeSampleRate(t *testing.T) {
	cfg := Default()
	cfg.SecurityPolicies = []string{policies.NoneURI}
	cfg.Telemetry.SampleRate = 1.5
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfigPathHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	assert.Equal(t, "/tmp/xdg-test/opcuad/config.yaml", DefaultConfigPath())
}
