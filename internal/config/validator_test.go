package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_ValidConfig(t *testing.T) {
	cfg := &Config{
		NetworkMode:     NetworkLocalhost,
		Port:            8080,
		MaxConnections:  50,
		TokenTTLSeconds: 3600,
	}
	assert.NoError(t, NewValidator().Validate(cfg))
}

func TestValidator_InvalidNetworkMode(t *testing.T) {
	cfg := &Config{NetworkMode: "bogus"}
	err := NewValidator().Validate(cfg)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Error(), "networkMode")
}

func TestValidator_PortOutOfRange(t *testing.T) {
	cfg := &Config{Port: 70000}
	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestValidator_NegativeTokenTTL(t *testing.T) {
	cfg := &Config{TokenTTLSeconds: -1}
	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokenTtl")
}

func TestValidator_PartialBootstrapRejected(t *testing.T) {
	cfg := &Config{Bootstrap: BootstrapAdmin{Username: "alice"}}
	err := NewValidator().Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrapAdmin")
}

func TestValidator_FullBootstrapAccepted(t *testing.T) {
	cfg := &Config{Bootstrap: BootstrapAdmin{Username: "alice", Password: "hunter22"}}
	assert.NoError(t, NewValidator().Validate(cfg))
}
