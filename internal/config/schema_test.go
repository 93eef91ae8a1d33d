package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetworkMode_BindHost(t *testing.T) {
	assert.Equal(t, "127.0.0.1", NetworkLocalhost.BindHost())
	assert.Equal(t, "0.0.0.0", NetworkLAN.BindHost())
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, NetworkLocalhost, cfg.NetworkMode)
	assert.Equal(t, defaultTokenTTL, cfg.TokenTTLSeconds)
	assert.Equal(t, defaultDataDir, cfg.DataDir)
	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, 0, cfg.MaxConnections)
}

func TestApplyDefaults_PreservesSetValues(t *testing.T) {
	cfg := &Config{
		NetworkMode:     NetworkLAN,
		Port:            9000,
		MaxConnections:  10,
		TokenTTLSeconds: 60,
		DataDir:         "/srv/diagrammer",
	}
	applyDefaults(cfg)

	assert.Equal(t, NetworkLAN, cfg.NetworkMode)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 10, cfg.MaxConnections)
	assert.Equal(t, 60, cfg.TokenTTLSeconds)
	assert.Equal(t, "/srv/diagrammer", cfg.DataDir)
}
