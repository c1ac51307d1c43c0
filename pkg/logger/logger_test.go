package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testApp = config.AppConfig{Name: "medix-api", Version: "1.2.3", Environment: "test"}

func TestNew_JSONCarriesServiceFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	log, err := New(config.LogConfig{Level: "info", Format: "json", OutputPath: path}, testApp)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("patient created")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "exactly one JSON line expected")
	assert.Equal(t, "patient created", entry["msg"])
	assert.Equal(t, "medix-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "test", entry["env"])
}

func TestNew_RejectsBadSettings(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"}, testApp)
	assert.Error(t, err)

	_, err = New(config.LogConfig{Level: "info", Format: "xml", OutputPath: "stdout"}, testApp)
	assert.Error(t, err)
}
