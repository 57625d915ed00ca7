package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "ARK_API_KEY", "ARK_MOCK", "STORYSKETCH_PROVIDER", "STORYSKETCH_ADDR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, 8, cfg.Story.StepCount)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.PlanModel)
	assert.Equal(t, 30*time.Minute, cfg.GetSessionTTL())
	assert.Equal(t, time.Duration(0), cfg.GetEditInterval())
	assert.Equal(t, 600*time.Millisecond, cfg.GetSpeechPause())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "storysketch.yaml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderArk
	cfg.Ark.APIKey = "ark-test"
	cfg.Story.StepCount = 5
	cfg.Story.EditInterval = "2s"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, loaded.Provider)
	assert.Equal(t, "ark-test", loaded.Ark.APIKey)
	assert.Equal(t, 5, loaded.Story.StepCount)
	assert.Equal(t, 2*time.Second, loaded.GetEditInterval())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "env-gemini")
	t.Setenv("ARK_MOCK", "true")
	t.Setenv("STORYSKETCH_PROVIDER", "MOCK")
	t.Setenv("STORYSKETCH_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-gemini", cfg.Gemini.APIKey)
	assert.True(t, cfg.Ark.Mock)
	assert.Equal(t, ProviderMock, cfg.Provider)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "gemini without key")

	cfg.Gemini.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = ProviderArk
	assert.Error(t, cfg.Validate())
	cfg.Ark.Mock = true
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "openai"
	assert.Error(t, cfg.Validate())

	cfg.Provider = ProviderMock
	cfg.Story.EditInterval = "soon"
	assert.Error(t, cfg.Validate())
	cfg.Story.EditInterval = ""

	cfg.Speech.Engine = "command"
	assert.Error(t, cfg.Validate())
	cfg.Speech.Command = "say"
	assert.NoError(t, cfg.Validate())

	cfg.Story.StepCount = 0
	assert.Error(t, cfg.Validate())
}

func TestInitLogging(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)
	defer logrus.SetLevel(logrus.InfoLevel)

	path := filepath.Join(t.TempDir(), "app.log")
	closer, err := InitLogging(LoggingConfig{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	logrus.WithField("step", 1).Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())

	_, err = InitLogging(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
