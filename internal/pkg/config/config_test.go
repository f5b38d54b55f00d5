package config

import (
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

type testConfig struct {
	Host        string        `config_default:"localhost" config_description:"Server host interface"`
	Port        int           `config_default:"8080" config_description:"Server port"`
	Temperature float32       `config_default:"0.2" config_description:"Sampling temperature"`
	StrictMoves bool          `config_default:"true" config_description:"Check model moves"`
	Timeout     time.Duration `config_default:"60s" config_description:"Model call timeout"`
	ApiKey      string        `config_description:"No default"`
	hidden      string
}

func TestParseArgsDefaults(t *testing.T) {
	appConfig := &testConfig{}
	require.NoError(t, ParseArgs(appConfig, "chester-test", nil))

	assert.Equal(t, "localhost", appConfig.Host)
	assert.Equal(t, 8080, appConfig.Port)
	assert.InDelta(t, 0.2, appConfig.Temperature, 1e-6)
	assert.True(t, appConfig.StrictMoves)
	assert.Equal(t, time.Minute, appConfig.Timeout)
	assert.Empty(t, appConfig.ApiKey)
	assert.Empty(t, appConfig.hidden)
}

func TestParseArgsEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("CHESTER_TEST_PORT", "9090")
	t.Setenv("CHESTER_TEST_STRICTMOVES", "false")
	t.Setenv("CHESTER_TEST_TIMEOUT", "5s")

	appConfig := &testConfig{}
	require.NoError(t, ParseArgs(appConfig, "chester-test", nil))

	assert.Equal(t, 9090, appConfig.Port)
	assert.False(t, appConfig.StrictMoves)
	assert.Equal(t, 5*time.Second, appConfig.Timeout)
}

func TestParseArgsFlagOverridesEnvironment(t *testing.T) {
	t.Setenv("CHESTER_TEST_PORT", "9090")

	appConfig := &testConfig{}
	require.NoError(t, ParseArgs(appConfig, "chester-test", []string{"--Port", "7070", "--Host", "0.0.0.0"}))

	assert.Equal(t, 7070, appConfig.Port)
	assert.Equal(t, "0.0.0.0", appConfig.Host)
}

func TestParseArgsRejectsBadInput(t *testing.T) {
	assert.ErrorIs(t, ParseArgs(testConfig{}, "chester-test", nil), ErrNotStructPointer)
	assert.Error(t, ParseArgs(&testConfig{}, "chester-test", []string{"--Unknown", "1"}))
	assert.ErrorIs(t, ParseArgs(&testConfig{}, "chester-test", []string{"--help"}), pflag.ErrHelp)

	type badDefault struct {
		Port int `config_default:"eighty"`
	}
	assert.Error(t, ParseArgs(&badDefault{}, "chester-test", nil))
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "CHESTER", EnvPrefix("chester"))
	assert.Equal(t, "CHESTER_CLI", EnvPrefix("chester-cli"))
}
