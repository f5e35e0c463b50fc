package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]struct {
		level zerolog.Level
		ok    bool
	}{
		"":            {zerolog.InfoLevel, false},
		"debug":       {zerolog.DebugLevel, true},
		" WARNING ":   {zerolog.WarnLevel, true},
		"diagnostics": {zerolog.TraceLevel, true},
		"off":         {zerolog.Disabled, true},
		"loud":        {zerolog.InfoLevel, false},
	}
	for raw, want := range cases {
		lvl, ok := ParseLevel(raw)
		assert.Equal(t, want.ok, ok, "raw=%q", raw)
		assert.Equal(t, want.level, lvl, "raw=%q", raw)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogBypass, "true")
	t.Setenv(EnvLogTimestamp, "not-a-bool")
	t.Setenv(EnvLogFile, "/tmp/proxywire.log")

	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)

	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.True(t, cfg.Bypass)
	assert.True(t, cfg.Timestamp, "invalid bool keeps the profile default")
	assert.Equal(t, "/tmp/proxywire.log", cfg.File.Path)
}

func TestDefaultConfigProfiles(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, DefaultConfig(ProfileTest).Level)
	assert.False(t, DefaultConfig(ProfileTest).Timestamp)
	assert.Equal(t, zerolog.InfoLevel, DefaultConfig(ProfileRuntime).Level)
}
