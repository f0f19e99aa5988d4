package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.local/api/")

	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "http://backend.local/api", cfg.APIBaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Url())
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 3*time.Second, cfg.ResetWindow)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 10*time.Second, cfg.GeoTimeout)
	assert.Equal(t, "KR Puram", cfg.Assembly)
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://env.local")
	t.Setenv("PORT", "9000")

	cfg, err := Parse([]string{"-api-base-url", "http://flag.local", "-reset-window", "1s", "-host", "127.0.0.1"})
	require.NoError(t, err)

	assert.Equal(t, "http://flag.local", cfg.APIBaseURL)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, time.Second, cfg.ResetWindow)
}

func TestParseMissingBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")

	_, err := Parse(nil)
	assert.EqualError(t, err, "missing parameter -api-base-url")
}

func TestCoordinates(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend.local")

	_, err := Parse([]string{"-gps-latitude", "12.9"})
	require.Error(t, err)

	cfg, err := Parse([]string{"-gps-latitude", "12.97", "-gps-longitude", "77.59"})
	require.NoError(t, err)
	lat, lng, ok, err := cfg.Coordinates()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 12.97, lat)
	assert.Equal(t, 77.59, lng)

	cfg.Latitude = "north"
	_, _, _, err = cfg.Coordinates()
	assert.Error(t, err)

	cfg = Config{}
	_, _, ok, err = cfg.Coordinates()
	assert.NoError(t, err)
	assert.False(t, ok)
}
