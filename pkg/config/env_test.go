package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	os.Setenv("FRESHSTOCK_TEST_KEY", "value")
	defer os.Unsetenv("FRESHSTOCK_TEST_KEY")

	assert.Equal(t, "value", GetEnv("FRESHSTOCK_TEST_KEY", "default"))
	assert.Equal(t, "default", GetEnv("FRESHSTOCK_TEST_MISSING", "default"))
}

func TestRequireEnv_PanicsWhenMissing(t *testing.T) {
	assert.Panics(t, func() {
		RequireEnv("FRESHSTOCK_TEST_DEFINITELY_MISSING")
	})
}

func TestGetEnvironment(t *testing.T) {
	os.Unsetenv("FRESHSTOCK_SERVER_ENVIRONMENT")
	assert.Equal(t, EnvDevelopment, GetEnvironment())
	assert.True(t, IsDevelopment())
	assert.False(t, IsProductionLike())

	os.Setenv("FRESHSTOCK_SERVER_ENVIRONMENT", "Production")
	defer os.Unsetenv("FRESHSTOCK_SERVER_ENVIRONMENT")

	assert.Equal(t, EnvProduction, GetEnvironment())
	assert.True(t, IsProduction())
	assert.True(t, IsProductionLike())
}
