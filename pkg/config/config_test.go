package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("stock-service")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "development", cfg.Server.Environment)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "freshstock", cfg.Database.Database)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	assert.Equal(t, time.Hour, cfg.Scheduler.ScanInterval)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.DispatchTimeout)
	assert.True(t, cfg.Scheduler.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("FRESHSTOCK_SERVER_PORT", "9090")
	os.Setenv("FRESHSTOCK_SCHEDULER_SCAN_INTERVAL", "15m")
	defer os.Unsetenv("FRESHSTOCK_SERVER_PORT")
	defer os.Unsetenv("FRESHSTOCK_SCHEDULER_SCAN_INTERVAL")

	cfg, err := Load("stock-service")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.ScanInterval)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "freshstock",
		Password: "secret",
		Database: "freshstock",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=freshstock")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestDatabaseConfig_DSN_URLTakesPrecedence(t *testing.T) {
	cfg := DatabaseConfig{
		URL:  "postgres://app:pw@db.example.com:6432/stock?sslmode=require",
		Host: "ignored",
		Port: 5432,
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.example.com")
	assert.Contains(t, dsn, "port=6432")
	assert.Contains(t, dsn, "dbname=stock")
}

func TestDatabaseConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         DatabaseConfig
		environment string
		wantErr     bool
	}{
		{
			name:        "localhost allowed in development",
			cfg:         DatabaseConfig{Host: "localhost"},
			environment: EnvDevelopment,
			wantErr:     false,
		},
		{
			name:        "localhost rejected in production",
			cfg:         DatabaseConfig{Host: "localhost"},
			environment: EnvProduction,
			wantErr:     true,
		},
		{
			name:        "empty host rejected in production",
			cfg:         DatabaseConfig{},
			environment: EnvProduction,
			wantErr:     true,
		},
		{
			name:        "URL accepted in production",
			cfg:         DatabaseConfig{URL: "postgres://u:p@db.prod.example.com/stock"},
			environment: EnvProduction,
			wantErr:     false,
		},
		{
			name:        "explicit host accepted in staging",
			cfg:         DatabaseConfig{Host: "db.staging.internal"},
			environment: EnvStaging,
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.environment)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadWithValidation_ProductionRequiresSecrets(t *testing.T) {
	os.Setenv("FRESHSTOCK_SERVER_ENVIRONMENT", "production")
	os.Setenv("FRESHSTOCK_DATABASE_URL", "postgres://u:p@db.prod.example.com/stock?sslmode=require")
	defer os.Unsetenv("FRESHSTOCK_SERVER_ENVIRONMENT")
	defer os.Unsetenv("FRESHSTOCK_DATABASE_URL")

	// Default JWT secret must be rejected
	_, err := LoadWithValidation("stock-service")
	assert.Error(t, err)
}
