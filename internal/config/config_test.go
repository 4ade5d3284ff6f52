package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CLINIC_JWT_SECRET", "env-secret-that-is-long-enough-for-hs256")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.Expiry)
	assert.False(t, cfg.Scheduling.RevalidateOnUpdate)
	assert.Equal(t, []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}, cfg.Scheduling.SlotGrid)
	assert.Equal(t, "env-secret-that-is-long-enough-for-hs256", cfg.JWT.Secret)
}

func TestLoadConfigFileAndSecretOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
database:
  driver: memory
  password: from-file
jwt:
  secret: file-secret-that-is-long-enough-for-hs256
scheduling:
  revalidate_on_update: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	t.Setenv("CLINIC_DATABASE_PASSWORD", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "file-secret-that-is-long-enough-for-hs256", cfg.JWT.Secret)
	assert.True(t, cfg.Scheduling.RevalidateOnUpdate)
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := Config{
		JWT:        JWTConfig{Secret: "x"},
		Database:   DatabaseConfig{Driver: "mongo"},
		Scheduling: SchedulingConfig{SlotGrid: []string{"09:00"}},
	}
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "clinic", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=clinic sslmode=disable", d.DSN())
}
