package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "./generated-logins", cfg.Provisioning.ArtifactDir)
	assert.Equal(t, DuplicatePolicyChecked, cfg.Provisioning.DuplicatePolicy)
	assert.Equal(t, 12, cfg.Provisioning.StudentHashCost)
	assert.Equal(t, 10, cfg.Provisioning.SalesHashCost)
	assert.Equal(t, int64(5*1024*1024), cfg.Provisioning.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.Provisioning.MaxWait)
	assert.Equal(t, "/api/download-logins", cfg.Provisioning.DownloadBasePath)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("STORE_DRIVER", "MONGO")
	v.Set("PROVISIONING_DUPLICATE_POLICY", "Unchecked")
	v.Set("PROVISIONING_MAX_UPLOAD_BYTES", -1)
	v.Set("PROVISIONING_MAX_WAIT", "not-a-duration")
	v.Set("API_PREFIX", "/v2/")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, StoreDriverMongo, cfg.StoreDriver)
	assert.Equal(t, DuplicatePolicyUnchecked, cfg.Provisioning.DuplicatePolicy)
	assert.Equal(t, int64(5*1024*1024), cfg.Provisioning.MaxUploadBytes)
	assert.Equal(t, 30*time.Second, cfg.Provisioning.MaxWait)
	assert.Equal(t, "/v2/download-logins", cfg.Provisioning.DownloadBasePath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestUnknownPolicyFallsBackToChecked(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PROVISIONING_DUPLICATE_POLICY", "sometimes")
	v.Set("STORE_DRIVER", "sqlite")

	cfg := fromViper(v)
	assert.Equal(t, DuplicatePolicyChecked, cfg.Provisioning.DuplicatePolicy)
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
}
