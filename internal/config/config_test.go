package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "parcel-risk.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(10), cfg.Store.Pool.MaxConns)
	assert.Equal(t, "", cfg.Registry.ServiceKey)
	assert.Equal(t, "https://apis.data.go.kr/1613000/BldRgstHubService/getBrTitleInfo", cfg.Registry.BuildingURL)
	assert.Equal(t, "https://apis.data.go.kr/1613000", cfg.Registry.TradeBaseURL)
	assert.Equal(t, 10, cfg.Registry.TimeoutSecs)
	assert.InDelta(t, 10.0, cfg.Registry.RateLimit, 0.001)
	assert.Equal(t, "", cfg.District.SnapshotPath)
	assert.Equal(t, "auto", cfg.District.Encoding)
	assert.Equal(t, "", cfg.District.Sheet)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/parcel
registry:
  service_key: abc123
  timeout_secs: 5
district:
  snapshot_path: /data/법정동코드.zip
  encoding: euc-kr
  sheet: 법정동코드
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/parcel", cfg.Store.DatabaseURL)
	assert.Equal(t, "abc123", cfg.Registry.ServiceKey)
	assert.Equal(t, 5, cfg.Registry.TimeoutSecs)
	assert.Equal(t, "/data/법정동코드.zip", cfg.District.SnapshotPath)
	assert.Equal(t, "euc-kr", cfg.District.Encoding)
	assert.Equal(t, "법정동코드", cfg.District.Sheet)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Registry.RateLimit, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("PARCEL_STORE_DRIVER", "postgres")
	t.Setenv("PARCEL_LOG_LEVEL", "warn")
	t.Setenv("PARCEL_REGISTRY_SERVICE_KEY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.Registry.ServiceKey)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("PARCEL_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func validConfig() *Config {
	return &Config{
		Store:    StoreConfig{Driver: "sqlite", DatabaseURL: "parcel-risk.db"},
		Registry: RegistryConfig{ServiceKey: "k", TimeoutSecs: 10, RateLimit: 10},
		District: DistrictConfig{SnapshotPath: "/data/codes.zip", Encoding: "auto"},
		Server:   ServerConfig{Port: 8080},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate(ModeAnalyze))
	assert.NoError(t, cfg.Validate(ModeServe))
	assert.NoError(t, cfg.Validate(ModeLookup))
}

func TestValidate_MissingServiceKey(t *testing.T) {
	cfg := validConfig()
	cfg.Registry.ServiceKey = ""

	err := cfg.Validate(ModeAnalyze)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.service_key is required")

	assert.NoError(t, cfg.Validate(ModeLookup), "lookup makes no registry calls")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Registry.ServiceKey = ""
	cfg.Store.Driver = "mysql"
	cfg.Server.Port = 0

	err := cfg.Validate(ModeServe)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry.service_key")
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_PortOnlyCheckedForServe(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	assert.NoError(t, cfg.Validate(ModeAnalyze))
	assert.Error(t, cfg.Validate(ModeServe))
}

func TestValidate_SnapshotPathRequiredForAnalysis(t *testing.T) {
	cfg := validConfig()
	cfg.District.SnapshotPath = ""

	for _, mode := range []string{ModeAnalyze, ModeServe} {
		err := cfg.Validate(mode)
		require.Error(t, err, mode)
		assert.Contains(t, err.Error(), "district.snapshot_path is required")
	}
	assert.NoError(t, cfg.Validate(ModeLookup), "lookup falls back to the packaged sample")
}

func TestValidate_Encoding(t *testing.T) {
	cfg := validConfig()
	cfg.District.Encoding = "shift-jis"
	err := cfg.Validate(ModeLookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "district.encoding")
}

func TestValidate_UnknownMode(t *testing.T) {
	assert.Error(t, validConfig().Validate("fedsync"))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
