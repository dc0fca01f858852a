package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  parcel_changed_topic_name: "parcel.changed"
redis:
  host: "localhost"
  port: 6379
storage:
  backend: "postgres"
  fallback: true
  dir: "./data"
  legacy_user_keys: ["systemUsers", "customers"]
parceldesk:
  http_addr: ":8080"
  seed_demo: true
  login_rate_limit_per_minute: 5
  notifier_consumer_group: "parcel-notifier"
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "parcel.changed", cfg.Kafka.ParcelChangedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "postgres", cfg.Storage.Backend)
	require.True(t, cfg.Storage.Fallback)
	require.Equal(t, []string{"systemUsers", "customers"}, cfg.Storage.LegacyUserKeys)
	require.Nil(t, cfg.Storage.LegacyParcelKeys)
	require.Equal(t, ":8080", cfg.ParcelDesk.HTTPAddr)
	require.True(t, cfg.ParcelDesk.SeedDemo)
	require.Equal(t, 5, cfg.ParcelDesk.LoginRateLimitPerMinute)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_BadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte("database: [oops"), 0o600))
	_, err := LoadConfig(p)
	require.Error(t, err)
}

func TestConnectionHelpers(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 5432, Username: "u", Password: "p", DBName: "d"}
	require.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", db.PostgresConnString())

	db.SSLMode = "require"
	require.Equal(t, "postgres://u:p@h:5432/d?sslmode=require", db.PostgresConnString())

	require.Equal(t, "r:6379", RedisConfig{Host: "r", Port: 6379}.Addr())
	require.Equal(t, []string{"k:9092"}, KafkaConfig{Host: "k", Port: 9092}.Brokers())
}

func TestLoadConfig_Example(t *testing.T) {
	cfg, err := LoadConfig("config.example.yaml")
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.Storage.Backend)
	require.Equal(t, []string{"systemParcels", "publicParcels", "swiftDeliveryParcels"}, cfg.Storage.LegacyParcelKeys)
	require.Equal(t, 30, cfg.ParcelDesk.NotifierRateLimitPerMinute)
}
