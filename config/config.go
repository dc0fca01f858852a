package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	ParcelDesk ParcelDeskConfig `yaml:"parceldesk"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                   string `yaml:"host"`
	Port                   int    `yaml:"port"`
	ParcelChangedTopicName string `yaml:"parcel_changed_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects where the users/parcels blobs live.
type StorageConfig struct {
	// Backend: "file" | "redis" | "postgres". Empty means "file".
	Backend string `yaml:"backend"`

	// Fallback keeps a local file copy and switches to it when the remote backend fails.
	Fallback bool   `yaml:"fallback"`
	Dir      string `yaml:"dir"`

	UsersKey   string `yaml:"users_key"`
	ParcelsKey string `yaml:"parcels_key"`

	LegacyUserKeys   []string `yaml:"legacy_user_keys"`
	LegacyParcelKeys []string `yaml:"legacy_parcel_keys"`

	// MigratedKey is set once the legacy keys were merged; later loads skip them.
	MigratedKey string `yaml:"migrated_key"`
}

type ParcelDeskConfig struct {
	HTTPAddr                string `yaml:"http_addr"`
	SeedDemo                bool   `yaml:"seed_demo"`
	LoginRateLimitPerMinute int    `yaml:"login_rate_limit_per_minute"`

	NotifierHTTPAddr           string `yaml:"notifier_http_addr"`
	NotifierConsumerGroup      string `yaml:"notifier_consumer_group"`
	NotifierRateLimitPerMinute int    `yaml:"notifier_rate_limit_per_minute"`

	// Empty webhook URL means notifications are only logged.
	NotifierWebhookURL    string `yaml:"notifier_webhook_url"`
	NotifierWebhookAPIKey string `yaml:"notifier_webhook_api_key"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// PostgresConnString builds a pgx connection string; ssl_mode defaults to "disable".
func (c DatabaseConfig) PostgresConnString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, c.Password, c.Host, c.Port, c.DBName, sslMode)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", c.Host, c.Port)}
}
